package scheduler

import (
	"context"
	"errors"
	"log"

	"anoa.com/communitywealth/internal/modules/ranking/dto"
	"anoa.com/communitywealth/pkg/apperror"
)

type Refresher interface {
	Refresh(ctx context.Context) (*dto.RunTicket, error)
}

// RefreshJob re-ranks the last searched community.
type RefreshJob struct {
	refresher Refresher
	schedule  string
}

func NewRefreshJob(refresher Refresher, schedule string) *RefreshJob {
	return &RefreshJob{refresher: refresher, schedule: schedule}
}

func (j *RefreshJob) Name() string { return "refresh-last-community" }

func (j *RefreshJob) Schedule() string { return j.schedule }

func (j *RefreshJob) Execute(ctx context.Context) error {
	ticket, err := j.refresher.Refresh(ctx)
	if errors.Is(err, apperror.ErrNoPreviousQuery) {
		log.Printf("[%s] nothing searched yet, skipping", j.Name())
		return nil
	}
	if err != nil {
		return err
	}
	if ticket.Running {
		log.Printf("[%s] community %d already running as %s", j.Name(), ticket.CommunityID, ticket.RunID)
		return nil
	}
	log.Printf("[%s] started run %s for community %d", j.Name(), ticket.RunID, ticket.CommunityID)
	return nil
}
