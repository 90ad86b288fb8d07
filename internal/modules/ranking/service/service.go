package ranking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"anoa.com/communitywealth/internal/entity"
	community "anoa.com/communitywealth/internal/modules/community/service"
	"anoa.com/communitywealth/internal/modules/ranking/dto"
	"anoa.com/communitywealth/internal/modules/ranking/repository"
	search "anoa.com/communitywealth/internal/modules/search/service"
	status "anoa.com/communitywealth/internal/modules/status/service"
	"anoa.com/communitywealth/pkg/apperror"
	"github.com/google/uuid"
)

type Service interface {
	// Search runs the whole pipeline for a community link under a fresh run id.
	Search(ctx context.Context, link string) (*dto.RankingResult, error)
	Run(ctx context.Context, runID uuid.UUID, link string) (*dto.RankingResult, error)
	// Refresh re-runs the last completed query.
	Refresh(ctx context.Context) (*dto.RankingResult, error)
	PreviousLink(ctx context.Context) (string, error)
	LastQuery(ctx context.Context) (*dto.LastQuery, error)
	History(ctx context.Context, limit int) ([]dto.RunSummary, error)
	RunDetail(ctx context.Context, id uuid.UUID) (*dto.RunDetail, error)
	SearchMembers(ctx context.Context, query string, limit int) ([]search.MemberHit, error)
}

type rankingService struct {
	communities community.Service
	aggregator  *Aggregator
	lastQuery   repository.LastQueryRepository
	history     repository.HistoryRepository
	index       search.MemberIndex
	sink        status.Sink
}

// NewRankingService wires the pipeline. history and index may be nil.
func NewRankingService(
	communities community.Service,
	aggregator *Aggregator,
	lastQuery repository.LastQueryRepository,
	history repository.HistoryRepository,
	index search.MemberIndex,
	sink status.Sink,
) Service {
	if sink == nil {
		sink = status.Discard
	}
	return &rankingService{
		communities: communities,
		aggregator:  aggregator,
		lastQuery:   lastQuery,
		history:     history,
		index:       index,
		sink:        sink,
	}
}

// runSink stamps every status with the run it belongs to.
func (s *rankingService) runSink(runID uuid.UUID, communityID *int64) status.Sink {
	return status.SinkFunc(func(ctx context.Context, st status.Status) {
		st.RunID = runID
		st.CommunityID = *communityID
		if st.At.IsZero() {
			st.At = time.Now()
		}
		s.sink.Publish(ctx, st)
	})
}

func (s *rankingService) Search(ctx context.Context, link string) (*dto.RankingResult, error) {
	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	return s.Run(ctx, runID, link)
}

func (s *rankingService) Run(ctx context.Context, runID uuid.UUID, link string) (*dto.RankingResult, error) {
	var communityID int64
	sink := s.runSink(runID, &communityID)
	publish := func(phase status.Phase, msg string) {
		sink.Publish(ctx, status.Status{Phase: phase, Message: msg})
	}

	id, ok := community.ExtractCommunityID(link)
	if !ok {
		publish(status.PhaseInvalidLink, status.MsgInvalidLink)
		return nil, apperror.ErrInvalidLink
	}
	communityID = id
	startedAt := time.Now()

	publish(status.PhaseValidating, status.MsgValidating)
	if !s.communities.ValidateCommunity(ctx, id) {
		publish(status.PhaseInvalidCommunity, status.MsgInvalidCommunity)
		return nil, fmt.Errorf("%w: %d", apperror.ErrInvalidCommunity, id)
	}

	publish(status.PhaseFetching, status.MsgFetching)
	members, err := s.communities.EnumerateMembers(ctx, id)
	if err != nil {
		publish(status.PhaseFetchFailed, status.MsgFetchFailed)
		return nil, err
	}

	publish(status.PhaseCalculating, status.FetchedMessage(len(members)))
	entries, err := s.aggregator.Rank(ctx, members, sink)
	if err != nil {
		publish(status.PhaseFailed, status.MsgCancelled)
		return nil, fmt.Errorf("rank community %d: %w", id, err)
	}

	if err := s.lastQuery.Save(ctx, id, entries); err != nil {
		publish(status.PhaseFailed, status.MsgSaveFailed)
		return nil, fmt.Errorf("save last query: %w", err)
	}

	result := &dto.RankingResult{
		RunID:       runID,
		CommunityID: id,
		Entries:     entries,
		StartedAt:   startedAt,
		FinishedAt:  time.Now(),
	}
	s.record(ctx, result)

	publish(status.PhaseCompleted, status.CompletedMessage(len(entries)))
	return result, nil
}

// record stores the run in history and the search index. Failures are logged only.
func (s *rankingService) record(ctx context.Context, result *dto.RankingResult) {
	if s.history != nil {
		run := toRunEntity(result)
		if err := s.history.Create(ctx, run); err != nil {
			log.Printf("Failed to save ranking run %s: %v", result.RunID, err)
		}
	}
	if s.index != nil {
		if err := s.index.IndexRanking(result.CommunityID, result.Entries); err != nil {
			log.Printf("Failed to index ranking run %s: %v", result.RunID, err)
		}
	}
}

func (s *rankingService) PreviousLink(ctx context.Context) (string, error) {
	id, err := s.lastQuery.LastCommunityID(ctx)
	if err != nil {
		return "", err
	}
	return community.CommunityLink(id), nil
}

func (s *rankingService) Refresh(ctx context.Context) (*dto.RankingResult, error) {
	link, err := s.PreviousLink(ctx)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, link)
}

func (s *rankingService) LastQuery(ctx context.Context) (*dto.LastQuery, error) {
	return s.lastQuery.Load(ctx)
}

func (s *rankingService) History(ctx context.Context, limit int) ([]dto.RunSummary, error) {
	if s.history == nil {
		return nil, fmt.Errorf("%w: run history needs DATABASE_URL", apperror.ErrFeatureDisabled)
	}
	runs, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.RunSummary, 0, len(runs))
	for i := range runs {
		summaries = append(summaries, toRunSummary(&runs[i]))
	}
	return summaries, nil
}

func (s *rankingService) RunDetail(ctx context.Context, id uuid.UUID) (*dto.RunDetail, error) {
	if s.history == nil {
		return nil, fmt.Errorf("%w: run history needs DATABASE_URL", apperror.ErrFeatureDisabled)
	}
	run, err := s.history.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &dto.RunDetail{
		RunSummary: toRunSummary(run),
		Entries:    make([]dto.RankedEntry, 0, len(run.Entries)),
	}
	for _, e := range run.Entries {
		detail.Entries = append(detail.Entries, dto.RankedEntry{Username: e.Username, UserID: e.UserID, Wealth: e.Wealth})
	}
	return detail, nil
}

func (s *rankingService) SearchMembers(ctx context.Context, query string, limit int) ([]search.MemberHit, error) {
	if s.index == nil {
		return nil, fmt.Errorf("%w: member search needs MEILISEARCH_HOST", apperror.ErrFeatureDisabled)
	}
	id, err := s.lastQuery.LastCommunityID(ctx)
	if err != nil {
		return nil, err
	}
	hits, err := s.index.SearchMembers(id, query, limit)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []search.MemberHit{}
	}
	return hits, nil
}

func toRunEntity(result *dto.RankingResult) *entity.RankingRun {
	run := &entity.RankingRun{
		ID:          result.RunID,
		CommunityID: result.CommunityID,
		MemberCount: len(result.Entries),
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
		Entries:     make([]entity.RankingEntry, 0, len(result.Entries)),
	}
	for i, e := range result.Entries {
		run.TotalWealth += e.Wealth
		run.Entries = append(run.Entries, entity.RankingEntry{
			Position: i + 1,
			UserID:   e.UserID,
			Username: e.Username,
			Wealth:   e.Wealth,
		})
	}
	return run
}

func toRunSummary(run *entity.RankingRun) dto.RunSummary {
	return dto.RunSummary{
		ID:          run.ID,
		CommunityID: run.CommunityID,
		MemberCount: run.MemberCount,
		TotalWealth: run.TotalWealth,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
	}
}

// IsUserError reports whether err comes from bad input rather than a failure.
func IsUserError(err error) bool {
	return errors.Is(err, apperror.ErrInvalidLink) ||
		errors.Is(err, apperror.ErrInvalidCommunity) ||
		errors.Is(err, apperror.ErrNoPreviousQuery)
}
