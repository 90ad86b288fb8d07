package ranking

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	community "anoa.com/communitywealth/internal/modules/community/service"
	"anoa.com/communitywealth/internal/modules/ranking/dto"
	"anoa.com/communitywealth/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Runner executes searches in the background so HTTP handlers and cron jobs
// can return at once. At most one run per community is in flight.
type Runner struct {
	svc         Service
	redisClient *redis.Client
	cooldown    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[int64]uuid.UUID
}

func NewRunner(svc Service, redisClient *redis.Client, cooldown time.Duration) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		svc:         svc,
		redisClient: redisClient,
		cooldown:    cooldown,
		ctx:         ctx,
		cancel:      cancel,
		inflight:    make(map[int64]uuid.UUID),
	}
}

// Submit starts a search for link. A link without a community id fails
// synchronously with apperror.ErrInvalidLink. A community that is already
// running returns the running ticket.
func (r *Runner) Submit(ctx context.Context, link string) (*dto.RunTicket, error) {
	id, ok := community.ExtractCommunityID(link)
	if !ok {
		// Publishes the invalid-link status without touching the network.
		_, err := r.svc.Search(ctx, link)
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if runID, busy := r.inflight[id]; busy {
		return &dto.RunTicket{RunID: runID, CommunityID: id, Running: true}, nil
	}

	allowed, err := CheckAndSetCooldown(ctx, r.redisClient, id, r.cooldown)
	if err != nil {
		return nil, err
	}
	if !allowed {
		ttl, _ := GetCooldownTTL(ctx, r.redisClient, id)
		return nil, apperror.New(http.StatusTooManyRequests,
			"search cooldown",
			fmt.Errorf("%w: community %d can be searched again in %s", apperror.ErrRateLimitExceeded, id, ttl.Round(time.Second)))
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	r.inflight[id] = runID

	r.wg.Add(1)
	go r.execute(runID, id, link)

	return &dto.RunTicket{RunID: runID, CommunityID: id}, nil
}

// Refresh submits the last completed query again.
func (r *Runner) Refresh(ctx context.Context) (*dto.RunTicket, error) {
	link, err := r.svc.PreviousLink(ctx)
	if err != nil {
		return nil, err
	}
	return r.Submit(ctx, link)
}

func (r *Runner) execute(runID uuid.UUID, communityID int64, link string) {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		delete(r.inflight, communityID)
		r.mu.Unlock()
	}()

	result, err := r.svc.Run(r.ctx, runID, link)
	if err != nil {
		if IsUserError(err) {
			log.Printf("Run %s for community %d rejected: %v", runID, communityID, err)
		} else {
			log.Printf("❌ Run %s for community %d failed: %v", runID, communityID, err)
		}
		// Failed runs release the cooldown.
		if err := ClearCooldown(context.Background(), r.redisClient, communityID); err != nil {
			log.Printf("Failed to clear search cooldown: %v", err)
		}
		return
	}
	log.Printf("✅ Run %s ranked %d members of community %d", runID, len(result.Entries), communityID)
}

// Running reports the in-flight run for a community, if any.
func (r *Runner) Running(communityID int64) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	runID, ok := r.inflight[communityID]
	return runID, ok
}

// Wait blocks until every submitted run has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown cancels in-flight runs and waits for them, or for ctx to end.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
