package scheduler

import "context"

// Job is a unit of background work the scheduler can run on a cron spec or on demand.
type Job interface {
	// Name identifies the job in logs and RunJobByName.
	Name() string

	// Schedule is a standard five-field cron spec. Empty means on-demand only.
	Schedule() string

	Execute(ctx context.Context) error
}
