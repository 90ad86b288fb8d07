package status

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Phase string

const (
	PhaseInvalidLink      Phase = "invalid_link"
	PhaseValidating       Phase = "validating"
	PhaseInvalidCommunity Phase = "invalid_community"
	PhaseFetching         Phase = "fetching_members"
	PhaseFetchFailed      Phase = "fetch_failed"
	PhaseCalculating      Phase = "calculating"
	PhaseProgress         Phase = "progress"
	PhaseCompleted        Phase = "completed"
	PhaseFailed           Phase = "failed"
)

const (
	MsgInvalidLink      = "Invalid community link."
	MsgValidating       = "Validating community..."
	MsgInvalidCommunity = "Invalid community ID"
	MsgFetching         = "Fetching members..."
	MsgFetchFailed      = "Error occurred while fetching data."
	MsgCancelled        = "Search cancelled."
	MsgSaveFailed       = "Error occurred while saving results."
)

func FetchedMessage(n int) string {
	return fmt.Sprintf("Fetched %d members. Calculating wealth...", n)
}

func ProgressMessage(current, total int) string {
	return fmt.Sprintf("Processing %d/%d users...", current, total)
}

func CompletedMessage(n int) string {
	return fmt.Sprintf("Completed. Displaying top %d members.", n)
}

// Status is one human-readable observation of a run.
type Status struct {
	RunID       uuid.UUID `json:"run_id"`
	CommunityID int64     `json:"community_id,omitempty"`
	Phase       Phase     `json:"phase"`
	Message     string    `json:"message"`
	Current     int       `json:"current,omitempty"`
	Total       int       `json:"total,omitempty"`
	At          time.Time `json:"at"`
}

// Sink receives status observations. Publish must not block for long and
// never fails the caller.
type Sink interface {
	Publish(ctx context.Context, s Status)
}

type SinkFunc func(ctx context.Context, s Status)

func (f SinkFunc) Publish(ctx context.Context, s Status) { f(ctx, s) }

type multiSink []Sink

// Multi fans a status out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Publish(ctx context.Context, s Status) {
	for _, sink := range m {
		sink.Publish(ctx, s)
	}
}

var Discard Sink = SinkFunc(func(context.Context, Status) {})
