package ranking

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	communityDto "anoa.com/communitywealth/internal/modules/community/dto"
	"anoa.com/communitywealth/internal/modules/ranking/dto"
	status "anoa.com/communitywealth/internal/modules/status/service"
)

type mockEstimator struct {
	wealth map[int64]int64
	jitter bool
	calls  atomic.Int32
	onCall func(n int32)
}

func (m *mockEstimator) EstimateWealth(_ context.Context, userID int64) int64 {
	n := m.calls.Add(1)
	if m.onCall != nil {
		m.onCall(n)
	}
	if m.jitter {
		time.Sleep(time.Duration(rand.IntN(3)) * time.Millisecond)
	}
	return m.wealth[userID]
}

func members(n int) []communityDto.Member {
	out := make([]communityDto.Member, n)
	for i := range out {
		out[i] = communityDto.Member{UserID: int64(i + 1), Username: string(rune('a' + i%26))}
	}
	return out
}

func TestRankIsStableDescendingPermutation(t *testing.T) {
	ms := members(6)
	est := &mockEstimator{wealth: map[int64]int64{1: 10000, 2: 50000, 3: 10000, 4: 0, 5: 50000, 6: 0}}
	agg := NewAggregator(est, 1)

	got, err := agg.Rank(context.Background(), ms, nil)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != len(ms) {
		t.Fatalf("expected %d entries, got %d", len(ms), len(got))
	}

	wantIDs := []int64{2, 5, 1, 3, 4, 6}
	for i, id := range wantIDs {
		if got[i].UserID != id {
			t.Errorf("position %d: expected user %d, got %d", i, id, got[i].UserID)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Wealth < got[i].Wealth {
			t.Errorf("not descending at %d: %d < %d", i, got[i-1].Wealth, got[i].Wealth)
		}
	}
	if calls := est.calls.Load(); calls != 6 {
		t.Errorf("expected 6 estimates, got %d", calls)
	}
}

func TestRankEmpty(t *testing.T) {
	agg := NewAggregator(&mockEstimator{}, 1)
	got, err := agg.Rank(context.Background(), nil, nil)
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty ranking, got %v, %v", got, err)
	}
}

func TestRankSequentialProgress(t *testing.T) {
	sink := &recordingSink{}
	agg := NewAggregator(&mockEstimator{}, 1)

	if _, err := agg.Rank(context.Background(), members(3), sink); err != nil {
		t.Fatalf("Rank: %v", err)
	}
	want := []string{"Processing 1/3 users...", "Processing 2/3 users...", "Processing 3/3 users..."}
	got := sink.messages()
	if len(got) != len(want) {
		t.Fatalf("unexpected progress %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("progress %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRankWorkersMatchSequential(t *testing.T) {
	ms := members(40)
	values := make(map[int64]int64)
	for _, m := range ms {
		values[m.UserID] = int64(m.UserID%4) * 10000
	}

	sequential, err := NewAggregator(&mockEstimator{wealth: values}, 1).Rank(context.Background(), ms, nil)
	if err != nil {
		t.Fatalf("sequential Rank: %v", err)
	}

	sink := &recordingSink{}
	var inFlight, peak atomic.Int32
	est := &mockEstimator{wealth: values, jitter: true}
	est.onCall = func(int32) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
	}

	concurrent, err := NewAggregator(est, 4).Rank(context.Background(), ms, sink)
	if err != nil {
		t.Fatalf("concurrent Rank: %v", err)
	}

	for i := range sequential {
		if sequential[i] != concurrent[i] {
			t.Fatalf("position %d differs: %+v vs %+v", i, sequential[i], concurrent[i])
		}
	}
	if p := peak.Load(); p > 4 {
		t.Errorf("expected at most 4 concurrent estimates, saw %d", p)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.statuses) != len(ms) {
		t.Fatalf("expected %d progress updates, got %d", len(ms), len(sink.statuses))
	}
	for i, s := range sink.statuses {
		if s.Current != i+1 || s.Total != len(ms) || s.Phase != status.PhaseProgress {
			t.Errorf("progress %d = %d/%d (%s)", i, s.Current, s.Total, s.Phase)
		}
	}
}

func TestRankStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ms := members(5)
	est := &mockEstimator{wealth: map[int64]int64{1: 10000, 2: 20000, 3: 30000, 4: 40000, 5: 50000}}
	est.onCall = func(n int32) {
		if n == 2 {
			cancel()
		}
	}

	got, err := NewAggregator(est, 1).Rank(ctx, ms, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(got) != len(ms) {
		t.Fatalf("expected %d entries, got %d", len(ms), len(got))
	}
	if calls := est.calls.Load(); calls != 2 {
		t.Errorf("expected 2 estimates, got %d", calls)
	}

	var zero int
	for _, e := range got {
		if e.Wealth == 0 {
			zero++
		}
	}
	if zero != 3 {
		t.Errorf("expected 3 unestimated members, got %d", zero)
	}
}

func TestSortByWealthKeepsTies(t *testing.T) {
	entries := []dto.RankedEntry{{Username: "x", Wealth: 1}, {Username: "y", Wealth: 2}, {Username: "z", Wealth: 1}}
	SortByWealth(entries)
	if entries[0].Username != "y" || entries[1].Username != "x" || entries[2].Username != "z" {
		t.Errorf("unexpected order %v", entries)
	}
}

