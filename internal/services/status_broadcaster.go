package services

import (
	"context"
	"sync"
	"time"

	"vanbiz/internal/dataprocessing"
	"vanbiz/pkg/contracts/events"
)

// SnapshotBroadcaster receives the full state of a run after every change.
type SnapshotBroadcaster interface {
	BroadcastSnapshot(ctx context.Context, snapshot events.RunSnapshot)
}

// runTracker folds stage events into a RunSnapshot and broadcasts the whole
// snapshot on every transition, so clients never merge partial updates.
type runTracker struct {
	mu          sync.Mutex
	snapshot    events.RunSnapshot
	index       map[string]int
	broadcaster SnapshotBroadcaster
	now         func() time.Time
}

func newRunTracker(broadcaster SnapshotBroadcaster, now func() time.Time) *runTracker {
	started := now().UTC()
	t := &runTracker{
		snapshot: events.RunSnapshot{
			Status:    events.StatusPending,
			Stages:    make([]events.StageSnapshot, len(dataprocessing.Stages)),
			StartedAt: started,
			UpdatedAt: started,
		},
		index:       make(map[string]int, len(dataprocessing.Stages)),
		broadcaster: broadcaster,
		now:         now,
	}
	for i, name := range dataprocessing.Stages {
		t.snapshot.Stages[i] = events.StageSnapshot{Name: name, Status: events.StatusPending}
		t.index[name] = i
	}
	return t
}

// ReportStage implements dataprocessing.ProgressReporter.
func (t *runTracker) ReportStage(ctx context.Context, ev dataprocessing.StageEvent) {
	t.update(ctx, func(s *events.RunSnapshot) {
		s.RunID = ev.RunID
		s.CurrentStage = ev.Stage

		if i, ok := t.index[ev.Stage]; ok {
			stage := &s.Stages[i]
			stage.Status = ev.Status
			stage.RowsIn = ev.Stats.RowsIn
			stage.RowsOut = ev.Stats.RowsOut
			if ev.Err != nil {
				stage.Error = ev.Err.Error()
			}
		}

		switch ev.Status {
		case events.StatusFailed:
			s.Status = events.StatusFailed
			if ev.Err != nil {
				s.Error = ev.Err.Error()
			}
		default:
			s.Status = events.StatusRunning
		}
		s.Progress = completedPercent(s.Stages)
	})
}

// finish marks the run completed or failed and sends the final snapshot.
func (t *runTracker) finish(ctx context.Context, err error) events.RunSnapshot {
	return t.update(ctx, func(s *events.RunSnapshot) {
		done := t.now().UTC()
		s.CompletedAt = &done
		if err != nil {
			s.Status = events.StatusFailed
			s.Error = err.Error()
			return
		}
		s.Status = events.StatusCompleted
		s.Progress = 100
	})
}

func (t *runTracker) current() events.RunSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copySnapshot(t.snapshot)
}

func (t *runTracker) update(ctx context.Context, fn func(*events.RunSnapshot)) events.RunSnapshot {
	t.mu.Lock()
	fn(&t.snapshot)
	t.snapshot.UpdatedAt = t.now().UTC()
	out := copySnapshot(t.snapshot)
	t.mu.Unlock()

	if t.broadcaster != nil {
		t.broadcaster.BroadcastSnapshot(ctx, out)
	}
	return out
}

func copySnapshot(s events.RunSnapshot) events.RunSnapshot {
	s.Stages = append([]events.StageSnapshot(nil), s.Stages...)
	return s
}

func completedPercent(stages []events.StageSnapshot) int {
	if len(stages) == 0 {
		return 0
	}
	done := 0
	for _, s := range stages {
		if s.Status == events.StatusCompleted {
			done++
		}
	}
	return done * 100 / len(stages)
}
