package pipeline

import (
	"log/slog"
	"sync"
)

// Stage names a unit of reported work.
type Stage string

const (
	// StageChunk counts chunks evaluated by parts.
	StageChunk Stage = "chunk"

	// StageFactor counts terms of the left factor expanded against the
	// right one.
	StageFactor Stage = "factor"

	// StageCheckpoint counts checkpoint chunks folded into a run's
	// accumulator.
	StageCheckpoint Stage = "checkpoint"
)

// Progress reports that Done of Total units of a stage have finished.
type Progress struct {
	Stage Stage
	Done  int
	Total int
}

// progress aggregates worker reports. Workers call advance; one goroutine
// logs each report and forwards it to the caller's channel, dropping
// reports the caller is not ready for.
type progress struct {
	mu   sync.Mutex
	done map[Stage]int

	events   chan Progress
	finished chan struct{}
}

func startProgress(out chan<- Progress) *progress {
	p := &progress{
		done:     make(map[Stage]int),
		events:   make(chan Progress, 64),
		finished: make(chan struct{}),
	}

	go func() {
		defer close(p.finished)
		for ev := range p.events {
			slog.Debug("progress", "stage", ev.Stage, "done", ev.Done, "total", ev.Total)
			if out == nil {
				continue
			}
			select {
			case out <- ev:
			default:
			}
		}
	}()
	return p
}

// advance records one finished unit of stage out of total.
func (p *progress) advance(stage Stage, total int) {
	p.mu.Lock()
	p.done[stage]++
	ev := Progress{Stage: stage, Done: p.done[stage], Total: total}
	p.mu.Unlock()

	p.events <- ev
}

// stop drains pending reports and waits for the aggregator to exit.
func (p *progress) stop() {
	close(p.events)
	<-p.finished
}
