package cmd

import (
	"sync"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/events"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/logging"
)

// monitor tallies background outcomes from the event bus.
type monitor struct {
	ch     <-chan events.Event
	bus    *events.EventBus
	logger *logging.Logger

	mu     sync.Mutex
	counts map[string]int
}

func newMonitor(bus *events.EventBus, logger *logging.Logger) *monitor {
	return &monitor{
		ch: bus.SubscribePriority(
			events.TypeTaskCompleted,
			events.TypeTaskFailed,
			events.TypeRefinementFailed,
		),
		bus:    bus,
		logger: logger,
		counts: make(map[string]int),
	}
}

// run consumes events until the bus is closed.
func (m *monitor) run() {
	for e := range m.ch {
		m.mu.Lock()
		m.counts[e.EventType()]++
		m.mu.Unlock()

		if failed, ok := e.(events.TaskFailedEvent); ok && failed.Retryable {
			m.logger.WithIssue(failed.IssueID()).Warn("jira update failed with a transient error and was not retried",
				"task_id", failed.TaskID,
				"category", failed.Category,
			)
		}
	}
}

func (m *monitor) snapshot() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}

func (m *monitor) logSummary() {
	counts := m.snapshot()
	m.logger.Info("background task summary",
		"completed", counts[events.TypeTaskCompleted],
		"failed", counts[events.TypeTaskFailed],
		"refinement_failed", counts[events.TypeRefinementFailed],
		"dropped_events", m.bus.DroppedCount(),
	)
}
