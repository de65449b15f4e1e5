// Package issues turns incoming Jira webhooks into refined descriptions: the
// model is asked synchronously and the write-back runs in the background.
package issues

import (
	"context"
	"encoding/json"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/core"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/events"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/logging"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/tasks"
)

// Scheduler runs work after the request has been answered.
type Scheduler interface {
	Go(ctx context.Context, spec tasks.Spec, fn tasks.Func) *tasks.Task
}

// Intake handles one webhook delivery.
type Intake struct {
	refiner   core.Refiner
	updater   *Updater
	scheduler Scheduler
	bus       *events.EventBus
	logger    *logging.Logger
}

// NewIntake creates an intake. bus may be nil.
func NewIntake(refiner core.Refiner, updater *Updater, scheduler Scheduler, bus *events.EventBus, logger *logging.Logger) *Intake {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Intake{
		refiner:   refiner,
		updater:   updater,
		scheduler: scheduler,
		bus:       bus,
		logger:    logger,
	}
}

// Submit asks the model to refine the issue and schedules the write-back.
// It returns as soon as the update is scheduled. When the model call fails
// nothing is scheduled and the classified error is returned.
func (in *Intake) Submit(ctx context.Context, data core.IssueData) (*tasks.Task, error) {
	issueID := data.IssueKey()
	logger := in.logger.WithIssue(issueID)
	in.logPayload(logger, data)

	fields := data.Issue.Fields
	refinement, err := in.refiner.Refine(ctx, fields.Summary, fields.Description)
	if err != nil {
		category := core.GetCategory(err)
		logger.Error("refinement failed", "category", category, "error", err)
		if in.bus != nil {
			in.bus.Publish(events.NewRefinementFailedEvent(issueID, err, string(category)))
		}
		return nil, err
	}

	req := UpdateRequest{
		IssueID:   issueID,
		Generated: refinement.Text,
		Original:  fields.Description,
	}
	task := in.scheduler.Go(ctx, tasks.Spec{Kind: tasks.KindJiraUpdate, IssueID: issueID}, func(ctx context.Context) error {
		return in.updater.Update(ctx, req)
	})

	logger.Info("jira update scheduled",
		"task_id", task.ID,
		"model", refinement.Model,
		"finish_reason", refinement.FinishReason,
	)
	return task, nil
}

func (in *Intake) logPayload(logger *logging.Logger, data core.IssueData) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	logger.Info("issue received", "payload", in.logger.Sanitizer().SanitizeMap(payload))
}
