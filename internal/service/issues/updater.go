package issues

import (
	"context"
	"fmt"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/core"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/logging"
)

// UpdateRequest is the input of a background Jira update.
type UpdateRequest struct {
	IssueID   string
	Generated string
	Original  string
}

// Updater writes refinements back to the tracker.
type Updater struct {
	tracker core.IssueTracker
	logger  *logging.Logger
}

// NewUpdater creates an updater.
func NewUpdater(tracker core.IssueTracker, logger *logging.Logger) *Updater {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Updater{tracker: tracker, logger: logger}
}

// Update fetches the issue to make sure it exists, then replaces its
// description with the generated text followed by the original one.
func (u *Updater) Update(ctx context.Context, req UpdateRequest) error {
	issue, err := u.tracker.GetIssue(ctx, req.IssueID)
	if err != nil {
		return fmt.Errorf("fetching issue %s: %w", req.IssueID, err)
	}

	description := ComposeDescription(req.Generated, req.Original)
	if err := u.tracker.UpdateDescription(ctx, req.IssueID, description); err != nil {
		return fmt.Errorf("updating issue %s: %w", req.IssueID, err)
	}

	u.logger.WithIssue(req.IssueID).Info("issue description updated",
		"key", issue.Key,
		"description", description,
	)
	return nil
}
