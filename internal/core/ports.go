// Package core holds the webhook payload model, the ports the relay depends on,
// and the categorized errors shared by every layer.
package core

import "context"

// =============================================================================
// Refiner Port (chat completion)
// =============================================================================

// Refinement is the successful outcome of a refinement query.
type Refinement struct {
	// Text is the model output, verbatim.
	Text string

	// Model is the model that produced Text, as reported by the provider.
	Model string

	// FinishReason is the provider's stop reason for the first choice.
	FinishReason string
}

// Refiner turns an issue summary and description into refined issue text.
//
// Failures are returned as *DomainError so callers can branch on the category
// instead of inspecting the text.
type Refiner interface {
	Refine(ctx context.Context, summary, description string) (Refinement, error)
}

// =============================================================================
// IssueTracker Port (Jira)
// =============================================================================

// IssueTracker reads and patches issues in the tracking system.
type IssueTracker interface {
	// GetIssue fetches an issue by id or key.
	GetIssue(ctx context.Context, idOrKey string) (*TrackedIssue, error)

	// UpdateDescription overwrites the description field of an issue.
	UpdateDescription(ctx context.Context, idOrKey, description string) error
}
