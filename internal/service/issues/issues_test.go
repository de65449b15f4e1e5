package issues

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/core"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/events"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/tasks"
)

type fakeRefiner struct {
	mu    sync.Mutex
	calls [][2]string
	text  func(summary, description string) string
	err   error
}

func (f *fakeRefiner) Refine(_ context.Context, summary, description string) (core.Refinement, error) {
	f.mu.Lock()
	f.calls = append(f.calls, [2]string{summary, description})
	f.mu.Unlock()
	if f.err != nil {
		return core.Refinement{}, f.err
	}
	text := "refined"
	if f.text != nil {
		text = f.text(summary, description)
	}
	return core.Refinement{Text: text, Model: "gpt-3.5-turbo", FinishReason: "stop"}, nil
}

type fakeTracker struct {
	mu           sync.Mutex
	descriptions map[string]string
	writes       []string
	getErr       error
	updateErr    error
	// gate, when set, is consulted before each write and may block it.
	gate func(description string)
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{descriptions: map[string]string{"10001": "Old text"}}
}

func (f *fakeTracker) GetIssue(_ context.Context, id string) (*core.TrackedIssue, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	desc, ok := f.descriptions[id]
	if !ok {
		return nil, core.ErrNotFound("jira issue", id)
	}
	return &core.TrackedIssue{ID: id, Key: "PROJ-1", Description: desc}, nil
}

func (f *fakeTracker) UpdateDescription(_ context.Context, id, description string) error {
	if f.gate != nil {
		f.gate(description)
	}
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.descriptions[id] = description
	f.writes = append(f.writes, description)
	return nil
}

func (f *fakeTracker) description(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.descriptions[id]
}

func payload(id int64, summary, description string) core.IssueData {
	return core.IssueData{Issue: core.Issue{
		ID: id,
		Fields: core.IssueFields{
			Summary:     summary,
			Description: description,
			Project:     core.Project{ID: 1, Key: "PROJ", Name: "Project"},
		},
	}}
}

func waitTask(t *testing.T, task *tasks.Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
}

func TestComposeDescription(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Do X, \n Original description:\n Old text", ComposeDescription("Do X", "Old text"))
	assert.Equal(t, "Do X", ComposeDescription("Do X", ""))
	assert.Equal(t, ", \n Original description:\n Old", ComposeDescription("", "Old"))
}

func TestSystemPrompt(t *testing.T) {
	t.Parallel()

	for _, want := range []string{"Behaviour Driven Development", "TBD", "'Must' and 'Will'", "Gherkin", "subtasks"} {
		assert.Contains(t, SystemPrompt, want)
	}
}

func TestSystemPrompt_WordingUnchanged(t *testing.T) {
	t.Parallel()

	assert.Contains(t, SystemPrompt, "Alert of any detail that can be missed. \nAlert of any possible bad practice\nDo any possible")
	assert.Contains(t, SystemPrompt, "possible regressions, bot using natural language and using Gherkin.")
	assert.True(t, strings.HasPrefix(SystemPrompt, "As a Behaviour Driven Development agile software team"))
	assert.True(t, strings.HasSuffix(SystemPrompt, "Add potential subtasks if any."))
}

func TestUpdater_Update(t *testing.T) {
	t.Parallel()

	tracker := newFakeTracker()
	u := NewUpdater(tracker, nil)

	err := u.Update(context.Background(), UpdateRequest{IssueID: "10001", Generated: "Do X", Original: "Old text"})
	require.NoError(t, err)
	assert.Equal(t, "Do X, \n Original description:\n Old text", tracker.description("10001"))
}

func TestUpdater_EmptyOriginalWritesVerbatim(t *testing.T) {
	t.Parallel()

	tracker := newFakeTracker()
	u := NewUpdater(tracker, nil)

	require.NoError(t, u.Update(context.Background(), UpdateRequest{IssueID: "10001", Generated: "Do X"}))
	assert.Equal(t, "Do X", tracker.description("10001"))
}

func TestUpdater_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing issue", func(t *testing.T) {
		tracker := newFakeTracker()
		err := NewUpdater(tracker, nil).Update(context.Background(), UpdateRequest{IssueID: "404", Generated: "x"})
		require.Error(t, err)
		assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
		assert.Contains(t, err.Error(), "fetching issue 404")
		assert.Empty(t, tracker.writes)
	})

	t.Run("update rejected", func(t *testing.T) {
		tracker := newFakeTracker()
		tracker.updateErr = core.ErrAuth(core.CodeUpstreamAuth, "bad credentials")
		err := NewUpdater(tracker, nil).Update(context.Background(), UpdateRequest{IssueID: "10001", Generated: "x"})
		require.Error(t, err)
		assert.True(t, core.IsCategory(err, core.ErrCatAuth))
		assert.Equal(t, "Old text", tracker.description("10001"))
	})
}

func TestIntake_SubmitSchedulesUpdate(t *testing.T) {
	t.Parallel()

	refiner := &fakeRefiner{text: func(s, d string) string { return "Refined " + s }}
	tracker := newFakeTracker()
	runner := tasks.NewRunner(tasks.Options{})
	intake := NewIntake(refiner, NewUpdater(tracker, nil), runner, nil, nil)

	task, err := intake.Submit(context.Background(), payload(10001, "Login", "Old text"))
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "10001", task.Spec.IssueID)
	assert.Equal(t, tasks.KindJiraUpdate, task.Spec.Kind)

	waitTask(t, task)
	require.NoError(t, task.Err())

	assert.Equal(t, [][2]string{{"Login", "Old text"}}, refiner.calls)
	assert.Equal(t, "Refined Login, \n Original description:\n Old text", tracker.description("10001"))
}

func TestIntake_ReturnsBeforeUpdateFinishes(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	tracker := newFakeTracker()
	tracker.gate = func(string) { <-release }

	runner := tasks.NewRunner(tasks.Options{})
	intake := NewIntake(&fakeRefiner{}, NewUpdater(tracker, nil), runner, nil, nil)

	task, err := intake.Submit(context.Background(), payload(10001, "s", ""))
	require.NoError(t, err)

	select {
	case <-task.Done():
		t.Fatal("update should still be blocked")
	default:
	}
	assert.Equal(t, "Old text", tracker.description("10001"))

	close(release)
	waitTask(t, task)
	assert.Equal(t, "refined", tracker.description("10001"))
}

func TestIntake_RefinementFailureSchedulesNothing(t *testing.T) {
	t.Parallel()

	bus := events.New(10)
	defer bus.Close()
	failures := bus.Subscribe(events.TypeRefinementFailed)

	refiner := &fakeRefiner{err: core.ErrRateLimit("slow down")}
	tracker := newFakeTracker()
	runner := tasks.NewRunner(tasks.Options{})
	intake := NewIntake(refiner, NewUpdater(tracker, nil), runner, bus, nil)

	task, err := intake.Submit(context.Background(), payload(10001, "s", "d"))
	require.Error(t, err)
	assert.Nil(t, task)
	assert.True(t, core.IsCategory(err, core.ErrCatRateLimit))

	require.NoError(t, runner.Wait(context.Background()))
	assert.Empty(t, tracker.writes)
	assert.Equal(t, "Old text", tracker.description("10001"))

	select {
	case e := <-failures:
		failed := e.(events.RefinementFailedEvent)
		assert.Equal(t, "10001", failed.IssueID())
		assert.Equal(t, "rate_limit", failed.Category)
	case <-time.After(time.Second):
		t.Fatal("expected refinement_failed event")
	}
}

func TestIntake_RefinerErrorIsReturnedNotWritten(t *testing.T) {
	t.Parallel()

	refiner := &fakeRefiner{err: errors.New("connection reset")}
	tracker := newFakeTracker()
	intake := NewIntake(refiner, NewUpdater(tracker, nil), tasks.NewRunner(tasks.Options{}), nil, nil)

	_, err := intake.Submit(context.Background(), payload(10001, "s", "d"))
	require.Error(t, err)
	assert.Empty(t, tracker.writes)
}

// Overlapping deliveries for one issue are not serialized: the write that
// completes last determines the final description.
func TestIntake_OverlappingUpdatesLastCompletedWins(t *testing.T) {
	t.Parallel()

	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})

	tracker := newFakeTracker()
	tracker.gate = func(description string) {
		if description == "first" {
			close(firstEntered)
			<-releaseFirst
		}
	}

	texts := map[string]string{"one": "first", "two": "second"}
	refiner := &fakeRefiner{text: func(s, _ string) string { return texts[s] }}
	runner := tasks.NewRunner(tasks.Options{})
	intake := NewIntake(refiner, NewUpdater(tracker, nil), runner, nil, nil)

	first, err := intake.Submit(context.Background(), payload(10001, "one", ""))
	require.NoError(t, err)
	<-firstEntered

	second, err := intake.Submit(context.Background(), payload(10001, "two", ""))
	require.NoError(t, err)
	waitTask(t, second)
	assert.Equal(t, "second", tracker.description("10001"))

	close(releaseFirst)
	waitTask(t, first)

	require.NoError(t, first.Err())
	require.NoError(t, second.Err())
	assert.Equal(t, []string{"second", "first"}, tracker.writes)
	assert.Equal(t, "first", tracker.description("10001"))
}
