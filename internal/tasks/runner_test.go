package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/core"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/events"
)

func waitDone(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("task %s did not finish", task.ID)
	}
}

func nextEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

func TestRunner_Success(t *testing.T) {
	t.Parallel()

	bus := events.New(10)
	defer bus.Close()
	ch := bus.Subscribe()

	r := NewRunner(Options{Bus: bus})
	task := r.Go(context.Background(), Spec{Kind: KindJiraUpdate, IssueID: "10001"}, func(ctx context.Context) error {
		return nil
	})

	waitDone(t, task)
	require.NoError(t, task.Err())
	assert.NotEmpty(t, task.ID)

	started := nextEvent(t, ch)
	assert.Equal(t, events.TypeTaskStarted, started.EventType())
	assert.Equal(t, "10001", started.IssueID())

	completed := nextEvent(t, ch)
	require.Equal(t, events.TypeTaskCompleted, completed.EventType())
	assert.Equal(t, task.ID, completed.(events.TaskCompletedEvent).TaskID)
}

func TestRunner_Failure(t *testing.T) {
	t.Parallel()

	bus := events.New(10)
	defer bus.Close()
	ch := bus.Subscribe(events.TypeTaskFailed)

	r := NewRunner(Options{Bus: bus})
	want := core.ErrNotFound("issue", "10001")
	task := r.Go(context.Background(), Spec{Kind: KindJiraUpdate, IssueID: "10001"}, func(ctx context.Context) error {
		return want
	})

	waitDone(t, task)
	assert.ErrorIs(t, task.Err(), want)

	failed := nextEvent(t, ch).(events.TaskFailedEvent)
	assert.Equal(t, "not_found", failed.Category)
	assert.Contains(t, failed.Error, "issue not found")
}

func TestRunner_RecoversPanic(t *testing.T) {
	t.Parallel()

	r := NewRunner(Options{})
	task := r.Go(context.Background(), Spec{Kind: KindJiraUpdate}, func(ctx context.Context) error {
		panic("boom")
	})

	waitDone(t, task)
	require.Error(t, task.Err())
	assert.Contains(t, task.Err().Error(), "task panicked: boom")
	assert.Equal(t, 0, r.InFlight())
}

func TestRunner_DetachedFromCallerCancellation(t *testing.T) {
	t.Parallel()

	type key struct{}
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "kept"))

	release := make(chan struct{})
	r := NewRunner(Options{})
	task := r.Go(ctx, Spec{Kind: KindJiraUpdate}, func(ctx context.Context) error {
		<-release
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if ctx.Value(key{}) != "kept" {
			return errors.New("context value lost")
		}
		return nil
	})

	cancel()
	close(release)

	waitDone(t, task)
	assert.NoError(t, task.Err())
}

func TestRunner_Timeout(t *testing.T) {
	t.Parallel()

	r := NewRunner(Options{Timeout: 20 * time.Millisecond})
	task := r.Go(context.Background(), Spec{Kind: KindJiraUpdate}, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	waitDone(t, task)
	assert.ErrorIs(t, task.Err(), context.DeadlineExceeded)
}

func TestRunner_ErrBeforeDoneIsNil(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	r := NewRunner(Options{})
	task := r.Go(context.Background(), Spec{Kind: KindJiraUpdate}, func(ctx context.Context) error {
		<-release
		return errors.New("late")
	})

	assert.NoError(t, task.Err())
	assert.Equal(t, 1, r.InFlight())

	close(release)
	waitDone(t, task)
	assert.EqualError(t, task.Err(), "late")
}

func TestRunner_WaitDrains(t *testing.T) {
	t.Parallel()

	r := NewRunner(Options{})
	var finished [3]bool
	for i := range finished {
		i := i
		r.Go(context.Background(), Spec{Kind: KindJiraUpdate}, func(ctx context.Context) error {
			time.Sleep(10 * time.Millisecond)
			finished[i] = true
			return nil
		})
	}

	require.NoError(t, r.Wait(context.Background()))
	assert.Equal(t, [3]bool{true, true, true}, finished)
	assert.Equal(t, 0, r.InFlight())

	late := r.Go(context.Background(), Spec{Kind: KindJiraUpdate}, func(ctx context.Context) error {
		t.Error("closed runner must not run tasks")
		return nil
	})
	waitDone(t, late)
	assert.ErrorIs(t, late.Err(), ErrRunnerClosed)
}

func TestRunner_WaitHonorsContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	r := NewRunner(Options{})
	r.Go(context.Background(), Spec{Kind: KindJiraUpdate}, func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "1 background tasks")
}
