package bot

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"dify-relay/internal/conversation"
	"dify-relay/internal/eventcache"
	"dify-relay/internal/jira"
	"dify-relay/internal/worker"
)

func TestBacklogCommandAcknowledgesAndSchedules(t *testing.T) {
	f := newFixture(okReply("", ""), nil)
	f.tracker.issues = []jira.Issue{{Key: "ALPHA-1", Summary: "x", Status: "0 Backlog"}}

	body, status := f.bot.HandleBacklogCommand("C1", "proyecto: ALPHA tareas: 10")

	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(body, "ALPHA") || !strings.Contains(body, "10") {
		t.Fatalf("ack does not name project and count: %q", body)
	}
	if f.runner.scheduled != 1 {
		t.Fatalf("expected one scheduled task, got %d", f.runner.scheduled)
	}
	if len(f.tracker.calls) != 1 || f.tracker.calls[0] != "project = ALPHA" {
		t.Fatalf("unexpected tracker calls: %+v", f.tracker.calls)
	}
	if len(f.webhook.posted) != 1 {
		t.Fatalf("digest not delivered: %d", len(f.webhook.posted))
	}
	// The ack is also posted to the originating channel.
	if len(f.sender.sent) != 1 || f.sender.sent[0].channel != "C1" {
		t.Fatalf("ack not posted to channel: %+v", f.sender.sent)
	}
}

func TestBacklogCommandKeywordsAreCaseInsensitive(t *testing.T) {
	f := newFixture(okReply("", ""), nil)

	_, status := f.bot.HandleBacklogCommand("C1", "Proyecto: BETA Tareas: 5")

	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if f.runner.scheduled != 1 {
		t.Fatalf("task not scheduled")
	}
}

func TestBacklogCommandRejectsNonNumericCount(t *testing.T) {
	f := newFixture(okReply("", ""), nil)

	body, status := f.bot.HandleBacklogCommand("C1", "proyecto: ALPHA tareas: ten")

	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if !strings.Contains(body, "Numero de tareas invalido") {
		t.Fatalf("expected numeric-format message, got %q", body)
	}
	if f.runner.scheduled != 0 {
		t.Fatalf("background work scheduled for invalid command")
	}
}

func TestBacklogCommandRejectsNonPositiveCount(t *testing.T) {
	f := newFixture(okReply("", ""), nil)

	_, status := f.bot.HandleBacklogCommand("C1", "proyecto: ALPHA tareas: 0")

	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if f.runner.scheduled != 0 {
		t.Fatalf("background work scheduled for zero count")
	}
}

func TestBacklogCommandRejectsShortInput(t *testing.T) {
	f := newFixture(okReply("", ""), nil)

	body, status := f.bot.HandleBacklogCommand("C1", "proyecto: ALPHA")

	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if !strings.Contains(body, "Formato Invalido") {
		t.Fatalf("expected usage message, got %q", body)
	}
	if f.runner.scheduled != 0 {
		t.Fatalf("background work scheduled for short command")
	}
}

func TestBacklogCommandRejectsWrongKeywords(t *testing.T) {
	f := newFixture(okReply("", ""), nil)

	_, status := f.bot.HandleBacklogCommand("C1", "project: ALPHA tasks: 10")

	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if f.runner.scheduled != 0 {
		t.Fatalf("background work scheduled for keyword mismatch")
	}
}

// blockingTracker parks Search until released, so the test can observe the
// acknowledgement returning while the fetch is still in flight.
type blockingTracker struct {
	entered chan struct{}
	release chan struct{}
	issues  []jira.Issue
}

func (bt *blockingTracker) Search(jql string, maxResults int) ([]jira.Issue, error) {
	close(bt.entered)
	<-bt.release
	return bt.issues, nil
}

func TestAcknowledgementDoesNotWaitForTracker(t *testing.T) {
	sender := &fakeSender{}
	webhook := &fakeWebhook{}
	tracker := &blockingTracker{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		issues:  []jira.Issue{{Key: "ALPHA-1", Summary: "x", Status: "0 Backlog"}},
	}
	pool := worker.NewPool()
	b := New(eventcache.New(100), conversation.NewRegistry(), &fakeAnswerer{},
		sender, tracker, webhook, pool, "BOT-1")

	done := make(chan int, 1)
	go func() {
		_, status := b.HandleBacklogCommand("C1", "proyecto: ALPHA tareas: 10")
		done <- status
	}()

	select {
	case status := <-done:
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
	case <-time.After(time.Second):
		t.Fatalf("acknowledgement blocked on the tracker call")
	}

	// The fetch is genuinely in flight, then completes independently.
	select {
	case <-tracker.entered:
	case <-time.After(time.Second):
		t.Fatalf("background fetch never started")
	}
	close(tracker.release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := pool.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if len(webhook.posted) != 1 {
		t.Fatalf("digest not delivered after release: %d", len(webhook.posted))
	}
}
