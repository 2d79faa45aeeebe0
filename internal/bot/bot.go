// Package bot is the event-routing core of the relay: it deduplicates
// inbound chat events, keeps per-channel conversation context against the
// answer service, and dispatches backlog digests to background workers.
package bot

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	slackapi "github.com/slack-go/slack"

	"dify-relay/internal/conversation"
	"dify-relay/internal/dify"
	"dify-relay/internal/eventcache"
	"dify-relay/internal/jira"
)

// MessageEvent is one delivery of a mention or message. ID identifies the
// delivery (the platform's event_ts) and drives deduplication.
type MessageEvent struct {
	ID          string
	Channel     string
	User        string
	Text        string
	ChannelType string
}

// Answerer is the conversational answer service.
type Answerer interface {
	Send(ctx context.Context, query, conversationID string) (dify.Reply, error)
}

// Sender posts plain text to a chat channel.
type Sender interface {
	SendMessage(channel, text string) error
}

// DigestSender delivers the formatted backlog digest.
type DigestSender interface {
	PostDigest(msg *slackapi.WebhookMessage) error
}

// IssueSearcher queries the issue tracker.
type IssueSearcher interface {
	Search(jql string, maxResults int) ([]jira.Issue, error)
}

// TaskRunner schedules fire-and-forget background work.
type TaskRunner interface {
	Go(name string, fn func(ctx context.Context))
}

type Bot struct {
	cache     *eventcache.Cache
	convs     *conversation.Registry
	answerer  Answerer
	sender    Sender
	tracker   IssueSearcher
	webhook   DigestSender
	tasks     TaskRunner
	botUserID string
}

func New(cache *eventcache.Cache, convs *conversation.Registry, answerer Answerer,
	sender Sender, tracker IssueSearcher, webhook DigestSender, tasks TaskRunner,
	botUserID string) *Bot {
	return &Bot{
		cache:     cache,
		convs:     convs,
		answerer:  answerer,
		sender:    sender,
		tracker:   tracker,
		webhook:   webhook,
		tasks:     tasks,
		botUserID: botUserID,
	}
}

// HandleAppMention processes one app_mention delivery.
func (b *Bot) HandleAppMention(ctx context.Context, ev MessageEvent) {
	if b.cache.Seen(ev.ID) {
		return
	}
	if ev.User == b.botUserID {
		return
	}
	b.relay(ctx, ev, true)
}

// HandleDirectMessage processes one message delivery. Conversation context
// is only persisted for im-type channels; group and channel messages get an
// answer but do not accumulate context.
func (b *Bot) HandleDirectMessage(ctx context.Context, ev MessageEvent) {
	if b.cache.Seen(ev.ID) {
		return
	}
	if ev.User == b.botUserID {
		return
	}
	b.relay(ctx, ev, ev.ChannelType == "im")
}

// relay performs the conversation round trip: registry lookup, blocking
// answer-service call, registry update on success, reply to the channel.
// No lock is held across the remote call; concurrent messages on one
// channel race last-write-wins on the stored token.
func (b *Bot) relay(ctx context.Context, ev MessageEvent, persistContext bool) {
	token := b.convs.Get(ev.Channel)

	reply, err := b.answerer.Send(ctx, ev.Text, token)
	if err != nil {
		log.Errorf("dify call failed for channel %s: %v", ev.Channel, err)
		b.send(ev.Channel, "Error contacting Dify: request failed")
		return
	}
	if !reply.OK() {
		b.send(ev.Channel, fmt.Sprintf("Error contacting Dify: %d", reply.StatusCode))
		return
	}

	if persistContext {
		b.convs.Set(ev.Channel, reply.ConversationID)
	}
	b.send(ev.Channel, "Response from Dify: "+reply.Answer)
}

func (b *Bot) send(channel, text string) {
	if err := b.sender.SendMessage(channel, text); err != nil {
		log.Errorf("failed to send message to %s: %v", channel, err)
	}
}
