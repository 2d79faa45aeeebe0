// Package server is the HTTP delivery layer: it receives Slack event
// callbacks and the backlog slash command and hands them to the router.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"dify-relay/internal/bot"
)

type Server struct {
	engine        *gin.Engine
	bot           *bot.Bot
	tasks         bot.TaskRunner
	signingSecret string
}

func New(b *bot.Bot, tasks bot.TaskRunner, signingSecret string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(requestLogger(), gin.Recovery())

	s := &Server{engine: engine, bot: b, tasks: tasks, signingSecret: signingSecret}
	engine.POST("/slack/events", s.handleEvents)
	engine.POST("/tareas-jira", s.handleBacklogCommand)
	return s
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Run(addr string) error {
	log.Printf("listening on %s", addr)
	return s.engine.Run(addr)
}

// handleEvents verifies, parses and acknowledges one Events API delivery.
// Event processing happens on the worker pool so the acknowledgement stays
// inside Slack's retry window; redeliveries are absorbed by the dedup cache.
func (s *Server) handleEvents(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "unreadable body")
		return
	}

	if s.signingSecret != "" {
		verifier, err := slackapi.NewSecretsVerifier(c.Request.Header, s.signingSecret)
		if err != nil {
			c.String(http.StatusBadRequest, "bad signature headers")
			return
		}
		if _, err := verifier.Write(body); err != nil {
			c.String(http.StatusInternalServerError, "verification failed")
			return
		}
		if err := verifier.Ensure(); err != nil {
			c.String(http.StatusUnauthorized, "signature mismatch")
			return
		}
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		c.String(http.StatusBadRequest, "unparseable event")
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var cr slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &cr); err != nil {
			c.String(http.StatusBadRequest, "bad challenge")
			return
		}
		c.String(http.StatusOK, "%s", cr.Challenge)
		return

	case slackevents.CallbackEvent:
		s.dispatch(event.InnerEvent)
		c.Status(http.StatusOK)
		return
	}

	c.Status(http.StatusOK)
}

func (s *Server) dispatch(inner slackevents.EventsAPIInnerEvent) {
	switch e := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		ev := bot.MessageEvent{
			ID:      e.EventTimeStamp,
			Channel: e.Channel,
			User:    e.User,
			Text:    e.Text,
		}
		s.tasks.Go("app-mention", func(ctx context.Context) {
			s.bot.HandleAppMention(ctx, ev)
		})

	case *slackevents.MessageEvent:
		ev := bot.MessageEvent{
			ID:          e.EventTimeStamp,
			Channel:     e.Channel,
			User:        e.User,
			Text:        e.Text,
			ChannelType: e.ChannelType,
		}
		s.tasks.Go("direct-message", func(ctx context.Context) {
			s.bot.HandleDirectMessage(ctx, ev)
		})

	default:
		log.Printf("ignoring event type %s", inner.Type)
	}
}

func (s *Server) handleBacklogCommand(c *gin.Context) {
	channelID := c.PostForm("channel_id")
	text := c.PostForm("text")
	body, status := s.bot.HandleBacklogCommand(channelID, text)
	c.String(status, "%s", body)
}
