package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"dify-relay/internal/bot"
	"dify-relay/internal/config"
	"dify-relay/internal/conversation"
	"dify-relay/internal/dify"
	"dify-relay/internal/eventcache"
	"dify-relay/internal/jira"
	"dify-relay/internal/scheduler"
	"dify-relay/internal/server"
	"dify-relay/internal/slack"
	"dify-relay/internal/worker"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	slackClient := slack.New(cfg.SlackToken, cfg.SlackWebhookURL)
	botUserID, err := slackClient.BotUserID()
	if err != nil {
		log.Fatalf("failed to resolve bot identity: %v", err)
	}
	log.Printf("running as bot user %s", botUserID)

	difyClient := dify.New(cfg.DifyURL, cfg.DifyAPIKey, cfg.DifyUserID, cfg.DifyTimeout)
	jiraClient := jira.NewClient(cfg.JiraServer(), cfg.JiraEmail, cfg.JiraAPIToken)

	pool := worker.NewPool()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := pool.Shutdown(ctx); err != nil {
			log.Printf("background tasks did not drain: %v", err)
		}
	}()

	relay := bot.New(
		eventcache.New(cfg.EventCacheSize),
		conversation.NewRegistry(),
		difyClient,
		slackClient,
		jiraClient,
		slackClient,
		pool,
		botUserID,
	)

	if cfg.DigestCronSpec != "" {
		if cfg.DigestProject == "" {
			log.Fatalf("DIGEST_CRON_SPEC is set but DIGEST_PROJECT is empty")
		}
		jql := fmt.Sprintf("project = %s", cfg.DigestProject)
		sched := scheduler.New(cfg.DigestCronSpec, func() {
			relay.ReportBacklog(jql, cfg.DigestMaxResults)
		})
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	srv := server.New(relay, pool, cfg.SlackSigningSecret)
	if err := srv.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
