package config

import (
	"time"

	"github.com/caarlos0/env/v6"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	// Slack
	SlackSigningSecret string `env:"SLACK_SIGNING_SECRET,required"`
	SlackToken         string `env:"SLACK_TOKEN"`
	SlackWebhookURL    string `env:"SLACK_WEBHOOK_URL"`

	// Dify settings
	DifyURL     string        `env:"DIFY_URL"`
	DifyAPIKey  string        `env:"DIFY_API_KEY"`
	DifyUserID  string        `env:"DIFY_USER_ID"`
	DifyTimeout time.Duration `env:"DIFY_TIMEOUT" envDefault:"60s"`

	// Jira settings. JiraServerHost is the bare host; JiraServer adds the scheme.
	JiraServerHost string `env:"JIRA_SERVER_URL"`
	JiraEmail      string `env:"JIRA_EMAIL"`
	JiraAPIToken   string `env:"JIRA_API_TOKEN"`

	// Runtime
	EventCacheSize int    `env:"EVENT_CACHE_SIZE" envDefault:"1000"`
	ListenAddr     string `env:"LISTEN_ADDR" envDefault:":3000"`

	// Scheduled digest (optional; disabled when the cron spec is empty)
	DigestCronSpec   string `env:"DIGEST_CRON_SPEC"`
	DigestProject    string `env:"DIGEST_PROJECT"`
	DigestMaxResults int    `env:"DIGEST_MAX_RESULTS" envDefault:"50"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

func (c *Config) JiraServer() string {
	return "https://" + c.JiraServerHost
}
