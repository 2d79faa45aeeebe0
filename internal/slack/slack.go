// Package slack wraps the pieces of the Slack API the relay talks to: the
// Web API for channel replies and an incoming webhook for digest delivery.
package slack

import (
	"fmt"

	slackapi "github.com/slack-go/slack"
)

type Client struct {
	api        *slackapi.Client
	webhookURL string
}

func New(token, webhookURL string) *Client {
	return &Client{api: slackapi.New(token), webhookURL: webhookURL}
}

// BotUserID resolves the bot's own user identity via auth.test. The router
// needs it to drop self-originated events.
func (c *Client) BotUserID() (string, error) {
	resp, err := c.api.AuthTest()
	if err != nil {
		return "", fmt.Errorf("auth.test failed: %w", err)
	}
	return resp.UserID, nil
}

// SendMessage posts plain text to a channel.
func (c *Client) SendMessage(channel, text string) error {
	_, _, err := c.api.PostMessage(channel, slackapi.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("failed to post to %s: %w", channel, err)
	}
	return nil
}

// PostDigest delivers an attachment-formatted digest via the incoming
// webhook configured for the backlog channel.
func (c *Client) PostDigest(msg *slackapi.WebhookMessage) error {
	if err := slackapi.PostWebhook(c.webhookURL, msg); err != nil {
		return fmt.Errorf("webhook post failed: %w", err)
	}
	return nil
}
