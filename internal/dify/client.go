// Package dify wraps the Dify.AI chat-messages endpoint in blocking mode.
package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultAnswer substitutes for a success response whose answer field is
// missing or empty.
const DefaultAnswer = "No response from Dify."

// Reply carries the outcome of one exchange. A non-2xx upstream status is a
// normal Reply with the code preserved, not an error; callers branch on OK.
type Reply struct {
	StatusCode     int
	Answer         string
	ConversationID string
}

func (r Reply) OK() bool { return r.StatusCode == http.StatusOK }

type Client struct {
	url    string
	apiKey string
	userID string
	httpc  *http.Client
}

func New(url, apiKey, userID string, timeout time.Duration) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		userID: userID,
		httpc:  &http.Client{Timeout: timeout},
	}
}

type request struct {
	Inputs         map[string]any `json:"inputs"`
	Query          string         `json:"query"`
	ResponseMode   string         `json:"response_mode"`
	ConversationID string         `json:"conversation_id"`
	User           string         `json:"user"`
}

// response mirrors the fields we consume; answer is optional upstream.
type response struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversation_id"`
}

// Send issues one blocking exchange. conversationID may be empty, meaning
// a fresh conversation; the reply carries the token to use next time.
// Errors are transport-level only. No retries are performed here.
func (c *Client) Send(ctx context.Context, query, conversationID string) (Reply, error) {
	body, err := json.Marshal(request{
		Inputs:         map[string]any{},
		Query:          query,
		ResponseMode:   "blocking",
		ConversationID: conversationID,
		User:           c.userID,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to encode dify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("failed to build dify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("dify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused; the status is the payload.
		_, _ = io.Copy(io.Discard, resp.Body)
		return Reply{StatusCode: resp.StatusCode}, nil
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Reply{}, fmt.Errorf("failed to decode dify response: %w", err)
	}
	answer := parsed.Answer
	if answer == "" {
		answer = DefaultAnswer
	}
	return Reply{
		StatusCode:     resp.StatusCode,
		Answer:         answer,
		ConversationID: parsed.ConversationID,
	}, nil
}
