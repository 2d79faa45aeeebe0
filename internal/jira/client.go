// Package jira provides the authenticated issue-tracker session used by the
// backlog digest pipeline.
package jira

import (
	"fmt"
	"sync"

	gojira "github.com/andygrunwald/go-jira"
	log "github.com/sirupsen/logrus"
)

// Issue is the slice of a tracker issue the digest needs.
type Issue struct {
	Key     string
	Summary string
	Status  string
}

type Client struct {
	serverURL string
	email     string
	apiToken  string

	mu  sync.Mutex
	api *gojira.Client
}

func NewClient(serverURL, email, apiToken string) *Client {
	return &Client{serverURL: serverURL, email: email, apiToken: apiToken}
}

// Connect establishes the session and verifies the credentials by fetching
// the authenticated user. Failure is fatal: the digest pipeline can do
// nothing without a tracker session, and terminating beats silently
// degraded background operation.
func (c *Client) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(); err != nil {
		log.Fatalf("jira connection error: %v", err)
	}
}

func (c *Client) connectLocked() error {
	if c.api != nil {
		return nil
	}
	tp := gojira.BasicAuthTransport{Username: c.email, Password: c.apiToken}
	api, err := gojira.NewClient(tp.Client(), c.serverURL)
	if err != nil {
		return fmt.Errorf("failed to create client for %s: %w", c.serverURL, err)
	}
	self, _, err := api.User.GetSelf()
	if err != nil {
		return fmt.Errorf("authentication against %s failed: %w", c.serverURL, err)
	}
	log.Printf("connected to Jira as: %s", self.DisplayName)
	c.api = api
	return nil
}

// Search runs a JQL query, connecting on first use, and returns at most
// maxResults issues. The JQL is caller-constructed and passed through as is.
func (c *Client) Search(jql string, maxResults int) ([]Issue, error) {
	if maxResults <= 0 {
		return nil, fmt.Errorf("maxResults must be positive, got %d", maxResults)
	}

	c.mu.Lock()
	if err := c.connectLocked(); err != nil {
		c.mu.Unlock()
		log.Fatalf("jira connection error: %v", err)
	}
	api := c.api
	c.mu.Unlock()

	raw, _, err := api.Issue.Search(jql, &gojira.SearchOptions{MaxResults: maxResults})
	if err != nil {
		return nil, fmt.Errorf("jql search %q failed: %w", jql, err)
	}

	issues := make([]Issue, 0, len(raw))
	for _, it := range raw {
		issue := Issue{Key: it.Key}
		if it.Fields != nil {
			issue.Summary = it.Fields.Summary
			if it.Fields.Status != nil {
				issue.Status = it.Fields.Status.Name
			}
		}
		issues = append(issues, issue)
	}
	return issues, nil
}
