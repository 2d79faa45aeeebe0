// Package conversation maps Slack channels to the conversation tokens the
// answer service hands back, so multi-turn context survives across events.
package conversation

import "sync"

// Registry holds one token per channel, last write wins. Entries live for
// the lifetime of the process; the channel population of a workspace is
// small relative to event volume, so there is no eviction.
type Registry struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewRegistry() *Registry {
	return &Registry{tokens: make(map[string]string)}
}

// Get returns the stored token for channel, or "" when the channel has no
// prior context. Absence is never an error.
func (r *Registry) Get(channel string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tokens[channel]
}

func (r *Registry) Set(channel, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[channel] = token
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}
