// Package llm wraps hosted text-generation providers behind one chat
// capability and routes calls across them.
package llm

import "context"

// Chat roles. Each pipeline invocation uses system and user exactly
// once: one system message carrying the built prompt, one user message
// carrying the sanitized input.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of an ordered chat transcript.
type Message struct {
	Role    string
	Content string
}

// ChatClient is the single capability every backend must satisfy. A
// call suspends for the duration of the network exchange; streamed
// partial tokens are accumulated internally and callers always receive
// one completed string.
type ChatClient interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
