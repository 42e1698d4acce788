// Package memory provides conversation history for multi-turn ranking requests.
//
// History is owned by the caller and travels with every request. Nothing here
// is stored server-side: each operation returns a new History and leaves its
// input untouched.
package memory

import (
	"fmt"
	"strings"
)

// Roles a turn can have.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ContextTurns is how many trailing turns feed query composition.
const ContextTurns = 3

// Turn represents a single message in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History is an ordered, append-only sequence of turns.
type History []Turn

// Append returns a new History with turns added at the end.
// The receiver's backing array is never written to.
func (h History) Append(turns ...Turn) History {
	out := make(History, 0, len(h)+len(turns))
	out = append(out, h...)
	return append(out, turns...)
}

// Recent returns the last n turns, or all of them when the history is shorter.
func (h History) Recent(n int) History {
	if n <= 0 {
		return nil
	}
	if len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}

// Format renders turns as "<role>: <content>" lines joined by newlines.
// Returns empty string if the history is empty.
func (h History) Format() string {
	lines := make([]string, len(h))
	for i, t := range h {
		lines[i] = t.Role + ": " + t.Content
	}
	return strings.Join(lines, "\n")
}

// UserTurn builds a turn carrying the recruiter's query.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// Summary is the assistant reply recorded after a completed search.
func Summary(count int) string {
	return fmt.Sprintf("Found %d candidates matching your criteria.", count)
}

// Record appends the user query and the assistant summary for a finished
// search.
func Record(history History, rawQuery string, rankedCount int) History {
	return history.Append(
		UserTurn(rawQuery),
		Turn{Role: RoleAssistant, Content: Summary(rankedCount)},
	)
}

// RecordEmpty appends only the user query. Used when there was nothing to
// search over, so no assistant summary is produced.
func RecordEmpty(history History, rawQuery string) History {
	return history.Append(UserTurn(rawQuery))
}
