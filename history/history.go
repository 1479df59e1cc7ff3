// Package history keeps the conversation turns of one chat session in memory.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Turn is one question/answer exchange.
type Turn struct {
	ID       string    `json:"id"`
	Question string    `json:"question"`
	SQLQuery string    `json:"sql_query"`
	RowCount int       `json:"row_count"`
	Error    string    `json:"error,omitempty"`
	AskedAt  time.Time `json:"asked_at"`
}

// History is a session-scoped turn log. Safe for concurrent use.
type History struct {
	mu    sync.Mutex
	turns []Turn
}

// New creates an empty history.
func New() *History {
	return &History{}
}

// Add records a turn and returns its generated ID.
func (h *History) Add(question, sqlQuery string, rowCount int, errMessage string) string {
	turn := Turn{
		ID:       uuid.NewString(),
		Question: question,
		SQLQuery: sqlQuery,
		RowCount: rowCount,
		Error:    errMessage,
		AskedAt:  time.Now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, turn)
	return turn.ID
}

// List returns a copy of all turns in insertion order.
func (h *History) List() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len reports the number of recorded turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Clear removes all turns.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}
