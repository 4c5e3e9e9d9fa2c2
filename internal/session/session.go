package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/osint-cli/internal/model"
)

// keepRecent is the number of trailing turns preserved verbatim when a
// conversation is compacted.
const keepRecent = 2

// Summarizer condenses a conversation into a short synopsis.
type Summarizer interface {
	Summarize(ctx context.Context, turns []model.Turn) (string, error)
}

// Manager keeps per-session conversation history in memory. Long
// conversations are compacted into a summary turn so the context sent to
// the model stays bounded.
type Manager struct {
	mu         sync.Mutex
	sessions   map[string][]model.Turn
	summarizer Summarizer
	maxTurns   int
}

// NewManager creates a Manager. maxTurns below 2 defaults to 6.
func NewManager(summarizer Summarizer, maxTurns int) *Manager {
	if maxTurns < 2 {
		maxTurns = 6
	}
	return &Manager{
		sessions:   make(map[string][]model.Turn),
		summarizer: summarizer,
		maxTurns:   maxTurns,
	}
}

// Turns returns a copy of the session's conversation history.
func (m *Manager) Turns(id string) []model.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := m.sessions[id]
	out := make([]model.Turn, len(turns))
	copy(out, turns)
	return out
}

// Extend appends turns to a session, compacting the history first when it
// would exceed the turn limit.
func (m *Manager) Extend(ctx context.Context, id string, turns ...model.Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.sessions[id], turns...)
	if len(history) > m.maxTurns {
		history = m.compact(ctx, id, history)
	}
	m.sessions[id] = history
}

// Reset drops a session's history.
func (m *Manager) Reset(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// compact folds all but the most recent turns into a single summary turn.
// If summarization fails the history is truncated instead, so sessions
// never grow without bound.
func (m *Manager) compact(ctx context.Context, id string, history []model.Turn) []model.Turn {
	log := zap.L().With(zap.String("session", id))

	older := history[:len(history)-keepRecent]
	recent := history[len(history)-keepRecent:]

	summary, err := m.summarizer.Summarize(ctx, older)
	if err != nil {
		log.Warn("conversation summary failed, truncating history", zap.Error(err))
		trimmed := history[len(history)-m.maxTurns:]
		return append([]model.Turn(nil), trimmed...)
	}

	log.Info("conversation compacted",
		zap.Int("turns_before", len(history)),
		zap.Int("turns_after", keepRecent+1))

	compacted := []model.Turn{{
		Role:    model.RoleUser,
		Content: fmt.Sprintf("Summary of our conversation so far: %s", summary),
	}}
	return append(compacted, recent...)
}
