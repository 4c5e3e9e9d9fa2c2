package workflow

import (
	"context"
	"sync"

	"github.com/sells-group/osint-cli/internal/model"
	"github.com/sells-group/osint-cli/pkg/anthropic"
	"github.com/sells-group/osint-cli/pkg/search"
)

// scriptedLLM answers CreateMessage calls by matching the request's system
// prompt against a script. Unscripted prompts return errs[system] or a
// default empty response.
type scriptedLLM struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   []string
}

func (m *scriptedLLM) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	system := ""
	if len(req.System) > 0 {
		system = req.System[0].Text
	}

	m.mu.Lock()
	m.calls = append(m.calls, system)
	m.mu.Unlock()

	if err, ok := m.errs[system]; ok {
		return nil, err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: m.replies[system]}},
	}, nil
}

func (m *scriptedLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockSearch returns fixed results, an error, or blocks until the context
// expires when slow is set.
type mockSearch struct {
	results []search.Result
	err     error
	slow    bool

	mu     sync.Mutex
	called bool
}

func (m *mockSearch) Search(ctx context.Context, query string) ([]search.Result, error) {
	m.mu.Lock()
	m.called = true
	m.mu.Unlock()

	if m.slow {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.results, m.err
}

func (m *mockSearch) wasCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.called
}

type mockMemory struct {
	chunks []string
	err    error
}

func (m *mockMemory) Query(ctx context.Context, query string) ([]string, error) {
	return m.chunks, m.err
}

// mockStore records the draft it was asked to save.
type mockStore struct {
	mu        sync.Mutex
	saved     *model.BriefingDraft
	saveErr   error
	briefings []model.Briefing
}

func (m *mockStore) SaveBriefing(ctx context.Context, draft *model.BriefingDraft) (*model.Briefing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saved = draft
	return &model.Briefing{ID: "briefing-1", Topic: draft.Topic, Content: draft.Content}, nil
}

func (m *mockStore) ListBriefings(ctx context.Context, limit int) ([]model.Briefing, error) {
	return m.briefings, nil
}

func (m *mockStore) ListEntityMentions(ctx context.Context) ([]model.EntityMention, error) {
	return nil, nil
}

func (m *mockStore) Migrate(ctx context.Context) error { return nil }
func (m *mockStore) Close() error                      { return nil }

func (m *mockStore) savedDraft() *model.BriefingDraft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}
