package workflow

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/osint-cli/internal/model"
	"github.com/sells-group/osint-cli/internal/resilience"
)

// runPersist writes the completed briefing in a single transaction. Store
// failures abort the run; a briefing that cannot be saved is lost on
// purpose rather than silently dropped.
func (e *Engine) runPersist(ctx context.Context, state *model.State) error {
	draft := &model.BriefingDraft{
		Topic:       state.FinalTopic,
		Content:     state.FinalContent,
		ScoutData:   state.Retrieval[model.BranchScout],
		ScholarData: state.Retrieval[model.BranchScholar],
		Locations:   state.Locations,
		Entities:    state.Entities,
	}

	briefing, err := e.store.SaveBriefing(ctx, draft)
	if err != nil {
		return eris.Wrap(resilience.NewStoreUnavailable(err), "workflow: persist briefing")
	}
	state.BriefingID = briefing.ID
	return nil
}
