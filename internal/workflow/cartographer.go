package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/osint-cli/internal/extract"
	"github.com/sells-group/osint-cli/internal/model"
)

// runCartographer pulls geographic names out of the latest user query. An
// LLM handles the ambiguity a gazetteer lookup cannot ("Turkey" the country
// versus the bird, "the Big Apple"). Failures degrade to no locations.
func (e *Engine) runCartographer(ctx context.Context, state *model.State) *branchResult {
	query := state.LatestUserTurn()

	text, err := e.invoker.Complete(ctx, cartographerPrompt, query, string(nodeCartographer))
	if err != nil {
		zap.L().Warn("cartographer branch degraded", zap.Error(err))
		return &branchResult{branch: model.BranchCartographer, locations: []any{}}
	}

	locations, err := extract.ParseLocations(text)
	if err != nil {
		zap.L().Warn("cartographer branch degraded", zap.Error(err))
		return &branchResult{branch: model.BranchCartographer, locations: []any{}}
	}
	return &branchResult{branch: model.BranchCartographer, locations: locations}
}
