package workflow

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/sells-group/osint-cli/internal/model"
	"github.com/sells-group/osint-cli/internal/resilience"
	"github.com/sells-group/osint-cli/pkg/search"
)

// runScout performs a live web search for the latest user query. Provider
// failures degrade to an empty result set so the run keeps going.
func (e *Engine) runScout(ctx context.Context, state *model.State) *branchResult {
	query := state.LatestUserTurn()

	results, err := resilience.DoVal(ctx, resilience.DefaultRetryConfig("scout search"),
		func(ctx context.Context) ([]search.Result, error) {
			return e.search.Search(ctx, query)
		})
	if err != nil {
		zap.L().Warn("scout branch degraded",
			zap.Error(resilience.NewProviderUnavailable("search", err)),
		)
		return &branchResult{branch: model.BranchScout, retrieval: "[]"}
	}

	if results == nil {
		results = []search.Result{}
	}
	payload, err := json.Marshal(results)
	if err != nil {
		zap.L().Warn("scout branch degraded", zap.Error(err))
		return &branchResult{branch: model.BranchScout, retrieval: "[]"}
	}
	return &branchResult{branch: model.BranchScout, retrieval: string(payload)}
}
