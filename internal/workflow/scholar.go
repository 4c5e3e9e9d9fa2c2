package workflow

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/sells-group/osint-cli/internal/model"
	"github.com/sells-group/osint-cli/internal/resilience"
)

// runScholar queries the document index for chunks relevant to the latest
// user query. Index failures degrade to an empty result.
func (e *Engine) runScholar(ctx context.Context, state *model.State) *branchResult {
	query := state.LatestUserTurn()

	chunks, err := e.memory.Query(ctx, query)
	if err != nil {
		zap.L().Warn("scholar branch degraded",
			zap.Error(resilience.NewProviderUnavailable("memory", err)),
		)
		return &branchResult{branch: model.BranchScholar, retrieval: "[]"}
	}

	payload, err := json.Marshal(chunks)
	if err != nil {
		zap.L().Warn("scholar branch degraded", zap.Error(err))
		return &branchResult{branch: model.BranchScholar, retrieval: "[]"}
	}
	return &branchResult{branch: model.BranchScholar, retrieval: string(payload)}
}
