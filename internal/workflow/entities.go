package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/osint-cli/internal/extract"
	"github.com/sells-group/osint-cli/internal/model"
)

// runExtractEntities pulls people, organizations, and countries out of the
// synthesized briefing. Extraction failures degrade to an empty set; the
// briefing is still persisted.
func (e *Engine) runExtractEntities(ctx context.Context, state *model.State) map[model.EntityCategory][]string {
	empty := map[model.EntityCategory][]string{}

	text, err := e.invoker.Complete(ctx, entitiesPrompt, state.FinalContent, string(nodeExtractEntities))
	if err != nil {
		zap.L().Warn("entity extraction degraded", zap.Error(err))
		return empty
	}

	entities, err := extract.ParseEntities(text)
	if err != nil {
		zap.L().Warn("entity extraction degraded", zap.Error(err))
		return empty
	}
	return entities.Categories()
}
