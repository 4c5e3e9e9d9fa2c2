package workflow

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/osint-cli/internal/extract"
	"github.com/sells-group/osint-cli/internal/model"
)

// runRoute classifies the query's intent. The hint is advisory: all three
// collection branches run regardless, and synthesis weighs what each found.
// A routing failure falls back to covering both sources.
func (e *Engine) runRoute(ctx context.Context, state *model.State) model.RouteDecision {
	text, err := e.invoker.Converse(ctx, routePrompt, extract.ToMessages(state.Conversation), string(nodeRoute))
	if err != nil {
		zap.L().Warn("route classification failed, defaulting to both", zap.Error(err))
		return model.RouteBoth
	}

	decision := strings.ToLower(text)
	switch {
	case strings.Contains(decision, "scout"):
		return model.RouteScout
	case strings.Contains(decision, "scholar"):
		return model.RouteScholar
	default:
		return model.RouteBoth
	}
}
