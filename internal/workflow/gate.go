package workflow

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/osint-cli/internal/extract"
	"github.com/sells-group/osint-cli/internal/model"
)

// runGate checks the conversation against operational scope. The whole
// history is passed so follow-ups like "is it complete?" keep their context.
func (e *Engine) runGate(ctx context.Context, state *model.State) (model.GateDecision, error) {
	text, err := e.invoker.Converse(ctx, gatePrompt, extract.ToMessages(state.Conversation), string(nodeGate))
	if err != nil {
		return "", eris.Wrap(err, "workflow: gate check")
	}

	if strings.Contains(strings.ToUpper(text), "REJECTED") {
		return model.GateRejected, nil
	}
	return model.GateAllowed, nil
}
