package workflow

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/osint-cli/internal/extract"
	"github.com/sells-group/osint-cli/internal/model"
	"github.com/sells-group/osint-cli/pkg/anthropic"
)

// runSynthesize combines the branch intel into a validated briefing. A
// malformed or incomplete response is fatal: nothing unvalidated reaches
// the store.
func (e *Engine) runSynthesize(ctx context.Context, state *model.State) (*extract.BriefingOutput, error) {
	intel := fmt.Sprintf(
		"Locations Identified: %v\nScout Intel: %s\nScholar Intel: %s",
		locationStrings(state.Locations),
		orNone(state.Retrieval[model.BranchScout]),
		orNone(state.Retrieval[model.BranchScholar]),
	)

	msgs := append(extract.ToMessages(state.Conversation), anthropic.Message{Role: "user", Content: intel})
	text, err := e.invoker.Converse(ctx, synthesizePrompt, msgs, string(nodeSynthesize))
	if err != nil {
		return nil, eris.Wrap(err, "workflow: synthesize")
	}

	briefing, err := extract.ParseBriefing(text)
	if err != nil {
		return nil, eris.Wrap(err, "workflow: synthesize")
	}
	return briefing, nil
}

func locationStrings(raw []any) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func orNone(s string) string {
	if s == "" || s == "[]" {
		return "None"
	}
	return s
}
