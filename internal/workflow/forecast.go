package workflow

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/osint-cli/internal/extract"
	"github.com/sells-group/osint-cli/internal/model"
)

// forecastContextLimit caps how many recent briefings feed a forecast.
const forecastContextLimit = 5

// Forecast produces a three-scenario strategic forecast for a topic,
// grounded in the most recent stored briefings.
func (e *Engine) Forecast(ctx context.Context, topic string) (*extract.Forecast, error) {
	briefings, err := e.store.ListBriefings(ctx, forecastContextLimit)
	if err != nil {
		return nil, eris.Wrap(err, "workflow: forecast context")
	}

	var b strings.Builder
	b.WriteString("Forecast topic: " + topic + "\n\nRecent intelligence briefings:\n")
	if len(briefings) == 0 {
		b.WriteString("(none on file)\n")
	}
	for _, br := range briefings {
		b.WriteString("\n## " + br.Topic + "\n" + br.Content + "\n")
	}

	text, err := e.invoker.Complete(ctx, forecastPrompt, b.String(), "forecast")
	if err != nil {
		return nil, eris.Wrap(err, "workflow: forecast")
	}

	forecast, err := extract.ParseForecast(text)
	if err != nil {
		return nil, eris.Wrap(err, "workflow: forecast")
	}
	return forecast, nil
}

// Summarize compacts a conversation into a short strategic summary, used
// when chat sessions grow past their turn limit.
func (e *Engine) Summarize(ctx context.Context, turns []model.Turn) (string, error) {
	text, err := e.invoker.Converse(ctx, summarizePrompt, extract.ToMessages(turns), "summarize")
	if err != nil {
		return "", eris.Wrap(err, "workflow: summarize")
	}

	summary, err := extract.ParseSummary(text)
	if err != nil {
		return "", eris.Wrap(err, "workflow: summarize")
	}
	return summary.Summary, nil
}
