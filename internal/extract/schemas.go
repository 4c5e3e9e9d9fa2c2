package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sells-group/osint-cli/internal/model"
)

// SchemaViolationError marks structured output that failed validation.
// The synthesis stage treats it as fatal.
type SchemaViolationError struct {
	Schema string
	Reason string
	Raw    string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation (%s): %s", e.Schema, e.Reason)
}

// IsSchemaViolation reports whether err is a SchemaViolationError.
func IsSchemaViolation(err error) bool {
	var se *SchemaViolationError
	return errors.As(err, &se)
}

// BriefingOutput is the validated synthesis result.
type BriefingOutput struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

// ParseBriefing parses and validates a synthesized briefing. Both fields
// are required and must be non-empty.
func ParseBriefing(text string) (*BriefingOutput, error) {
	cleaned := CleanJSON(text)

	var out BriefingOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, &SchemaViolationError{Schema: "briefing", Reason: err.Error(), Raw: text}
	}
	if strings.TrimSpace(out.Topic) == "" {
		return nil, &SchemaViolationError{Schema: "briefing", Reason: "missing required field: topic", Raw: text}
	}
	if strings.TrimSpace(out.Content) == "" {
		return nil, &SchemaViolationError{Schema: "briefing", Reason: "missing required field: content", Raw: text}
	}
	return &out, nil
}

// EntitySet is the validated entity extraction result.
type EntitySet struct {
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Countries     []string `json:"countries"`
}

// Categories maps the entity set into category buckets.
func (e *EntitySet) Categories() map[model.EntityCategory][]string {
	return map[model.EntityCategory][]string{
		model.EntityPerson:       e.People,
		model.EntityOrganization: e.Organizations,
		model.EntityCountry:      e.Countries,
	}
}

// ParseEntities parses an entity extraction response. Callers degrade to an
// empty set on error.
func ParseEntities(text string) (*EntitySet, error) {
	cleaned := CleanJSON(text)

	var out EntitySet
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, &SchemaViolationError{Schema: "entities", Reason: err.Error(), Raw: text}
	}
	return &out, nil
}

// ParseLocations parses a JSON array of location name candidates. Elements
// are usually strings but models occasionally emit single-key objects, so
// the raw values are preserved for the store to coerce. Callers degrade to
// an empty list on error.
func ParseLocations(text string) ([]any, error) {
	cleaned := CleanJSON(text)

	var out []any
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, &SchemaViolationError{Schema: "locations", Reason: err.Error(), Raw: text}
	}
	return out, nil
}

// Summary is the validated conversation summary result.
type Summary struct {
	Summary string `json:"summary"`
}

// ParseSummary parses a conversation summary response.
func ParseSummary(text string) (*Summary, error) {
	cleaned := CleanJSON(text)

	var out Summary
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, &SchemaViolationError{Schema: "summary", Reason: err.Error(), Raw: text}
	}
	return &out, nil
}

// Forecast is the validated strategic forecast result.
type Forecast struct {
	Optimistic  string `json:"optimistic"`
	BaseCase    string `json:"base_case"`
	Pessimistic string `json:"pessimistic"`
}

// ParseForecast parses and validates a forecast. All three scenarios are
// required.
func ParseForecast(text string) (*Forecast, error) {
	cleaned := CleanJSON(text)

	var out Forecast
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, &SchemaViolationError{Schema: "forecast", Reason: err.Error(), Raw: text}
	}
	if out.Optimistic == "" || out.BaseCase == "" || out.Pessimistic == "" {
		return nil, &SchemaViolationError{Schema: "forecast", Reason: "missing required scenario", Raw: text}
	}
	return &out, nil
}
