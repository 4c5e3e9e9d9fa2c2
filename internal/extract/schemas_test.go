package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/osint-cli/internal/model"
)

func TestCleanJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced bare", "```\n[1,2]\n```", `[1,2]`},
		{"surrounding prose", `Here you go: {"a":1} hope that helps`, `{"a":1}`},
		{"leading array", `the list: ["Delhi"]`, `["Delhi"]`},
		{"no json", "nothing here", "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanJSON(tt.in))
		})
	}
}

func TestParseBriefing_Valid(t *testing.T) {
	t.Parallel()

	out, err := ParseBriefing("```json\n{\"topic\": \"Naval Exercises\", \"content\": \"Full analysis.\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Naval Exercises", out.Topic)
	assert.Equal(t, "Full analysis.", out.Content)
}

func TestParseBriefing_MissingField(t *testing.T) {
	t.Parallel()

	_, err := ParseBriefing(`{"topic": "Naval Exercises"}`)
	require.Error(t, err)
	assert.True(t, IsSchemaViolation(err))
	assert.Contains(t, err.Error(), "content")
}

func TestParseBriefing_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseBriefing("I could not produce JSON, sorry.")
	require.Error(t, err)
	assert.True(t, IsSchemaViolation(err))
}

func TestParseEntities(t *testing.T) {
	t.Parallel()

	out, err := ParseEntities(`{"people": ["A. Doval"], "organizations": ["DRDO"], "countries": ["India"]}`)
	require.NoError(t, err)

	cats := out.Categories()
	assert.Equal(t, []string{"A. Doval"}, cats[model.EntityPerson])
	assert.Equal(t, []string{"DRDO"}, cats[model.EntityOrganization])
	assert.Equal(t, []string{"India"}, cats[model.EntityCountry])
}

func TestParseEntities_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseEntities("not json")
	require.Error(t, err)
	assert.True(t, IsSchemaViolation(err))
}

func TestParseLocations(t *testing.T) {
	t.Parallel()

	out, err := ParseLocations("```json\n[\"New Delhi\", {\"name\": \"Indian Ocean\"}]\n```")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "New Delhi", out[0])
	assert.Equal(t, map[string]any{"name": "Indian Ocean"}, out[1])
}

func TestParseForecast(t *testing.T) {
	t.Parallel()

	out, err := ParseForecast(`{"optimistic": "a", "base_case": "b", "pessimistic": "c"}`)
	require.NoError(t, err)
	assert.Equal(t, "b", out.BaseCase)

	_, err = ParseForecast(`{"optimistic": "a"}`)
	require.Error(t, err)
	assert.True(t, IsSchemaViolation(err))
}
