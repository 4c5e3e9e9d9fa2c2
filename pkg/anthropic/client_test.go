package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "Hello "},
			{Type: "thinking", Text: "internal"},
			{Type: "text", Text: "world."},
		},
	}

	assert.Equal(t, "Hello world.", resp.Text())
}

func TestTokenUsage_EstimateCost(t *testing.T) {
	usage := TokenUsage{
		InputTokens:  1_000_000,
		OutputTokens: 1_000_000,
	}

	// haiku: $0.80/MTok in, $4.00/MTok out.
	assert.InDelta(t, 4.80, usage.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
	assert.Zero(t, usage.EstimateCost("unknown-model"))
}

func TestTokenUsage_EstimateCost_CacheTokens(t *testing.T) {
	usage := TokenUsage{
		CacheCreationInputTokens: 1_000_000,
		CacheReadInputTokens:     1_000_000,
	}

	// Cache writes bill at 1.25x input, reads at 0.1x.
	assert.InDelta(t, 0.80*1.25+0.80*0.1, usage.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
}

func TestToSDKMessages_RoleMapping(t *testing.T) {
	out := toSDKMessages([]Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
	})

	require.Len(t, out, 2)
	assert.Equal(t, "user", string(out[0].Role))
	assert.Equal(t, "assistant", string(out[1].Role))
}

func TestToSDKSystemBlocks_CacheControl(t *testing.T) {
	out := toSDKSystemBlocks([]SystemBlock{
		{Text: "plain"},
		{Text: "cached", CacheControl: &CacheControl{TTL: "5m"}},
	})

	require.Len(t, out, 2)
	assert.Equal(t, "plain", out[0].Text)
	assert.Equal(t, "cached", out[1].Text)
	assert.Equal(t, "5m", string(out[1].CacheControl.TTL))
}
