package assistant

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHistory(t *testing.T) {
	transcript := []Message{
		{Role: RoleModel, Parts: "Hello! How can I help?"},
		{Role: RoleUser, Parts: "what is go"},
		{Role: RoleModel, Parts: "a language"},
		{Role: RoleUser, Parts: "who made it"},
	}
	history, last, err := toHistory(transcript)
	require.NoError(t, err)
	assert.Equal(t, "who made it", last)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, genai.Text("what is go"), history[0].Parts[0])
	assert.Equal(t, "model", history[1].Role)
}

func TestToHistoryRequiresUserTurn(t *testing.T) {
	_, _, err := toHistory(nil)
	assert.ErrorIs(t, err, ErrEmptyTranscript)

	_, _, err = toHistory([]Message{{Role: RoleModel, Parts: "hi"}})
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestResponseText(t *testing.T) {
	_, err := responseText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrNoCandidates)

	text, err := responseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []genai.Part{genai.Text("Go was "), genai.Text("made at Google.")}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Go was made at Google.", text)
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrMissingKey)
}
