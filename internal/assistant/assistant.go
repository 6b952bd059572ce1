// Package assistant talks to the hosted language model. The model keeps no
// memory between calls, so the whole transcript goes out on every turn.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

const DefaultModel = "gemini-1.5-flash"

var (
	ErrMissingKey      = errors.New("assistant: missing api key")
	ErrEmptyTranscript = errors.New("assistant: transcript must end with a user message")
	ErrNoCandidates    = errors.New("assistant: empty response")
)

type Message struct {
	Role  Role   `json:"role" binding:"required,oneof=user model"`
	Parts string `json:"parts"`
}

type Completer interface {
	Complete(ctx context.Context, transcript []Message) (string, error)
}

type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrMissingKey
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("assistant: new client: %w", err)
	}
	return &Gemini{client: client, model: client.GenerativeModel(model)}, nil
}

func (g *Gemini) Complete(ctx context.Context, transcript []Message) (string, error) {
	history, last, err := toHistory(transcript)
	if err != nil {
		return "", err
	}
	cs := g.model.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", fmt.Errorf("assistant: send: %w", err)
	}
	return responseText(resp)
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

// toHistory 拆出最后一条用户消息；history 必须以用户开头，开场问候不发送
func toHistory(transcript []Message) ([]*genai.Content, string, error) {
	if len(transcript) == 0 || transcript[len(transcript)-1].Role != RoleUser {
		return nil, "", ErrEmptyTranscript
	}
	prior := transcript[:len(transcript)-1]
	for len(prior) > 0 && prior[0].Role == RoleModel {
		prior = prior[1:]
	}
	history := make([]*genai.Content, 0, len(prior))
	for _, m := range prior {
		history = append(history, &genai.Content{
			Role:  string(m.Role),
			Parts: []genai.Part{genai.Text(m.Parts)},
		})
	}
	return history, transcript[len(transcript)-1].Parts, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoCandidates
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", ErrNoCandidates
	}
	return b.String(), nil
}
