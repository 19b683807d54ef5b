package insights

import (
	"context"
	"fmt"
	"strings"

	"github.com/andresuchdata/ecsync/internal/config"
	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// textModel is the part of a generative model the generator needs.
type textModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Gemini generates insights with Google's Gemini models.
type Gemini struct {
	model  textModel
	closer func() error
}

// NewGemini creates a client for cfg. Callers must Close it.
func NewGemini(ctx context.Context, cfg config.AIConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(0.2)

	return &Gemini{model: &genaiModel{model: model}, closer: client.Close}, nil
}

func newGeminiWithModel(m textModel) *Gemini {
	return &Gemini{model: m}
}

func (g *Gemini) Enabled() bool { return true }

func (g *Gemini) Generate(ctx context.Context, r *domain.Report) ([]domain.Insight, error) {
	text, err := g.model.GenerateText(ctx, BuildPrompt(r))
	if err != nil {
		return nil, err
	}
	return Parse(text), nil
}

func (g *Gemini) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}

type genaiModel struct {
	model *genai.GenerativeModel
}

func (m *genaiModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := m.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content received from AI")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text content received from AI")
	}
	return b.String(), nil
}
