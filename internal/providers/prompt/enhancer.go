package prompt

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	geminiProviderName = "gemini"
	staticProviderName = "static"
)

// EnhanceRequest carries a raw user prompt and the negotiated locale.
type EnhanceRequest struct {
	Prompt string
	Locale string
}

// EnhanceResponse is the enriched prompt ready to feed the image generator.
type EnhanceResponse struct {
	Prompt   string `json:"prompt"`
	Provider string `json:"-"`
}

// RefImage is a reference scene image for vision merging.
type RefImage struct {
	Data []byte
	MIME string
}

// Enhancer turns terse user prompts into detailed studio-photography
// descriptions. MergeVision folds a reference scene image and a custom
// prompt into a single description of the combined shot.
type Enhancer interface {
	Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResponse, error)
	MergeVision(ctx context.Context, ref RefImage, userPrompt string) (string, error)
}

// StaticEnhancer is the offline fallback: deterministic template expansion
// with no network round-trip.
type StaticEnhancer struct{}

func NewStaticEnhancer() *StaticEnhancer {
	return &StaticEnhancer{}
}

func (s *StaticEnhancer) Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResponse, error) {
	subject := strings.TrimSpace(req.Prompt)
	if subject == "" {
		subject = "product"
	}
	c := cases.Title(language.Und)
	enhanced := fmt.Sprintf(
		"High-end studio product photography of %s, professional lighting, photorealistic, integrated shadows, sharp focus, 8k.",
		c.String(subject),
	)
	return &EnhanceResponse{Prompt: enhanced, Provider: staticProviderName}, nil
}

// MergeVision cannot inspect the reference image offline, so the user's
// prompt passes through untouched.
func (s *StaticEnhancer) MergeVision(ctx context.Context, ref RefImage, userPrompt string) (string, error) {
	return strings.TrimSpace(userPrompt), nil
}

var _ Enhancer = (*StaticEnhancer)(nil)
