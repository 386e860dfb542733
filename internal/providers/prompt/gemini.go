package prompt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"adcraft/internal/providers/genai"
)

const (
	enhanceCacheTTL     = 10 * time.Minute
	enhanceCacheCleanup = 30 * time.Minute
)

// GeminiEnhancer enhances prompts through the Gemini API, memoizing
// identical requests and falling back to the static enhancer when the
// upstream call fails. The upstream model is not deterministic; the cache
// only makes repeats within its TTL stable.
type GeminiEnhancer struct {
	client   *genai.Client
	fallback Enhancer
	cache    *gocache.Cache
}

// NewGeminiEnhancer wraps a configured genai client. A nil fallback defaults
// to the static enhancer.
func NewGeminiEnhancer(client *genai.Client, fallback Enhancer) *GeminiEnhancer {
	if fallback == nil {
		fallback = NewStaticEnhancer()
	}
	return &GeminiEnhancer{
		client:   client,
		fallback: fallback,
		cache:    gocache.New(enhanceCacheTTL, enhanceCacheCleanup),
	}
}

func (g *GeminiEnhancer) Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResponse, error) {
	key := cacheKey("enhance", req.Prompt, req.Locale)
	if cached, ok := g.cache.Get(key); ok {
		if res, ok := cached.(*EnhanceResponse); ok {
			return res, nil
		}
	}

	text, err := g.client.GenerateText(ctx, genai.TextRequest{
		Prompt:      buildEnhanceInstruction(req),
		Temperature: 0.5,
	})
	if err != nil {
		return g.useFallback(ctx, req)
	}
	enhanced := cleanModelText(text)
	if enhanced == "" {
		return g.useFallback(ctx, req)
	}

	res := &EnhanceResponse{Prompt: enhanced, Provider: geminiProviderName}
	g.cache.Set(key, res, gocache.DefaultExpiration)
	return res, nil
}

// MergeVision analyzes a reference scene image and merges it with the user's
// request into a single photography prompt. On any upstream failure the raw
// user prompt is returned so the edit can still proceed.
func (g *GeminiEnhancer) MergeVision(ctx context.Context, ref RefImage, userPrompt string) (string, error) {
	userPrompt = strings.TrimSpace(userPrompt)
	if len(ref.Data) == 0 {
		return userPrompt, nil
	}
	key := cacheKey("merge", hashBytes(ref.Data), userPrompt)
	if cached, ok := g.cache.Get(key); ok {
		if merged, ok := cached.(string); ok {
			return merged, nil
		}
	}

	text, err := g.client.GenerateText(ctx, genai.TextRequest{
		Prompt:      buildMergeInstruction(userPrompt),
		Image:       ref.Data,
		ImageMIME:   ref.MIME,
		Temperature: 0.4,
	})
	if err != nil {
		return g.fallback.MergeVision(ctx, ref, userPrompt)
	}
	merged := cleanModelText(text)
	if merged == "" {
		return g.fallback.MergeVision(ctx, ref, userPrompt)
	}
	g.cache.Set(key, merged, gocache.DefaultExpiration)
	return merged, nil
}

func (g *GeminiEnhancer) useFallback(ctx context.Context, req EnhanceRequest) (*EnhanceResponse, error) {
	res, err := g.fallback.Enhance(ctx, req)
	if res != nil {
		res.Provider = staticProviderName
	}
	return res, err
}

func buildEnhanceInstruction(req EnhanceRequest) string {
	locale := req.Locale
	if locale == "" {
		locale = "en"
	}
	sb := &strings.Builder{}
	sb.WriteString("Act as a professional product photographer and ad copywriter. ")
	fmt.Fprintf(sb, "Rewrite the following request into one detailed, vivid image-generation prompt describing subject, setting, lighting, camera angle and mood. Use locale '%s' for any on-image text. ", locale)
	sb.WriteString("Output ONLY the final prompt string with no preamble.\n\nRequest: ")
	sb.WriteString(strings.TrimSpace(req.Prompt))
	return sb.String()
}

func buildMergeInstruction(userPrompt string) string {
	sb := &strings.Builder{}
	sb.WriteString("Act as a professional product photographer.\n")
	sb.WriteString("1. ANALYZE THE REFERENCE IMAGE: identify the exact physical surface, the perspective, and the lighting.\n")
	fmt.Fprintf(sb, "2. ANALYZE THE USER REQUEST: %q\n", userPrompt)
	sb.WriteString("3. MERGE THEM: create a single, detailed prompt that recreates the EXACT setting of the reference image but incorporates the user's specific request. ")
	sb.WriteString("The product must be naturally placed ON the physical surface from the reference image. Describe materials, textures, and camera depth.\n")
	sb.WriteString("Output ONLY the final merged prompt string.")
	return sb.String()
}

// cleanModelText strips code fences and surrounding quotes the model
// sometimes wraps a bare prompt in.
func cleanModelText(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return strings.Trim(strings.TrimSpace(text), `"`)
}

func cacheKey(parts ...string) string {
	return hashBytes([]byte(strings.Join(parts, "\x1f")))
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

var _ Enhancer = (*GeminiEnhancer)(nil)
