package handlers

import (
	"context"
	"net/http"
	"strings"

	"adcraft/internal/domain"
	"adcraft/internal/middleware"
	"adcraft/internal/providers/image"
	"adcraft/internal/providers/prompt"
)

type generateImageRequest struct {
	Prompt      string `json:"prompt" validate:"required,min=3,max=2000"`
	AspectRatio string `json:"aspect_ratio" validate:"omitempty,aspect_ratio"`
	Style       string `json:"style" validate:"omitempty,max=100"`
	NumResults  int    `json:"num_results" validate:"omitempty,min=1,max=4"`
	Enhance     bool   `json:"enhance"`
}

// ImagesGenerate produces HD images from a text prompt, optionally running
// the prompt through the enhancer first. Enhancement failures degrade to the
// raw prompt rather than failing the generation.
func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateImageRequest
	if !a.decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	usedPrompt := strings.TrimSpace(req.Prompt)
	if req.Enhance {
		res, err := a.Enhancer.Enhance(ctx, prompt.EnhanceRequest{
			Prompt: usedPrompt,
			Locale: middleware.LocaleFromContext(ctx),
		})
		if err == nil && res != nil && res.Prompt != "" {
			usedPrompt = res.Prompt
		}
	}

	results, err := a.Images.Generate(ctx, image.GenerateRequest{
		Prompt:      usedPrompt,
		AspectRatio: req.AspectRatio,
		Style:       req.Style,
		NumResults:  req.NumResults,
	})
	if err != nil {
		a.serviceError(w, err)
		return
	}

	saved, err := a.saveImageAssets(ctx, domain.FeatureHDGeneration, results)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"prompt": usedPrompt,
		"assets": viewAssets(saved),
	})
}

// saveImageAssets persists a batch of provider results and returns the
// catalog records in the same order.
func (a *App) saveImageAssets(ctx context.Context, feature domain.Feature, results []image.Asset) ([]domain.Asset, error) {
	saved := make([]domain.Asset, 0, len(results))
	for _, result := range results {
		asset, err := a.saveAsset(ctx, feature, domain.AssetKindImage, result.Data, mimeForFormat(result.Format), result.Width, result.Height)
		if err != nil {
			return nil, err
		}
		saved = append(saved, *asset)
	}
	return saved, nil
}

// mimeForFormat accepts either a full MIME type or a bare format name.
func mimeForFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if strings.Contains(format, "/") {
		return format
	}
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	default:
		return "image/png"
	}
}
