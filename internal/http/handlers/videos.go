package handlers

import (
	"net/http"
	"strings"

	"adcraft/internal/compositor"
	"adcraft/internal/domain"
	"adcraft/internal/providers/video"
)

// VideosGenerate animates a product image into a short video. The handler
// blocks while the upstream operation is polled, so the route relies on the
// server's long write timeout.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}

	prompt := strings.TrimSpace(r.FormValue("prompt"))
	if prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}

	source, sourceURL, err := a.formImage(r, "image")
	if err != nil {
		a.serviceError(w, err)
		return
	}
	if source == nil {
		source, _, err = a.resolveSource(ctx, "", sourceURL)
		if err != nil {
			a.serviceError(w, err)
			return
		}
	}
	if _, _, err := compositor.Decode(source); err != nil {
		a.serviceError(w, err)
		return
	}

	aspect := strings.TrimSpace(r.FormValue("aspect_ratio"))
	if aspect != "" && !aspectRatioPattern.MatchString(aspect) {
		a.error(w, http.StatusBadRequest, "bad_request", "aspect_ratio must look like 16:9")
		return
	}
	duration := formInt(r, "duration_seconds", 8)
	if duration < 1 || duration > 60 {
		a.error(w, http.StatusBadRequest, "bad_request", "duration_seconds must be within 1..60")
		return
	}

	result, err := a.Videos.Generate(ctx, video.GenerateRequest{
		Prompt:          prompt,
		Image:           source,
		ImageMIME:       http.DetectContentType(source),
		AspectRatio:     aspect,
		DurationSeconds: duration,
	})
	if err != nil {
		a.serviceError(w, err)
		return
	}

	asset, err := a.saveAsset(ctx, domain.FeatureVideoGeneration, domain.AssetKindVideo, result.Data, result.Format, 0, 0)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"asset": viewAsset(*asset)})
}
