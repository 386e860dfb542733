package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"adcraft/internal/domain"
	"adcraft/internal/providers/image"
	"adcraft/internal/providers/prompt"
)

// ImagesEdit runs one photography edit against an uploaded product photo.
// The source arrives as a multipart "image" file, an "image_url" field or a
// catalog "asset_id"; the "operation" field selects the edit.
func (a *App) ImagesEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}

	op, ok := image.NormalizeOperation(r.FormValue("operation"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "operation must be one of remove_bg, packshot, shadow, lifestyle")
		return
	}

	source, sourceURL, err := a.formImage(r, "image")
	if err != nil {
		a.serviceError(w, err)
		return
	}

	req := image.EditRequest{
		Operation:       op,
		ImageData:       source,
		ImageURL:        sourceURL,
		BackgroundColor: strings.TrimSpace(r.FormValue("background_color")),
		NumResults:      formInt(r, "num_results", 1),
	}

	switch op {
	case image.EditShadow:
		intensity := formInt(r, "shadow_intensity", 60)
		if intensity < 0 || intensity > 100 {
			a.error(w, http.StatusBadRequest, "bad_request", "shadow_intensity must be within 0..100")
			return
		}
		req.ShadowIntensity = intensity

	case image.EditLifestyle:
		if err := a.prepareLifestyle(r, &req); err != nil {
			a.serviceError(w, err)
			return
		}
	}

	// Lifestyle-by-image needs the raw pixels, not a URL.
	if req.ImageData == nil && req.ImageURL != "" && op != image.EditRemoveBackground {
		data, _, err := a.resolveSource(ctx, "", req.ImageURL)
		if err != nil {
			a.serviceError(w, err)
			return
		}
		req.ImageData = data
		req.ImageURL = ""
	}

	results, err := a.Editor.Edit(ctx, req)
	if err != nil {
		a.serviceError(w, err)
		return
	}

	saved, err := a.saveImageAssets(ctx, featureForOperation(op), results)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"assets": viewAssets(saved)})
}

// prepareLifestyle resolves the scene reference (template, uploaded image or
// URL) and the scene prompt. When both a prompt and a reference image are
// present they are merged through the vision enhancer so the text endpoint
// can reproduce the reference setting.
func (a *App) prepareLifestyle(r *http.Request, req *image.EditRequest) error {
	ctx := r.Context()
	scenePrompt := strings.TrimSpace(r.FormValue("scene_prompt"))

	refData, refURL, err := a.formImage(r, "ref_image")
	if err != nil {
		return err
	}
	if refData == nil && refURL == "" {
		if name := strings.TrimSpace(r.FormValue("ref_template")); name != "" {
			refData, err = a.readTemplate(name)
			if err != nil {
				return err
			}
		}
	}
	if refData == nil && refURL != "" {
		refData, _, err = a.downloadInput(ctx, refURL)
		if err != nil {
			return err
		}
		refURL = ""
	}

	if scenePrompt == "" && refData == nil && refURL == "" {
		return fmt.Errorf("%w: lifestyle requires scene_prompt, ref_image, ref_image_url or ref_template", domain.ErrInvalidInput)
	}

	if scenePrompt != "" && refData != nil {
		merged, err := a.Enhancer.MergeVision(ctx, prompt.RefImage{Data: refData, MIME: http.DetectContentType(refData)}, scenePrompt)
		if err == nil && merged != "" {
			scenePrompt = merged
		}
		// With a merged prompt the reference has done its job.
		refData, refURL = nil, ""
	}

	req.ScenePrompt = scenePrompt
	req.RefImageData = refData
	req.RefImageURL = refURL
	return nil
}

// formImage pulls a source image from a multipart file field, falling back to
// the matching _url and asset_id fields. Exactly one of the returns is set.
func (a *App) formImage(r *http.Request, field string) ([]byte, string, error) {
	if file, _, err := r.FormFile(field); err == nil {
		defer file.Close()
		data, err := readUpload(file)
		if err != nil {
			return nil, "", err
		}
		return data, "", nil
	}

	if id := strings.TrimSpace(r.FormValue(field + "_asset_id")); id != "" {
		data, _, err := a.resolveSource(r.Context(), id, "")
		if err != nil {
			return nil, "", err
		}
		return data, "", nil
	}
	if id := strings.TrimSpace(r.FormValue("asset_id")); id != "" && field == "image" {
		data, _, err := a.resolveSource(r.Context(), id, "")
		if err != nil {
			return nil, "", err
		}
		return data, "", nil
	}

	if u := strings.TrimSpace(r.FormValue(field + "_url")); u != "" {
		return nil, u, nil
	}
	if field == "image" {
		return nil, "", fmt.Errorf("%w: image file, image_url or asset_id is required", domain.ErrInvalidInput)
	}
	return nil, "", nil
}

func readUpload(file multipart.File) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", domain.ErrInvalidInput)
	}
	if len(data) > maxUploadBytes {
		return nil, fmt.Errorf("%w: uploaded file exceeds the size limit", domain.ErrInvalidInput)
	}
	return data, nil
}

// readTemplate loads a bundled scene template by bare filename.
func (a *App) readTemplate(name string) ([]byte, error) {
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: invalid template name", domain.ErrInvalidInput)
	}
	data, err := os.ReadFile(filepath.Join(a.Config.TemplateDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: template %q", domain.ErrNotFound, name)
		}
		return nil, fmt.Errorf("read template: %w", err)
	}
	return data, nil
}

func formInt(r *http.Request, field string, fallback int) int {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func featureForOperation(op image.EditOperation) domain.Feature {
	switch op {
	case image.EditPackshot:
		return domain.FeaturePackshot
	case image.EditShadow:
		return domain.FeatureShadow
	case image.EditLifestyle:
		return domain.FeatureLifestyleShot
	default:
		return domain.FeatureBackgroundRemoval
	}
}
