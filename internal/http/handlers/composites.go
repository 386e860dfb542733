package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"adcraft/internal/compositor"
	"adcraft/internal/domain"
)

type ctaOverlayRequest struct {
	AssetID     string  `json:"asset_id" validate:"omitempty,uuid4"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
	Headline    string  `json:"headline" validate:"omitempty,max=120"`
	Subheadline string  `json:"subheadline" validate:"omitempty,max=200"`
	Position    string  `json:"position" validate:"omitempty,oneof=top bottom"`
	TextColor   string  `json:"text_color" validate:"omitempty,hexcolor"`
	BandOpacity float64 `json:"band_opacity" validate:"omitempty,gt=0,lte=1"`
}

// CompositeCTA burns a call-to-action band onto an image. With no headline
// and no subheadline the source passes through untouched but is still stored
// as a new asset, so callers always get a fresh id back.
func (a *App) CompositeCTA(w http.ResponseWriter, r *http.Request) {
	var req ctaOverlayRequest
	if !a.decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	source, _, err := a.resolveSource(ctx, req.AssetID, req.ImageURL)
	if err != nil {
		a.serviceError(w, err)
		return
	}

	out, err := compositor.OverlayCTA(source, domain.OverlaySpec{
		Headline:    req.Headline,
		Subheadline: req.Subheadline,
		Position:    domain.NormalizePosition(req.Position),
		TextColor:   req.TextColor,
		BandOpacity: req.BandOpacity,
	})
	if err != nil {
		a.serviceError(w, err)
		return
	}

	width, height := compositor.Dimensions(out)
	asset, err := a.saveAsset(ctx, domain.FeatureCTAOverlay, domain.AssetKindImage, out, http.DetectContentType(out), width, height)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"asset": viewAsset(*asset)})
}

// CompositeShadow renders a local drop shadow under a cutout. This is the
// offline counterpart to the provider shadow edit and needs no API quota.
func (a *App) CompositeShadow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
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

	intensity := formInt(r, "intensity", 60)
	out, err := compositor.SynthesizeShadow(source, intensity)
	if err != nil {
		a.serviceError(w, err)
		return
	}

	width, height := compositor.Dimensions(out)
	asset, err := a.saveAsset(ctx, domain.FeatureShadow, domain.AssetKindImage, out, "image/png", width, height)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"asset": viewAsset(*asset)})
}

// CompositeMerge places a cutout onto a background scene at (x, y).
func (a *App) CompositeMerge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}

	background, bgURL, err := a.formImage(r, "background")
	if err == nil && background == nil && bgURL != "" {
		background, _, err = a.resolveSource(ctx, "", bgURL)
	}
	if err != nil {
		a.serviceError(w, err)
		return
	}
	if background == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "background file, background_url or background_asset_id is required")
		return
	}

	cutout, cutoutURL, err := a.formImage(r, "cutout")
	if err == nil && cutout == nil && cutoutURL != "" {
		cutout, _, err = a.resolveSource(ctx, "", cutoutURL)
	}
	if err != nil {
		a.serviceError(w, err)
		return
	}
	if cutout == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "cutout file, cutout_url or cutout_asset_id is required")
		return
	}

	x, err := strconv.Atoi(strings.TrimSpace(r.FormValue("x")))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "x must be an integer")
		return
	}
	y, err := strconv.Atoi(strings.TrimSpace(r.FormValue("y")))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "y must be an integer")
		return
	}

	out, err := compositor.MergeCutout(background, cutout, x, y)
	if err != nil {
		a.serviceError(w, err)
		return
	}

	width, height := compositor.Dimensions(out)
	asset, err := a.saveAsset(ctx, domain.FeatureCutoutMerge, domain.AssetKindImage, out, "image/png", width, height)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"asset": viewAsset(*asset)})
}
