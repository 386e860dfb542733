package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"adcraft/internal/domain"
	"adcraft/pkg/zip"
)

// AssetsList pages through the catalog, newest first.
func (a *App) AssetsList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}
	offset := queryInt(r, "offset", 0)

	assets, err := a.Catalog.List(r.Context(), limit, offset)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"assets": viewAssets(assets),
		"limit":  limit,
		"offset": offset,
	})
}

// AssetGet returns one asset's metadata.
func (a *App) AssetGet(w http.ResponseWriter, r *http.Request) {
	asset, err := a.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"asset": viewAsset(*asset)})
}

// AssetDownload streams the asset file with an attachment disposition.
func (a *App) AssetDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	asset, err := a.Catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		a.serviceError(w, err)
		return
	}
	data, err := a.Store.Read(ctx, asset.StorageKey)
	if err != nil {
		a.serviceError(w, err)
		return
	}

	filename := path.Base(asset.StorageKey)
	w.Header().Set("Content-Type", asset.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// AssetsZip bundles the requested assets (comma-separated ?ids=) into a
// single zip download. Every id must resolve; a missing asset fails the whole
// request rather than returning a partial archive.
func (a *App) AssetsZip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids := splitIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "ids query parameter is required")
		return
	}
	if len(ids) > 50 {
		a.error(w, http.StatusBadRequest, "bad_request", "at most 50 assets per archive")
		return
	}

	entries := make([]zip.Entry, 0, len(ids))
	for _, id := range ids {
		asset, err := a.Catalog.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				a.error(w, http.StatusNotFound, "not_found", fmt.Sprintf("asset %s not found", id))
				return
			}
			a.serviceError(w, err)
			return
		}
		data, err := a.Store.Read(ctx, asset.StorageKey)
		if err != nil {
			a.serviceError(w, err)
			return
		}
		entries = append(entries, zip.Entry{Filename: path.Base(asset.StorageKey), Data: data})
	}

	archive := zip.Archive(entries)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	w.Header().Set("Content-Disposition", `attachment; filename="assets.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
