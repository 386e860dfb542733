package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"adcraft/internal/catalog"
	"adcraft/internal/domain"
	"adcraft/internal/infra"
	"adcraft/internal/providers/image"
	"adcraft/internal/providers/prompt"
	"adcraft/internal/providers/video"
	"adcraft/internal/storage"
)

// maxUploadBytes bounds multipart uploads (product photos and cutouts).
const maxUploadBytes = 32 << 20

var aspectRatioPattern = regexp.MustCompile(`^\d{1,2}:\d{1,2}$`)

// App is the handler container: every route is a method on it and all
// collaborators are injected once at startup.
type App struct {
	Config   *infra.Config
	Logger   infra.Logger
	Store    *storage.FileStore
	Catalog  *catalog.Catalog
	Images   image.Generator
	Editor   image.Editor
	Enhancer prompt.Enhancer
	Videos   video.Generator
	Validate *validator.Validate

	// HTTPClient fetches caller-supplied image URLs (inputs, not results).
	HTTPClient *http.Client
}

// Options bundles the collaborators NewApp wires into the container.
type Options struct {
	Config   *infra.Config
	Logger   infra.Logger
	Store    *storage.FileStore
	Catalog  *catalog.Catalog
	Images   image.Generator
	Editor   image.Editor
	Enhancer prompt.Enhancer
	Videos   video.Generator
}

func NewApp(opts Options) *App {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("aspect_ratio", validateAspectRatio)

	return &App{
		Config:     opts.Config,
		Logger:     opts.Logger,
		Store:      opts.Store,
		Catalog:    opts.Catalog,
		Images:     opts.Images,
		Editor:     opts.Editor,
		Enhancer:   opts.Enhancer,
		Videos:     opts.Videos,
		Validate:   v,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func validateAspectRatio(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return aspectRatioPattern.MatchString(value)
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]errBody{"error": {Code: errCode, Message: message}})
}

// serviceError maps domain errors onto the HTTP taxonomy: validation 400,
// quota 403, upstream 502, poll timeout 504, everything else 500. Provider
// messages ride along verbatim.
func (a *App) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidImage):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrQuotaExceeded):
		a.error(w, http.StatusForbidden, "quota_exceeded", err.Error())
	case errors.Is(err, domain.ErrJobTimeout):
		a.error(w, http.StatusGatewayTimeout, "timeout", err.Error())
	case errors.Is(err, domain.ErrProviderFailure):
		a.error(w, http.StatusBadGateway, "provider_error", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.error(w, http.StatusGatewayTimeout, "timeout", "request cancelled or timed out")
	default:
		a.Logger.Error().Err(err).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
		return false
	}
	if err := a.Validate.Struct(dst); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) && len(invalid) > 0 {
		fe := invalid[0]
		return fmt.Sprintf("field %q failed validation rule %q", fe.Field(), fe.Tag())
	}
	return "invalid payload"
}

// assetURL builds the public URL for a storage key.
func (a *App) assetURL(storageKey string) string {
	return strings.TrimRight(a.Config.StorageBaseURL, "/") + "/" + strings.TrimLeft(storageKey, "/")
}

// saveAsset persists generated bytes to the result store and records the
// asset in the catalog. The file must be readable before the asset's URL is
// handed out, which is re-checked here rather than assumed.
func (a *App) saveAsset(ctx context.Context, feature domain.Feature, kind domain.AssetKind, data []byte, mime string, width, height int) (*domain.Asset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty asset payload", domain.ErrInvalidInput)
	}
	id := uuid.NewString()
	key := fmt.Sprintf("%s/%s%s", feature, id, extensionForMIME(mime, kind))
	cleanKey, err := a.Store.Write(ctx, key, data)
	if err != nil {
		return nil, err
	}
	if !a.Store.Exists(cleanKey) {
		return nil, fmt.Errorf("asset %s not readable after write", cleanKey)
	}
	asset := domain.Asset{
		ID:         id,
		Kind:       kind,
		Feature:    feature,
		StorageKey: cleanKey,
		URL:        a.assetURL(cleanKey),
		MIME:       mime,
		Width:      width,
		Height:     height,
		Bytes:      int64(len(data)),
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.Catalog.Insert(ctx, asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

func extensionForMIME(mime string, kind domain.AssetKind) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	}
	if kind == domain.AssetKindVideo {
		return ".mp4"
	}
	return ".png"
}

// downloadInput fetches a caller-supplied source image URL.
func (a *App) downloadInput(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid image_url", domain.ErrInvalidInput)
	}
	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: fetch image_url: %v", domain.ErrInvalidInput, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: image_url returned status %d", domain.ErrInvalidInput, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUploadBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read image_url: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// resolveSource loads image bytes from either a catalog asset id or an
// image URL; URLs under our own storage base resolve straight from disk.
func (a *App) resolveSource(ctx context.Context, assetID, imageURL string) ([]byte, string, error) {
	if assetID = strings.TrimSpace(assetID); assetID != "" {
		asset, err := a.Catalog.Get(ctx, assetID)
		if err != nil {
			return nil, "", err
		}
		data, err := a.Store.Read(ctx, asset.StorageKey)
		if err != nil {
			return nil, "", err
		}
		return data, asset.MIME, nil
	}
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, "", fmt.Errorf("%w: asset_id or image_url is required", domain.ErrInvalidInput)
	}
	base := strings.TrimRight(a.Config.StorageBaseURL, "/") + "/"
	if key, ok := strings.CutPrefix(imageURL, base); ok {
		data, err := a.Store.Read(ctx, key)
		return data, "", err
	}
	return a.downloadInput(ctx, imageURL)
}

type assetView struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Feature   string    `json:"feature"`
	URL       string    `json:"url"`
	MIME      string    `json:"mime"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Bytes     int64     `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

func viewAsset(asset domain.Asset) assetView {
	return assetView{
		ID:        asset.ID,
		Kind:      string(asset.Kind),
		Feature:   string(asset.Feature),
		URL:       asset.URL,
		MIME:      asset.MIME,
		Width:     asset.Width,
		Height:    asset.Height,
		Bytes:     asset.Bytes,
		CreatedAt: asset.CreatedAt,
	}
}

func viewAssets(assets []domain.Asset) []assetView {
	out := make([]assetView, len(assets))
	for i, asset := range assets {
		out[i] = viewAsset(asset)
	}
	return out
}
