package bria

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"adcraft/internal/domain"
	"adcraft/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("bria: api key is required")

const (
	pathGenerateHD       = "/v1/text-to-image/hd"
	pathRemoveBackground = "/v1/background/remove"
	pathPackshot         = "/v1/product/packshot"
	pathShadow           = "/v1/product/shadow"
	pathLifestyleByText  = "/v1/product/lifestyle_shot_by_text"
	pathLifestyleByImage = "/v1/product/lifestyle_shot_by_image"
)

// Options configures the Bria engine client.
type Options struct {
	APIKey            string
	BaseURL           string
	HTTPClient        *http.Client
	Logger            *infra.Logger
	RequestsPerMinute int
	RequestTimeout    time.Duration
}

// Client performs HTTP calls to the Bria image engine. All calls are
// synchronous (sync=true): Bria holds the connection until results are
// ready, so no job polling is involved on the image side.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
	limiter    *rate.Limiter
}

// ImageAsset is the normalized result of any Bria operation: the provider's
// hosted URL plus the downloaded bytes and sniffed dimensions.
type ImageAsset struct {
	URL    string
	Data   []byte
	Format string
	Width  int
	Height int
}

// HDRequest captures the inputs for HD text-to-image generation.
type HDRequest struct {
	Prompt      string
	AspectRatio string
	Medium      string
	NumResults  int
}

// EditSource is an input image provided either as raw bytes or as a URL
// Bria can fetch itself.
type EditSource struct {
	Data []byte
	URL  string
}

// LifestyleTextRequest re-scenes a product cutout from a text description.
type LifestyleTextRequest struct {
	ImageData        []byte
	SceneDescription string
	NumResults       int
}

// LifestyleImageRequest re-scenes a product cutout using a reference image.
type LifestyleImageRequest struct {
	ImageData    []byte
	RefImageData []byte
	RefImageURL  string
	NumResults   int
}

// briaResponse tolerates the several result shapes the engine returns
// depending on endpoint and engine version.
type briaResponse struct {
	ResultURL  string          `json:"result_url"`
	ResultURLs []string        `json:"result_urls"`
	URLs       []string        `json:"urls"`
	Result     json.RawMessage `json:"result"`
	Code       json.Number     `json:"code"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://engine.prod.bria-api.com"
	}
	perMinute := opts.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 20
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// GenerateHD produces one or more HD images from a text prompt.
func (c *Client) GenerateHD(ctx context.Context, req HDRequest) ([]ImageAsset, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}
	numResults := req.NumResults
	if numResults <= 0 {
		numResults = 1
	}
	payload := map[string]any{
		"prompt":      prompt,
		"num_results": numResults,
		"sync":        true,
	}
	if aspect := strings.TrimSpace(req.AspectRatio); aspect != "" {
		payload["aspect_ratio"] = aspect
	}
	if medium := strings.TrimSpace(req.Medium); medium != "" {
		payload["medium"] = medium
	}
	resp, err := c.postJSON(ctx, pathGenerateHD, payload)
	if err != nil {
		return nil, err
	}
	return c.downloadResults(ctx, resp)
}

// RemoveBackground strips the background from the source image, returning a
// cutout with transparency at the original pixel dimensions.
func (c *Client) RemoveBackground(ctx context.Context, src EditSource) (*ImageAsset, error) {
	payload := map[string]any{
		"sync":               true,
		"content_moderation": false,
	}
	if err := attachSource(payload, src); err != nil {
		return nil, err
	}
	resp, err := c.postJSON(ctx, pathRemoveBackground, payload)
	if err != nil {
		return nil, err
	}
	return c.downloadFirst(ctx, resp)
}

// CreatePackshot turns a product photo into a studio packshot on a solid
// background color.
func (c *Client) CreatePackshot(ctx context.Context, data []byte, backgroundColor string) (*ImageAsset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image data is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(backgroundColor) == "" {
		backgroundColor = "#FFFFFF"
	}
	payload := map[string]any{
		"file":             base64.StdEncoding.EncodeToString(data),
		"background_color": backgroundColor,
		"sync":             true,
	}
	resp, err := c.postJSON(ctx, pathPackshot, payload)
	if err != nil {
		return nil, err
	}
	return c.downloadFirst(ctx, resp)
}

// AddShadow asks the engine to render a natural shadow beneath the product.
// The local compositor offers a cheaper offline variant of the same effect.
func (c *Client) AddShadow(ctx context.Context, data []byte, intensity int) (*ImageAsset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image data is required", domain.ErrInvalidInput)
	}
	if intensity < 0 || intensity > 100 {
		return nil, fmt.Errorf("%w: shadow intensity must be within 0..100", domain.ErrInvalidInput)
	}
	payload := map[string]any{
		"file":             base64.StdEncoding.EncodeToString(data),
		"shadow_intensity": intensity,
		"sync":             true,
	}
	resp, err := c.postJSON(ctx, pathShadow, payload)
	if err != nil {
		return nil, err
	}
	return c.downloadFirst(ctx, resp)
}

// LifestyleShotByText places the product into a scene described in text.
func (c *Client) LifestyleShotByText(ctx context.Context, req LifestyleTextRequest) ([]ImageAsset, error) {
	if len(req.ImageData) == 0 {
		return nil, fmt.Errorf("%w: image data is required", domain.ErrInvalidInput)
	}
	scene := strings.TrimSpace(req.SceneDescription)
	if scene == "" {
		return nil, fmt.Errorf("%w: scene description is required", domain.ErrInvalidInput)
	}
	numResults := req.NumResults
	if numResults <= 0 {
		numResults = 1
	}
	payload := map[string]any{
		"file":                 base64.StdEncoding.EncodeToString(req.ImageData),
		"scene_description":    scene,
		"placement_type":       "original",
		"num_results":          numResults,
		"sync":                 true,
		"fast":                 true,
		"optimize_description": true,
		"force_rmbg":           false,
		"content_moderation":   false,
	}
	resp, err := c.postJSON(ctx, pathLifestyleByText, payload)
	if err != nil {
		return nil, err
	}
	return c.downloadResults(ctx, resp)
}

// LifestyleShotByImage places the product into the exact setting of a
// reference image.
func (c *Client) LifestyleShotByImage(ctx context.Context, req LifestyleImageRequest) ([]ImageAsset, error) {
	if len(req.ImageData) == 0 {
		return nil, fmt.Errorf("%w: image data is required", domain.ErrInvalidInput)
	}
	if len(req.RefImageData) == 0 && strings.TrimSpace(req.RefImageURL) == "" {
		return nil, fmt.Errorf("%w: a reference image is required", domain.ErrInvalidInput)
	}
	numResults := req.NumResults
	if numResults <= 0 {
		numResults = 1
	}
	payload := map[string]any{
		"file":           base64.StdEncoding.EncodeToString(req.ImageData),
		"placement_type": "original",
		"num_results":    numResults,
		"sync":           true,
	}
	if len(req.RefImageData) > 0 {
		payload["ref_image_file"] = base64.StdEncoding.EncodeToString(req.RefImageData)
	} else {
		payload["ref_image_url"] = strings.TrimSpace(req.RefImageURL)
	}
	resp, err := c.postJSON(ctx, pathLifestyleByImage, payload)
	if err != nil {
		return nil, err
	}
	return c.downloadResults(ctx, resp)
}

func attachSource(payload map[string]any, src EditSource) error {
	switch {
	case strings.TrimSpace(src.URL) != "":
		payload["image_url"] = strings.TrimSpace(src.URL)
	case len(src.Data) > 0:
		payload["file"] = base64.StdEncoding.EncodeToString(src.Data)
	default:
		return fmt.Errorf("%w: an image or image_url is required", domain.ErrInvalidInput)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload map[string]any) (*briaResponse, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("bria: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("bria: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api_token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bria: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bria: read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, c.statusError(resp.StatusCode, raw)
	}

	var decoded briaResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("bria: decode response: %w", err)
	}
	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("bria: request completed")
	return &decoded, nil
}

// statusError relays the provider's own message verbatim and classifies
// auth/quota failures so handlers can map them to the right status code.
func (c *Client) statusError(status int, raw []byte) error {
	message := strings.TrimSpace(string(raw))
	var detail briaResponse
	if err := json.Unmarshal(raw, &detail); err == nil {
		if m := strings.TrimSpace(detail.Message); m != "" {
			message = m
		} else if m := strings.TrimSpace(detail.Error); m != "" {
			message = m
		}
	}
	if message == "" {
		message = http.StatusText(status)
	}
	switch status {
	case http.StatusPaymentRequired, http.StatusForbidden, http.StatusTooManyRequests:
		return fmt.Errorf("%w: bria status %d: %s", domain.ErrQuotaExceeded, status, message)
	default:
		return fmt.Errorf("%w: bria status %d: %s", domain.ErrProviderFailure, status, message)
	}
}

// downloadResults fetches every result URL concurrently, preserving order.
func (c *Client) downloadResults(ctx context.Context, resp *briaResponse) ([]ImageAsset, error) {
	urls := extractResultURLs(resp)
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: bria returned no result urls", domain.ErrProviderFailure)
	}
	assets := make([]ImageAsset, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, resultURL := range urls {
		i, resultURL := i, resultURL
		g.Go(func() error {
			asset, err := c.download(gctx, resultURL)
			if err != nil {
				return err
			}
			assets[i] = *asset
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

func (c *Client) downloadFirst(ctx context.Context, resp *briaResponse) (*ImageAsset, error) {
	assets, err := c.downloadResults(ctx, resp)
	if err != nil {
		return nil, err
	}
	return &assets[0], nil
}

func (c *Client) download(ctx context.Context, imageURL string) (*ImageAsset, error) {
	parsed, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || parsed.Scheme == "" {
		return nil, fmt.Errorf("bria: invalid result url: %s", imageURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("bria: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bria: download result: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bria: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bria: read result: %w", err)
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "image/png"
	}
	width, height := 0, 0
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height = cfg.Width, cfg.Height
	}
	return &ImageAsset{URL: imageURL, Data: data, Format: format, Width: width, Height: height}, nil
}

// extractResultURLs walks the response shapes the engine is known to emit:
// result_url, result_urls, urls, and a result list whose items may be
// objects with url/urls fields, nested lists, or bare strings.
func extractResultURLs(resp *briaResponse) []string {
	if resp == nil {
		return nil
	}
	if len(resp.ResultURLs) > 0 {
		return compactURLs(resp.ResultURLs)
	}
	if u := strings.TrimSpace(resp.ResultURL); u != "" {
		return []string{u}
	}
	if len(resp.URLs) > 0 {
		return compactURLs(resp.URLs)
	}
	if len(resp.Result) == 0 {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(resp.Result, &items); err != nil {
		return nil
	}
	var urls []string
	for _, item := range items {
		var asString string
		if err := json.Unmarshal(item, &asString); err == nil {
			if u := strings.TrimSpace(asString); u != "" {
				urls = append(urls, u)
			}
			continue
		}
		var asList []string
		if err := json.Unmarshal(item, &asList); err == nil {
			if len(asList) > 0 && strings.TrimSpace(asList[0]) != "" {
				urls = append(urls, strings.TrimSpace(asList[0]))
			}
			continue
		}
		var asObject struct {
			URL  string   `json:"url"`
			URLs []string `json:"urls"`
		}
		if err := json.Unmarshal(item, &asObject); err == nil {
			if len(asObject.URLs) > 0 && strings.TrimSpace(asObject.URLs[0]) != "" {
				urls = append(urls, strings.TrimSpace(asObject.URLs[0]))
			} else if u := strings.TrimSpace(asObject.URL); u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls
}

func compactURLs(in []string) []string {
	var out []string
	for _, u := range in {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
