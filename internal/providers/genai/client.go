package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"adcraft/internal/domain"
	"adcraft/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("genai: api key is required")

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	VideoModel string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client is a facade over the Gemini REST API. It covers the two surfaces
// this service needs: text generation (prompt enhancement and vision merge)
// and Veo image-to-video long-running operations.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	videoModel string
	httpClient *http.Client
	logger     *infra.Logger
}

// TextRequest asks the model for a single text completion, optionally
// conditioned on an inline image.
type TextRequest struct {
	Prompt      string
	Image       []byte
	ImageMIME   string
	Temperature float64
}

// VideoRequest starts an image-to-video generation job.
type VideoRequest struct {
	Prompt          string
	Image           []byte
	ImageMIME       string
	AspectRatio     string
	DurationSeconds int
}

// VideoJob identifies a long-running Veo operation.
type VideoJob struct {
	Name string
}

// VideoOperation is a snapshot of a long-running operation's state.
type VideoOperation struct {
	Done         bool
	ErrorMessage string
	VideoURI     string
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature    float64 `json:"temperature,omitempty"`
	CandidateCount int     `json:"candidateCount,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type veoInstance struct {
	Prompt string    `json:"prompt"`
	Image  *veoImage `json:"image,omitempty"`
}

type veoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type veoParameters struct {
	AspectRatio     string `json:"aspectRatio,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

type veoPredictRequest struct {
	Instances  []veoInstance `json:"instances"`
	Parameters veoParameters `json:"parameters"`
}

type operationResponse struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-1.5-pro"
	}
	videoModel := strings.TrimSpace(opts.VideoModel)
	if videoModel == "" {
		videoModel = "veo-3.1-generate-001"
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
		model:      model,
		videoModel: videoModel,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured text model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// GenerateText returns the first non-empty candidate text for the request.
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if !c.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}
	parts := []geminiPart{{Text: prompt}}
	if len(req.Image) > 0 {
		mime := req.ImageMIME
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(req.Image),
		}})
	}
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:    req.Temperature,
			CandidateCount: 1,
		},
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &response); err != nil {
		return "", err
	}
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("%w: gemini returned no text", domain.ErrProviderFailure)
}

// StartVideoGeneration submits a Veo image-to-video job and returns the
// long-running operation handle.
func (c *Client) StartVideoGeneration(ctx context.Context, req VideoRequest) (*VideoJob, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}
	instance := veoInstance{Prompt: prompt}
	if len(req.Image) > 0 {
		mime := req.ImageMIME
		if mime == "" {
			mime = "image/png"
		}
		instance.Image = &veoImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(req.Image),
			MimeType:           mime,
		}
	}
	payload := veoPredictRequest{
		Instances: []veoInstance{instance},
		Parameters: veoParameters{
			AspectRatio:     strings.TrimSpace(req.AspectRatio),
			DurationSeconds: req.DurationSeconds,
		},
	}

	var op operationResponse
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &op); err != nil {
		return nil, err
	}
	if strings.TrimSpace(op.Name) == "" {
		return nil, fmt.Errorf("%w: veo returned no operation name", domain.ErrProviderFailure)
	}
	c.logger.Debug().
		Str("model", c.videoModel).
		Str("operation", op.Name).
		Msg("genai: started video generation")
	return &VideoJob{Name: op.Name}, nil
}

// VideoOperation fetches the current state of a long-running Veo operation.
func (c *Client) VideoOperation(ctx context.Context, name string) (*VideoOperation, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if name == "" {
		return nil, fmt.Errorf("%w: operation name is required", domain.ErrInvalidInput)
	}
	var op operationResponse
	if err := c.invoke(ctx, http.MethodGet, "/"+name, nil, &op); err != nil {
		return nil, err
	}
	state := &VideoOperation{Done: op.Done, ErrorMessage: strings.TrimSpace(op.Error.Message)}
	for _, sample := range op.Response.GenerateVideoResponse.GeneratedSamples {
		if uri := strings.TrimSpace(sample.Video.URI); uri != "" {
			state.VideoURI = uri
			break
		}
	}
	return state, nil
}

// DownloadFile retrieves a generated file URI, authenticating against the
// API when the URI is relative to it.
func (c *Client) DownloadFile(ctx context.Context, uri string) ([]byte, string, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("genai: build download request: %w", err)
	}
	if c.apiKey != "" {
		q := req.URL.Query()
		q.Set("key", c.apiKey)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("genai: download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("genai: download status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("genai: read file: %w", err)
	}
	return blob, resp.Header.Get("Content-Type"), nil
}

func (c *Client) invoke(ctx context.Context, method, path string, payload any, out any) error {
	endpoint := c.baseURL + path
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("genai: encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("genai: build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("genai: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		var apiErr geminiErrorResponse
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%w: gemini status %d: %s", domain.ErrProviderFailure, resp.StatusCode, apiErr.Error.Message)
		}
		if len(raw) > 0 {
			return fmt.Errorf("%w: gemini status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return fmt.Errorf("%w: gemini status %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("genai: decode response: %w", err)
	}
	return nil
}
