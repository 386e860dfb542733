package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"adcraft/internal/domain"
)

func newTestClient(t *testing.T, transport http.RoundTripper) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:     "secret",
		BaseURL:    "https://genai.test/v1beta",
		Model:      "gemini-test",
		VideoModel: "veo-test",
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestGenerateTextReturnsFirstCandidate(t *testing.T) {
	transport := &stubTransport{responses: map[string]stubResponse{}}
	transport.setJSON("/v1beta/models/gemini-test:generateContent", map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{
				map[string]any{"text": "  a detailed studio prompt  "},
			}}},
		},
	})

	client := newTestClient(t, transport)
	text, err := client.GenerateText(context.Background(), TextRequest{Prompt: "sneakers"})
	if err != nil {
		t.Fatalf("generate text: %v", err)
	}
	if text != "a detailed studio prompt" {
		t.Fatalf("text = %q", text)
	}
	if got := transport.lastQuery.Get("key"); got != "secret" {
		t.Fatalf("key query = %q, want secret", got)
	}
}

func TestGenerateTextAttachesInlineImage(t *testing.T) {
	transport := &stubTransport{responses: map[string]stubResponse{}}
	transport.setJSON("/v1beta/models/gemini-test:generateContent", map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{
				map[string]any{"text": "merged"},
			}}},
		},
	})

	client := newTestClient(t, transport)
	_, err := client.GenerateText(context.Background(), TextRequest{
		Prompt:    "merge this",
		Image:     []byte{0x01, 0x02},
		ImageMIME: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("generate text: %v", err)
	}

	var payload geminiGenerateContentRequest
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Contents) != 1 || len(payload.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected payload shape: %+v", payload)
	}
	inline := payload.Contents[0].Parts[1].InlineData
	if inline == nil || inline.MimeType != "image/jpeg" || inline.Data == "" {
		t.Fatalf("inline data missing: %+v", inline)
	}
}

func TestGenerateTextRelaysAPIError(t *testing.T) {
	transport := &stubTransport{responses: map[string]stubResponse{}}
	transport.responses["/v1beta/models/gemini-test:generateContent"] = stubResponse{
		status: http.StatusBadRequest,
		body:   []byte(`{"error": {"code": 400, "message": "API key not valid"}}`),
	}

	client := newTestClient(t, transport)
	_, err := client.GenerateText(context.Background(), TextRequest{Prompt: "anything"})
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("err = %v, want ErrProviderFailure", err)
	}
	if !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("err %q does not relay the provider message", err)
	}
}

func TestStartVideoGenerationReturnsOperation(t *testing.T) {
	transport := &stubTransport{responses: map[string]stubResponse{}}
	transport.setJSON("/v1beta/models/veo-test:predictLongRunning", map[string]any{
		"name": "models/veo-test/operations/op-1",
	})

	client := newTestClient(t, transport)
	job, err := client.StartVideoGeneration(context.Background(), VideoRequest{
		Prompt:          "rotate the product",
		Image:           []byte{0x01},
		AspectRatio:     "16:9",
		DurationSeconds: 8,
	})
	if err != nil {
		t.Fatalf("start video: %v", err)
	}
	if job.Name != "models/veo-test/operations/op-1" {
		t.Fatalf("name = %q", job.Name)
	}

	var payload veoPredictRequest
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Instances) != 1 || payload.Instances[0].Image == nil {
		t.Fatalf("instance image missing: %+v", payload)
	}
	if payload.Parameters.AspectRatio != "16:9" || payload.Parameters.DurationSeconds != 8 {
		t.Fatalf("parameters = %+v", payload.Parameters)
	}
}

func TestVideoOperationStates(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		done     bool
		errMsg   string
		videoURI string
	}{
		{
			name: "pending",
			body: `{"name": "op", "done": false}`,
		},
		{
			name:   "terminal error",
			body:   `{"name": "op", "done": true, "error": {"code": 13, "message": "generation failed"}}`,
			done:   true,
			errMsg: "generation failed",
		},
		{
			name:     "completed",
			body:     `{"name": "op", "done": true, "response": {"generateVideoResponse": {"generatedSamples": [{"video": {"uri": "files/video-1"}}]}}}`,
			done:     true,
			videoURI: "files/video-1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transport := &stubTransport{responses: map[string]stubResponse{}}
			transport.responses["/v1beta/models/veo-test/operations/op-1"] = stubResponse{
				status: http.StatusOK,
				body:   []byte(tc.body),
			}

			client := newTestClient(t, transport)
			op, err := client.VideoOperation(context.Background(), "models/veo-test/operations/op-1")
			if err != nil {
				t.Fatalf("video operation: %v", err)
			}
			if op.Done != tc.done || op.ErrorMessage != tc.errMsg || op.VideoURI != tc.videoURI {
				t.Fatalf("op = %+v", op)
			}
		})
	}
}

func TestDownloadFileAppendsKey(t *testing.T) {
	transport := &stubTransport{responses: map[string]stubResponse{}}
	transport.responses["/v1beta/files/video-1"] = stubResponse{
		status: http.StatusOK,
		header: http.Header{"Content-Type": []string{"video/mp4"}},
		body:   []byte("mp4-bytes"),
	}

	client := newTestClient(t, transport)
	data, mime, err := client.DownloadFile(context.Background(), "files/video-1")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(data) != "mp4-bytes" || mime != "video/mp4" {
		t.Fatalf("data = %q, mime = %q", data, mime)
	}
	if got := transport.lastQuery.Get("key"); got != "secret" {
		t.Fatalf("key query = %q, want secret", got)
	}
}

type stubTransport struct {
	responses map[string]stubResponse
	lastBody  []byte
	lastQuery url.Values
}

type stubResponse struct {
	status int
	header http.Header
	body   []byte
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.lastQuery = req.URL.Query()
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		s.lastBody = body
	}
	if stub, ok := s.responses[req.URL.Path]; ok {
		status := stub.status
		if status == 0 {
			status = http.StatusOK
		}
		header := http.Header{}
		for k, values := range stub.header {
			header[k] = append([]string(nil), values...)
		}
		return &http.Response{
			StatusCode: status,
			Header:     header,
			Body:       io.NopCloser(bytes.NewReader(stub.body)),
		}, nil
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (s *stubTransport) setJSON(path string, payload any) {
	body, _ := json.Marshal(payload)
	s.responses[path] = stubResponse{
		status: http.StatusOK,
		header: http.Header{"Content-Type": []string{"application/json"}},
		body:   body,
	}
}
