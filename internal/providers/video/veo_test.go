package video

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"adcraft/internal/domain"
	"adcraft/internal/providers/genai"
)

const (
	submitPath    = "/models/veo-test:predictLongRunning"
	operationPath = "/operations/op-1"
	filePath      = "/files/video-1"
)

func newGenerator(t *testing.T, transport http.RoundTripper, maxAttempts int) *VeoGenerator {
	t.Helper()
	client, err := genai.NewClient(genai.Options{
		APIKey:     "secret",
		BaseURL:    "https://genai.test",
		VideoModel: "veo-test",
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return NewVeoGenerator(client, time.Millisecond, maxAttempts)
}

func TestGenerateCompletesAfterPolling(t *testing.T) {
	transport := &sequenceTransport{
		byPath: map[string][]string{
			submitPath: {`{"name": "operations/op-1"}`},
			operationPath: {
				`{"name": "operations/op-1", "done": false}`,
				`{"name": "operations/op-1", "done": false}`,
				`{"name": "operations/op-1", "done": true, "response": {"generateVideoResponse": {"generatedSamples": [{"video": {"uri": "files/video-1"}}]}}}`,
			},
			filePath: {"mp4-bytes"},
		},
		contentTypes: map[string]string{filePath: "video/mp4"},
	}

	gen := newGenerator(t, transport, 10)
	asset, err := gen.Generate(context.Background(), GenerateRequest{
		Prompt:          "pan around the product",
		Image:           []byte{0x01},
		DurationSeconds: 8,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(asset.Data) != "mp4-bytes" {
		t.Fatalf("data = %q", asset.Data)
	}
	if asset.Format != "video/mp4" {
		t.Fatalf("format = %q", asset.Format)
	}
	if got := transport.calls[operationPath]; got != 3 {
		t.Fatalf("operation polls = %d, want 3", got)
	}
}

func TestGenerateTimesOutAfterMaxAttempts(t *testing.T) {
	transport := &sequenceTransport{
		byPath: map[string][]string{
			submitPath:    {`{"name": "operations/op-1"}`},
			operationPath: {`{"name": "operations/op-1", "done": false}`},
		},
		repeatLast: true,
	}

	gen := newGenerator(t, transport, 3)
	_, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "spin"})
	if !errors.Is(err, domain.ErrJobTimeout) {
		t.Fatalf("err = %v, want ErrJobTimeout", err)
	}
	if got := transport.calls[operationPath]; got != 3 {
		t.Fatalf("operation polls = %d, want 3", got)
	}
}

func TestGenerateRelaysTerminalError(t *testing.T) {
	transport := &sequenceTransport{
		byPath: map[string][]string{
			submitPath:    {`{"name": "operations/op-1"}`},
			operationPath: {`{"name": "operations/op-1", "done": true, "error": {"message": "unsafe content"}}`},
		},
	}

	gen := newGenerator(t, transport, 5)
	_, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "spin"})
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("err = %v, want ErrProviderFailure", err)
	}
	if !strings.Contains(err.Error(), "unsafe content") {
		t.Fatalf("err %q does not relay the provider message", err)
	}
}

func TestGenerateStopsOnContextCancel(t *testing.T) {
	transport := &sequenceTransport{
		byPath: map[string][]string{
			submitPath:    {`{"name": "operations/op-1"}`},
			operationPath: {`{"name": "operations/op-1", "done": false}`},
		},
		repeatLast: true,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := newGenerator(t, transport, 100)
	_, err := gen.Generate(ctx, GenerateRequest{Prompt: "spin"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

// sequenceTransport replays canned responses per path, advancing through the
// list on each call.
type sequenceTransport struct {
	byPath       map[string][]string
	contentTypes map[string]string
	repeatLast   bool
	calls        map[string]int
}

func (s *sequenceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	path := req.URL.Path
	bodies, ok := s.byPath[path]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader("not found")),
		}, nil
	}
	idx := s.calls[path]
	s.calls[path]++
	if idx >= len(bodies) {
		if !s.repeatLast {
			return &http.Response{
				StatusCode: http.StatusNotFound,
				Body:       io.NopCloser(strings.NewReader("sequence exhausted")),
			}, nil
		}
		idx = len(bodies) - 1
	}

	header := http.Header{"Content-Type": []string{"application/json"}}
	if ct, ok := s.contentTypes[path]; ok {
		header.Set("Content-Type", ct)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(bodies[idx]))),
	}, nil
}
