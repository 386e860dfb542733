package video

import (
	"context"
	"fmt"
	"time"

	"adcraft/internal/domain"
	"adcraft/internal/providers/genai"
)

// GenerateRequest describes an image-to-video generation.
type GenerateRequest struct {
	Prompt          string
	Image           []byte
	ImageMIME       string
	AspectRatio     string
	DurationSeconds int
}

// Asset is a completed video ready for persistence.
type Asset struct {
	URL    string
	Format string
	Data   []byte
	Length int
}

// Generator is the contract implemented by all video providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Asset, error)
}

// VeoGenerator drives Veo's long-running operations: submit, then poll at a
// fixed interval until the operation reaches a terminal state or the attempt
// budget runs out. There is no backoff; the upstream job queue dominates
// latency, not our polling pressure.
type VeoGenerator struct {
	client       *genai.Client
	pollInterval time.Duration
	maxAttempts  int
}

// NewVeoGenerator constructs a generator. Non-positive interval or attempt
// values fall back to the defaults the original deployment used (10s, 40
// attempts, roughly a seven minute ceiling).
func NewVeoGenerator(client *genai.Client, pollInterval time.Duration, maxAttempts int) *VeoGenerator {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 40
	}
	return &VeoGenerator{client: client, pollInterval: pollInterval, maxAttempts: maxAttempts}
}

func (g *VeoGenerator) Generate(ctx context.Context, req GenerateRequest) (*Asset, error) {
	job, err := g.client.StartVideoGeneration(ctx, genai.VideoRequest{
		Prompt:          req.Prompt,
		Image:           req.Image,
		ImageMIME:       req.ImageMIME,
		AspectRatio:     req.AspectRatio,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.pollInterval):
		}

		op, err := g.client.VideoOperation(ctx, job.Name)
		if err != nil {
			return nil, err
		}
		if !op.Done {
			continue
		}
		if op.ErrorMessage != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrProviderFailure, op.ErrorMessage)
		}
		if op.VideoURI == "" {
			return nil, fmt.Errorf("%w: video operation finished without a result", domain.ErrProviderFailure)
		}
		return g.fetch(ctx, op.VideoURI, req.DurationSeconds)
	}

	return nil, fmt.Errorf("%w: gave up after %d polls", domain.ErrJobTimeout, g.maxAttempts)
}

func (g *VeoGenerator) fetch(ctx context.Context, uri string, duration int) (*Asset, error) {
	data, mime, err := g.client.DownloadFile(ctx, uri)
	if err != nil {
		return nil, err
	}
	if mime == "" {
		mime = "video/mp4"
	}
	return &Asset{URL: uri, Format: mime, Data: data, Length: duration}, nil
}

var _ Generator = (*VeoGenerator)(nil)
