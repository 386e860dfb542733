package image

import (
	"context"
	"strings"
)

// EditOperation enumerates the supported photography edits.
type EditOperation string

const (
	EditRemoveBackground EditOperation = "remove_bg"
	EditPackshot         EditOperation = "packshot"
	EditShadow           EditOperation = "shadow"
	EditLifestyle        EditOperation = "lifestyle"
)

// GenerateRequest describes a normalized HD text-to-image request.
type GenerateRequest struct {
	Prompt      string
	AspectRatio string
	Style       string
	NumResults  int
}

// EditRequest describes a normalized photography edit. Exactly one of
// ImageData / ImageURL carries the source product photo.
type EditRequest struct {
	Operation       EditOperation
	ImageData       []byte
	ImageURL        string
	BackgroundColor string
	ShadowIntensity int
	ScenePrompt     string
	RefImageData    []byte
	RefImageURL     string
	NumResults      int
}

// Asset represents a generated or edited image.
type Asset struct {
	URL    string
	Format string
	Width  int
	Height int
	Data   []byte
}

// Generator is the contract for text-to-image providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]Asset, error)
}

// Editor is the contract for photography-edit providers.
type Editor interface {
	Edit(ctx context.Context, req EditRequest) ([]Asset, error)
}

// NormalizeOperation sanitizes free-form user input into a supported edit,
// returning false for anything unrecognized.
func NormalizeOperation(op string) (EditOperation, bool) {
	switch EditOperation(strings.ToLower(strings.TrimSpace(op))) {
	case EditRemoveBackground:
		return EditRemoveBackground, true
	case EditPackshot:
		return EditPackshot, true
	case EditShadow:
		return EditShadow, true
	case EditLifestyle:
		return EditLifestyle, true
	default:
		return "", false
	}
}
