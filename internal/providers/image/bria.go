package image

import (
	"context"
	"fmt"

	"adcraft/internal/domain"
	"adcraft/internal/providers/bria"
)

// BriaProvider adapts the Bria engine client to the provider-neutral
// Generator and Editor contracts.
type BriaProvider struct {
	client *bria.Client
}

func NewBriaProvider(client *bria.Client) *BriaProvider {
	return &BriaProvider{client: client}
}

func (p *BriaProvider) Generate(ctx context.Context, req GenerateRequest) ([]Asset, error) {
	assets, err := p.client.GenerateHD(ctx, bria.HDRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Medium:      req.Style,
		NumResults:  req.NumResults,
	})
	if err != nil {
		return nil, err
	}
	return convertAssets(assets), nil
}

func (p *BriaProvider) Edit(ctx context.Context, req EditRequest) ([]Asset, error) {
	switch req.Operation {
	case EditRemoveBackground:
		asset, err := p.client.RemoveBackground(ctx, bria.EditSource{Data: req.ImageData, URL: req.ImageURL})
		if err != nil {
			return nil, err
		}
		return convertAssets([]bria.ImageAsset{*asset}), nil

	case EditPackshot:
		asset, err := p.client.CreatePackshot(ctx, req.ImageData, req.BackgroundColor)
		if err != nil {
			return nil, err
		}
		return convertAssets([]bria.ImageAsset{*asset}), nil

	case EditShadow:
		asset, err := p.client.AddShadow(ctx, req.ImageData, req.ShadowIntensity)
		if err != nil {
			return nil, err
		}
		return convertAssets([]bria.ImageAsset{*asset}), nil

	case EditLifestyle:
		// A scene prompt routes through the text endpoint (any reference
		// image has already been merged into the prompt upstream);
		// otherwise the reference image drives exact composition.
		if req.ScenePrompt != "" {
			assets, err := p.client.LifestyleShotByText(ctx, bria.LifestyleTextRequest{
				ImageData:        req.ImageData,
				SceneDescription: req.ScenePrompt,
				NumResults:       req.NumResults,
			})
			if err != nil {
				return nil, err
			}
			return convertAssets(assets), nil
		}
		assets, err := p.client.LifestyleShotByImage(ctx, bria.LifestyleImageRequest{
			ImageData:    req.ImageData,
			RefImageData: req.RefImageData,
			RefImageURL:  req.RefImageURL,
			NumResults:   req.NumResults,
		})
		if err != nil {
			return nil, err
		}
		return convertAssets(assets), nil

	default:
		return nil, fmt.Errorf("%w: unsupported operation %q", domain.ErrInvalidInput, req.Operation)
	}
}

func convertAssets(in []bria.ImageAsset) []Asset {
	out := make([]Asset, len(in))
	for i, asset := range in {
		out[i] = Asset{
			URL:    asset.URL,
			Format: asset.Format,
			Width:  asset.Width,
			Height: asset.Height,
			Data:   asset.Data,
		}
	}
	return out
}

var (
	_ Generator = (*BriaProvider)(nil)
	_ Editor    = (*BriaProvider)(nil)
)
