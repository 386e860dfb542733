package domain

import "time"

// AssetKind enumerates asset types.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

// Feature identifies which product feature produced an asset.
type Feature string

const (
	FeatureHDGeneration      Feature = "hd_generation"
	FeatureBackgroundRemoval Feature = "background_removal"
	FeaturePackshot          Feature = "packshot"
	FeatureShadow            Feature = "shadow"
	FeatureLifestyleShot     Feature = "lifestyle_shot"
	FeatureCTAOverlay        Feature = "cta_overlay"
	FeatureCutoutMerge       Feature = "cutout_merge"
	FeatureVideoGeneration   Feature = "video_generation"
)

// Asset is a generated or composited creative. Assets are immutable after
// creation; edits always produce a new asset with a new identifier.
type Asset struct {
	ID         string
	Kind       AssetKind
	Feature    Feature
	StorageKey string
	URL        string
	MIME       string
	Width      int
	Height     int
	Bytes      int64
	CreatedAt  time.Time
}

// GeneratedAsset is what providers and the compositor hand back before the
// result store assigns a storage key and a catalog entry.
type GeneratedAsset struct {
	Kind   AssetKind
	Data   []byte
	URL    string
	MIME   string
	Width  int
	Height int
}
