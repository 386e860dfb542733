package compositor

import (
	"fmt"
	"image"
	"image/draw"

	"adcraft/internal/domain"
)

// MergeCutout alpha-composites a foreground cutout onto a background scene
// with the cutout's top-left corner at (x, y) in background coordinates.
// Regions of the cutout falling outside the background are clipped; a
// placement entirely outside the background is rejected.
func MergeCutout(background, cutout []byte, x, y int) ([]byte, error) {
	bg, _, err := Decode(background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	fg, _, err := Decode(cutout)
	if err != nil {
		return nil, fmt.Errorf("cutout: %w", err)
	}

	bgBounds := bg.Bounds()
	fgBounds := fg.Bounds()

	target := image.Rect(
		bgBounds.Min.X+x,
		bgBounds.Min.Y+y,
		bgBounds.Min.X+x+fgBounds.Dx(),
		bgBounds.Min.Y+y+fgBounds.Dy(),
	)
	if !target.Overlaps(bgBounds) {
		return nil, fmt.Errorf("%w: cutout placement (%d, %d) is outside the background", domain.ErrInvalidInput, x, y)
	}

	canvas := image.NewRGBA(bgBounds)
	draw.Draw(canvas, bgBounds, bg, bgBounds.Min, draw.Src)
	draw.Draw(canvas, target, fg, fgBounds.Min, draw.Over)
	return EncodePNG(canvas)
}
