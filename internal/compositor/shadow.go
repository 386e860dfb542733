package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"adcraft/internal/domain"
)

// shadowMaxAlpha caps how dark a full-intensity shadow can get so the
// subject still reads against it.
const shadowMaxAlpha = 200

// SynthesizeShadow renders a soft drop shadow beneath the subject of a
// cutout image. The subject is taken from the image's alpha channel, shifted
// down-right and softened, then the original is composited on top. Intensity
// runs 0..100; 0 produces no shadow at all and opacity grows monotonically
// with intensity.
func SynthesizeShadow(data []byte, intensity int) ([]byte, error) {
	if intensity < 0 || intensity > 100 {
		return nil, fmt.Errorf("%w: shadow intensity must be within 0..100", domain.ErrInvalidInput)
	}
	src, _, err := Decode(data)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	out := image.NewRGBA(bounds)

	if intensity > 0 {
		mask := shadowMask(src, bounds)
		alpha := uint8(shadowMaxAlpha * intensity / 100)
		shade := image.NewUniform(color.NRGBA{A: alpha})
		draw.DrawMask(out, bounds, shade, image.Point{}, mask, bounds.Min, draw.Over)
	}

	draw.Draw(out, bounds, src, bounds.Min, draw.Over)
	return EncodePNG(out)
}

// shadowMask projects the subject's alpha channel down and to the right and
// applies a small box blur so the edge is soft rather than a hard silhouette.
func shadowMask(src image.Image, bounds image.Rectangle) *image.Alpha {
	offset := bounds.Dy() / 24
	if offset < 4 {
		offset = 4
	}
	const blurRadius = 2

	mask := image.NewAlpha(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sum, samples := 0, 0
			for dy := -blurRadius; dy <= blurRadius; dy++ {
				for dx := -blurRadius; dx <= blurRadius; dx++ {
					sx, sy := x-offset+dx, y-offset+dy
					if sx < bounds.Min.X || sx >= bounds.Max.X || sy < bounds.Min.Y || sy >= bounds.Max.Y {
						samples++
						continue
					}
					_, _, _, a := src.At(sx, sy).RGBA()
					sum += int(a >> 8)
					samples++
				}
			}
			if samples > 0 && sum > 0 {
				mask.SetAlpha(x, y, color.Alpha{A: uint8(sum / samples)})
			}
		}
	}
	return mask
}
