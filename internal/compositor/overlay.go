package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"adcraft/internal/domain"
)

const overlayPadding = 20

var (
	fontOnce     sync.Once
	headlineFont *opentype.Font
	bodyFont     *opentype.Font
	fontErr      error
)

func loadFonts() (*opentype.Font, *opentype.Font, error) {
	fontOnce.Do(func() {
		headlineFont, fontErr = opentype.Parse(gobold.TTF)
		if fontErr != nil {
			return
		}
		bodyFont, fontErr = opentype.Parse(goregular.TTF)
	})
	return headlineFont, bodyFont, fontErr
}

// OverlayCTA draws a call-to-action band with centered headline and
// subheadline text onto the base image. An overlay with no text is a no-op
// and returns the input bytes unchanged.
func OverlayCTA(data []byte, spec domain.OverlaySpec) ([]byte, error) {
	base, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if spec.Empty() {
		return data, nil
	}

	bold, regular, err := loadFonts()
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}

	bounds := base.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, base, bounds.Min, draw.Src)

	headlineFace, err := newFace(bold, scaledFontSize(height, 5))
	if err != nil {
		return nil, fmt.Errorf("headline face: %w", err)
	}
	defer headlineFace.Close()
	bodyFace, err := newFace(regular, scaledFontSize(height, 3))
	if err != nil {
		return nil, fmt.Errorf("subheadline face: %w", err)
	}
	defer bodyFace.Close()

	headline := strings.TrimSpace(spec.Headline)
	subheadline := strings.TrimSpace(spec.Subheadline)
	headlineHeight := textHeight(headlineFace, headline)
	subHeight := textHeight(bodyFace, subheadline)

	bandHeight := headlineHeight + subHeight + overlayPadding*3
	bandTop := bounds.Min.Y
	if spec.Position != domain.OverlayPositionTop {
		bandTop = bounds.Max.Y - bandHeight
	}
	band := image.Rect(bounds.Min.X, bandTop, bounds.Max.X, bandTop+bandHeight)

	opacity := spec.BandOpacity
	if opacity <= 0 || opacity > 1 {
		opacity = 0.5
	}
	bandColor := color.NRGBA{A: uint8(255 * opacity)}
	draw.Draw(canvas, band, image.NewUniform(bandColor), image.Point{}, draw.Over)

	textColor := parseHexColor(spec.TextColor, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	cursorY := bandTop + overlayPadding
	if headline != "" {
		drawCenteredText(canvas, headlineFace, headline, textColor, bounds.Min.X, width, cursorY)
	}
	cursorY += headlineHeight + overlayPadding
	if subheadline != "" {
		drawCenteredText(canvas, bodyFace, subheadline, textColor, bounds.Min.X, width, cursorY)
	}

	return EncodePNG(canvas)
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// scaledFontSize sizes text relative to image height with a readable floor.
func scaledFontSize(imageHeight, percent int) float64 {
	size := float64(imageHeight*percent) / 100
	if size < 12 {
		size = 12
	}
	return size
}

func textHeight(face font.Face, text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	metrics := face.Metrics()
	return (metrics.Ascent + metrics.Descent).Ceil()
}

func drawCenteredText(dst *image.RGBA, face font.Face, text string, c color.NRGBA, minX, width, top int) {
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	textWidth := drawer.MeasureString(text).Ceil()
	x := minX + (width-textWidth)/2
	if x < minX {
		x = minX
	}
	baseline := top + face.Metrics().Ascent.Ceil()
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

// parseHexColor parses #RGB and #RRGGBB strings, returning fallback on any
// malformed value.
func parseHexColor(s string, fallback color.NRGBA) color.NRGBA {
	s = strings.TrimSpace(strings.TrimPrefix(s, "#"))
	switch len(s) {
	case 3:
		expanded := make([]byte, 6)
		for i := 0; i < 3; i++ {
			expanded[i*2], expanded[i*2+1] = s[i], s[i]
		}
		s = string(expanded)
	case 6:
	default:
		return fallback
	}
	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		var v int
		if _, err := fmt.Sscanf(s[i*2:i*2+2], "%02x", &v); err != nil {
			return fallback
		}
		rgb[i] = uint8(v)
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
}
