package compositor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adcraft/internal/domain"
)

// cutoutPNG renders a transparent canvas with an opaque square, the typical
// shape of a background-removed product photo.
func cutoutPNG(t *testing.T, size, squareMin, squareMax int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := squareMin; y < squareMax; y++ {
		for x := squareMin; x < squareMax; x++ {
			img.Set(x, y, color.NRGBA{R: 220, G: 40, B: 40, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func solidPNG(t *testing.T, width, height int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestDecodeRejectsBadInput(t *testing.T) {
	_, _, err := Decode(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	_, _, err = Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}

func TestDimensions(t *testing.T) {
	data := solidPNG(t, 12, 7, color.NRGBA{A: 255})
	w, h := Dimensions(data)
	assert.Equal(t, 12, w)
	assert.Equal(t, 7, h)

	w, h = Dimensions([]byte("garbage"))
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestOverlayCTAEmptySpecIsNoOp(t *testing.T) {
	data := solidPNG(t, 64, 64, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	out, err := OverlayCTA(data, domain.OverlaySpec{Headline: "   ", Subheadline: ""})
	require.NoError(t, err)
	assert.Equal(t, data, out, "empty overlay must return the input bytes unchanged")
}

func TestOverlayCTADrawsBand(t *testing.T) {
	base := color.NRGBA{R: 10, G: 200, B: 10, A: 255}
	data := solidPNG(t, 200, 200, base)

	out, err := OverlayCTA(data, domain.OverlaySpec{
		Headline:    "Big Sale",
		Subheadline: "Up to 50% off",
		Position:    domain.OverlayPositionBottom,
		BandOpacity: 0.5,
	})
	require.NoError(t, err)
	assert.NotEqual(t, data, out)

	img, format, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())

	// The bottom band must be darker than the untouched top.
	topR, topG, topB, _ := img.At(100, 5).RGBA()
	botR, botG, botB, _ := img.At(100, 195).RGBA()
	assert.Less(t, botR+botG+botB, topR+topG+topB)
}

func TestOverlayCTATopPosition(t *testing.T) {
	base := color.NRGBA{R: 240, G: 240, B: 240, A: 255}
	data := solidPNG(t, 200, 200, base)

	out, err := OverlayCTA(data, domain.OverlaySpec{
		Headline: "New Arrival",
		Position: domain.OverlayPositionTop,
	})
	require.NoError(t, err)

	img, _, err := Decode(out)
	require.NoError(t, err)
	topR, topG, topB, _ := img.At(100, 5).RGBA()
	botR, botG, botB, _ := img.At(100, 195).RGBA()
	assert.Less(t, topR+topG+topB, botR+botG+botB)
}

func TestSynthesizeShadowValidatesIntensity(t *testing.T) {
	data := cutoutPNG(t, 64, 16, 48)
	_, err := SynthesizeShadow(data, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = SynthesizeShadow(data, 101)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSynthesizeShadowZeroIntensityAddsNothing(t *testing.T) {
	data := cutoutPNG(t, 64, 16, 48)
	out, err := SynthesizeShadow(data, 0)
	require.NoError(t, err)

	img, _, err := Decode(out)
	require.NoError(t, err)

	// Subject survives.
	_, _, _, a := img.At(30, 30).RGBA()
	assert.NotZero(t, a)
	// The area below-right of the subject, where a shadow would land, stays
	// fully transparent.
	_, _, _, a = img.At(52, 52).RGBA()
	assert.Zero(t, a)
}

func TestSynthesizeShadowOpacityGrowsWithIntensity(t *testing.T) {
	data := cutoutPNG(t, 64, 16, 48)

	alphaAt := func(intensity int) uint32 {
		out, err := SynthesizeShadow(data, intensity)
		require.NoError(t, err)
		img, _, err := Decode(out)
		require.NoError(t, err)
		// A pixel just below the subject that only the shadow covers.
		_, _, _, a := img.At(50, 50).RGBA()
		return a
	}

	low := alphaAt(20)
	mid := alphaAt(50)
	high := alphaAt(100)
	assert.NotZero(t, low)
	assert.LessOrEqual(t, low, mid)
	assert.LessOrEqual(t, mid, high)
}

func TestSynthesizeShadowPreservesDimensions(t *testing.T) {
	data := cutoutPNG(t, 80, 20, 60)
	out, err := SynthesizeShadow(data, 70)
	require.NoError(t, err)
	w, h := Dimensions(out)
	assert.Equal(t, 80, w)
	assert.Equal(t, 80, h)
}

func TestMergeCutoutPlacesForeground(t *testing.T) {
	bg := solidPNG(t, 100, 100, color.NRGBA{R: 0, G: 0, B: 255, A: 255})
	fg := cutoutPNG(t, 20, 0, 20)

	out, err := MergeCutout(bg, fg, 40, 40)
	require.NoError(t, err)

	img, _, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())

	r, g, b, _ := img.At(50, 50).RGBA()
	assert.Greater(t, r, g, "cutout pixel should be red")
	assert.Greater(t, r, b, "cutout pixel should be red")

	r, g, b, _ = img.At(5, 5).RGBA()
	assert.Greater(t, b, r, "background pixel should stay blue")
	_ = g
}

func TestMergeCutoutClipsAtEdges(t *testing.T) {
	bg := solidPNG(t, 50, 50, color.NRGBA{B: 255, A: 255})
	fg := cutoutPNG(t, 20, 0, 20)

	out, err := MergeCutout(bg, fg, 45, 45)
	require.NoError(t, err)
	w, h := Dimensions(out)
	assert.Equal(t, 50, w)
	assert.Equal(t, 50, h)
}

func TestMergeCutoutRejectsPlacementOutside(t *testing.T) {
	bg := solidPNG(t, 50, 50, color.NRGBA{B: 255, A: 255})
	fg := cutoutPNG(t, 20, 0, 20)

	_, err := MergeCutout(bg, fg, 200, 200)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = MergeCutout(bg, fg, -100, -100)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseHexColor(t *testing.T) {
	fallback := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	assert.Equal(t, color.NRGBA{R: 255, G: 0, B: 0, A: 255}, parseHexColor("#FF0000", fallback))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, parseHexColor("#fff", fallback))
	assert.Equal(t, fallback, parseHexColor("not-a-color", fallback))
	assert.Equal(t, fallback, parseHexColor("", fallback))
}
