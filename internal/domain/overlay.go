package domain

import "strings"

// OverlayPosition anchors the CTA band on the base image.
type OverlayPosition string

const (
	OverlayPositionTop    OverlayPosition = "top"
	OverlayPositionBottom OverlayPosition = "bottom"
)

// OverlaySpec describes a CTA text overlay. It is consumed once by the
// compositor and never persisted.
type OverlaySpec struct {
	Headline    string
	Subheadline string
	Position    OverlayPosition
	TextColor   string  // hex, e.g. #FFFFFF
	BandOpacity float64 // 0..1, opacity of the band behind the text
}

// Empty reports whether the spec carries no text at all, in which case the
// overlay is a no-op.
func (s OverlaySpec) Empty() bool {
	return strings.TrimSpace(s.Headline) == "" && strings.TrimSpace(s.Subheadline) == ""
}

// NormalizePosition sanitizes free-form user input into a supported anchor.
func NormalizePosition(pos string) OverlayPosition {
	if strings.EqualFold(strings.TrimSpace(pos), string(OverlayPositionTop)) {
		return OverlayPositionTop
	}
	return OverlayPositionBottom
}
