// Package layout holds the pure geometry of the recommendation document:
// page metrics, the image grid, scale-to-fit and bullet flow. Nothing here
// performs I/O or touches a drawing surface.
package layout

import (
	"math"

	"hotel_recs/internal/domain"
)

// A4 portrait, millimetres.
const (
	PageWidth     = 210.0
	PageHeight    = 297.0
	MarginX       = 15.0
	MarginTop     = 20.0
	MarginBottom  = 20.0
	ContentWidth  = PageWidth - 2*MarginX
	ContentBottom = PageHeight - MarginBottom

	// screen pixels are taken at 96 dpi when comparing native size to a cell
	mmPerPx = 25.4 / 96
)

// Size is a width/height pair in whatever unit the caller uses.
type Size struct{ W, H float64 }

// Content is the printable area of a page.
var Content = domain.Box{X: MarginX, Y: MarginTop, W: ContentWidth, H: ContentBottom - MarginTop}

// PxToMM converts native pixel dimensions to page millimetres.
func PxToMM(w, h int) Size {
	return Size{W: float64(w) * mmPerPx, H: float64(h) * mmPerPx}
}

// ScaleToFit shrinks native uniformly so it fits inside max. The factor is
// min(1, max.W/native.W, max.H/native.H): images are never upscaled, and
// whichever side binds, both sides use the same factor. Degenerate inputs
// (non-positive native or max sides) yield a zero size.
func ScaleToFit(native, max Size) Size {
	if native.W <= 0 || native.H <= 0 || max.W <= 0 || max.H <= 0 ||
		math.IsInf(native.W, 0) || math.IsInf(native.H, 0) {
		return Size{}
	}
	s := math.Min(1, math.Min(max.W/native.W, max.H/native.H))
	out := Size{W: native.W * s, H: native.H * s}
	// guard against float drift pushing a side a hair past the box
	if out.W > max.W {
		out.W = max.W
	}
	if out.H > max.H {
		out.H = max.H
	}
	return out
}

// FitInCell scales native into cell and centres the result in it.
func FitInCell(native Size, cell domain.Box) domain.Box {
	sz := ScaleToFit(native, Size{W: cell.W, H: cell.H})
	return domain.Box{
		X: cell.X + (cell.W-sz.W)/2,
		Y: cell.Y + (cell.H-sz.H)/2,
		W: sz.W,
		H: sz.H,
	}
}

// Inside reports whether b lies within outer (inclusive edges).
func Inside(b, outer domain.Box) bool {
	const eps = 1e-9
	return b.X >= outer.X-eps && b.Y >= outer.Y-eps &&
		b.X+b.W <= outer.X+outer.W+eps && b.Y+b.H <= outer.Y+outer.H+eps
}
