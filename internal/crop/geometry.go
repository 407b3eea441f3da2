// Package crop implements pointer-driven crop rectangle geometry.
//
// All functions are pure transforms over domain.CropRect in unit-square
// coordinates. Every result satisfies 0 <= x, 0 <= y, x+w <= 1, y+h <= 1 and
// w, h >= domain.MinCropSize; a locked aspect survives every transform.
package crop

import (
	"math"

	"github.com/pscheid92/valo/internal/domain"
)

const (
	minSize = domain.MinCropSize

	// centerFraction is how much of the constraining dimension a freshly
	// selected ratio covers.
	centerFraction = 0.8

	minAspect = minSize
	maxAspect = 1 / minSize
)

// Full returns the whole frame without an aspect lock.
func Full() domain.CropRect {
	return domain.FullFrame()
}

// MoveBy translates r by (dx, dy), clamped so the rect stays inside the unit
// square. Width, height and aspect are unchanged.
func MoveBy(r domain.CropRect, dx, dy float64) domain.CropRect {
	r = Normalize(r)
	r.X = math.Min(clamp01(r.X+finite(dx)), 1-r.W)
	r.Y = math.Min(clamp01(r.Y+finite(dy)), 1-r.H)
	return r
}

// ResizeByHandle drags the edges named by handle by (dx, dy).
//
// Steps run in a fixed order: edge update, clamp to [0,1], size floor
// (pinning the edge opposite the dragged one), aspect correction, and a final
// shift of both edges back into the unit square. A non-positive aspect means
// unconstrained.
func ResizeByHandle(r domain.CropRect, handle domain.Handle, dx, dy, aspect float64) domain.CropRect {
	if handle == domain.HandleMove {
		return MoveBy(r, dx, dy)
	}
	r = Normalize(domain.CropRect{X: r.X, Y: r.Y, W: r.W, H: r.H})
	dx, dy = finite(dx), finite(dy)

	left, right := r.X, r.X+r.W
	top, bottom := r.Y, r.Y+r.H

	if handle.Has('w') {
		left += dx
	}
	if handle.Has('e') {
		right += dx
	}
	if handle.Has('n') {
		top += dy
	}
	if handle.Has('s') {
		bottom += dy
	}

	left, right = clamp01(left), clamp01(right)
	top, bottom = clamp01(top), clamp01(bottom)

	if right-left < minSize {
		if handle.Has('w') {
			left = right - minSize
		} else {
			right = left + minSize
		}
	}
	if bottom-top < minSize {
		if handle.Has('n') {
			top = bottom - minSize
		} else {
			bottom = top + minSize
		}
	}

	x, w := left, right-left
	y, h := top, bottom-top

	if aspect > 0 {
		aspect = clampAspect(aspect)
		if handle == domain.HandleN || handle == domain.HandleS {
			h = fitDriver(h, 1/aspect)
			if handle == domain.HandleN {
				y = bottom - h
			}
			cx := x + w/2
			w = h * aspect
			x = cx - w/2
		} else {
			w = fitDriver(w, aspect)
			if handle.Has('w') {
				x = right - w
			}
			cy := y + h/2
			h = w / aspect
			y = cy - h/2
		}
	}

	return settle(domain.CropRect{X: x, Y: y, W: w, H: h, Aspect: positive(aspect)})
}

// FromCenterAspect returns a centered rect covering 80% of the constraining
// dimension with the given normalized aspect, or an unconstrained 80% square
// when aspect is not positive.
func FromCenterAspect(aspect float64) domain.CropRect {
	w, h := centerFraction, centerFraction
	if aspect > 0 {
		aspect = clampAspect(aspect)
		h = w / aspect
		if h > centerFraction {
			h = centerFraction
			w = h * aspect
		}
	} else {
		aspect = 0
	}
	return domain.CropRect{X: (1 - w) / 2, Y: (1 - h) / 2, W: w, H: h, Aspect: aspect}
}

// NormalizeAspect converts a pixel w/h ratio into unit-square coordinates for
// a frame of the given pixel size. A degenerate frame is treated as square.
func NormalizeAspect(pixelAspect float64, frame domain.Frame) float64 {
	if pixelAspect <= 0 || !isFinite(pixelAspect) {
		return 0
	}
	if frame.Width <= 0 || frame.Height <= 0 || !isFinite(frame.Width) || !isFinite(frame.Height) {
		return clampAspect(pixelAspect)
	}
	return clampAspect(pixelAspect * frame.Height / frame.Width)
}

// Normalize coerces an arbitrary rect into a valid one, keeping its aspect
// lock when it has one.
func Normalize(r domain.CropRect) domain.CropRect {
	if !isFinite(r.X) || !isFinite(r.Y) || !isFinite(r.W) || !isFinite(r.H) {
		return Full()
	}
	r.Aspect = positive(r.Aspect)
	if r.Aspect > 0 {
		r.Aspect = clampAspect(r.Aspect)
		cy := r.Y + r.H/2
		r.W = fitDriver(r.W, r.Aspect)
		r.H = r.W / r.Aspect
		r.Y = cy - r.H/2
	}
	return settle(r)
}

// fitDriver clamps the driving dimension d so that both d and d/ratio stay
// within [minSize, 1].
func fitDriver(d, ratio float64) float64 {
	lo := math.Max(minSize, minSize*ratio)
	hi := math.Min(1, ratio)
	return math.Min(math.Max(d, lo), hi)
}

// settle floors the size and shifts the rect into the unit square.
func settle(r domain.CropRect) domain.CropRect {
	r.W = math.Min(math.Max(r.W, minSize), 1)
	r.H = math.Min(math.Max(r.H, minSize), 1)
	r.X = math.Min(math.Max(r.X, 0), 1-r.W)
	r.Y = math.Min(math.Max(r.Y, 0), 1-r.H)
	return r
}

func clampAspect(a float64) float64 {
	return math.Min(math.Max(a, minAspect), maxAspect)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

func finite(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}

func positive(v float64) float64 {
	if v > 0 && isFinite(v) {
		return v
	}
	return 0
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
