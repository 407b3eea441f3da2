package crop

import (
	"math"
	"testing"

	"github.com/pscheid92/valo/internal/domain"
	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

var allHandles = []domain.Handle{
	domain.HandleN, domain.HandleS, domain.HandleE, domain.HandleW,
	domain.HandleNE, domain.HandleNW, domain.HandleSE, domain.HandleSW,
}

func assertValid(t *testing.T, r domain.CropRect) {
	t.Helper()
	assert.GreaterOrEqual(t, r.X, -eps, "x out of bounds: %+v", r)
	assert.GreaterOrEqual(t, r.Y, -eps, "y out of bounds: %+v", r)
	assert.LessOrEqual(t, r.X+r.W, 1+eps, "right edge out of bounds: %+v", r)
	assert.LessOrEqual(t, r.Y+r.H, 1+eps, "bottom edge out of bounds: %+v", r)
	assert.GreaterOrEqual(t, r.W, domain.MinCropSize-eps, "too narrow: %+v", r)
	assert.GreaterOrEqual(t, r.H, domain.MinCropSize-eps, "too short: %+v", r)
}

func TestMoveBy_ClampsInsideFrame(t *testing.T) {
	start := domain.CropRect{X: 0.1, Y: 0.1, W: 0.2, H: 0.2}

	got := MoveBy(start, 0.5, 0.5)
	assert.InDelta(t, 0.6, got.X, eps)
	assert.InDelta(t, 0.6, got.Y, eps)
	assertValid(t, got)

	got = MoveBy(start, 5, 5)
	assert.InDelta(t, 0.8, got.X, eps)
	assert.InDelta(t, 0.8, got.Y, eps)
	assert.InDelta(t, 0.2, got.W, eps)
	assert.InDelta(t, 0.2, got.H, eps)

	got = MoveBy(start, -5, -5)
	assert.Equal(t, 0.0, got.X)
	assert.Equal(t, 0.0, got.Y)
}

func TestMoveBy_NonFiniteDeltasIgnored(t *testing.T) {
	start := domain.CropRect{X: 0.3, Y: 0.4, W: 0.2, H: 0.2}

	got := MoveBy(start, math.NaN(), math.Inf(1))

	assert.InDelta(t, 0.3, got.X, eps)
	assert.InDelta(t, 0.4, got.Y, eps)
}

func TestResizeByHandle_SimpleEdges(t *testing.T) {
	start := domain.CropRect{X: 0.2, Y: 0.2, W: 0.4, H: 0.4}

	east := ResizeByHandle(start, domain.HandleE, 0.1, 0.3, 0)
	assert.InDelta(t, 0.2, east.X, eps)
	assert.InDelta(t, 0.5, east.W, eps)
	assert.InDelta(t, 0.4, east.H, eps, "dy ignored for an east drag")

	west := ResizeByHandle(start, domain.HandleW, -0.1, 0, 0)
	assert.InDelta(t, 0.1, west.X, eps)
	assert.InDelta(t, 0.5, west.W, eps)

	north := ResizeByHandle(start, domain.HandleN, 0, 0.1, 0)
	assert.InDelta(t, 0.3, north.Y, eps)
	assert.InDelta(t, 0.3, north.H, eps)

	se := ResizeByHandle(start, domain.HandleSE, 0.1, 0.2, 0)
	assert.InDelta(t, 0.5, se.W, eps)
	assert.InDelta(t, 0.6, se.H, eps)
}

func TestResizeByHandle_MinSizePinsOppositeEdge(t *testing.T) {
	start := domain.CropRect{X: 0.2, Y: 0.2, W: 0.4, H: 0.4}

	// Dragging the west edge past the east edge pins the east edge.
	got := ResizeByHandle(start, domain.HandleW, 0.9, 0, 0)
	assert.InDelta(t, 0.6, got.X+got.W, eps)
	assert.InDelta(t, domain.MinCropSize, got.W, eps)

	// Dragging the east edge past the west edge pins the west edge.
	got = ResizeByHandle(start, domain.HandleE, -0.9, 0, 0)
	assert.InDelta(t, 0.2, got.X, eps)
	assert.InDelta(t, domain.MinCropSize, got.W, eps)

	// Same on the vertical axis.
	got = ResizeByHandle(start, domain.HandleN, 0, 0.9, 0)
	assert.InDelta(t, 0.6, got.Y+got.H, eps)
	assert.InDelta(t, domain.MinCropSize, got.H, eps)
}

func TestResizeByHandle_NeverInvalid(t *testing.T) {
	starts := []domain.CropRect{
		{X: 0, Y: 0, W: 1, H: 1},
		{X: 0.1, Y: 0.1, W: 0.2, H: 0.2},
		{X: 0.95, Y: 0.95, W: 0.05, H: 0.05},
		{X: 0.4, Y: 0.0, W: 0.05, H: 1},
	}
	deltas := []float64{-1e9, -3, -1, -0.5, -0.051, -0.01, 0, 0.01, 0.049, 0.5, 1, 3, 1e9}
	aspects := []float64{0, 0.3, 0.5625, 1, 2, 7}

	for _, start := range starts {
		for _, h := range allHandles {
			for _, aspect := range aspects {
				for _, dx := range deltas {
					for _, dy := range deltas {
						got := ResizeByHandle(start, h, dx, dy, aspect)
						assertValid(t, got)
						if aspect > 0 {
							assert.InDelta(t, aspect, got.W/got.H, 1e-6, "aspect drift handle=%s dx=%v dy=%v", h, dx, dy)
						}
					}
				}
			}
		}
	}
}

func TestResizeByHandle_EastKeepsAspectTwo(t *testing.T) {
	start := domain.CropRect{X: 0.1, Y: 0.3, W: 0.4, H: 0.2, Aspect: 2}

	for _, dx := range []float64{-10, -0.3, -0.1, 0, 0.05, 0.2, 0.5, 10} {
		got := ResizeByHandle(start, domain.HandleE, dx, 0, 2)
		assert.InDelta(t, 2, got.W/got.H, 1e-9, "dx=%v", dx)
		assert.Equal(t, 2.0, got.Aspect)
		assertValid(t, got)
	}
}

func TestResizeByHandle_AspectPivots(t *testing.T) {
	start := domain.CropRect{X: 0.2, Y: 0.2, W: 0.4, H: 0.4, Aspect: 1}

	// A south drag derives width from height around the horizontal center.
	got := ResizeByHandle(start, domain.HandleS, 0, 0.2, 1)
	assert.InDelta(t, 0.6, got.H, eps)
	assert.InDelta(t, 0.6, got.W, eps)
	assert.InDelta(t, 0.4, got.X+got.W/2, eps, "horizontal center kept")
	assert.InDelta(t, 0.2, got.Y, eps, "top edge kept")

	// An east drag derives height from width and recenters vertically.
	got = ResizeByHandle(start, domain.HandleE, 0.2, 0, 1)
	assert.InDelta(t, 0.6, got.W, eps)
	assert.InDelta(t, 0.6, got.H, eps)
	assert.InDelta(t, 0.2, got.X, eps, "left edge kept")
	assert.InDelta(t, 0.4, got.Y+got.H/2, eps, "vertical center kept")
}

func TestResizeByHandle_AspectShiftsBackIntoFrame(t *testing.T) {
	start := domain.CropRect{X: 0.5, Y: 0.78, W: 0.4, H: 0.2, Aspect: 2}

	// Growing width to 0.5 needs height 0.25 centered at y=0.88, which
	// overflows the bottom edge and must be shifted up as a whole.
	got := ResizeByHandle(start, domain.HandleE, 0.1, 0, 2)

	assertValid(t, got)
	assert.InDelta(t, 0.5, got.W, eps)
	assert.InDelta(t, 0.25, got.H, eps)
	assert.InDelta(t, 1.0, got.Y+got.H, eps)
}

func TestResizeByHandle_MoveDelegates(t *testing.T) {
	start := domain.CropRect{X: 0.1, Y: 0.1, W: 0.2, H: 0.2}
	assert.Equal(t, MoveBy(start, 0.1, 0.1), ResizeByHandle(start, domain.HandleMove, 0.1, 0.1, 0))
}

func TestFromCenterAspect(t *testing.T) {
	tests := []struct {
		name   string
		aspect float64
		w, h   float64
	}{
		{"unconstrained", 0, 0.8, 0.8},
		{"square", 1, 0.8, 0.8},
		{"portrait limited by height", 9.0 / 16.0, 0.45, 0.8},
		{"landscape limited by width", 2, 0.8, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromCenterAspect(tt.aspect)
			assert.InDelta(t, tt.w, got.W, eps)
			assert.InDelta(t, tt.h, got.H, eps)
			assert.InDelta(t, 0.5, got.X+got.W/2, eps)
			assert.InDelta(t, 0.5, got.Y+got.H/2, eps)
			assert.Equal(t, tt.aspect, got.Aspect)
			assertValid(t, got)
		})
	}
}

func TestNormalizeAspect(t *testing.T) {
	assert.InDelta(t, 0.5, NormalizeAspect(1, domain.Frame{Width: 800, Height: 400}), eps)
	assert.InDelta(t, 0.75, NormalizeAspect(0.75, domain.Frame{}), eps)
	assert.Equal(t, 0.0, NormalizeAspect(0, domain.Frame{Width: 10, Height: 10}))
	assert.Equal(t, 20.0, NormalizeAspect(1000, domain.Frame{}))
}

func TestNormalize(t *testing.T) {
	got := Normalize(domain.CropRect{X: -0.5, Y: 0.9, W: 3, H: 0.01})
	assertValid(t, got)

	got = Normalize(domain.CropRect{X: math.NaN(), Y: 0, W: 0.5, H: 0.5})
	assert.Equal(t, Full(), got)

	got = Normalize(domain.CropRect{X: 0, Y: 0, W: 1, H: 1, Aspect: 2})
	assert.InDelta(t, 2, got.W/got.H, eps)
	assertValid(t, got)
}
