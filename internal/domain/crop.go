package domain

import "fmt"

// MinCropSize is the smallest allowed crop width or height in unit-square coordinates.
const MinCropSize = 0.05

// CropRect is a crop rectangle in coordinates normalized to the rendered image box.
// Aspect is the locked w/h ratio in the same coordinates; 0 means unconstrained.
type CropRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	W      float64 `json:"w"`
	H      float64 `json:"h"`
	Aspect float64 `json:"aspect,omitempty"`
}

// Constrained reports whether the rect has an aspect lock.
func (r CropRect) Constrained() bool {
	return r.Aspect > 0
}

// InitialCropRect is the rect shown before the user picks a ratio.
func InitialCropRect() CropRect {
	return CropRect{X: 0.15, Y: 0.15, W: 0.7, H: 0.7}
}

// FullFrame covers the whole image without an aspect lock.
func FullFrame() CropRect {
	return CropRect{X: 0, Y: 0, W: 1, H: 1}
}

// Frame is the rendered size of the image box in pixels. The zero value
// stands for a square frame.
type Frame struct {
	Width  float64 `json:"frameWidth"`
	Height float64 `json:"frameHeight"`
}

// CropChoice is the crop mode picked by the user.
type CropChoice string

const (
	CropOriginal CropChoice = "original"
	CropCustom   CropChoice = "custom"
	CropSquare   CropChoice = "square"
	Crop9x16     CropChoice = "9:16"
	Crop4x5      CropChoice = "4:5"
	Crop5x7      CropChoice = "5:7"
	Crop3x4      CropChoice = "3:4"
	Crop3x5      CropChoice = "3:5"
	Crop2x3      CropChoice = "2:3"
)

var cropRatios = map[CropChoice]float64{
	CropSquare: 1,
	Crop9x16:   9.0 / 16.0,
	Crop4x5:    4.0 / 5.0,
	Crop5x7:    5.0 / 7.0,
	Crop3x4:    3.0 / 4.0,
	Crop3x5:    3.0 / 5.0,
	Crop2x3:    2.0 / 3.0,
}

// ParseCropChoice validates a crop choice coming from outside.
func ParseCropChoice(s string) (CropChoice, error) {
	c := CropChoice(s)
	if c == CropOriginal || c == CropCustom {
		return c, nil
	}
	if _, ok := cropRatios[c]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCropChoice, s)
}

// Ratio returns the pixel w/h ratio of a fixed-ratio choice, or false for
// original and custom.
func (c CropChoice) Ratio() (float64, bool) {
	r, ok := cropRatios[c]
	return r, ok
}

// Handle identifies what part of the crop box a pointer drag grabbed.
type Handle string

const (
	HandleMove Handle = "move"
	HandleN    Handle = "n"
	HandleS    Handle = "s"
	HandleE    Handle = "e"
	HandleW    Handle = "w"
	HandleNE   Handle = "ne"
	HandleNW   Handle = "nw"
	HandleSE   Handle = "se"
	HandleSW   Handle = "sw"
)

// ParseHandle validates a handle name coming from outside.
func ParseHandle(s string) (Handle, error) {
	switch h := Handle(s); h {
	case HandleMove, HandleN, HandleS, HandleE, HandleW, HandleNE, HandleNW, HandleSE, HandleSW:
		return h, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownHandle, s)
	}
}

// Has reports whether the handle drags the given compass edge (n, s, e or w).
func (h Handle) Has(edge byte) bool {
	if h == HandleMove {
		return false
	}
	for i := 0; i < len(h); i++ {
		if h[i] == edge {
			return true
		}
	}
	return false
}
