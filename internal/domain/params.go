package domain

import (
	"fmt"
	"math"
)

// PresetNone is the preset label of parameters not derived from a named preset.
const PresetNone = "none"

// Parameters are the tonal and color adjustments applied by the processing service.
// The struct is comparable; == is the structural equality used for commit checks.
type Parameters struct {
	Brightness   int    `json:"brightness"`
	Sharpness    int    `json:"sharpness"`
	Denoise      int    `json:"denoise"`
	Red          int    `json:"red"`
	Green        int    `json:"green"`
	Blue         int    `json:"blue"`
	Mono         bool   `json:"mono"`
	FilterPreset string `json:"filterPreset"`
}

// DefaultParameters returns the neutral parameter set.
func DefaultParameters() Parameters {
	return Parameters{FilterPreset: PresetNone}
}

// Equal reports structural equality.
func (p Parameters) Equal(other Parameters) bool {
	return p == other
}

// IsNeutral reports whether applying p would leave an image unchanged.
// FilterPreset is a label and does not count.
func (p Parameters) IsNeutral() bool {
	return !p.Mono && p.Brightness == 0 && p.Sharpness == 0 && p.Denoise == 0 &&
		p.Red == 0 && p.Green == 0 && p.Blue == 0
}

// Normalize clamps every field into its control range and replaces an
// unknown preset label with PresetNone.
func (p Parameters) Normalize() Parameters {
	for _, key := range NumericKeys() {
		r := key.Range()
		p = p.with(key, r.clamp(p.get(key)))
	}
	if _, ok := presets[p.FilterPreset]; !ok {
		p.FilterPreset = PresetNone
	}
	return p
}

// Set returns p with one field replaced. Numbers are coerced: non-finite
// values become 0, fractions round to the nearest integer, and the result
// is clamped to the field's range. Mono is true for any non-zero value.
func (p Parameters) Set(key ParamKey, value float64) Parameters {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	if key == ParamMono {
		p.Mono = value != 0
		return p
	}
	v := int(math.Round(value))
	return p.with(key, key.Range().clamp(v))
}

// Get returns a field as a number; Mono reads as 0 or 1.
func (p Parameters) Get(key ParamKey) float64 {
	if key == ParamMono {
		if p.Mono {
			return 1
		}
		return 0
	}
	return float64(p.get(key))
}

func (p Parameters) get(key ParamKey) int {
	switch key {
	case ParamBrightness:
		return p.Brightness
	case ParamSharpness:
		return p.Sharpness
	case ParamDenoise:
		return p.Denoise
	case ParamRed:
		return p.Red
	case ParamGreen:
		return p.Green
	case ParamBlue:
		return p.Blue
	default:
		return 0
	}
}

func (p Parameters) with(key ParamKey, v int) Parameters {
	switch key {
	case ParamBrightness:
		p.Brightness = v
	case ParamSharpness:
		p.Sharpness = v
	case ParamDenoise:
		p.Denoise = v
	case ParamRed:
		p.Red = v
	case ParamGreen:
		p.Green = v
	case ParamBlue:
		p.Blue = v
	}
	return p
}

// ParamKey names one editable parameter field.
type ParamKey string

const (
	ParamBrightness ParamKey = "brightness"
	ParamSharpness  ParamKey = "sharpness"
	ParamDenoise    ParamKey = "denoise"
	ParamRed        ParamKey = "red"
	ParamGreen      ParamKey = "green"
	ParamBlue       ParamKey = "blue"
	ParamMono       ParamKey = "mono"
)

// NumericKeys lists the slider-backed parameters.
func NumericKeys() []ParamKey {
	return []ParamKey{ParamBrightness, ParamSharpness, ParamDenoise, ParamRed, ParamGreen, ParamBlue}
}

// ParseParamKey validates a parameter name coming from outside.
func ParseParamKey(s string) (ParamKey, error) {
	switch k := ParamKey(s); k {
	case ParamBrightness, ParamSharpness, ParamDenoise, ParamRed, ParamGreen, ParamBlue, ParamMono:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownParameter, s)
	}
}

// Range is the inclusive bounds of a slider control.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r Range) clamp(v int) int {
	return min(max(v, r.Min), r.Max)
}

// Range returns the control bounds for key. Mono is a toggle in [0,1].
func (k ParamKey) Range() Range {
	switch k {
	case ParamSharpness, ParamDenoise:
		return Range{Min: 0, Max: 100}
	case ParamMono:
		return Range{Min: 0, Max: 1}
	default:
		return Range{Min: -100, Max: 100}
	}
}
