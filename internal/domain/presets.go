package domain

import (
	"maps"
	"slices"
)

// presets hold only the fields each named filter sets; everything else stays neutral.
var presets = map[string]Parameters{
	PresetNone:      {},
	"mono":          {Mono: true},
	"dramatic-warm": {Red: 25, Green: 5, Blue: -15, Sharpness: 20},
	"noir":          {Mono: true, Sharpness: 35, Brightness: -5},
	"dramatic-cool": {Red: -10, Green: 5, Blue: 25},
}

// Preset returns the named filter merged over the neutral base, labeled with
// its name. Unknown names resolve to PresetNone.
func Preset(name string) Parameters {
	p, ok := presets[name]
	if !ok {
		name = PresetNone
		p = presets[PresetNone]
	}
	p.FilterPreset = name
	return p
}

// PresetNames lists the known filter presets in stable order.
func PresetNames() []string {
	return slices.Sorted(maps.Keys(presets))
}
