package domain

// ImageRef is an opaque handle to an image, in practice a data URL.
type ImageRef string

// Empty reports whether the handle is unset.
func (i ImageRef) Empty() bool {
	return i == ""
}

// Snapshot captures committed state at the moment of a commit.
// It holds only values, so later session mutations cannot reach it.
type Snapshot struct {
	Mode      Mode       `json:"mode"`
	Working   ImageRef   `json:"working"`
	Committed Parameters `json:"committed"`
}
