package domain

import "context"

// ImageProcessor is the remote image-processing service.
type ImageProcessor interface {
	Process(ctx context.Context, image ImageRef, params Parameters) (ImageRef, error)
	Crop(ctx context.Context, image ImageRef, rect CropRect) (ImageRef, error)
	RemoveBackground(ctx context.Context, image ImageRef) (ImageRef, error)
	Save(ctx context.Context, image ImageRef, path string) (SaveReceipt, error)
}

// SaveReceipt acknowledges a persisted image.
type SaveReceipt struct {
	Path string `json:"path"`
}
