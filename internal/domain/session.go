package domain

import "context"

// StoreKey names one entry of the per-session key/value store.
type StoreKey string

const (
	KeySelectedImage   StoreKey = "selected_image"
	KeySourceImage     StoreKey = "source_image"
	KeyWorkingImage    StoreKey = "working_image"
	KeyParamsCommitted StoreKey = "params_committed"
	KeyParamsDraft     StoreKey = "params_draft"
	KeyActiveMode      StoreKey = "active_tab"
)

// StoreKeys lists every key an edit session owns.
func StoreKeys() []StoreKey {
	return []StoreKey{KeySelectedImage, KeySourceImage, KeyWorkingImage, KeyParamsCommitted, KeyParamsDraft, KeyActiveMode}
}

// SessionStore is the key/value store scoped to one browsing session.
// It is not assumed to be durable beyond the session.
type SessionStore interface {
	// Read returns every stored key, or ErrSessionNotFound.
	Read(ctx context.Context, sessionID string) (map[StoreKey]string, error)
	Write(ctx context.Context, sessionID string, values map[StoreKey]string) error
	Clear(ctx context.Context, sessionID string) error
}
