package httpserver

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/pscheid92/valo/internal/domain"
	apperrors "github.com/pscheid92/valo/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func TestDraftApplyUndoRedo(t *testing.T) {
	srv := newTestServer(t, newMockApp(t, &mockProcessor{}))
	cl := newClient(t, srv)
	cl.open("img")

	rec := cl.do(http.MethodPut, "/api/session/draft/brightness", `{"value":20}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.Equal(t, 20, view.Draft.Brightness)
	assert.Equal(t, 0, view.Committed.Brightness)
	assert.True(t, view.CommitEnabled)

	rec = cl.do(http.MethodPost, "/api/session/apply", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeView(t, rec)
	assert.Equal(t, 20, view.Committed.Brightness)
	assert.True(t, view.CanUndo)
	assert.False(t, view.CommitEnabled)

	rec = cl.do(http.MethodPost, "/api/session/undo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeView(t, rec)
	assert.Equal(t, 0, view.Committed.Brightness)
	assert.True(t, view.CanRedo)

	rec = cl.do(http.MethodPost, "/api/session/redo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, decodeView(t, rec).Committed.Brightness)
}

func TestApply_NothingToCommitIsConflict(t *testing.T) {
	srv := newTestServer(t, newMockApp(t, &mockProcessor{}))
	cl := newClient(t, srv)
	cl.open("img")

	rec := cl.do(http.MethodPost, "/api/session/apply", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.TypeConflict, decodeError(t, rec).Type)
}

func TestUndo_EmptyHistoryIsConflict(t *testing.T) {
	srv := newTestServer(t, newMockApp(t, &mockProcessor{}))
	cl := newClient(t, srv)
	cl.open("img")

	rec := cl.do(http.MethodPost, "/api/session/undo", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSetDraft_Validation(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{"unknown key", "/api/session/draft/gamma", `{"value":1}`},
		{"missing value", "/api/session/draft/red", `{}`},
		{"malformed body", "/api/session/draft/red", `{"value":"high"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, newMockApp(t, &mockProcessor{}))
			cl := newClient(t, srv)
			cl.open("img")

			rec := cl.do(http.MethodPut, tt.path, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apperrors.TypeValidation, decodeError(t, rec).Type)
		})
	}
}

func TestSetDraft_ClampsValue(t *testing.T) {
	srv := newTestServer(t, newMockApp(t, &mockProcessor{}))
	cl := newClient(t, srv)
	cl.open("img")

	rec := cl.do(http.MethodPut, "/api/session/draft/red", `{"value":1000}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ParamRed.Range().Max, decodeView(t, rec).Draft.Red)
}

func TestResetDraft(t *testing.T) {
	srv := newTestServer(t, newMockApp(t, &mockProcessor{}))
	cl := newClient(t, srv)
	cl.open("img")
	cl.do(http.MethodPut, "/api/session/draft/blue", `{"value":-30}`)

	rec := cl.do(http.MethodDelete, "/api/session/draft/blue", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeView(t, rec).Draft.Blue)
}

func TestApplyPreset(t *testing.T) {
	srv := newTestServer(t, newMockApp(t, &mockProcessor{}))
	cl := newClient(t, srv)
	cl.open("img")

	rec := cl.do(http.MethodPost, "/api/session/preset/noir", "")

	require.Equal(t, http.StatusOK, rec.Code)
	draft := decodeView(t, rec).Draft
	assert.True(t, draft.Mono)
	assert.Equal(t, "noir", draft.FilterPreset)
}

func TestSetMode(t *testing.T) {
	srv := newTestServer(t, newMockApp(t, &mockProcessor{}))
	cl := newClient(t, srv)
	cl.open("img")

	rec := cl.do(http.MethodPut, "/api/session/mode/crop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ModeCrop, decodeView(t, rec).Mode)

	rec = cl.do(http.MethodPut, "/api/session/mode/paint", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCropFlow(t *testing.T) {
	srv := newTestServer(t, newMockApp(t, &mockProcessor{}))
	cl := newClient(t, srv)
	cl.open("img")
	cl.do(http.MethodPut, "/api/session/mode/crop", "")

	rec := cl.do(http.MethodPut, "/api/session/crop/ratio/square", `{"frameWidth":800,"frameHeight":400}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.Equal(t, domain.CropSquare, view.CropChoice)
	assert.True(t, view.Crop.Constrained())

	rec = cl.do(http.MethodPost, "/api/session/crop/drag", `{"handle":"move","dx":0.01,"dy":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeView(t, rec)
	assert.Equal(t, domain.CropCustom, view.CropChoice)
	assert.True(t, view.Crop.Constrained())

	rec = cl.do(http.MethodPost, "/api/session/apply", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeView(t, rec)
	assert.Equal(t, domain.CropOriginal, view.CropChoice)
	assert.True(t, view.CanUndo)
	assert.False(t, view.Locked)

	rec = cl.do(http.MethodGet, "/api/session/image", "")
	assert.JSONEq(t, `{"image":"img|cropped"}`, rec.Body.String())
}

func TestSelectCropRatio_PathWithColon(t *testing.T) {
	srv := newTestServer(t, newMockApp(t, &mockProcessor{}))
	cl := newClient(t, srv)
	cl.open("img")
	cl.do(http.MethodPut, "/api/session/mode/crop", "")

	rec := cl.do(http.MethodPut, "/api/session/crop/ratio/9:16", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Crop9x16, decodeView(t, rec).CropChoice)

	rec = cl.do(http.MethodPut, "/api/session/crop/ratio/7:3", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetCropRect(t *testing.T) {
	srv := newTestServer(t, newMockApp(t, &mockProcessor{}))
	cl := newClient(t, srv)
	cl.open("img")
	cl.do(http.MethodPut, "/api/session/mode/crop", "")

	rec := cl.do(http.MethodPut, "/api/session/crop", `{"x":0.1,"y":0.2,"w":0.5,"h":0.4}`)

	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.InDelta(t, 0.1, view.Crop.X, 1e-9)
	assert.InDelta(t, 0.4, view.Crop.H, 1e-9)
	assert.Equal(t, domain.CropCustom, view.CropChoice)
}

func TestDragCrop_Validation(t *testing.T) {
	srv := newTestServer(t, newMockApp(t, &mockProcessor{}))
	cl := newClient(t, srv)
	cl.open("img")

	rec := cl.do(http.MethodPost, "/api/session/crop/drag", `{"handle":"move","dx":0.1,"dy":0}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "crop actions need crop mode")

	cl.do(http.MethodPut, "/api/session/mode/crop", "")
	rec = cl.do(http.MethodPost, "/api/session/crop/drag", `{"handle":"middle","dx":0.1,"dy":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommitCrop_ImageServiceFailure(t *testing.T) {
	processor := &mockProcessor{
		cropFn: func(context.Context, domain.ImageRef, domain.CropRect) (domain.ImageRef, error) {
			return "", &domain.NetworkError{Op: "crop", Err: errors.New("model missing")}
		},
	}
	srv := newTestServer(t, newMockApp(t, processor))
	cl := newClient(t, srv)
	cl.open("img")
	cl.do(http.MethodPut, "/api/session/mode/crop", "")

	rec := cl.do(http.MethodPost, "/api/session/apply", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "model missing", decodeError(t, rec).Context["detail"])

	view := decodeView(t, cl.do(http.MethodGet, "/api/session", ""))
	assert.False(t, view.Locked)
	assert.False(t, view.CanUndo)
}

func TestRemoveBackground_BlocksOtherEdits(t *testing.T) {
	release := make(chan struct{})
	processor := &mockProcessor{
		removeFn: func(ctx context.Context, image domain.ImageRef) (domain.ImageRef, error) {
			select {
			case <-release:
				return image + "|cut", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
	}
	srv := newTestServer(t, newMockApp(t, processor))
	t.Cleanup(func() { close(release) })
	cl := newClient(t, srv)
	cl.open("img")
	cl.do(http.MethodPut, "/api/session/mode/removebg", "")

	rec := cl.do(http.MethodPost, "/api/session/removebg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.True(t, view.Locked)
	assert.Equal(t, domain.RemoveBgLockReason, view.LockMessage)

	rec = cl.do(http.MethodPut, "/api/session/mode/adjust", "")
	assert.Equal(t, http.StatusLocked, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, apperrors.TypeBlocked, resp.Type)
	assert.Equal(t, domain.RemoveBgLockReason, resp.Error)

	rec = cl.do(http.MethodDelete, "/api/session/removebg", "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		return !decodeView(t, cl.do(http.MethodGet, "/api/session", "")).Locked
	}, waitFor, 10*time.Millisecond)
}

func TestRemoveBackground_PreviewThenApply(t *testing.T) {
	srv := newTestServer(t, newMockApp(t, &mockProcessor{}))
	cl := newClient(t, srv)
	cl.open("img")

	rec := cl.do(http.MethodPost, "/api/session/removebg", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "removal needs removebg mode")

	cl.do(http.MethodPut, "/api/session/mode/removebg", "")
	require.Equal(t, http.StatusOK, cl.do(http.MethodPost, "/api/session/removebg", "").Code)

	require.Eventually(t, func() bool {
		return decodeView(t, cl.do(http.MethodGet, "/api/session", "")).PendingPreview
	}, waitFor, 10*time.Millisecond)

	rec = cl.do(http.MethodGet, "/api/session/pending", "")
	assert.JSONEq(t, `{"unappliedDraft":false,"unappliedRemoveBg":true}`, rec.Body.String())

	rec = cl.do(http.MethodPost, "/api/session/apply", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.False(t, view.PendingPreview)
	assert.True(t, view.CanUndo)

	rec = cl.do(http.MethodGet, "/api/session/image", "")
	assert.JSONEq(t, `{"image":"img|cut"}`, rec.Body.String())
}
