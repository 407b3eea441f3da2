package editor

import (
	"context"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/valo/internal/domain"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type mockProcessor struct {
	processFn func(ctx context.Context, image domain.ImageRef, params domain.Parameters) (domain.ImageRef, error)
	cropFn    func(ctx context.Context, image domain.ImageRef, rect domain.CropRect) (domain.ImageRef, error)
	removeFn  func(ctx context.Context, image domain.ImageRef) (domain.ImageRef, error)
	saveFn    func(ctx context.Context, image domain.ImageRef, path string) (domain.SaveReceipt, error)
}

func (m *mockProcessor) Process(ctx context.Context, image domain.ImageRef, params domain.Parameters) (domain.ImageRef, error) {
	if m.processFn != nil {
		return m.processFn(ctx, image, params)
	}
	return image + "|processed", nil
}

func (m *mockProcessor) Crop(ctx context.Context, image domain.ImageRef, rect domain.CropRect) (domain.ImageRef, error) {
	if m.cropFn != nil {
		return m.cropFn(ctx, image, rect)
	}
	return image + "|cropped", nil
}

func (m *mockProcessor) RemoveBackground(ctx context.Context, image domain.ImageRef) (domain.ImageRef, error) {
	if m.removeFn != nil {
		return m.removeFn(ctx, image)
	}
	return image + "|cut", nil
}

func (m *mockProcessor) Save(ctx context.Context, image domain.ImageRef, path string) (domain.SaveReceipt, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, image, path)
	}
	return domain.SaveReceipt{Path: path}, nil
}

type mockStore struct {
	mu   sync.Mutex
	data map[string]map[domain.StoreKey]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]map[domain.StoreKey]string)}
}

func (m *mockStore) Read(_ context.Context, id string) (map[domain.StoreKey]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	values, ok := m.data[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return maps.Clone(values), nil
}

func (m *mockStore) Write(_ context.Context, id string, values map[domain.StoreKey]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[id] == nil {
		m.data[id] = make(map[domain.StoreKey]string)
	}
	maps.Copy(m.data[id], values)
	return nil
}

func (m *mockStore) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *mockStore) get(id string, key domain.StoreKey) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[id][key]
	return v, ok
}

type mockPublisher struct {
	mu     sync.Mutex
	states []domain.View
	images chan domain.ImageRef
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{images: make(chan domain.ImageRef, 16)}
}

func (m *mockPublisher) PublishState(_ context.Context, _ string, view domain.View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, view)
	return nil
}

func (m *mockPublisher) PublishImage(_ context.Context, _ string, image domain.ImageRef) error {
	m.images <- image
	return nil
}

func (m *mockPublisher) lastState() domain.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.states) == 0 {
		return domain.View{}
	}
	return m.states[len(m.states)-1]
}

type testEnv struct {
	session   *Session
	processor *mockProcessor
	store     *mockStore
	publisher *mockPublisher
	clock     *clockwork.FakeClock
}

const testSessionID = "session-1"

func newTestEnv(t *testing.T, processor *mockProcessor, seed map[domain.StoreKey]string) *testEnv {
	t.Helper()
	if seed == nil {
		seed = map[domain.StoreKey]string{domain.KeySelectedImage: "img"}
	}
	env := &testEnv{
		processor: processor,
		store:     newMockStore(),
		publisher: newMockPublisher(),
		clock:     clockwork.NewFakeClock(),
	}
	require.NoError(t, env.store.Write(context.Background(), testSessionID, seed))

	s, err := New(context.Background(), testSessionID, Deps{
		Processor: processor,
		Store:     env.store,
		Publisher: env.publisher,
		Clock:     env.clock,
	}, Config{})
	require.NoError(t, err)
	t.Cleanup(s.Suspend)

	env.session = s
	return env
}

func (e *testEnv) nextImage(t *testing.T) domain.ImageRef {
	t.Helper()
	select {
	case img := <-e.publisher.images:
		return img
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for a published image")
		return ""
	}
}
