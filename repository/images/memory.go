package images

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imgcrop/model"
)

// Memory is a process-local store. Records are kept as encoded documents so
// reads go through the same decoding as the persistent stores.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

var _ model.ImagesRepository = (*Memory)(nil)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{docs: map[string]map[string]any{}}
}

func (m *Memory) Save(_ context.Context, rec model.ImageRecord) (model.ImageRecord, error) {
	if err := checkSave(rec); err != nil {
		return model.ImageRecord{}, err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.ID = uuid.NewString()

	doc := EncodeDocument(rec)
	doc[fieldID] = rec.ID

	m.mu.Lock()
	m.docs[rec.ID] = doc
	m.mu.Unlock()
	return rec, nil
}

func (m *Memory) All(_ context.Context) ([]model.ImageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]model.ImageRecord, 0, len(m.docs))
	for _, doc := range m.docs {
		rec, err := DecodeDocument(doc)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID > res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (m *Memory) GetOne(_ context.Context, id string) (model.ImageRecord, error) {
	m.mu.RLock()
	doc, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok {
		return model.ImageRecord{}, model.ErrNotFound
	}
	return DecodeDocument(doc)
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *Memory) Close(context.Context) error { return nil }
