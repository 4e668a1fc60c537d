// Package memory provides process-local repository implementations for the
// in-memory backend and for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"docauth/internal/model"
	"docauth/internal/repository"
)

// DocumentMemory keeps documents in insertion order. Safe for concurrent use.
type DocumentMemory struct {
	mu    sync.RWMutex
	byID  map[string]int
	items []model.Document
}

func NewDocumentMemory() *DocumentMemory {
	return &DocumentMemory{byID: make(map[string]int)}
}

var _ repository.DocumentRepository = (*DocumentMemory)(nil)

func (r *DocumentMemory) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stored := cloneDocument(*doc)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[doc.ID]; ok {
		return nil, fmt.Errorf("%w: document %s", repository.ErrConflict, doc.ID)
	}
	r.byID[doc.ID] = len(r.items)
	r.items = append(r.items, stored)

	out := cloneDocument(stored)
	return &out, nil
}

func (r *DocumentMemory) FindByID(ctx context.Context, id string) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneDocument(r.items[i])
	return &out, nil
}

func (r *DocumentMemory) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.items)
	start, end := window(total, pq)
	items := make([]model.Document, 0, end-start)
	for _, d := range r.items[start:end] {
		items = append(items, cloneDocument(d))
	}
	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

func cloneDocument(d model.Document) model.Document {
	d.Signature = append([]byte(nil), d.Signature...)
	d.PublicKey = append([]byte(nil), d.PublicKey...)
	return d
}

// window clamps a limit/offset pair to [0, total].
func window(total int, pq repository.PageQuery) (int, int) {
	start := min(max(pq.Offset, 0), total)
	end := total
	if pq.Limit >= 0 {
		end = min(start+pq.Limit, total)
	}
	return start, end
}
