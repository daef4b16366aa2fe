package docstorememory

import (
	"context"
	"sort"
	"sync"

	"github.com/Abraxas-365/pagelift/pkg/docstore"
	"github.com/Abraxas-365/pagelift/pkg/kernel"
)

// MemoryRepository is an in-memory docstore.Repository for local runs and
// tests. Records are copied in and out.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[kernel.DocumentID]docstore.Document
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[kernel.DocumentID]docstore.Document)}
}

func (m *MemoryRepository) Create(ctx context.Context, doc *docstore.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[doc.ID]; ok {
		return docstore.AlreadyExists(doc.ID.String())
	}
	m.docs[doc.ID] = clone(*doc)
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id kernel.DocumentID) (*docstore.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, docstore.NotFound(id.String())
	}
	out := clone(doc)
	return &out, nil
}

func (m *MemoryRepository) Update(ctx context.Context, doc *docstore.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[doc.ID]; !ok {
		return docstore.NotFound(doc.ID.String())
	}
	m.docs[doc.ID] = clone(*doc)
	return nil
}

func (m *MemoryRepository) List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[docstore.Document], error) {
	opts = opts.Normalize(docstore.MaxPageSize)

	m.mu.RLock()
	all := make([]docstore.Document, 0, len(m.docs))
	for _, d := range m.docs {
		all = append(all, clone(d))
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	start := min(opts.Offset(), len(all))
	end := min(start+opts.PageSize, len(all))
	return kernel.NewPaginated(all[start:end], opts.Page, opts.PageSize, len(all)), nil
}

func clone(d docstore.Document) docstore.Document {
	d.Warnings = append([]string(nil), d.Warnings...)
	return d
}
