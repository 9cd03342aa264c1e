package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/articlehub/articlehub/internal/article"
)

// MemoryRepo is an in-memory repository used when no MongoDB is configured
// and in unit tests. A single mutex makes each mutation atomic, matching the
// per-document guarantee Mongo gives.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*article.Article
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*article.Article)}
}

// Put stores a copy of a, replacing any article with the same name.
func (m *MemoryRepo) Put(a *article.Article) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[a.Name] = a.Clone()
}

func (m *MemoryRepo) FindByName(_ context.Context, name string) (*article.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[name]
	if !ok {
		return nil, article.ErrNotFound
	}
	return a.Clone().Normalize(), nil
}

func (m *MemoryRepo) List(_ context.Context) ([]*article.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*article.Article, 0, len(m.store))
	for _, a := range m.store {
		out = append(out, a.Clone().Normalize())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepo) Upvote(_ context.Context, name, uid string) (*article.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[name]
	if !ok {
		return nil, article.ErrNotFound
	}
	if a.HasUpvoted(uid) {
		return nil, article.ErrAlreadyUpvoted
	}
	a.Upvotes++
	a.UpvoterIDs = append(a.UpvoterIDs, uid)
	return a.Clone().Normalize(), nil
}

func (m *MemoryRepo) AddComment(_ context.Context, name string, c article.Comment) (*article.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[name]
	if !ok {
		return nil, article.ErrNotFound
	}
	a.Comments = append(a.Comments, c)
	return a.Clone().Normalize(), nil
}

func (m *MemoryRepo) Seed(_ context.Context, names ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := 0
	for _, n := range names {
		if _, ok := m.store[n]; ok {
			continue
		}
		m.store[n] = article.New(n)
		created++
	}
	return created, nil
}
