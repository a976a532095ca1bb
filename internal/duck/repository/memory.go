package repository

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/pikecape/duck-service/internal/duck"
)

// MemoryRepo is an in-memory Repository used by tests and by local runs with
// DUCK_STORE=memory. Stored documents are copied on the way in and out so
// callers never share maps with the store.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]duck.Duck
	newID IDGenerator
}

func NewMemoryRepo(opts ...Option) *MemoryRepo {
	o := buildOptions(opts)
	return &MemoryRepo{store: make(map[string]duck.Duck), newID: o.newID}
}

func clone(d duck.Duck) duck.Duck {
	out := make(duck.Duck, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the nested maps and slices a decoded JSON body can hold.
func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return map[string]interface{}(clone(duck.Duck(t)))
	case duck.Duck:
		return clone(t)
	case duck.Fields:
		return duck.Fields(clone(duck.Duck(t)))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func (m *MemoryRepo) FindAll(_ context.Context) ([]duck.Duck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.store))
	for id := range m.store {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]duck.Duck, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(m.store[id]))
	}
	return out, nil
}

func (m *MemoryRepo) FindByUID(_ context.Context, uid string) (duck.Duck, error) {
	if err := duck.CheckID(uid); err != nil {
		return nil, duck.StoreError(duck.ActionFetch, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[uid]; ok {
		return clone(d), nil
	}
	return nil, nil
}

func (m *MemoryRepo) Create(_ context.Context, fields duck.Fields) (duck.Duck, error) {
	doc := clone(newDocument(m.newID(), fields))
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.store[doc.ID()]; exists {
		return nil, duck.StoreError(duck.ActionCreate, duck.ErrDuplicateID)
	}
	m.store[doc.ID()] = doc
	return clone(doc), nil
}

func (m *MemoryRepo) Update(_ context.Context, uid string, fields duck.Fields) (*duck.UpdateResult, error) {
	if err := duck.CheckID(uid); err != nil {
		return nil, duck.StoreError(duck.ActionUpdate, err)
	}
	set := fields.WithoutID()
	if len(set) == 0 {
		return nil, duck.StoreError(duck.ActionUpdate, duck.ErrNoFields)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[uid]
	if !ok {
		return &duck.UpdateResult{Acknowledged: true}, nil
	}
	res := &duck.UpdateResult{Acknowledged: true, MatchedCount: 1}
	for k, v := range set {
		if old, present := d[k]; present && reflect.DeepEqual(old, v) {
			continue
		}
		d[k] = cloneValue(v)
		res.ModifiedCount = 1
	}
	return res, nil
}

func (m *MemoryRepo) DeleteByUID(_ context.Context, uid string) (*duck.DeleteResult, error) {
	if err := duck.CheckID(uid); err != nil {
		return nil, duck.StoreError(duck.ActionDelete, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[uid]; !ok {
		return &duck.DeleteResult{Acknowledged: true}, nil
	}
	delete(m.store, uid)
	return &duck.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}
