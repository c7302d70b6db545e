package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/xxxsen/pinboard/internal/model"
	appErr "github.com/xxxsen/pinboard/internal/pkg/errors"
)

// MemoryDB is an in-process stand-in for the postgres repositories with the
// same ownership, ordering and cascade rules.
type MemoryDB struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]model.User
	tags    map[int64]model.Tag
	pins    map[int64]model.Pin
	pinTags map[int64]map[int64]struct{}
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:   make(map[int64]model.User),
		tags:    make(map[int64]model.Tag),
		pins:    make(map[int64]model.Pin),
		pinTags: make(map[int64]map[int64]struct{}),
	}
}

func (m *MemoryDB) Users() *MemoryUsers { return &MemoryUsers{m: m} }
func (m *MemoryDB) Tags() *MemoryTags   { return &MemoryTags{m: m} }
func (m *MemoryDB) Pins() *MemoryPins   { return &MemoryPins{m: m} }

func (m *MemoryDB) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryDB) tagIDsLocked(pinID int64) []int64 {
	ids := make([]int64, 0, len(m.pinTags[pinID]))
	for id := range m.pinTags[pinID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *MemoryDB) pinLocked(pin model.Pin) model.Pin {
	pin.TagIDs = m.tagIDsLocked(pin.ID)
	return pin
}

func (m *MemoryDB) setTagsLocked(pinID int64, tagIDs []int64) {
	set := make(map[int64]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		set[id] = struct{}{}
	}
	m.pinTags[pinID] = set
}

type MemoryUsers struct{ m *MemoryDB }

func (r *MemoryUsers) Create(ctx context.Context, user *model.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == user.Email {
			return appErr.ErrConflict
		}
	}
	user.ID = r.m.id()
	r.m.users[user.ID] = *user
	return nil
}

func (r *MemoryUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (r *MemoryUsers) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[userID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUsers) DeleteCascade(ctx context.Context, userID int64) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[userID]; !ok {
		return nil, appErr.ErrNotFound
	}
	keys := make([]string, 0)
	for id, pin := range r.m.pins {
		if pin.UserID != userID {
			continue
		}
		if pin.Image != "" {
			keys = append(keys, pin.Image)
		}
		delete(r.m.pinTags, id)
		delete(r.m.pins, id)
	}
	for id, tag := range r.m.tags {
		if tag.UserID != userID {
			continue
		}
		for _, set := range r.m.pinTags {
			delete(set, id)
		}
		delete(r.m.tags, id)
	}
	delete(r.m.users, userID)
	sort.Strings(keys)
	return keys, nil
}

type MemoryTags struct{ m *MemoryDB }

func (r *MemoryTags) Create(ctx context.Context, tag *model.Tag) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	tag.ID = r.m.id()
	r.m.tags[tag.ID] = *tag
	return nil
}

func (r *MemoryTags) ListByOwner(ctx context.Context, userID int64, assignedOnly bool) ([]model.Tag, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	assigned := make(map[int64]struct{})
	for _, set := range r.m.pinTags {
		for id := range set {
			assigned[id] = struct{}{}
		}
	}
	out := make([]model.Tag, 0)
	for _, tag := range r.m.tags {
		if tag.UserID != userID {
			continue
		}
		if _, ok := assigned[tag.ID]; assignedOnly && !ok {
			continue
		}
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name > out[j].Name
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryTags) ListByIDs(ctx context.Context, userID int64, ids []int64) ([]model.Tag, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]model.Tag, 0, len(ids))
	for _, id := range ids {
		if tag, ok := r.m.tags[id]; ok && tag.UserID == userID {
			out = append(out, tag)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryTags) ListByPin(ctx context.Context, pinID int64) ([]model.Tag, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]model.Tag, 0)
	for _, id := range r.m.tagIDsLocked(pinID) {
		if tag, ok := r.m.tags[id]; ok {
			out = append(out, tag)
		}
	}
	return out, nil
}

func (r *MemoryTags) GetByID(ctx context.Context, tagID int64) (*model.Tag, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	tag, ok := r.m.tags[tagID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return &tag, nil
}

func (r *MemoryTags) Delete(ctx context.Context, tagID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.tags[tagID]; !ok {
		return appErr.ErrNotFound
	}
	for _, set := range r.m.pinTags {
		delete(set, tagID)
	}
	delete(r.m.tags, tagID)
	return nil
}

type MemoryPins struct{ m *MemoryDB }

func (r *MemoryPins) Create(ctx context.Context, pin *model.Pin) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, id := range pin.TagIDs {
		if _, ok := r.m.tags[id]; !ok {
			return appErr.ErrInvalid
		}
	}
	pin.ID = r.m.id()
	stored := *pin
	stored.TagIDs = nil
	r.m.pins[pin.ID] = stored
	r.m.setTagsLocked(pin.ID, pin.TagIDs)
	return nil
}

func (r *MemoryPins) Update(ctx context.Context, pin *model.Pin, replaceTags bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.pins[pin.ID]
	if !ok || stored.UserID != pin.UserID {
		return appErr.ErrNotFound
	}
	stored.Title = pin.Title
	stored.Link = pin.Link
	stored.Mtime = pin.Mtime
	r.m.pins[pin.ID] = stored
	if replaceTags {
		r.m.setTagsLocked(pin.ID, pin.TagIDs)
	}
	return nil
}

func (r *MemoryPins) UpdateImage(ctx context.Context, userID, pinID int64, key string, mtime int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.pins[pinID]
	if !ok || stored.UserID != userID {
		return appErr.ErrNotFound
	}
	stored.Image = key
	stored.Mtime = mtime
	r.m.pins[pinID] = stored
	return nil
}

func (r *MemoryPins) FindByIDAndOwner(ctx context.Context, userID, pinID int64) (*model.Pin, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.pins[pinID]
	if !ok || stored.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	pin := r.m.pinLocked(stored)
	return &pin, nil
}

func (r *MemoryPins) ListByOwner(ctx context.Context, userID int64) ([]model.Pin, error) {
	return r.filter(userID, nil), nil
}

func (r *MemoryPins) FilterByTagIDs(ctx context.Context, userID int64, tagIDs []int64) ([]model.Pin, error) {
	if len(tagIDs) == 0 {
		return r.filter(userID, nil), nil
	}
	want := make(map[int64]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		want[id] = struct{}{}
	}
	return r.filter(userID, want), nil
}

func (r *MemoryPins) filter(userID int64, want map[int64]struct{}) []model.Pin {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]model.Pin, 0)
	for _, stored := range r.m.pins {
		if stored.UserID != userID {
			continue
		}
		if want != nil && !intersects(r.m.pinTags[stored.ID], want) {
			continue
		}
		out = append(out, r.m.pinLocked(stored))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MemoryPins) Delete(ctx context.Context, userID, pinID int64) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.pins[pinID]
	if !ok || stored.UserID != userID {
		return "", appErr.ErrNotFound
	}
	delete(r.m.pinTags, pinID)
	delete(r.m.pins, pinID)
	return stored.Image, nil
}

func (r *MemoryPins) ListImageKeys(ctx context.Context) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	keys := make([]string, 0)
	for _, pin := range r.m.pins {
		if pin.Image != "" {
			keys = append(keys, pin.Image)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func intersects(set map[int64]struct{}, want map[int64]struct{}) bool {
	for id := range set {
		if _, ok := want[id]; ok {
			return true
		}
	}
	return false
}
