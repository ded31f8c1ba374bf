// Package memory provides in-process implementations of the storage, blob
// and lock ports. Tests build services on top of it.
package memory

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"inmobiliaria/internal/domain"
)

// Store implements every repository port over maps. Fields are exported so
// tests can seed rows and inspect state directly; hold Mu while doing so from
// concurrent code.
type Store struct {
	Mu        sync.Mutex
	Props     map[string]domain.Property
	Images    map[string]domain.PropertyImage
	Inquiries map[string]domain.PropertyInquiry
	Agents    map[string]domain.Agent
	Queries   []domain.PropertyQuery
	// FailWith, when set, is returned by Search, CreateProperty and InsertImage.
	FailWith error
}

func NewStore() *Store {
	return &Store{
		Props:     map[string]domain.Property{},
		Images:    map[string]domain.PropertyImage{},
		Inquiries: map[string]domain.PropertyInquiry{},
		Agents:    map[string]domain.Agent{},
	}
}

// ImagesOf lists a property's images main first, then newest.
func (m *Store) ImagesOf(propertyID string) []domain.PropertyImage {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.imagesOf(propertyID)
}

func (m *Store) imagesOf(propertyID string) []domain.PropertyImage {
	out := []domain.PropertyImage{}
	for _, im := range m.Images {
		if im.PropertyID == propertyID {
			out = append(out, im)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsMain != out[j].IsMain {
			return out[i].IsMain
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *Store) Search(ctx context.Context, q domain.PropertyQuery) ([]domain.Property, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.Queries = append(m.Queries, q)
	out := []domain.Property{}
	for _, p := range m.Props {
		if q.Match(p) {
			p.Images = m.imagesOf(p.ID)
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].ID > out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *Store) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	p, ok := m.Props[id]
	if !ok {
		return domain.Property{}, domain.NotFound("property")
	}
	p.Images = m.imagesOf(id)
	return p, nil
}

func (m *Store) PropertyExists(ctx context.Context, id string) (bool, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	_, ok := m.Props[id]
	return ok, nil
}

func (m *Store) ListPropertyIDs(ctx context.Context) ([]string, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	var ids []string
	for id := range m.Props {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Store) CreateProperty(ctx context.Context, p domain.Property) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.Props[p.ID] = p
	return nil
}

func (m *Store) UpdateProperty(ctx context.Context, id string, patch domain.PropertyPatch, at time.Time) (domain.Property, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	p, ok := m.Props[id]
	if !ok {
		return domain.Property{}, domain.NotFound("property")
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.Type != nil {
		p.Type = *patch.Type
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Bedrooms != nil {
		p.Bedrooms = patch.Bedrooms
	}
	if patch.Bathrooms != nil {
		p.Bathrooms = patch.Bathrooms
	}
	if patch.AreaSize != nil {
		p.AreaSize = patch.AreaSize
	}
	if patch.ContactEmail != nil {
		p.ContactEmail = *patch.ContactEmail
	}
	if patch.ContactPhone != nil {
		p.ContactPhone = patch.ContactPhone
	}
	p.UpdatedAt = at
	m.Props[id] = p
	return p, nil
}

func (m *Store) DeleteProperty(ctx context.Context, id string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if _, ok := m.Props[id]; !ok {
		return domain.NotFound("property")
	}
	delete(m.Props, id)
	for k, im := range m.Images {
		if im.PropertyID == id {
			delete(m.Images, k)
		}
	}
	return nil
}

func (m *Store) ListImages(ctx context.Context, propertyID string) ([]domain.PropertyImage, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.imagesOf(propertyID), nil
}

func (m *Store) GetImage(ctx context.Context, propertyID, imageID string) (domain.PropertyImage, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	im, ok := m.Images[imageID]
	if !ok || im.PropertyID != propertyID {
		return domain.PropertyImage{}, domain.NotFound("image")
	}
	return im, nil
}

func (m *Store) InsertImage(ctx context.Context, img domain.PropertyImage) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.Images[img.ID] = img
	return nil
}

func (m *Store) PromoteImage(ctx context.Context, propertyID, imageID string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	for k, im := range m.Images {
		if im.PropertyID == propertyID {
			im.IsMain = im.ID == imageID
			m.Images[k] = im
		}
	}
	return nil
}

func (m *Store) PromoteIfNoMain(ctx context.Context, propertyID, imageID string) (bool, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	for _, im := range m.Images {
		if im.PropertyID == propertyID && im.IsMain {
			return false, nil
		}
	}
	im, ok := m.Images[imageID]
	if !ok || im.PropertyID != propertyID {
		return false, nil
	}
	im.IsMain = true
	m.Images[imageID] = im
	return true, nil
}

func (m *Store) DeleteImageAndPromote(ctx context.Context, propertyID, imageID string) (string, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	im, ok := m.Images[imageID]
	if !ok || im.PropertyID != propertyID {
		return "", domain.NotFound("image")
	}
	delete(m.Images, imageID)
	if !im.IsMain {
		return "", nil
	}
	var newest *domain.PropertyImage
	for _, other := range m.Images {
		if other.PropertyID != propertyID {
			continue
		}
		if newest == nil || other.CreatedAt.After(newest.CreatedAt) {
			o := other
			newest = &o
		}
	}
	if newest == nil {
		return "", nil
	}
	newest.IsMain = true
	m.Images[newest.ID] = *newest
	return newest.ID, nil
}

func (m *Store) CreateInquiry(ctx context.Context, in domain.PropertyInquiry) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Inquiries[in.ID] = in
	return nil
}

func (m *Store) ListInquiries(ctx context.Context, q domain.InquiryQuery) ([]domain.PropertyInquiry, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	out := []domain.PropertyInquiry{}
	for _, in := range m.Inquiries {
		if q.PropertyID != nil && in.PropertyID != *q.PropertyID {
			continue
		}
		if q.UnreadOnly && in.Read {
			continue
		}
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Store) GetInquiry(ctx context.Context, id string) (domain.PropertyInquiry, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	in, ok := m.Inquiries[id]
	if !ok {
		return domain.PropertyInquiry{}, domain.NotFound("inquiry")
	}
	return in, nil
}

func (m *Store) SetInquiryRead(ctx context.Context, id string, read bool) (domain.PropertyInquiry, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	in, ok := m.Inquiries[id]
	if !ok {
		return domain.PropertyInquiry{}, domain.NotFound("inquiry")
	}
	in.Read = read
	m.Inquiries[id] = in
	return in, nil
}

func (m *Store) DeleteInquiry(ctx context.Context, id string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	delete(m.Inquiries, id)
	return nil
}

func (m *Store) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	out := []domain.Agent{}
	for _, a := range m.Agents {
		out = append(out, a)
	}
	return out, nil
}

func (m *Store) GetAgent(ctx context.Context, id string) (domain.Agent, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	a, ok := m.Agents[id]
	if !ok {
		return domain.Agent{}, domain.NotFound("agent")
	}
	return a, nil
}

func (m *Store) AgentPropertyIDs(ctx context.Context, agentID string) ([]string, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	var ids []string
	for id, p := range m.Props {
		if p.AgentID != nil && *p.AgentID == agentID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *Store) CreateAgent(ctx context.Context, a domain.Agent) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if _, ok := m.Agents[a.ID]; ok {
		return domain.ErrDuplicate
	}
	m.Agents[a.ID] = a
	return nil
}

func (m *Store) UpdateAgent(ctx context.Context, a domain.Agent) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Agents[a.ID] = a
	return nil
}

// Mains returns the images of the property flagged main.
func (m *Store) Mains(propertyID string) []domain.PropertyImage {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	var out []domain.PropertyImage
	for _, im := range m.imagesOf(propertyID) {
		if im.IsMain {
			out = append(out, im)
		}
	}
	return out
}

// ---- blobs ----

// Blobs is an in-process BlobStore.
type Blobs struct {
	mu         sync.Mutex
	Objects    map[string][]byte
	Puts       int
	FailDelete error
	FailPut    error
}

func NewBlobs() *Blobs { return &Blobs{Objects: map[string][]byte{}} }

func (b *Blobs) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailPut != nil {
		return "", b.FailPut
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	b.Puts++
	b.Objects[path] = data
	return "https://cdn.test/properties/" + path, nil
}

func (b *Blobs) Delete(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailDelete != nil {
		return b.FailDelete
	}
	delete(b.Objects, path)
	return nil
}

func (b *Blobs) EnsureBucket(ctx context.Context) error { return nil }

// ---- locks ----

// Locker is a process-local Locker that records every key it was asked for.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	Keys  []string
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = map[string]*sync.Mutex{}
	}
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.Keys = append(l.Keys, key)
	l.mu.Unlock()
	m.Lock()
	return m.Unlock, nil
}

// SeedProperty inserts a minimal listing with the given attributes.
func (m *Store) SeedProperty(id string, price float64, typ domain.PropertyType, status domain.PropertyStatus, published time.Time) domain.Property {
	p := domain.Property{
		ID:           id,
		Title:        "Listing " + id,
		Description:  "A property described at length",
		Price:        price,
		Address:      "Calle " + id,
		Type:         typ,
		Status:       status,
		ContactEmail: "agent@example.com",
		PublishedAt:  published,
		CreatedAt:    published,
		UpdatedAt:    published,
	}
	m.Mu.Lock()
	m.Props[id] = p
	m.Mu.Unlock()
	return p
}
