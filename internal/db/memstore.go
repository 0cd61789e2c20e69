package db

import (
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/Lumina-Screens/lumina/internal/model"
)

// MemStore is an in-memory Store used by the unit tests. It mirrors the
// pgStore semantics, including sql.ErrNoRows for missing rows, so services
// can be exercised without a running database.
type MemStore struct {
	mu sync.Mutex

	nextID        int
	users         map[int]*model.User
	content       map[int]model.Content
	playlists     map[int]model.Playlist
	items         map[int]model.PlaylistItem
	schedules     map[int]model.Schedule // keyed by playlist id
	televisions   map[int]model.Television
	assignments   map[int]model.TVPlaylist
	subscriptions map[int]model.Subscription
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		users:         map[int]*model.User{},
		content:       map[int]model.Content{},
		playlists:     map[int]model.Playlist{},
		items:         map[int]model.PlaylistItem{},
		schedules:     map[int]model.Schedule{},
		televisions:   map[int]model.Television{},
		assignments:   map[int]model.TVPlaylist{},
		subscriptions: map[int]model.Subscription{},
	}
}

func (m *MemStore) id() int {
	m.nextID++
	return m.nextID
}

// users

func (m *MemStore) CreateUser(email, hashedPassword string, name *string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.users[id] = &model.User{ID: id, Email: email, HashedPassword: hashedPassword, Name: name}
	return id, nil
}

func (m *MemStore) GetUserByEmail(email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MemStore) GetUserByID(id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

// content

func (m *MemStore) CreateContent(name, contentType, url string, createdBy int) (model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := model.Content{ID: m.id(), Name: name, Type: contentType, URL: url, CreatedBy: createdBy, CreatedAt: time.Now()}
	m.content[c.ID] = c
	return c, nil
}

func (m *MemStore) GetContentByID(id int) (model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.content[id]
	if !ok {
		return model.Content{}, sql.ErrNoRows
	}
	return c, nil
}

func (m *MemStore) ListContent(ownerID int) ([]model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Content
	for _, c := range m.content {
		if c.CreatedBy == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) DeleteContent(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.content, id)
	return nil
}

// playlists

func (m *MemStore) CreatePlaylist(name string, description *string, createdBy int) (model.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	p := model.Playlist{ID: m.id(), Name: name, Description: description, CreatedBy: createdBy, CreatedAt: now, UpdatedAt: now}
	m.playlists[p.ID] = p
	return p, nil
}

func (m *MemStore) GetPlaylistByID(id int) (model.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getPlaylistLocked(id)
}

func (m *MemStore) getPlaylistLocked(id int) (model.Playlist, error) {
	p, ok := m.playlists[id]
	if !ok {
		return model.Playlist{}, sql.ErrNoRows
	}
	p.Items = m.itemsForLocked(id)
	if s, ok := m.schedules[id]; ok {
		cp := s
		p.Schedule = &cp
	}
	return p, nil
}

func (m *MemStore) itemsForLocked(playlistID int) []model.PlaylistItem {
	var items []model.PlaylistItem
	for _, it := range m.items {
		if it.PlaylistID == playlistID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return items
}

func (m *MemStore) ListPlaylists(ownerID int) ([]model.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Playlist
	for id, p := range m.playlists {
		if p.CreatedBy != ownerID {
			continue
		}
		full, _ := m.getPlaylistLocked(id)
		out = append(out, full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) UpdatePlaylist(id int, name, description *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.playlists[id]
	if !ok {
		return sql.ErrNoRows
	}
	if name != nil {
		p.Name = *name
	}
	if description != nil {
		p.Description = description
	}
	p.UpdatedAt = time.Now()
	m.playlists[id] = p
	return nil
}

func (m *MemStore) DeletePlaylist(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.playlists, id)
	delete(m.schedules, id)
	for itemID, it := range m.items {
		if it.PlaylistID == id {
			delete(m.items, itemID)
		}
	}
	for aid, a := range m.assignments {
		if a.PlaylistID == id {
			delete(m.assignments, aid)
		}
	}
	return nil
}

func (m *MemStore) SetPlaylistActive(id int, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.playlists[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Active = active
	p.UpdatedAt = time.Now()
	m.playlists[id] = p
	return nil
}

// items

func (m *MemStore) AddPlaylistItem(playlistID, contentID, position, duration int) (model.PlaylistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.playlists[playlistID]; !ok {
		return model.PlaylistItem{}, sql.ErrNoRows
	}
	it := model.PlaylistItem{
		ID: m.id(), PlaylistID: playlistID, ContentID: contentID,
		Position: position, Duration: duration, CreatedAt: time.Now(),
	}
	m.items[it.ID] = it
	return it, nil
}

func (m *MemStore) UpdatePlaylistItemDuration(itemID, duration int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return sql.ErrNoRows
	}
	it.Duration = duration
	m.items[itemID] = it
	return nil
}

func (m *MemStore) RemovePlaylistItem(itemID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, itemID)
	return nil
}

func (m *MemStore) ListPlaylistItems(playlistID int) ([]model.PlaylistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.itemsForLocked(playlistID), nil
}

func (m *MemStore) SetPlaylistItemPositions(playlistID int, orderedIDs []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for idx, itemID := range orderedIDs {
		it, ok := m.items[itemID]
		if !ok || it.PlaylistID != playlistID {
			return sql.ErrNoRows
		}
		it.Position = idx + 1
		m.items[itemID] = it
	}
	return nil
}

// schedules

func (m *MemStore) SetPlaylistSchedule(playlistID int, s *model.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == nil {
		delete(m.schedules, playlistID)
		return nil
	}
	cp := *s
	cp.PlaylistID = playlistID
	m.schedules[playlistID] = cp
	return nil
}

func (m *MemStore) GetPlaylistSchedule(playlistID int) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[playlistID]
	if !ok {
		return nil, nil
	}
	cp := s
	return &cp, nil
}

// televisions

func (m *MemStore) CreateTelevision(name string, location *string, createdBy int) (model.Television, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	tv := model.Television{ID: m.id(), Name: name, Location: location, CreatedBy: createdBy, CreatedAt: now, UpdatedAt: now}
	m.televisions[tv.ID] = tv
	return tv, nil
}

func (m *MemStore) GetTelevisionByID(id int) (model.Television, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tv, ok := m.televisions[id]
	if !ok {
		return model.Television{}, sql.ErrNoRows
	}
	return tv, nil
}

func (m *MemStore) GetTelevisionByDeviceID(deviceID string) (model.Television, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tv := range m.televisions {
		if tv.DeviceID != nil && *tv.DeviceID == deviceID {
			return tv, nil
		}
	}
	return model.Television{}, sql.ErrNoRows
}

func (m *MemStore) ListTelevisions(ownerID int) ([]model.Television, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Television
	for _, tv := range m.televisions {
		if tv.CreatedBy == ownerID {
			out = append(out, tv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) UpdateTelevision(id int, name, location *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tv, ok := m.televisions[id]
	if !ok {
		return sql.ErrNoRows
	}
	if name != nil {
		tv.Name = *name
	}
	if location != nil {
		tv.Location = location
	}
	tv.UpdatedAt = time.Now()
	m.televisions[id] = tv
	return nil
}

func (m *MemStore) DeleteTelevision(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.televisions, id)
	for aid, a := range m.assignments {
		if a.TVID == id {
			delete(m.assignments, aid)
		}
	}
	return nil
}

func (m *MemStore) PairTelevision(id int, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tv, ok := m.televisions[id]
	if !ok {
		return sql.ErrNoRows
	}
	tv.DeviceID = &deviceID
	tv.Paired = true
	tv.UpdatedAt = time.Now()
	m.televisions[id] = tv
	return nil
}

func (m *MemStore) UnpairTelevision(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tv, ok := m.televisions[id]
	if !ok {
		return sql.ErrNoRows
	}
	tv.DeviceID = nil
	tv.Paired = false
	tv.Online = false
	tv.UpdatedAt = time.Now()
	m.televisions[id] = tv
	return nil
}

func (m *MemStore) SetTelevisionOnline(id int, online bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tv, ok := m.televisions[id]
	if !ok {
		return sql.ErrNoRows
	}
	tv.Online = online
	m.televisions[id] = tv
	return nil
}

// assignments

func (m *MemStore) UpsertAssignment(tvID, playlistID int, active, current bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for aid, a := range m.assignments {
		if a.TVID != tvID {
			continue
		}
		if a.PlaylistID == playlistID {
			continue
		}
		if current && a.Current {
			a.Current = false
			m.assignments[aid] = a
		}
		if active && a.Active {
			a.Active = false
			m.assignments[aid] = a
		}
	}
	for aid, a := range m.assignments {
		if a.TVID == tvID && a.PlaylistID == playlistID {
			a.Active = active
			a.Current = current
			m.assignments[aid] = a
			return nil
		}
	}
	a := model.TVPlaylist{ID: m.id(), TVID: tvID, PlaylistID: playlistID, Active: active, Current: current, AssignedAt: time.Now()}
	m.assignments[a.ID] = a
	return nil
}

func (m *MemStore) ClearAssignments(tvID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for aid, a := range m.assignments {
		if a.TVID == tvID {
			delete(m.assignments, aid)
		}
	}
	return nil
}

func (m *MemStore) ListAssignmentsForTV(tvID int) ([]model.TVPlaylist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TVPlaylist
	for _, a := range m.assignments {
		if a.TVID == tvID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) ListAssignments() ([]model.TVPlaylist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TVPlaylist
	for _, a := range m.assignments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) GetTVsUsingPlaylist(playlistID int) ([]model.Television, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Television
	for _, a := range m.assignments {
		if a.PlaylistID == playlistID && a.Current {
			if tv, ok := m.televisions[a.TVID]; ok {
				out = append(out, tv)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// subscriptions

func (m *MemStore) GetSubscription(ownerID int) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subscriptions[ownerID]
	if !ok {
		return model.Subscription{}, sql.ErrNoRows
	}
	return sub, nil
}

func (m *MemStore) ListSubscriptions() ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Subscription
	for _, s := range m.subscriptions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID < out[j].OwnerID })
	return out, nil
}

func (m *MemStore) SaveSubscription(ownerID, maxScreens, usedScreens int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[ownerID] = model.Subscription{
		OwnerID: ownerID, MaxScreens: maxScreens, UsedScreens: usedScreens, UpdatedAt: time.Now(),
	}
	return nil
}
