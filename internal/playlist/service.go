// Package playlist implements the editor-facing mutations on playlists and
// their items. Edits to one playlist are serialized so two editors cannot
// interleave a reorder with a concurrent removal; edits to different
// playlists proceed in parallel.
package playlist

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Lumina-Screens/lumina/internal/assignment"
	"github.com/Lumina-Screens/lumina/internal/core"
	"github.com/Lumina-Screens/lumina/internal/db"
	"github.com/Lumina-Screens/lumina/internal/dispatch"
	"github.com/Lumina-Screens/lumina/internal/model"
	"github.com/Lumina-Screens/lumina/internal/schedule"
)

// NewItem is one entry of a create or add-items request.
type NewItem struct {
	ContentID int
	Duration  int // seconds; 0 means "unset", defaulted to model.DefaultItemDuration
}

type Service struct {
	store    db.Store
	registry *assignment.Registry
	notifier dispatch.Notifier

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewService(store db.Store, registry *assignment.Registry, notifier dispatch.Notifier) *Service {
	return &Service{
		store:    store,
		registry: registry,
		notifier: notifier,
		locks:    map[int]*sync.Mutex{},
	}
}

func (s *Service) lock(playlistID int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[playlistID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[playlistID] = l
	}
	return l
}

func (s *Service) get(playlistID int) (model.Playlist, error) {
	pl, err := s.store.GetPlaylistByID(playlistID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Playlist{}, core.NotFoundf("playlist %d not found", playlistID)
	}
	return pl, err
}

// Get returns the playlist with items and schedule loaded.
func (s *Service) Get(playlistID int) (model.Playlist, error) {
	return s.get(playlistID)
}

// List returns the owner's playlists.
func (s *Service) List(ownerID int) ([]model.Playlist, error) {
	return s.store.ListPlaylists(ownerID)
}

// Create builds a playlist from at least one media item, optionally bound to
// a television right away. When the television is live with another playlist
// the binding is rejected unless force is set.
func (s *Service) Create(ownerID int, name string, description *string, items []NewItem, tvID *int, sched *model.Schedule, force bool) (model.Playlist, error) {
	if name == "" {
		return model.Playlist{}, core.Invalidf("playlist name must not be empty")
	}
	if len(items) == 0 {
		return model.Playlist{}, core.Invalidf("playlist needs at least one media item")
	}
	durations, err := normalizeDurations(items)
	if err != nil {
		return model.Playlist{}, err
	}
	if err := schedule.Validate(sched); err != nil {
		return model.Playlist{}, err
	}
	for _, it := range items {
		if _, err := s.store.GetContentByID(it.ContentID); err != nil {
			return model.Playlist{}, core.NotFoundf("content %d not found", it.ContentID)
		}
	}
	if tvID != nil {
		if err := s.checkReassign(*tvID, force); err != nil {
			return model.Playlist{}, err
		}
	}

	pl, err := s.store.CreatePlaylist(name, description, ownerID)
	if err != nil {
		return model.Playlist{}, err
	}
	for i, it := range items {
		if _, err := s.store.AddPlaylistItem(pl.ID, it.ContentID, i+1, durations[i]); err != nil {
			return model.Playlist{}, err
		}
	}
	if sched != nil {
		if err := s.store.SetPlaylistSchedule(pl.ID, sched); err != nil {
			return model.Playlist{}, err
		}
	}
	if tvID != nil {
		if err := s.registry.Assign(*tvID, pl.ID); err != nil {
			return model.Playlist{}, err
		}
	}
	return s.get(pl.ID)
}

// Update renames or re-describes the playlist.
func (s *Service) Update(playlistID int, name, description *string) (model.Playlist, error) {
	l := s.lock(playlistID)
	l.Lock()
	defer l.Unlock()

	if _, err := s.get(playlistID); err != nil {
		return model.Playlist{}, err
	}
	if err := s.store.UpdatePlaylist(playlistID, name, description); err != nil {
		return model.Playlist{}, err
	}
	s.notifyTVs(playlistID, dispatch.PlaylistChanged)
	return s.get(playlistID)
}

// Delete removes the playlist. While it is assigned to an online television
// the delete is rejected; the owner clears the assignment first. Bindings on
// offline televisions are cleared as part of the delete.
func (s *Service) Delete(playlistID int) error {
	l := s.lock(playlistID)
	l.Lock()
	defer l.Unlock()

	if _, err := s.get(playlistID); err != nil {
		return err
	}
	tvs, err := s.store.GetTVsUsingPlaylist(playlistID)
	if err != nil {
		return err
	}
	for _, tv := range tvs {
		if tv.Online {
			return core.Violationf("playlist is assigned to online television %q; clear the assignment first", tv.Name).
				With("tv_id", tv.ID)
		}
	}
	for _, tv := range tvs {
		if err := s.registry.Unassign(tv.ID); err != nil {
			return err
		}
	}
	return s.store.DeletePlaylist(playlistID)
}

// AddItems appends media items, keeping positions dense.
func (s *Service) AddItems(playlistID int, items []NewItem) (model.Playlist, error) {
	l := s.lock(playlistID)
	l.Lock()
	defer l.Unlock()

	if len(items) == 0 {
		return model.Playlist{}, core.Invalidf("no items to add")
	}
	durations, err := normalizeDurations(items)
	if err != nil {
		return model.Playlist{}, err
	}
	pl, err := s.get(playlistID)
	if err != nil {
		return model.Playlist{}, err
	}
	for _, it := range items {
		if _, err := s.store.GetContentByID(it.ContentID); err != nil {
			return model.Playlist{}, core.NotFoundf("content %d not found", it.ContentID)
		}
	}
	next := len(pl.Items) + 1
	for i, it := range items {
		if _, err := s.store.AddPlaylistItem(playlistID, it.ContentID, next+i, durations[i]); err != nil {
			return model.Playlist{}, err
		}
	}
	s.notifyTVs(playlistID, dispatch.PlaylistChanged)
	return s.get(playlistID)
}

// RemoveItem deletes one item and repacks the remaining positions to 1..N.
// Removing the last item leaves the playlist unplayable, not deleted.
func (s *Service) RemoveItem(playlistID, itemID int) (model.Playlist, error) {
	l := s.lock(playlistID)
	l.Lock()
	defer l.Unlock()

	pl, err := s.get(playlistID)
	if err != nil {
		return model.Playlist{}, err
	}
	remaining := make([]int, 0, len(pl.Items))
	found := false
	for _, it := range pl.Items {
		if it.ID == itemID {
			found = true
			continue
		}
		remaining = append(remaining, it.ID)
	}
	if !found {
		return model.Playlist{}, core.NotFoundf("item %d is not in playlist %d", itemID, playlistID)
	}
	if err := s.store.RemovePlaylistItem(itemID); err != nil {
		return model.Playlist{}, err
	}
	if err := s.store.SetPlaylistItemPositions(playlistID, remaining); err != nil {
		return model.Playlist{}, err
	}
	if len(remaining) == 0 {
		log.Info().Int("playlist_id", playlistID).Msg("[playlist] last item removed, playlist is unplayable until repopulated")
	}
	s.notifyTVs(playlistID, dispatch.PlaylistChanged)
	return s.get(playlistID)
}

// SetItemDuration overrides how long one occurrence stays on screen,
// independent of any intrinsic video length. No upper bound is enforced.
func (s *Service) SetItemDuration(playlistID, itemID, seconds int) (model.Playlist, error) {
	l := s.lock(playlistID)
	l.Lock()
	defer l.Unlock()

	if seconds <= 0 {
		return model.Playlist{}, core.Invalidf("duration must be a positive number of seconds, got %d", seconds)
	}
	pl, err := s.get(playlistID)
	if err != nil {
		return model.Playlist{}, err
	}
	if !containsItem(pl.Items, itemID) {
		return model.Playlist{}, core.NotFoundf("item %d is not in playlist %d", itemID, playlistID)
	}
	if err := s.store.UpdatePlaylistItemDuration(itemID, seconds); err != nil {
		return model.Playlist{}, err
	}
	s.notifyTVs(playlistID, dispatch.PlaylistChanged)
	return s.get(playlistID)
}

// Reorder replaces the item order. The input must list every current item id
// exactly once; partial permutations are rejected rather than silently
// dropping items, and a mismatched set means the editor raced another change.
func (s *Service) Reorder(playlistID int, orderedItemIDs []int) (model.Playlist, error) {
	l := s.lock(playlistID)
	l.Lock()
	defer l.Unlock()

	pl, err := s.get(playlistID)
	if err != nil {
		return model.Playlist{}, err
	}

	seen := map[int]bool{}
	for _, id := range orderedItemIDs {
		if seen[id] {
			return model.Playlist{}, core.Invalidf("item %d listed twice in reorder", id)
		}
		seen[id] = true
	}
	if len(orderedItemIDs) != len(pl.Items) {
		return model.Playlist{}, core.Conflictf("reorder lists %d items but the playlist has %d; reload and retry",
			len(orderedItemIDs), len(pl.Items))
	}
	for _, it := range pl.Items {
		if !seen[it.ID] {
			return model.Playlist{}, core.Conflictf("reorder is missing item %d; reload and retry", it.ID)
		}
	}

	if err := s.store.SetPlaylistItemPositions(playlistID, orderedItemIDs); err != nil {
		return model.Playlist{}, err
	}
	s.notifyTVs(playlistID, dispatch.PlaylistChanged)
	return s.get(playlistID)
}

// SetActive flips the eligibility flag. Activating a playlist that has no
// television is rejected; deactivating always succeeds and takes the playlist
// off-air everywhere it is live.
func (s *Service) SetActive(playlistID int, active bool) (model.Playlist, error) {
	l := s.lock(playlistID)
	l.Lock()
	defer l.Unlock()

	pl, err := s.get(playlistID)
	if err != nil {
		return model.Playlist{}, err
	}

	if !active {
		if err := s.store.SetPlaylistActive(playlistID, false); err != nil {
			return model.Playlist{}, err
		}
		tvs, err := s.store.GetTVsUsingPlaylist(playlistID)
		if err != nil {
			return model.Playlist{}, err
		}
		for _, tv := range tvs {
			if live, ok := s.registry.ActiveFor(tv.ID); ok && live == playlistID {
				if err := s.registry.Deactivate(tv.ID); err != nil {
					return model.Playlist{}, err
				}
			}
		}
		return s.get(playlistID)
	}

	tvs, err := s.store.GetTVsUsingPlaylist(playlistID)
	if err != nil {
		return model.Playlist{}, err
	}
	if len(tvs) == 0 {
		return model.Playlist{}, core.Violationf("playlist %q has no assigned television; assign one before activating", pl.Name).
			With("playlist_id", playlistID)
	}
	if !pl.Playable() {
		return model.Playlist{}, core.Invalidf("playlist %q has no media items to play", pl.Name)
	}
	if err := s.store.SetPlaylistActive(playlistID, true); err != nil {
		return model.Playlist{}, err
	}

	var activated []int
	for _, tv := range tvs {
		if err := s.registry.Activate(tv.ID); err != nil {
			// roll back so a rejected activation leaves no half-live state
			for _, done := range activated {
				_ = s.registry.Deactivate(done)
			}
			_ = s.store.SetPlaylistActive(playlistID, false)
			return model.Playlist{}, err
		}
		activated = append(activated, tv.ID)
	}
	return s.get(playlistID)
}

// UpdateSchedule replaces the playlist's schedule; nil clears it. A narrowed
// window does not take a live playlist off-air on its own: the window is a
// permission checked at activation, not a trigger.
func (s *Service) UpdateSchedule(playlistID int, sched *model.Schedule) (model.Playlist, error) {
	l := s.lock(playlistID)
	l.Lock()
	defer l.Unlock()

	if _, err := s.get(playlistID); err != nil {
		return model.Playlist{}, err
	}
	if err := schedule.Validate(sched); err != nil {
		return model.Playlist{}, err
	}
	if err := s.store.SetPlaylistSchedule(playlistID, sched); err != nil {
		return model.Playlist{}, err
	}
	s.notifyTVs(playlistID, dispatch.PlaylistChanged)
	return s.get(playlistID)
}

// AssignTV binds the playlist to a television. When the television is live
// with a different playlist and force is unset, the caller is told which
// playlist blocks the change instead of a silent takeover.
func (s *Service) AssignTV(tvID, playlistID int, force bool) error {
	if err := s.checkReassign(tvID, force); err != nil {
		return err
	}
	return s.registry.Assign(tvID, playlistID)
}

// UnassignTV clears the television's binding.
func (s *Service) UnassignTV(tvID int) error {
	return s.registry.Unassign(tvID)
}

func (s *Service) checkReassign(tvID int, force bool) error {
	if force {
		return nil
	}
	live, ok := s.registry.ActiveFor(tvID)
	if !ok {
		return nil
	}
	name := ""
	if pl, err := s.store.GetPlaylistByID(live); err == nil {
		name = pl.Name
	}
	return core.Violationf("television already has active playlist %q; deactivate it first or reassign with force", name).
		With("tv_id", tvID).
		With("active_playlist_id", live)
}

func (s *Service) notifyTVs(playlistID int, kind dispatch.ChangeKind) {
	tvs, err := s.store.GetTVsUsingPlaylist(playlistID)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("[playlist] could not resolve televisions for notification")
		return
	}
	for _, tv := range tvs {
		s.notifier.Notify(tv.ID, kind, playlistID)
	}
}

func normalizeDurations(items []NewItem) ([]int, error) {
	out := make([]int, len(items))
	for i, it := range items {
		switch {
		case it.Duration == 0:
			out[i] = model.DefaultItemDuration
		case it.Duration < 0:
			return nil, core.Invalidf("duration must be a positive number of seconds, got %d", it.Duration)
		default:
			out[i] = it.Duration
		}
	}
	return out, nil
}

func containsItem(items []model.PlaylistItem, itemID int) bool {
	for _, it := range items {
		if it.ID == itemID {
			return true
		}
	}
	return false
}
