// Package assignment owns the television<->playlist binding state machine.
// The at-most-one-live-playlist-per-television invariant is enforced here, in
// one place, rather than re-derived by every call site that toggles flags.
package assignment

import (
	"sync"
	"time"

	"github.com/Lumina-Screens/lumina/internal/core"
	"github.com/Lumina-Screens/lumina/internal/db"
	"github.com/Lumina-Screens/lumina/internal/dispatch"
	"github.com/Lumina-Screens/lumina/internal/schedule"
)

// State of one (television, playlist) pair.
type State int

const (
	Unassigned State = iota
	AssignedInactive
	AssignedActive
)

func (s State) String() string {
	switch s {
	case AssignedInactive:
		return "assigned_inactive"
	case AssignedActive:
		return "assigned_active"
	default:
		return "unassigned"
	}
}

// Registry serializes all assignment transitions per television. Operations
// against different televisions proceed in parallel; operations against one
// television take its lock for the whole transition, store write included, so
// interleaved assign/activate/unassign calls cannot race into two live
// playlists. State is loaded from the store at boot and written through after.
type Registry struct {
	store    db.Store
	notifier dispatch.Notifier
	now      func() time.Time

	mu      sync.Mutex // guards devices map and the live index
	devices map[int]*device
	liveTVs map[int]map[int]bool // playlist id -> televisions where it is live
}

type device struct {
	mu       sync.Mutex
	current  int // playlist the television renders from; 0 = none
	active   int // playlist currently live; 0 = none, equals current when set
	assigned map[int]bool
}

func NewRegistry(store db.Store, notifier dispatch.Notifier) *Registry {
	return &Registry{
		store:    store,
		notifier: notifier,
		now:      time.Now,
		devices:  map[int]*device{},
		liveTVs:  map[int]map[int]bool{},
	}
}

// SetClock overrides the registry clock; tests pin it.
func (r *Registry) SetClock(now func() time.Time) { r.now = now }

// Load rebuilds in-memory state from persisted assignment rows.
func (r *Registry) Load() error {
	rows, err := r.store.ListAssignments()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		d, ok := r.devices[row.TVID]
		if !ok {
			d = &device{assigned: map[int]bool{}}
			r.devices[row.TVID] = d
		}
		d.assigned[row.PlaylistID] = true
		if row.Current {
			d.current = row.PlaylistID
		}
		if row.Active {
			d.active = row.PlaylistID
			r.markLiveLocked(row.PlaylistID, row.TVID, true)
		}
	}
	return nil
}

func (r *Registry) device(tvID int) *device {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[tvID]
	if !ok {
		d = &device{assigned: map[int]bool{}}
		r.devices[tvID] = d
	}
	return d
}

func (r *Registry) markLive(playlistID, tvID int, live bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markLiveLocked(playlistID, tvID, live)
}

func (r *Registry) markLiveLocked(playlistID, tvID int, live bool) {
	set, ok := r.liveTVs[playlistID]
	if !ok {
		if !live {
			return
		}
		set = map[int]bool{}
		r.liveTVs[playlistID] = set
	}
	if live {
		set[tvID] = true
	} else {
		delete(set, tvID)
	}
}

func (r *Registry) liveElsewhere(playlistID, tvID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for tv := range r.liveTVs[playlistID] {
		if tv != tvID {
			return true
		}
	}
	return false
}

// StateOf reports the pair state. Playlists that were assigned earlier and
// later displaced keep their row and report AssignedInactive.
func (r *Registry) StateOf(tvID, playlistID int) State {
	d := r.device(tvID)
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case !d.assigned[playlistID]:
		return Unassigned
	case d.active == playlistID:
		return AssignedActive
	default:
		return AssignedInactive
	}
}

// CurrentFor returns the playlist the television currently renders from.
func (r *Registry) CurrentFor(tvID int) (int, bool) {
	d := r.device(tvID)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current, d.current != 0
}

// ActiveFor returns the playlist currently live on the television.
func (r *Registry) ActiveFor(tvID int) (int, bool) {
	d := r.device(tvID)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active, d.active != 0
}

// Assign binds the playlist to the television. When another playlist is live
// it is forced to AssignedInactive first, and the two changes go out as an
// ordered event pair so the device never observes two simultaneous "now
// playing" notifications.
func (r *Registry) Assign(tvID, playlistID int) error {
	if _, err := r.store.GetTelevisionByID(tvID); err != nil {
		return core.NotFoundf("television %d not found", tvID)
	}
	if _, err := r.store.GetPlaylistByID(playlistID); err != nil {
		return core.NotFoundf("playlist %d not found", playlistID)
	}

	d := r.device(tvID)
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == playlistID {
		return nil
	}

	if prior := d.active; prior != 0 {
		if err := r.store.UpsertAssignment(tvID, prior, false, false); err != nil {
			return err
		}
		d.active = 0
		r.markLive(prior, tvID, false)
		r.notifier.Notify(tvID, dispatch.ActivationChanged, prior)
	}

	if err := r.store.UpsertAssignment(tvID, playlistID, false, true); err != nil {
		return err
	}
	d.assigned[playlistID] = true
	d.current = playlistID
	r.notifier.Notify(tvID, dispatch.AssignmentChanged, playlistID)
	return nil
}

// Activate transitions the current playlist to live. The playlist must
// already carry the active flag, and when it has a schedule the window must
// be open. A schedule is a permission, never a trigger: nothing here
// activates a playlist on its own.
func (r *Registry) Activate(tvID int) error {
	d := r.device(tvID)
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == 0 {
		return core.Violationf("television %d has no assigned playlist", tvID).
			With("tv_id", tvID)
	}
	if d.active == d.current {
		return nil
	}

	pl, err := r.store.GetPlaylistByID(d.current)
	if err != nil {
		return core.NotFoundf("playlist %d not found", d.current)
	}
	if !pl.Active {
		return core.Violationf("playlist %q is not flagged active; activate it first", pl.Name).
			With("playlist_id", pl.ID)
	}
	if pl.Schedule != nil && !schedule.InWindow(pl.Schedule, r.now()) {
		return core.Violationf("playlist %q is outside its schedule window", pl.Name).
			With("playlist_id", pl.ID).
			With("start_time", pl.Schedule.StartTime).
			With("end_time", pl.Schedule.EndTime)
	}

	if err := r.store.UpsertAssignment(tvID, d.current, true, true); err != nil {
		return err
	}
	d.active = d.current
	r.markLive(d.current, tvID, true)
	r.notifier.Notify(tvID, dispatch.ActivationChanged, d.current)
	return nil
}

// Deactivate always succeeds; taking a playlist off-air needs no conditions.
func (r *Registry) Deactivate(tvID int) error {
	d := r.device(tvID)
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active == 0 {
		return nil
	}
	prior := d.active
	if err := r.store.UpsertAssignment(tvID, prior, false, prior == d.current); err != nil {
		return err
	}
	d.active = 0
	r.markLive(prior, tvID, false)
	r.notifier.Notify(tvID, dispatch.ActivationChanged, prior)
	return nil
}

// Unassign clears every binding for the television. When the displaced
// playlist was live nowhere else, its active flag is cleared too, since this
// assignment was the sole reason it was live.
func (r *Registry) Unassign(tvID int) error {
	d := r.device(tvID)
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == 0 && len(d.assigned) == 0 {
		return nil
	}

	wasLive := d.active
	old := d.current

	if wasLive != 0 && !r.liveElsewhere(wasLive, tvID) {
		if err := r.store.SetPlaylistActive(wasLive, false); err != nil {
			return err
		}
	}
	if err := r.store.ClearAssignments(tvID); err != nil {
		return err
	}

	d.active = 0
	d.current = 0
	d.assigned = map[int]bool{}
	if wasLive != 0 {
		r.markLive(wasLive, tvID, false)
		r.notifier.Notify(tvID, dispatch.ActivationChanged, wasLive)
	}
	r.notifier.Notify(tvID, dispatch.AssignmentChanged, old)
	return nil
}
