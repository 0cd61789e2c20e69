package assignment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lumina-Screens/lumina/internal/core"
	"github.com/Lumina-Screens/lumina/internal/db"
	"github.com/Lumina-Screens/lumina/internal/dispatch"
	"github.com/Lumina-Screens/lumina/internal/model"
)

type recordedEvent struct {
	TVID       int
	Kind       dispatch.ChangeKind
	PlaylistID int
}

type recorder struct {
	events []recordedEvent
}

func (r *recorder) Notify(tvID int, kind dispatch.ChangeKind, playlistID int) {
	r.events = append(r.events, recordedEvent{TVID: tvID, Kind: kind, PlaylistID: playlistID})
}

type fixture struct {
	store    *db.MemStore
	registry *Registry
	events   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := db.NewMemStore()
	events := &recorder{}
	return &fixture{store: store, registry: NewRegistry(store, events), events: events}
}

func (f *fixture) television(t *testing.T) model.Television {
	t.Helper()
	tv, err := f.store.CreateTelevision("lobby", nil, 1)
	require.NoError(t, err)
	return tv
}

func (f *fixture) playlist(t *testing.T, name string) model.Playlist {
	t.Helper()
	pl, err := f.store.CreatePlaylist(name, nil, 1)
	require.NoError(t, err)
	content, err := f.store.CreateContent("promo", "video", "https://cdn.example.com/promo.mp4", 1)
	require.NoError(t, err)
	_, err = f.store.AddPlaylistItem(pl.ID, content.ID, 1, 10)
	require.NoError(t, err)
	return pl
}

func TestAssignThenActivate(t *testing.T) {
	f := newFixture(t)
	tv := f.television(t)
	pl := f.playlist(t, "menu")

	require.NoError(t, f.registry.Assign(tv.ID, pl.ID))
	assert.Equal(t, AssignedInactive, f.registry.StateOf(tv.ID, pl.ID))

	// activation needs the playlist flag first
	err := f.registry.Activate(tv.ID)
	require.Error(t, err)
	assert.Equal(t, core.KindInvariant, core.KindOf(err))

	require.NoError(t, f.store.SetPlaylistActive(pl.ID, true))
	require.NoError(t, f.registry.Activate(tv.ID))
	assert.Equal(t, AssignedActive, f.registry.StateOf(tv.ID, pl.ID))

	live, ok := f.registry.ActiveFor(tv.ID)
	require.True(t, ok)
	assert.Equal(t, pl.ID, live)
}

func TestActivateWithoutAssignment(t *testing.T) {
	f := newFixture(t)
	tv := f.television(t)

	err := f.registry.Activate(tv.ID)
	require.Error(t, err)
	assert.Equal(t, core.KindInvariant, core.KindOf(err))
}

func TestAssignUnknownIDs(t *testing.T) {
	f := newFixture(t)
	tv := f.television(t)
	pl := f.playlist(t, "menu")

	err := f.registry.Assign(999, pl.ID)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))

	err = f.registry.Assign(tv.ID, 999)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}

// Reassigning over a live playlist demotes it to assigned-inactive and emits
// the deactivation before the new assignment, never the other way round.
func TestReassignOverLivePlaylist(t *testing.T) {
	f := newFixture(t)
	tv := f.television(t)
	a := f.playlist(t, "playlist A")
	b := f.playlist(t, "playlist B")

	require.NoError(t, f.registry.Assign(tv.ID, a.ID))
	require.NoError(t, f.store.SetPlaylistActive(a.ID, true))
	require.NoError(t, f.registry.Activate(tv.ID))

	f.events.events = nil
	require.NoError(t, f.registry.Assign(tv.ID, b.ID))

	assert.Equal(t, AssignedInactive, f.registry.StateOf(tv.ID, a.ID))
	assert.Equal(t, AssignedInactive, f.registry.StateOf(tv.ID, b.ID))
	_, ok := f.registry.ActiveFor(tv.ID)
	assert.False(t, ok)

	current, ok := f.registry.CurrentFor(tv.ID)
	require.True(t, ok)
	assert.Equal(t, b.ID, current)

	require.Len(t, f.events.events, 2)
	assert.Equal(t, dispatch.ActivationChanged, f.events.events[0].Kind)
	assert.Equal(t, a.ID, f.events.events[0].PlaylistID)
	assert.Equal(t, dispatch.AssignmentChanged, f.events.events[1].Kind)
	assert.Equal(t, b.ID, f.events.events[1].PlaylistID)
}

func TestAtMostOneActivePerTelevision(t *testing.T) {
	f := newFixture(t)
	tv := f.television(t)
	a := f.playlist(t, "playlist A")
	b := f.playlist(t, "playlist B")
	require.NoError(t, f.store.SetPlaylistActive(a.ID, true))
	require.NoError(t, f.store.SetPlaylistActive(b.ID, true))

	require.NoError(t, f.registry.Assign(tv.ID, a.ID))
	require.NoError(t, f.registry.Activate(tv.ID))
	require.NoError(t, f.registry.Assign(tv.ID, b.ID))
	require.NoError(t, f.registry.Activate(tv.ID))

	active := 0
	for _, pl := range []int{a.ID, b.ID} {
		if f.registry.StateOf(tv.ID, pl) == AssignedActive {
			active++
		}
	}
	assert.Equal(t, 1, active)

	rows, err := f.store.ListAssignmentsForTV(tv.ID)
	require.NoError(t, err)
	activeRows := 0
	for _, row := range rows {
		if row.Active {
			activeRows++
		}
	}
	assert.Equal(t, 1, activeRows)
}

func TestActivateOutsideScheduleWindow(t *testing.T) {
	f := newFixture(t)
	tv := f.television(t)
	pl := f.playlist(t, "breakfast menu")
	require.NoError(t, f.store.SetPlaylistActive(pl.ID, true))
	require.NoError(t, f.store.SetPlaylistSchedule(pl.ID, &model.Schedule{
		DaysOfWeek: []int64{1, 2, 3, 4, 5},
		StartTime:  "08:00",
		EndTime:    "11:00",
	}))
	require.NoError(t, f.registry.Assign(tv.ID, pl.ID))

	// Wednesday 19:00, outside the window
	f.registry.SetClock(func() time.Time { return time.Date(2025, 6, 4, 19, 0, 0, 0, time.UTC) })
	err := f.registry.Activate(tv.ID)
	require.Error(t, err)
	assert.Equal(t, core.KindInvariant, core.KindOf(err))

	// Wednesday 10:00, inside the window
	f.registry.SetClock(func() time.Time { return time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC) })
	require.NoError(t, f.registry.Activate(tv.ID))
	assert.Equal(t, AssignedActive, f.registry.StateOf(tv.ID, pl.ID))
}

func TestDeactivateAlwaysSucceeds(t *testing.T) {
	f := newFixture(t)
	tv := f.television(t)
	pl := f.playlist(t, "menu")
	require.NoError(t, f.store.SetPlaylistActive(pl.ID, true))
	require.NoError(t, f.registry.Assign(tv.ID, pl.ID))
	require.NoError(t, f.registry.Activate(tv.ID))

	require.NoError(t, f.registry.Deactivate(tv.ID))
	assert.Equal(t, AssignedInactive, f.registry.StateOf(tv.ID, pl.ID))

	// idempotent
	require.NoError(t, f.registry.Deactivate(tv.ID))
}

func TestUnassignClearsSoleLivePlaylistFlag(t *testing.T) {
	f := newFixture(t)
	tv := f.television(t)
	pl := f.playlist(t, "menu")
	require.NoError(t, f.store.SetPlaylistActive(pl.ID, true))
	require.NoError(t, f.registry.Assign(tv.ID, pl.ID))
	require.NoError(t, f.registry.Activate(tv.ID))

	require.NoError(t, f.registry.Unassign(tv.ID))
	assert.Equal(t, Unassigned, f.registry.StateOf(tv.ID, pl.ID))

	// this television was the only place the playlist was live, so the
	// eligibility flag is cleared with it
	stored, err := f.store.GetPlaylistByID(pl.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestLoadRebuildsState(t *testing.T) {
	f := newFixture(t)
	tv := f.television(t)
	pl := f.playlist(t, "menu")
	require.NoError(t, f.store.SetPlaylistActive(pl.ID, true))
	require.NoError(t, f.registry.Assign(tv.ID, pl.ID))
	require.NoError(t, f.registry.Activate(tv.ID))

	reloaded := NewRegistry(f.store, &recorder{})
	require.NoError(t, reloaded.Load())

	assert.Equal(t, AssignedActive, reloaded.StateOf(tv.ID, pl.ID))
	current, ok := reloaded.CurrentFor(tv.ID)
	require.True(t, ok)
	assert.Equal(t, pl.ID, current)
}
