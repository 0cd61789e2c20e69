package dispatch

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lumina-Screens/lumina/internal/model"
)

type fakeTVs map[int]model.Television

func (f fakeTVs) GetTelevisionByID(id int) (model.Television, error) {
	tv, ok := f[id]
	if !ok {
		return model.Television{}, sql.ErrNoRows
	}
	return tv, nil
}

func pairedTV(id int, deviceID string) model.Television {
	return model.Television{ID: id, DeviceID: &deviceID, Paired: true}
}

func TestCommandTopic(t *testing.T) {
	assert.Equal(t, "tv/dev-42/commands", CommandTopic("dev-42"))
}

func TestStateETagKey(t *testing.T) {
	assert.Equal(t, "tv:42:state:etag", StateETagKey(42))
}

func TestNotifyDeliversOverWebsocket(t *testing.T) {
	hub := NewHub()
	server, client := wsPair(t)
	hub.Register("dev-1", server)

	d := New(fakeTVs{1: pairedTV(1, "dev-1")}, hub, nil, nil)
	d.Notify(1, AssignmentChanged, 9)

	var ev Event
	require.NoError(t, json.Unmarshal(readOne(t, client), &ev))
	assert.Equal(t, AssignmentChanged, ev.Type)
	assert.Equal(t, 1, ev.TVID)
	assert.Equal(t, 9, ev.PlaylistID)
}

func TestOnConnectSendsFullSync(t *testing.T) {
	hub := NewHub()
	server, client := wsPair(t)
	hub.Register("dev-1", server)

	d := New(fakeTVs{1: pairedTV(1, "dev-1")}, hub, nil, nil)
	d.OnConnect(1)

	var ev Event
	require.NoError(t, json.Unmarshal(readOne(t, client), &ev))
	assert.Equal(t, FullSync, ev.Type)
	assert.Equal(t, 1, ev.TVID)
	assert.Zero(t, ev.PlaylistID)
}

// Events to unknown, unpaired or disconnected televisions are dropped; the
// reconnect pull is the recovery mechanism, not a retry queue.
func TestNotifyDropsWhenUndeliverable(t *testing.T) {
	d := New(fakeTVs{
		1: pairedTV(1, "dev-1"),
		2: {ID: 2}, // never paired
	}, NewHub(), nil, nil)

	d.Notify(1, PlaylistChanged, 9) // paired but no session
	d.Notify(2, PlaylistChanged, 9) // unpaired
	d.Notify(3, PlaylistChanged, 9) // unknown television
}

func TestEventWireShape(t *testing.T) {
	payload, err := json.Marshal(Event{Type: ActivationChanged, TVID: 4, PlaylistID: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"activation_changed","tv_id":4,"playlist_id":7}`, string(payload))

	// the sync event carries no playlist; devices re-pull everything
	payload, err = json.Marshal(Event{Type: FullSync, TVID: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"sync","tv_id":4}`, string(payload))
}
