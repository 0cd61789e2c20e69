package endpoints

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lumina-Screens/lumina/internal/db"
	"github.com/Lumina-Screens/lumina/internal/dispatch"
	"github.com/Lumina-Screens/lumina/internal/http/api"
	"github.com/Lumina-Screens/lumina/internal/model"
)

type socketFixture struct {
	store *db.MemStore
	hub   *dispatch.Hub
	srv   *httptest.Server
}

func newSocketFixture(t *testing.T) *socketFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := db.NewMemStore()
	hub := dispatch.NewHub()
	dispatcher := dispatch.New(store, hub, nil, nil)

	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/tv"}, SocketModule(store, hub, dispatcher))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &socketFixture{store: store, hub: hub, srv: srv}
}

func (f *socketFixture) pairedTV(t *testing.T, deviceID string) model.Television {
	t.Helper()
	tv, err := f.store.CreateTelevision("lobby", nil, 1)
	require.NoError(t, err)
	require.NoError(t, f.store.PairTelevision(tv.ID, deviceID))
	return tv
}

func (f *socketFixture) dial(t *testing.T, deviceID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/api/tv/socket?device_id=" + deviceID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) dispatch.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev dispatch.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func (f *socketFixture) online(tvID int) bool {
	tv, err := f.store.GetTelevisionByID(tvID)
	return err == nil && tv.Online
}

func TestSocketRejectsUnknownDevice(t *testing.T) {
	f := newSocketFixture(t)

	resp, err := http.Get(f.srv.URL + "/api/tv/socket?device_id=ghost")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(f.srv.URL + "/api/tv/socket")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSocketLifecycle(t *testing.T) {
	f := newSocketFixture(t)
	tv := f.pairedTV(t, "dev-1")

	conn := f.dial(t, "dev-1")

	// the first frame is the connect-time full sync
	ev := readEvent(t, conn)
	assert.Equal(t, dispatch.FullSync, ev.Type)
	assert.Equal(t, tv.ID, ev.TVID)

	require.Eventually(t, func() bool { return f.online(tv.ID) },
		2*time.Second, 10*time.Millisecond, "connect must mark the television online")
	assert.True(t, f.hub.Connected("dev-1"))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return !f.online(tv.ID) },
		2*time.Second, 10*time.Millisecond, "disconnect must mark the television offline")
	assert.Eventually(t, func() bool { return !f.hub.Connected("dev-1") },
		2*time.Second, 10*time.Millisecond)
}

// A device reconnecting before its old connection dies replaces the session;
// the old handler's teardown must not mark the still-connected TV offline.
func TestSocketReconnectKeepsTelevisionOnline(t *testing.T) {
	f := newSocketFixture(t)
	tv := f.pairedTV(t, "dev-1")

	first := f.dial(t, "dev-1")
	readEvent(t, first)
	require.Eventually(t, func() bool { return f.online(tv.ID) },
		2*time.Second, 10*time.Millisecond)

	second := f.dial(t, "dev-1")
	readEvent(t, second)

	// the replaced connection is closed server-side; wait until the old
	// client observes it so the stale handler's teardown has started
	_ = first.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}

	assert.Never(t, func() bool { return !f.online(tv.ID) },
		500*time.Millisecond, 25*time.Millisecond,
		"stale teardown must not mark a reconnected television offline")
	assert.True(t, f.hub.Connected("dev-1"))
}
