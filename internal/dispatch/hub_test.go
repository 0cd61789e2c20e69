package dispatch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// wsPair dials a real websocket through httptest and hands back both ends.
func wsPair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()
	accepted := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		accepted <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	server = <-accepted
	return server, client
}

func readOne(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	return payload
}

func TestHubDeliversToRegisteredSession(t *testing.T) {
	hub := NewHub()
	server, client := wsPair(t)

	hub.Register("dev-1", server)
	assert.True(t, hub.Connected("dev-1"))

	require.True(t, hub.Send("dev-1", []byte(`{"type":"sync"}`)))
	assert.JSONEq(t, `{"type":"sync"}`, string(readOne(t, client)))
}

func TestHubSendWithoutSession(t *testing.T) {
	hub := NewHub()
	assert.False(t, hub.Send("nobody", []byte("x")))
	assert.False(t, hub.Connected("nobody"))
}

func TestHubReplacesSession(t *testing.T) {
	hub := NewHub()
	oldServer, oldClient := wsPair(t)
	newServer, newClient := wsPair(t)

	hub.Register("dev-1", oldServer)
	hub.Register("dev-1", newServer)

	require.True(t, hub.Send("dev-1", []byte("hello")))
	assert.Equal(t, "hello", string(readOne(t, newClient)))

	// the replaced connection is told to close
	_ = oldClient.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := oldClient.ReadMessage()
	assert.Error(t, err)
}

func TestHubUnregisterIgnoresStaleConn(t *testing.T) {
	hub := NewHub()
	oldServer, _ := wsPair(t)
	newServer, newClient := wsPair(t)

	hub.Register("dev-1", oldServer)
	hub.Register("dev-1", newServer)

	// the old reader tearing down must not drop the replacement session
	assert.False(t, hub.Unregister("dev-1", oldServer))
	assert.True(t, hub.Connected("dev-1"))

	require.True(t, hub.Send("dev-1", []byte("still here")))
	assert.Equal(t, "still here", string(readOne(t, newClient)))

	assert.True(t, hub.Unregister("dev-1", newServer))
	assert.False(t, hub.Connected("dev-1"))
}

// Send must never race Register/Unregister into a send on a closed channel.
// Run with -race; without the lock held across the channel send this panics.
func TestHubSendDuringSessionChurn(t *testing.T) {
	hub := NewHub()
	server, client := wsPair(t)

	// drain whatever the writer pumps out until the conn dies
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					hub.Send("dev-1", []byte("ping"))
				}
			}
		}()
	}

	for i := 0; i < 2000; i++ {
		hub.Register("dev-1", server)
		hub.Unregister("dev-1", server)
	}
	close(stop)
	wg.Wait()
	assert.False(t, hub.Connected("dev-1"))
}
