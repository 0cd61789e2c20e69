package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Lumina-Screens/lumina/internal/db"
	"github.com/Lumina-Screens/lumina/internal/dispatch"
	"github.com/Lumina-Screens/lumina/internal/http/api"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// devices connect from their own origin, not the admin UI's
	CheckOrigin: func(*http.Request) bool { return true },
}

type socketController struct {
	store      db.Store
	hub        *dispatch.Hub
	dispatcher *dispatch.Dispatcher
}

// SocketModule mounts the device's push channel. On connect the device is
// marked online and receives a full-sync event, which triggers the state pull
// that covers everything it missed while offline.
func SocketModule(store db.Store, hub *dispatch.Hub, dispatcher *dispatch.Dispatcher) api.Module {
	ctl := &socketController{store: store, hub: hub, dispatcher: dispatcher}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/socket", ctl.serve)
	})
}

func (sc *socketController) serve(ctx *gin.Context) {
	deviceID := ctx.Query("device_id")
	if deviceID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "device_id is required"})
		return
	}
	tv, err := sc.store.GetTelevisionByDeviceID(deviceID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "unknown device"})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("device_id", deviceID).Msg("[tv] websocket upgrade failed")
		return
	}

	sc.hub.Register(deviceID, conn)
	if err := sc.store.SetTelevisionOnline(tv.ID, true); err != nil {
		log.Error().Err(err).Int("tv_id", tv.ID).Msg("[tv] failed to mark television online")
	}
	sc.dispatcher.OnConnect(tv.ID)

	// the read loop exists to detect disconnects; devices never send payloads
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	// a reconnect replaces the session before this teardown runs; only the
	// handler that still owned the current session may mark the TV offline
	if sc.hub.Unregister(deviceID, conn) {
		if err := sc.store.SetTelevisionOnline(tv.ID, false); err != nil {
			log.Error().Err(err).Int("tv_id", tv.ID).Msg("[tv] failed to mark television offline")
		}
		log.Info().Str("device_id", deviceID).Msg("[tv] device disconnected")
	}
}
