// Package dispatch pushes change notifications to television sessions.
// Notifications are advisory: they carry only the change kind and ids, never
// the payload, so a device always re-pulls authoritative state. Delivery is
// fire-and-forget; a push to a disconnected device is dropped and the
// connect-time reconciliation pull is the recovery mechanism.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Lumina-Screens/lumina/internal/model"
)

type ChangeKind string

const (
	PlaylistChanged   ChangeKind = "playlist_changed"
	AssignmentChanged ChangeKind = "assignment_changed"
	ActivationChanged ChangeKind = "activation_changed"
	// FullSync is sent on (re)connect so a device that missed pushes while
	// offline re-pulls everything.
	FullSync ChangeKind = "sync"
)

// Event is the entire wire payload of a push notification.
type Event struct {
	Type       ChangeKind `json:"type"`
	TVID       int        `json:"tv_id"`
	PlaylistID int        `json:"playlist_id,omitempty"`
}

// Notifier is what the playlist service and assignment registry emit through.
type Notifier interface {
	Notify(tvID int, kind ChangeKind, playlistID int)
}

// TVSource resolves a television id to its paired device id.
type TVSource interface {
	GetTelevisionByID(id int) (model.Television, error)
}

// Dispatcher routes events to a live websocket session when one exists and
// otherwise publishes to the device's MQTT command topic. Both transports are
// one-shot; there is no retry timer.
type Dispatcher struct {
	tvs  TVSource
	hub  *Hub
	pub  *Publisher    // nil when no broker is configured
	rdb  *redis.Client // nil in tests; used to drop cached state ETags
}

func New(tvs TVSource, hub *Hub, pub *Publisher, rdb *redis.Client) *Dispatcher {
	return &Dispatcher{tvs: tvs, hub: hub, pub: pub, rdb: rdb}
}

var _ Notifier = (*Dispatcher)(nil)

// StateETagKey is the redis key caching the ETag of a television's current
// state. Dropped on every notification so the next pull recomputes it.
func StateETagKey(tvID int) string { return fmt.Sprintf("tv:%d:state:etag", tvID) }

func (d *Dispatcher) Notify(tvID int, kind ChangeKind, playlistID int) {
	d.invalidateETag(tvID)
	d.deliver(Event{Type: kind, TVID: tvID, PlaylistID: playlistID})
}

// OnConnect emits the implicit full-state notification that covers changes
// made while the device was offline.
func (d *Dispatcher) OnConnect(tvID int) {
	d.invalidateETag(tvID)
	d.deliver(Event{Type: FullSync, TVID: tvID})
}

func (d *Dispatcher) invalidateETag(tvID int) {
	if d.rdb == nil {
		return
	}
	if err := d.rdb.Del(context.Background(), StateETagKey(tvID)).Err(); err != nil {
		log.Warn().Err(err).Int("tv_id", tvID).Msg("[dispatch] failed to invalidate state ETag")
	}
}

func (d *Dispatcher) deliver(ev Event) {
	tv, err := d.tvs.GetTelevisionByID(ev.TVID)
	if err != nil {
		log.Warn().Err(err).Int("tv_id", ev.TVID).Msg("[dispatch] unknown television, dropping event")
		return
	}
	if tv.DeviceID == nil {
		log.Debug().Int("tv_id", ev.TVID).Msg("[dispatch] television not paired, dropping event")
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("[dispatch] marshal event failed")
		return
	}

	deviceID := *tv.DeviceID
	if d.hub != nil && d.hub.Send(deviceID, payload) {
		log.Debug().Str("device_id", deviceID).Str("kind", string(ev.Type)).Msg("[dispatch] delivered over websocket")
		return
	}
	if d.pub != nil {
		if err := d.pub.Publish(deviceID, payload); err != nil {
			// expected while the device is offline; reconnect pull recovers
			log.Debug().Err(err).Str("device_id", deviceID).Msg("[dispatch] mqtt publish failed")
		}
		return
	}
	log.Debug().Str("device_id", deviceID).Msg("[dispatch] no live channel, event dropped")
}
