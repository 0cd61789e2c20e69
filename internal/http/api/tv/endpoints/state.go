package endpoints

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Lumina-Screens/lumina/internal/assignment"
	"github.com/Lumina-Screens/lumina/internal/db"
	"github.com/Lumina-Screens/lumina/internal/dispatch"
	"github.com/Lumina-Screens/lumina/internal/http/api"
	"github.com/Lumina-Screens/lumina/internal/http/api/tv/packets"
)

// stateETagTTL caps how long a cached ETag outlives its last notification.
const stateETagTTL = 24 * time.Hour

type stateController struct {
	store    db.Store
	registry *assignment.Registry
	rdb      *goredis.Client
}

// StateModule mounts the reconciliation pull. Push events are advisory and
// carry no payload; this endpoint is the single source of truth a device
// renders from, on boot and on every notification.
func StateModule(store db.Store, registry *assignment.Registry, rdb *goredis.Client) api.Module {
	ctl := &stateController{store: store, registry: registry, rdb: rdb}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/state", ctl.currentState)
	})
}

func (sc *stateController) currentState(ctx *gin.Context) {
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

	// fast path: the cached ETag survives until a notification invalidates
	// it, so a matching If-None-Match answers 304 without rebuilding state
	match := ctx.GetHeader("If-None-Match")
	if match != "" && sc.rdb != nil {
		cached, err := sc.rdb.Get(ctx.Request.Context(), dispatch.StateETagKey(tv.ID)).Result()
		if err == nil && cached == match {
			ctx.Header("ETag", cached)
			ctx.Status(http.StatusNotModified)
			return
		}
	}

	state, apiErr := sc.buildState(tv.ID)
	if apiErr != nil {
		ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
		return
	}

	body, err := json.Marshal(state)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	if sc.rdb != nil {
		if err := sc.rdb.Set(context.Background(), dispatch.StateETagKey(tv.ID), etag, stateETagTTL).Err(); err != nil {
			log.Warn().Err(err).Int("tv_id", tv.ID).Msg("[tv] failed to cache state ETag")
		}
	}
	ctx.Header("ETag", etag)
	if match == etag {
		ctx.Status(http.StatusNotModified)
		return
	}
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (sc *stateController) buildState(tvID int) (packets.StateResponse, *api.APIError) {
	state := packets.StateResponse{TVID: tvID, Items: []packets.StateItem{}}

	current, ok := sc.registry.CurrentFor(tvID)
	if !ok {
		return state, nil
	}
	pl, err := sc.store.GetPlaylistByID(current)
	if err != nil {
		return state, api.FromError(err)
	}

	state.AssignedPlaylistID = &pl.ID
	state.PlaylistName = pl.Name
	state.IsActive = sc.registry.StateOf(tvID, pl.ID) == assignment.AssignedActive

	for _, it := range pl.Items {
		content, err := sc.store.GetContentByID(it.ContentID)
		if err != nil {
			log.Warn().Err(err).Int("content_id", it.ContentID).Msg("[tv] skipping item with missing content")
			continue
		}
		state.Items = append(state.Items, packets.StateItem{
			URL:      content.URL,
			Type:     content.Type,
			Duration: it.Duration,
		})
	}
	if pl.Schedule != nil {
		state.Schedule = &packets.StateSchedule{
			DaysOfWeek: pl.Schedule.DaysOfWeek,
			StartTime:  pl.Schedule.StartTime,
			EndTime:    pl.Schedule.EndTime,
		}
	}
	return state, nil
}
