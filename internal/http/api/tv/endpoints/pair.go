package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Lumina-Screens/lumina/internal/http/api"
	"github.com/Lumina-Screens/lumina/internal/http/api/tv/packets"
	"github.com/Lumina-Screens/lumina/internal/redis"
)

// pairingCodeTTL bounds how long a code shown on a screen stays claimable.
const pairingCodeTTL = 10 * time.Minute

type pairController struct {
	rdb *goredis.Client
}

// PairModule mounts the device side of pairing: a booting device generates a
// short code, shows it on screen and registers it here; the admin claims it
// from the fleet UI.
func PairModule(rdb *goredis.Client) api.Module {
	ctl := &pairController{rdb: rdb}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/register", api.ResolveEndpoint(ctl.register))
	})
}

func (pc *pairController) register(ctx *gin.Context) (any, *api.APIError) {
	var req packets.RegisterPairingCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	key := redis.PairingKey(req.PairingCode)
	ok, err := pc.rdb.SetNX(ctx.Request.Context(), key, req.DeviceID, pairingCodeTTL).Result()
	if err != nil {
		log.Error().Err(err).Msg("[tv] pairing code registration failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "internal error"}
	}
	if !ok {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "pairing code already registered"}
	}

	log.Info().Str("device_id", req.DeviceID).Msg("[tv] pairing code registered")
	return packets.RegisterPairingCodeResponse{DeviceID: req.DeviceID}, nil
}
