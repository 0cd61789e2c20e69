package endpoints

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Lumina-Screens/lumina/internal/assignment"
	"github.com/Lumina-Screens/lumina/internal/capacity"
	"github.com/Lumina-Screens/lumina/internal/db"
	"github.com/Lumina-Screens/lumina/internal/http/api"
	"github.com/Lumina-Screens/lumina/internal/http/api/admin/packets"
	"github.com/Lumina-Screens/lumina/internal/model"
	"github.com/Lumina-Screens/lumina/internal/playlist"
	"github.com/Lumina-Screens/lumina/internal/redis"
)

type televisionController struct {
	store    db.Store
	registry *assignment.Registry
	guard    *capacity.Guard
	svc      *playlist.Service
	rdb      *goredis.Client
}

// TelevisionModule mounts the fleet management surface: CRUD, pairing against
// device-registered codes, playlist binding and per-television activation.
func TelevisionModule(store db.Store, registry *assignment.Registry, guard *capacity.Guard, svc *playlist.Service, rdb *goredis.Client) api.Module {
	ctl := &televisionController{store: store, registry: registry, guard: guard, svc: svc, rdb: rdb}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/televisions", api.ResolveEndpointWithAuth(ctl.list))
		c.POST("/televisions", api.ResolveEndpointWithAuth(ctl.create))
		c.GET("/televisions/:id", api.ResolveEndpointWithAuth(ctl.get))
		c.PUT("/televisions/:id", api.ResolveEndpointWithAuth(ctl.update))
		c.DELETE("/televisions/:id", api.ResolveEndpointWithAuth(ctl.delete))

		c.POST("/televisions/:id/pair", api.ResolveEndpointWithAuth(ctl.pair))
		c.DELETE("/televisions/:id/pair", api.ResolveEndpointWithAuth(ctl.unpair))
		c.POST("/televisions/:id/playlist", api.ResolveEndpointWithAuth(ctl.assignPlaylist))
		c.DELETE("/televisions/:id/playlist", api.ResolveEndpointWithAuth(ctl.unassignPlaylist))
		c.PUT("/televisions/:id/activation", api.ResolveEndpointWithAuth(ctl.setActivation))
	})
}

func mapTelevision(tv model.Television, playlistID *int, live bool) packets.TelevisionResponse {
	return packets.TelevisionResponse{
		ID:             tv.ID,
		DeviceID:       tv.DeviceID,
		Name:           tv.Name,
		Location:       tv.Location,
		Paired:         tv.Paired,
		Online:         tv.Online,
		PlaylistID:     playlistID,
		PlaylistActive: live,
		CreatedAt:      tv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      tv.UpdatedAt.Format(time.RFC3339),
	}
}

func (tc *televisionController) mapWithBinding(tv model.Television) packets.TelevisionResponse {
	var playlistID *int
	if current, ok := tc.registry.CurrentFor(tv.ID); ok {
		playlistID = &current
	}
	_, live := tc.registry.ActiveFor(tv.ID)
	return mapTelevision(tv, playlistID, live)
}

// ownedTV resolves the :id param and rejects access to televisions the
// session user does not own.
func (tc *televisionController) ownedTV(ctx *gin.Context, user *model.User) (model.Television, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return model.Television{}, &api.APIError{Code: http.StatusBadRequest, Message: "invalid television id"}
	}
	tv, err := tc.store.GetTelevisionByID(id)
	if err != nil {
		return model.Television{}, &api.APIError{Code: http.StatusNotFound, Message: "television not found"}
	}
	if tv.CreatedBy != user.ID {
		return model.Television{}, &api.APIError{Code: http.StatusForbidden, Message: "not your television"}
	}
	return tv, nil
}

func (tc *televisionController) list(_ *gin.Context, user *model.User) (any, *api.APIError) {
	tvs, err := tc.store.ListTelevisions(user.ID)
	if err != nil {
		return nil, api.FromError(err)
	}
	out := make([]packets.TelevisionResponse, 0, len(tvs))
	for _, tv := range tvs {
		out = append(out, tc.mapWithBinding(tv))
	}
	return out, nil
}

func (tc *televisionController) create(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.CreateTelevisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	tv, err := tc.store.CreateTelevision(req.Name, req.Location, user.ID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return tc.mapWithBinding(tv), nil
}

func (tc *televisionController) get(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	tv, apiErr := tc.ownedTV(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	return tc.mapWithBinding(tv), nil
}

func (tc *televisionController) update(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	tv, apiErr := tc.ownedTV(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.UpdateTelevisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if err := tc.store.UpdateTelevision(tv.ID, req.Name, req.Location); err != nil {
		return nil, api.FromError(err)
	}
	updated, err := tc.store.GetTelevisionByID(tv.ID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return tc.mapWithBinding(updated), nil
}

// delete removes the television, clearing its playlist binding first and
// releasing its screen slot when it was paired.
func (tc *televisionController) delete(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	tv, apiErr := tc.ownedTV(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := tc.svc.UnassignTV(tv.ID); err != nil {
		return nil, api.FromError(err)
	}
	if err := tc.store.DeleteTelevision(tv.ID); err != nil {
		return nil, api.FromError(err)
	}
	if tv.Paired {
		tc.guard.OnDeviceRemoved(user.ID)
	}
	return gin.H{"deleted": tv.ID}, nil
}

// pair binds the television record to a physical device via the short code the
// device registered. The capacity check and the slot claim are one atomic step
// inside the guard; if the store write fails afterwards the slot is released.
func (tc *televisionController) pair(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	tv, apiErr := tc.ownedTV(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	if tv.Paired {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "television is already paired"}
	}
	var req packets.PairTelevisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	rctx := ctx.Request.Context()
	deviceID, err := tc.rdb.Get(rctx, redis.PairingKey(req.PairingCode)).Result()
	if err == goredis.Nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "unknown or expired pairing code"}
	} else if err != nil {
		log.Error().Err(err).Msg("[televisions] pairing code lookup failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "internal error"}
	}

	if err := tc.guard.OnDevicePaired(user.ID); err != nil {
		return nil, api.FromError(err)
	}
	if err := tc.store.PairTelevision(tv.ID, deviceID); err != nil {
		tc.guard.OnDeviceRemoved(user.ID)
		return nil, api.FromError(err)
	}
	if err := tc.rdb.Del(context.Background(), redis.PairingKey(req.PairingCode)).Err(); err != nil {
		log.Warn().Err(err).Msg("[televisions] failed to drop consumed pairing code")
	}

	updated, err := tc.store.GetTelevisionByID(tv.ID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return tc.mapWithBinding(updated), nil
}

// unpair detaches the physical device and releases its screen slot. The
// playlist binding stays; re-pairing picks it up again.
func (tc *televisionController) unpair(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	tv, apiErr := tc.ownedTV(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	if !tv.Paired {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "television is not paired"}
	}
	if err := tc.store.UnpairTelevision(tv.ID); err != nil {
		return nil, api.FromError(err)
	}
	tc.guard.OnDeviceRemoved(user.ID)

	updated, err := tc.store.GetTelevisionByID(tv.ID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return tc.mapWithBinding(updated), nil
}

func (tc *televisionController) assignPlaylist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	tv, apiErr := tc.ownedTV(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.AssignPlaylistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	pl, err := tc.store.GetPlaylistByID(req.PlaylistID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "playlist not found"}
	}
	if pl.CreatedBy != user.ID {
		return nil, &api.APIError{Code: http.StatusForbidden, Message: "not your playlist"}
	}
	if err := tc.svc.AssignTV(tv.ID, req.PlaylistID, req.Force); err != nil {
		return nil, api.FromError(err)
	}
	updated, err := tc.store.GetTelevisionByID(tv.ID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return tc.mapWithBinding(updated), nil
}

func (tc *televisionController) unassignPlaylist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	tv, apiErr := tc.ownedTV(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := tc.svc.UnassignTV(tv.ID); err != nil {
		return nil, api.FromError(err)
	}
	return gin.H{"unassigned": tv.ID}, nil
}

func (tc *televisionController) setActivation(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	tv, apiErr := tc.ownedTV(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.SetTVActivationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	var err error
	if *req.Active {
		err = tc.registry.Activate(tv.ID)
	} else {
		err = tc.registry.Deactivate(tv.ID)
	}
	if err != nil {
		return nil, api.FromError(err)
	}
	return tc.mapWithBinding(tv), nil
}
