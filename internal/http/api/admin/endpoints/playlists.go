package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Lumina-Screens/lumina/internal/assignment"
	"github.com/Lumina-Screens/lumina/internal/db"
	"github.com/Lumina-Screens/lumina/internal/http/api"
	"github.com/Lumina-Screens/lumina/internal/http/api/admin/packets"
	"github.com/Lumina-Screens/lumina/internal/model"
	"github.com/Lumina-Screens/lumina/internal/playlist"
)

type playlistController struct {
	store    db.Store
	svc      *playlist.Service
	registry *assignment.Registry
}

// PlaylistModule mounts the playlist editor surface: CRUD, item management,
// reorder, per-item duration, activation and scheduling.
func PlaylistModule(store db.Store, svc *playlist.Service, registry *assignment.Registry) api.Module {
	ctl := &playlistController{store: store, svc: svc, registry: registry}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/playlists", api.ResolveEndpointWithAuth(ctl.list))
		c.POST("/playlists", api.ResolveEndpointWithAuth(ctl.create))
		c.GET("/playlists/:id", api.ResolveEndpointWithAuth(ctl.get))
		c.PUT("/playlists/:id", api.ResolveEndpointWithAuth(ctl.update))
		c.DELETE("/playlists/:id", api.ResolveEndpointWithAuth(ctl.delete))

		c.POST("/playlists/:id/items", api.ResolveEndpointWithAuth(ctl.addItems))
		c.PUT("/playlists/:id/items", api.ResolveEndpointWithAuth(ctl.reorder))
		c.DELETE("/playlists/:id/items/:item_id", api.ResolveEndpointWithAuth(ctl.removeItem))
		c.PUT("/playlists/:id/items/:item_id/duration", api.ResolveEndpointWithAuth(ctl.setDuration))

		c.PUT("/playlists/:id/active", api.ResolveEndpointWithAuth(ctl.setActive))
		c.PUT("/playlists/:id/schedule", api.ResolveEndpointWithAuth(ctl.updateSchedule))
		c.GET("/playlists/:id/televisions", api.ResolveEndpointWithAuth(ctl.televisions))
	})
}

func scheduleFromPayload(p *packets.SchedulePayload) *model.Schedule {
	if p == nil {
		return nil
	}
	return &model.Schedule{
		DaysOfWeek: p.DaysOfWeek,
		StartTime:  p.StartTime,
		EndTime:    p.EndTime,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
	}
}

func mapSchedule(s *model.Schedule) *packets.ScheduleResponse {
	if s == nil {
		return nil
	}
	return &packets.ScheduleResponse{
		DaysOfWeek: s.DaysOfWeek,
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		StartDate:  s.StartDate,
		EndDate:    s.EndDate,
	}
}

func mapPlaylist(pl model.Playlist) packets.PlaylistResponse {
	items := make([]packets.PlaylistItemResponse, 0, len(pl.Items))
	for _, it := range pl.Items {
		items = append(items, packets.PlaylistItemResponse{
			ID:        it.ID,
			ContentID: it.ContentID,
			Position:  it.Position,
			Duration:  it.Duration,
			CreatedAt: it.CreatedAt,
		})
	}
	description := ""
	if pl.Description != nil {
		description = *pl.Description
	}
	return packets.PlaylistResponse{
		ID:          pl.ID,
		Name:        pl.Name,
		Description: description,
		Active:      pl.Active,
		Playable:    pl.Playable(),
		CreatedBy:   pl.CreatedBy,
		CreatedAt:   pl.CreatedAt,
		UpdatedAt:   pl.UpdatedAt,
		Items:       items,
		Schedule:    mapSchedule(pl.Schedule),
	}
}

func newItems(in []packets.NewPlaylistItem) []playlist.NewItem {
	out := make([]playlist.NewItem, 0, len(in))
	for _, it := range in {
		out = append(out, playlist.NewItem{ContentID: it.ContentID, Duration: it.Duration})
	}
	return out
}

// ownedPlaylist resolves the :id param and rejects access to playlists the
// session user does not own.
func (pc *playlistController) ownedPlaylist(ctx *gin.Context, user *model.User) (model.Playlist, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return model.Playlist{}, &api.APIError{Code: http.StatusBadRequest, Message: "invalid playlist id"}
	}
	pl, err := pc.svc.Get(id)
	if err != nil {
		return model.Playlist{}, api.FromError(err)
	}
	if pl.CreatedBy != user.ID {
		return model.Playlist{}, &api.APIError{Code: http.StatusForbidden, Message: "not your playlist"}
	}
	return pl, nil
}

func (pc *playlistController) list(_ *gin.Context, user *model.User) (any, *api.APIError) {
	pls, err := pc.svc.List(user.ID)
	if err != nil {
		return nil, api.FromError(err)
	}
	out := make([]packets.PlaylistResponse, 0, len(pls))
	for _, pl := range pls {
		out = append(out, mapPlaylist(pl))
	}
	return out, nil
}

func (pc *playlistController) create(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.CreatePlaylistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	pl, err := pc.svc.Create(user.ID, req.Name, req.Description, newItems(req.Items), req.TVID, scheduleFromPayload(req.Schedule), req.Force)
	if err != nil {
		return nil, api.FromError(err)
	}
	return mapPlaylist(pl), nil
}

func (pc *playlistController) get(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	pl, apiErr := pc.ownedPlaylist(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	return mapPlaylist(pl), nil
}

func (pc *playlistController) update(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	pl, apiErr := pc.ownedPlaylist(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.UpdatePlaylistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	updated, err := pc.svc.Update(pl.ID, req.Name, req.Description)
	if err != nil {
		return nil, api.FromError(err)
	}
	return mapPlaylist(updated), nil
}

func (pc *playlistController) delete(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	pl, apiErr := pc.ownedPlaylist(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := pc.svc.Delete(pl.ID); err != nil {
		return nil, api.FromError(err)
	}
	return gin.H{"deleted": pl.ID}, nil
}

func (pc *playlistController) addItems(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	pl, apiErr := pc.ownedPlaylist(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.AddItemsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	updated, err := pc.svc.AddItems(pl.ID, newItems(req.Items))
	if err != nil {
		return nil, api.FromError(err)
	}
	return mapPlaylist(updated), nil
}

func (pc *playlistController) reorder(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	pl, apiErr := pc.ownedPlaylist(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.ReorderItemsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	updated, err := pc.svc.Reorder(pl.ID, req.ItemIDs)
	if err != nil {
		return nil, api.FromError(err)
	}
	return mapPlaylist(updated), nil
}

func (pc *playlistController) removeItem(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	pl, apiErr := pc.ownedPlaylist(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	itemID, err := strconv.Atoi(ctx.Param("item_id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid item id"}
	}
	updated, err := pc.svc.RemoveItem(pl.ID, itemID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return mapPlaylist(updated), nil
}

func (pc *playlistController) setDuration(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	pl, apiErr := pc.ownedPlaylist(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	itemID, err := strconv.Atoi(ctx.Param("item_id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid item id"}
	}
	var req packets.SetDurationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	updated, err := pc.svc.SetItemDuration(pl.ID, itemID, req.Duration)
	if err != nil {
		return nil, api.FromError(err)
	}
	return mapPlaylist(updated), nil
}

func (pc *playlistController) setActive(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	pl, apiErr := pc.ownedPlaylist(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.SetActiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	updated, err := pc.svc.SetActive(pl.ID, *req.Active)
	if err != nil {
		return nil, api.FromError(err)
	}
	return mapPlaylist(updated), nil
}

func (pc *playlistController) updateSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	pl, apiErr := pc.ownedPlaylist(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.UpdateScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	updated, err := pc.svc.UpdateSchedule(pl.ID, scheduleFromPayload(req.Schedule))
	if err != nil {
		return nil, api.FromError(err)
	}
	return mapPlaylist(updated), nil
}

func (pc *playlistController) televisions(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	pl, apiErr := pc.ownedPlaylist(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	tvs, err := pc.store.GetTVsUsingPlaylist(pl.ID)
	if err != nil {
		return nil, api.FromError(err)
	}
	out := make([]packets.TelevisionResponse, 0, len(tvs))
	for _, tv := range tvs {
		live := pc.registry.StateOf(tv.ID, pl.ID) == assignment.AssignedActive
		out = append(out, mapTelevision(tv, &pl.ID, live))
	}
	return out, nil
}
