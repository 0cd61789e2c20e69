package endpoints

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lumina-Screens/lumina/internal/db"
	"github.com/Lumina-Screens/lumina/internal/http/api"
	"github.com/Lumina-Screens/lumina/internal/http/api/admin/packets"
	"github.com/Lumina-Screens/lumina/internal/model"
)

type contentController struct {
	store db.Store
}

// ContentModule mounts the media-reference CRUD. Upload itself lives behind an
// external service; these endpoints track the stable URLs playlists point at.
func ContentModule(store db.Store) api.Module {
	ctl := &contentController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/content", api.ResolveEndpointWithAuth(ctl.list))
		c.POST("/content", api.ResolveEndpointWithAuth(ctl.create))
		c.GET("/content/:id", api.ResolveEndpointWithAuth(ctl.get))
		c.DELETE("/content/:id", api.ResolveEndpointWithAuth(ctl.delete))
	})
}

func mapContent(c model.Content) packets.ContentResponse {
	return packets.ContentResponse{
		ID:        c.ID,
		Name:      c.Name,
		Type:      c.Type,
		URL:       c.URL,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func (cc *contentController) list(_ *gin.Context, user *model.User) (any, *api.APIError) {
	items, err := cc.store.ListContent(user.ID)
	if err != nil {
		return nil, api.FromError(err)
	}
	out := make([]packets.ContentResponse, 0, len(items))
	for _, it := range items {
		out = append(out, mapContent(it))
	}
	return out, nil
}

func (cc *contentController) create(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.CreateContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	created, err := cc.store.CreateContent(req.Name, req.Type, req.URL, user.ID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return mapContent(created), nil
}

func (cc *contentController) get(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid content id"}
	}
	item, err := cc.store.GetContentByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "content not found"}
	}
	if item.CreatedBy != user.ID {
		return nil, &api.APIError{Code: http.StatusForbidden, Message: "not your content"}
	}
	return mapContent(item), nil
}

func (cc *contentController) delete(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid content id"}
	}
	item, err := cc.store.GetContentByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "content not found"}
	}
	if item.CreatedBy != user.ID {
		return nil, &api.APIError{Code: http.StatusForbidden, Message: "not your content"}
	}
	if err := cc.store.DeleteContent(id); err != nil {
		return nil, api.FromError(err)
	}
	return gin.H{"deleted": id}, nil
}
