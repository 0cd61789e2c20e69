package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lumina-Screens/lumina/internal/capacity"
	"github.com/Lumina-Screens/lumina/internal/core"
	"github.com/Lumina-Screens/lumina/internal/db"
	"github.com/Lumina-Screens/lumina/internal/http/api"
	"github.com/Lumina-Screens/lumina/internal/http/api/admin/packets"
	"github.com/Lumina-Screens/lumina/internal/model"
)

type subscriptionController struct {
	store db.Store
	guard *capacity.Guard
}

// SubscriptionModule mounts the screen-quantity surface the billing UI talks
// to. Quantity changes flow through the capacity guard so a reduction below
// the paired-device count is rejected, not absorbed.
func SubscriptionModule(store db.Store, guard *capacity.Guard) api.Module {
	ctl := &subscriptionController{store: store, guard: guard}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/subscription", api.ResolveEndpointWithAuth(ctl.get))
		c.PUT("/subscription", api.ResolveEndpointWithAuth(ctl.update))
	})
}

func (sc *subscriptionController) get(_ *gin.Context, user *model.User) (any, *api.APIError) {
	used, max := sc.guard.Usage(user.ID)
	return packets.SubscriptionResponse{MaxScreens: max, UsedScreens: used}, nil
}

func (sc *subscriptionController) update(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.UpdateSubscriptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if err := sc.guard.ApplyQuantity(user.ID, *req.MaxScreens); err != nil {
		apiErr := api.FromError(err)
		// a blocked reduction names the exact televisions to remove so the
		// owner never has to guess
		if core.KindOf(err) == core.KindInvariant {
			if tvs, listErr := sc.store.ListTelevisions(user.ID); listErr == nil {
				paired := make([]gin.H, 0, len(tvs))
				for _, tv := range tvs {
					if tv.Paired {
						paired = append(paired, gin.H{"id": tv.ID, "name": tv.Name})
					}
				}
				if apiErr.Details == nil {
					apiErr.Details = map[string]any{}
				}
				apiErr.Details["paired_televisions"] = paired
			}
		}
		return nil, apiErr
	}
	used, max := sc.guard.Usage(user.ID)
	return packets.SubscriptionResponse{MaxScreens: max, UsedScreens: used}, nil
}
