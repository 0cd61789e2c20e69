package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lumina-Screens/lumina/internal/core"
	"github.com/Lumina-Screens/lumina/internal/http/middleware"
	"github.com/Lumina-Screens/lumina/internal/model"
)

type APIError struct {
	Code    int
	Message string
	Details map[string]any
}

type HandlerFuncWithAuth func(ctx *gin.Context, user *model.User) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

// FromError maps a service error onto an HTTP status: bad input 400, unknown
// ids 404, stale-edit conflicts 409, invariant violations 422. Anything
// untyped is a 500 with a generic message.
func FromError(err error) *APIError {
	e, ok := core.AsError(err)
	if !ok {
		return &APIError{Code: http.StatusInternalServerError, Message: "internal error"}
	}
	code := http.StatusInternalServerError
	switch e.Kind {
	case core.KindValidation:
		code = http.StatusBadRequest
	case core.KindNotFound:
		code = http.StatusNotFound
	case core.KindConflict:
		code = http.StatusConflict
	case core.KindInvariant:
		code = http.StatusUnprocessableEntity
	}
	return &APIError{Code: code, Message: e.Message, Details: e.Details}
}

func writeError(ctx *gin.Context, apiErr *APIError) {
	body := gin.H{"error": apiErr.Message}
	if len(apiErr.Details) > 0 {
		body["details"] = apiErr.Details
	}
	ctx.JSON(apiErr.Code, body)
}

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := middleware.GetCurrentUser(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		result, apiErr := h(ctx, user)
		if apiErr != nil {
			writeError(ctx, apiErr)
			return
		}
		ctx.JSON(http.StatusOK, result)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			writeError(ctx, apiErr)
			return
		}
		ctx.JSON(http.StatusOK, result)
	}
}
