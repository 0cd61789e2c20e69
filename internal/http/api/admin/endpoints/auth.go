package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Lumina-Screens/lumina/internal/db"
	"github.com/Lumina-Screens/lumina/internal/http/api"
	"github.com/Lumina-Screens/lumina/internal/http/api/admin/packets"
	"github.com/Lumina-Screens/lumina/internal/http/middleware"
	"github.com/Lumina-Screens/lumina/internal/model"
)

type authController struct {
	store     db.Store
	secretKey string
}

// AuthPublicModule mounts signup and login, the two endpoints that run
// without a token.
func AuthPublicModule(store db.Store, secretKey string) api.Module {
	ctl := &authController{store: store, secretKey: secretKey}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/auth/signup", api.ResolveEndpoint(ctl.signup))
		c.POST("/auth/login", api.ResolveEndpoint(ctl.login))
	})
}

// AuthSessionModule mounts the endpoints that need an authenticated session.
func AuthSessionModule(store db.Store) api.Module {
	ctl := &authController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/auth/current_profile", api.ResolveEndpointWithAuth(ctl.currentProfile))
	})
}

func (a *authController) signup(ctx *gin.Context) (any, *api.APIError) {
	var req packets.SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if existing, _ := a.store.GetUserByEmail(req.Email); existing != nil {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "email already registered"}
	}

	hashed, err := middleware.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("[auth] password hashing failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "internal error"}
	}
	userID, err := a.store.CreateUser(req.Email, hashed, req.Name)
	if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("[auth] create user failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create user"}
	}

	token, err := middleware.GenerateJWT(userID, a.secretKey)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not issue token"}
	}
	return packets.TokenResponse{Token: token}, nil
}

func (a *authController) login(ctx *gin.Context) (any, *api.APIError) {
	var req packets.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	user, err := a.store.GetUserByEmail(req.Email)
	if err != nil || user == nil || !middleware.CheckPassword(user.HashedPassword, req.Password) {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: middleware.ErrInvalidCredentials.Error()}
	}

	token, err := middleware.GenerateJWT(user.ID, a.secretKey)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not issue token"}
	}
	return packets.TokenResponse{Token: token}, nil
}

func (a *authController) currentProfile(_ *gin.Context, user *model.User) (any, *api.APIError) {
	return packets.ProfileResponse{ID: user.ID, Email: user.Email, Name: user.Name}, nil
}
