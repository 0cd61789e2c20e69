package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Lumina-Screens/lumina/internal/assignment"
	"github.com/Lumina-Screens/lumina/internal/capacity"
	"github.com/Lumina-Screens/lumina/internal/db"
	"github.com/Lumina-Screens/lumina/internal/dispatch"
	"github.com/Lumina-Screens/lumina/internal/http/api"
	adminapi "github.com/Lumina-Screens/lumina/internal/http/api/admin/endpoints"
	tvapi "github.com/Lumina-Screens/lumina/internal/http/api/tv/endpoints"
	"github.com/Lumina-Screens/lumina/internal/playlist"
)

// RegisterRoutes sets up all application routes.
func RegisterRoutes(
	r *gin.Engine,
	env Environment,
	store db.Store,
	registry *assignment.Registry,
	guard *capacity.Guard,
	playlists *playlist.Service,
	hub *dispatch.Hub,
	dispatcher *dispatch.Dispatcher,
	rdb *goredis.Client,
) {
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"ETag",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Auth:   false,
	},
		adminapi.AuthPublicModule(store, env.SecretKey),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: env.SecretKey,
		Store:     store,
	},
		adminapi.ContentModule(store),
		adminapi.PlaylistModule(store, playlists, registry),
		adminapi.TelevisionModule(store, registry, guard, playlists, rdb),
		adminapi.SubscriptionModule(store, guard),
		adminapi.AuthSessionModule(store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/tv",
	},
		tvapi.PairModule(rdb),
		tvapi.StateModule(store, registry, rdb),
		tvapi.SocketModule(store, hub, dispatcher),
	)
}
