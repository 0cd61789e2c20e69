package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Lumina-Screens/lumina/internal/assignment"
	"github.com/Lumina-Screens/lumina/internal/capacity"
	"github.com/Lumina-Screens/lumina/internal/db"
	"github.com/Lumina-Screens/lumina/internal/dispatch"
	"github.com/Lumina-Screens/lumina/internal/playlist"
	"github.com/Lumina-Screens/lumina/internal/redis"
)

func main() {
	env := LoadEnvironment()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if env.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	conn, err := db.Connect(env.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := db.RunMigrations(conn, env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}
	store := db.NewStore(conn)

	rdb := redis.NewClient(env.RedisAddress, env.RedisUsername, env.RedisPassword)

	var pub *dispatch.Publisher
	if env.MQTTBrokerURL != "" {
		pub, err = dispatch.NewPublisher(env.MQTTBrokerURL, env.MQTTClientID)
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt connection failed")
		}
		defer pub.Close()
	} else {
		log.Info().Msg("no MQTT broker configured, running websocket-only")
	}

	hub := dispatch.NewHub()
	dispatcher := dispatch.New(store, hub, pub, rdb)

	registry := assignment.NewRegistry(store, dispatcher)
	if err := registry.Load(); err != nil {
		log.Fatal().Err(err).Msg("loading assignments failed")
	}
	guard := capacity.NewGuard(store)
	if err := guard.Load(); err != nil {
		log.Fatal().Err(err).Msg("loading subscriptions failed")
	}
	playlists := playlist.NewService(store, registry, dispatcher)

	if env.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	RegisterRoutes(r, env, store, registry, guard, playlists, hub, dispatcher, rdb)

	log.Info().Str("address", env.ServerAddress).Msg("server listening")
	if err := r.Run(env.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
