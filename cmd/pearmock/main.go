package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/layer-3/pear/adapters/events"
	"github.com/layer-3/pear/adapters/store"
	"github.com/layer-3/pear/adapters/tokenizer"
	"github.com/layer-3/pear/internal/config"
	"github.com/layer-3/pear/service"
	"github.com/layer-3/pear/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}
	cfg := config.LoadMock()
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Tokens are signed with a fresh key, so they do not survive a restart
	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate signing key")
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse Redis URL")
	}
	redisClient := redis.NewClient(opts)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		watermill.NewStdLogger(cfg.Debug, false),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis publisher")
	}

	authCfg := service.DefaultConfig()
	authCfg.Domain.ChainID = cfg.ChainID
	authCfg.ClientIDs = cfg.ClientIDs

	logger := log.With().Str("component", "pearmock").Logger()
	eventPub := events.NewWatermillPublisher(publisher)
	st := store.NewRedisStore(redisClient)

	authService := service.NewAuthService(authCfg, tokenizer.NewJWTTokenizer(signKey, authCfg.Domain), st, eventPub, logger)
	walletService := service.NewAgentWalletService(st, eventPub, logger)

	router := http.SetupRouter(authService, walletService, http.Options{
		SplitChallenge:  cfg.SplitChallenge,
		CamelCaseTokens: cfg.CamelCaseTokens,
	})

	logger.Info().
		Str("addr", cfg.Addr).
		Strs("client_ids", cfg.ClientIDs).
		Int64("chain_id", cfg.ChainID).
		Msg("Mock Pear API listening")

	if err := router.Run(cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
