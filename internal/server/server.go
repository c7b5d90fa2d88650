package server

import (
	"log"

	"backend-wearquest/internal/auth"
	"backend-wearquest/internal/config"
	"backend-wearquest/internal/feed"
	"backend-wearquest/internal/geofence"
	"backend-wearquest/internal/location"
	"backend-wearquest/internal/nfc"
	"backend-wearquest/internal/session"
	"backend-wearquest/internal/vault"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Feed     *feed.Hub
	Sessions *session.Manager
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := feed.NewHub(redisClient)
	provider := location.NewFeedProvider(hub)
	zones := geofence.NewRegistry(geofence.DefaultZones())

	store := vault.NewPGStore(db, sealerFromConfig(cfg))

	var verifier nfc.Verifier = nfc.Disabled{}
	if cfg.NFCEndpoint != "" {
		verifier = nfc.NewHTTPVerifier(cfg.NFCEndpoint)
	}

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       db,
		Redis:    redisClient,
		Feed:     hub,
		Sessions: session.NewManager(provider, zones, store),
	}

	registerRoutes(s, provider, zones, store, verifier)
	return s
}

// sealerFromConfig falls back to the dev key on a bad VAULT_KEY so the
// store never holds a nil sealer; the dev key is a compile-time
// constant, so a failure there is a startup bug and fatal.
func sealerFromConfig(cfg config.Config) *vault.Sealer {
	sealer, err := vault.NewSealer(cfg.VaultKey)
	if err != nil {
		log.Printf("invalid vault key, falling back to dev key: %v", err)
		if sealer, err = vault.NewSealer(config.DevVaultKey); err != nil {
			log.Fatalf("dev vault key unusable: %v", err)
		}
	}
	return sealer
}

func registerRoutes(s *Server, provider *location.FeedProvider, zones *geofence.Registry, store vault.Store, verifier nfc.Verifier) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	session.RegisterRoutes(s.App.Group("/sessions"), s.Sessions, store, jwtMiddleware)
	location.RegisterRoutes(s.App.Group("/location"), provider, jwtMiddleware)
	nfc.RegisterRoutes(s.App.Group("/nfc"), verifier, jwtMiddleware)
	geofence.RegisterRoutes(s.App.Group("/geofences"), zones)
	feed.RegisterRoutes(s.App.Group("/stream"), s.Feed)
}
