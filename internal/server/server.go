package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pointsboard/apiserver/config"
	"github.com/pointsboard/apiserver/internal/db"
	"github.com/pointsboard/apiserver/internal/handlers"
	"github.com/pointsboard/apiserver/internal/mq"
	"github.com/pointsboard/apiserver/internal/qr"
	"github.com/pointsboard/apiserver/internal/reactor"
	"github.com/pointsboard/apiserver/internal/selector"
	"github.com/pointsboard/apiserver/internal/services"
	"github.com/pointsboard/apiserver/internal/storage"
	"github.com/pointsboard/apiserver/internal/store"
)

// Server wires the HTTP surface together with the background components:
// the change reactor and the winner-selection job.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        *mq.MQ

	reactor       *reactor.Reactor
	winnerRunner  *selector.Runner
	winnerEnabled bool

	cancelBackground context.CancelFunc
	logger           *log.Logger
}

// New constructs a Server: database, artifact storage, change-feed broker,
// repositories, services, handlers. Every dependency is built here and
// passed down explicitly.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	artifactStore, err := buildStorage(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := artifactStore.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	bus, err := buildBroker(ctx, cfg.Broker)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	winnerRepo := store.NewWinnerRepository(dbConn)

	userService := services.NewUserService(userRepo, bus, logger)
	leaderboardService := services.NewLeaderboardService(userRepo)
	winnerService := services.NewWinnerService(userRepo, winnerRepo)

	generator, err := qr.NewGenerator(cfg.QR, artifactStore)
	if err != nil {
		_ = bus.Close()
		_ = dbConn.Close()
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", handlers.Healthz)
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, leaderboardService)
	})
	router.Route("/winners", func(r chi.Router) {
		handlers.WinnerRouter(r, winnerService)
	})
	router.Route("/uploads", func(r chi.Router) {
		handlers.ArtifactRouter(r, artifactStore)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer:    httpServer,
		router:        router,
		db:            dbConn,
		bus:           bus,
		reactor:       reactor.New(bus, generator, logger),
		winnerRunner:  selector.NewRunner(winnerService, cfg.Winner.Interval, logger),
		winnerEnabled: cfg.Winner.Enabled,
		logger:        logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start launches the background components and runs the HTTP server.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelBackground = cancel

	go func() {
		if err := s.reactor.Run(ctx); err != nil {
			s.logger.Printf("change reactor stopped: %v", err)
		}
	}()

	if s.winnerEnabled {
		go s.winnerRunner.Run(ctx)
	} else {
		s.logger.Printf("winner selection job is disabled")
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown stops the background components and closes all resources.
func (s *Server) Shutdown() error {
	if s.cancelBackground != nil {
		s.cancelBackground()
	}
	if s.bus != nil {
		_ = s.bus.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

func buildStorage(ctx context.Context, cfg config.StorageConfig) (*storage.Storage, error) {
	switch cfg.Kind {
	case config.StorageLocal, "":
		backend, err := storage.NewLocalClient(cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case config.StorageMinio:
		backend, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case config.StorageGCS:
		backend, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	default:
		return nil, fmt.Errorf("unknown storage kind %q", cfg.Kind)
	}
}

func buildBroker(ctx context.Context, cfg config.BrokerConfig) (*mq.MQ, error) {
	switch cfg.Kind {
	case config.BrokerMemory, "":
		return mq.New(mq.NewMemoryBackend()), nil
	case config.BrokerRabbitMQ:
		backend, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	case config.BrokerPubSub:
		backend, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown broker kind %q", cfg.Kind)
	}
}
