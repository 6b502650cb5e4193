package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	httpctx "github.com/dtroode/gophchat-server/internal/api/http/context"
	"github.com/dtroode/gophchat-server/internal/api/http/cookie"
	"github.com/dtroode/gophchat-server/internal/api/http/router"
	"github.com/dtroode/gophchat-server/internal/config"
	"github.com/dtroode/gophchat-server/internal/llm"
	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/metrics"
	"github.com/dtroode/gophchat-server/internal/model"
	"github.com/dtroode/gophchat-server/internal/password"
	"github.com/dtroode/gophchat-server/internal/repository/document"
	"github.com/dtroode/gophchat-server/internal/repository/memory"
	"github.com/dtroode/gophchat-server/internal/repository/postgres"
	"github.com/dtroode/gophchat-server/internal/server"
	"github.com/dtroode/gophchat-server/internal/service"
	"github.com/dtroode/gophchat-server/internal/storage/local"
	storage "github.com/dtroode/gophchat-server/internal/storage/minio"
	"github.com/dtroode/gophchat-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

type stores struct {
	users    model.UserStore
	sessions model.SessionStore
	chats    model.ChatStore
	close    func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err, "backend", cfg.Storage.Backend)
	}
	defer st.close()

	m := metrics.New()

	hasher := password.NewBcrypt(cfg.Password.BcryptCost)
	tokenManager := token.NewJWT(cfg.Session.Secret)

	credentialsService := service.NewCredentials(st.users, hasher, logger)
	sessionService := service.NewSessions(st.sessions, st.users, tokenManager, cfg.Session.TTL, logger)
	authService := service.NewAuth(credentialsService, sessionService, logger)

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize generator", "error", err)
	}
	if generator == nil {
		logger.Warn("no upstream API key configured, chat endpoints are disabled")
	} else {
		generator = metrics.InstrumentGenerator(generator, m)
	}
	chatService := service.NewChat(st.chats, generator, logger)

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	r := router.New(authService, chatService, httpctx.NewManager(), cookie.Config{
		Name:   cfg.Session.CookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.CookieSecure || sl.Secure(),
	}, m, logger)
	httpServer := server.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runSessionCleanup(ctx, sessionService, cfg.Session.CleanupInterval, logger)
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:    postgres.NewUserRepository(db),
			sessions: postgres.NewSessionRepository(db),
			chats:    postgres.NewChatRepository(db),
			close:    func() { db.Close() },
		}, nil

	case config.BackendMinio:
		minioClient, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
			Secure: cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		storageClient, err := storage.NewClient(ctx, minioClient, cfg.Minio.Bucket)
		if err != nil {
			return nil, err
		}
		return documentStores(storageClient), nil

	default:
		store, err := local.NewStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		return documentStores(store), nil
	}
}

func documentStores(s model.Storage) *stores {
	return &stores{
		users:    document.NewUserRepository(s),
		sessions: memory.NewSessionStore(),
		chats:    document.NewChatRepository(s),
		close:    func() {},
	}
}

// newGenerator returns nil when chat is disabled.
func newGenerator(ctx context.Context, cfg *config.Config) (model.Generator, error) {
	switch {
	case cfg.Gemini.APIKey != "":
		client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
			Timeout: cfg.Gemini.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case cfg.Gemini.UseMock:
		return llm.NewMockClient(), nil
	default:
		return nil, nil
	}
}

func runSessionCleanup(ctx context.Context, sessions *service.Sessions, interval time.Duration, logger *logger.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sessions.Cleanup(ctx); err != nil {
				logger.Error("failed to clean up sessions", "error", err)
			}
		}
	}
}
