package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/debemdeboas/spawnwrite/internal/auth"
	"github.com/debemdeboas/spawnwrite/internal/config"
	"github.com/debemdeboas/spawnwrite/internal/db"
	"github.com/debemdeboas/spawnwrite/internal/editor"
	"github.com/debemdeboas/spawnwrite/internal/logger"
	"github.com/debemdeboas/spawnwrite/internal/media"
	"github.com/debemdeboas/spawnwrite/internal/model"
	"github.com/debemdeboas/spawnwrite/internal/repository"
	drafts "github.com/debemdeboas/spawnwrite/internal/repository/editor"
	"github.com/debemdeboas/spawnwrite/internal/routes"
	"github.com/debemdeboas/spawnwrite/internal/sse"
	"github.com/debemdeboas/spawnwrite/internal/util/compression"
)

const eventPostChanged = "post_changed"

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded")
	}

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "spawnwrite",
		Short:         "Blog backend with an autosaving editor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, l, err := load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := serveHTTP(ctx, cfg, l); err != nil {
				l.Error().Err(err).Msg("Server stopped with error")
				return err
			}
			return nil
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	migrate.AddCommand(
		migrateCommand(&configPath, "up", "Apply all pending migrations", func(ctx context.Context, d db.Db) error {
			return db.Migrate(ctx, d)
		}),
		migrateCommand(&configPath, "down", "Roll back the latest migration", func(ctx context.Context, d db.Db) error {
			return db.Rollback(ctx, d)
		}),
		migrateCommand(&configPath, "version", "Print the current schema version", func(ctx context.Context, d db.Db) error {
			v, err := db.Version(ctx, d)
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		}),
	)
	root.AddCommand(serve, migrate)
	root.SetContext(context.Background())
	return root
}

func migrateCommand(configPath *string, use, short string, fn func(context.Context, db.Db) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := load(*configPath)
			if err != nil {
				return err
			}
			d, err := db.New(cfg.Database)
			if err != nil {
				return err
			}
			if err := d.InitDb(); err != nil {
				return fmt.Errorf(config.ErrInitializeDatabaseFmt, err)
			}
			defer d.Close()
			return fn(cmd.Context(), d)
		},
	}
}

// load reads the config and builds the root logger, handing component loggers to every package.
func load(path string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	l := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	config.SetLogger(logger.Component(l, "config"))
	db.SetLogger(logger.Component(l, "db"))
	repository.SetLogger(logger.Component(l, "repository"))
	drafts.SetLogger(logger.Component(l, "drafts"))
	auth.SetLogger(logger.Component(l, "auth"))
	media.SetLogger(logger.Component(l, "media"))
	editor.SetLogger(logger.Component(l, "editor"))
	sse.SetLogger(logger.Component(l, "sse"))
	return cfg, l, nil
}

// app is the wired service. close releases what newApp opened.
type app struct {
	handler  http.Handler
	sessions *editor.Manager
	events   *sse.SSEClients
	limiter  *auth.RateLimiter
	close    func()
}

func newApp(ctx context.Context, cfg *config.Config, l zerolog.Logger) (_ *app, err error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	database, err := db.New(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.InitDb(); err != nil {
		return nil, fmt.Errorf(config.ErrInitializeDatabaseFmt, err)
	}
	closers = append(closers, func() { database.Close() })
	if cfg.Database.MigrateOnStart {
		if err := db.Migrate(ctx, database); err != nil {
			return nil, fmt.Errorf(config.ErrMigrateDatabaseFmt, err)
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { redisClient.Close() })
	}

	compressor, err := compression.New(cfg.Storage.Compression)
	if err != nil {
		return nil, err
	}

	var lists repository.ListCache = repository.NewMemoryListCache(cfg.Storage.ListCacheTTL)
	var revoker auth.Revoker = auth.NewMemoryRevoker()
	if redisClient != nil {
		lists = repository.NewRedisListCache(redisClient, cfg.Storage.ListCacheTTL)
		revoker = auth.NewRedisRevoker(redisClient)
	}

	posts := repository.NewDBPostRepository(database, compressor, lists)
	users := repository.NewDBUserRepository(database)

	draftRepo, err := drafts.New(cfg.Editor, redisClient)
	if err != nil {
		return nil, err
	}

	events := sse.NewSSEClients()
	posts.SetChangeNotifier(func(id model.PostID, owner model.UserID) {
		events.Notify(owner, eventPostChanged, map[string]string{"id": string(id)})
	})

	var provider auth.Provider
	var authHandlers *auth.Handlers
	switch cfg.Auth.Provider {
	case "clerk":
		provider = auth.NewClerkAuthProvider(cfg.Auth.ClerkSecretKey, users)
	case "local", "":
		tokens, err := auth.NewLocalProvider(cfg.Auth, revoker)
		if err != nil {
			return nil, fmt.Errorf(config.ErrCreateProviderFmt, err)
		}
		svc := auth.NewService(users, tokens, auth.LogMailer{}, cfg.Auth, cfg.Server.PublicURL)
		provider = tokens
		authHandlers = auth.NewHandlers(svc, tokens, isHTTPS(cfg.Server.PublicURL))
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}

	var uploads *media.Service
	if mp, err := media.New(ctx, cfg.Upload); err != nil {
		l.Warn().Err(err).Str("provider", cfg.Upload.Provider).Msg("Media uploads disabled")
	} else {
		uploads = media.NewService(mp, cfg.Upload)
	}

	sessions := editor.NewManager(posts, draftRepo, events.Notify, cfg.Editor.AutosaveInterval,
		editor.WithSessionWriteTimeout(cfg.Editor.WriteTimeout))

	var limiter *auth.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = auth.NewRateLimiter(cfg.RateLimit)
	}

	handler := routes.New(routes.Deps{
		Logger:       l,
		CORS:         cfg.CORS,
		DB:           database,
		Posts:        posts,
		Users:        users,
		Auth:         provider,
		AuthHandlers: authHandlers,
		Limiter:      limiter,
		Editor:       editor.NewHandler(provider, sessions, uploads, events),
		Uploads:      uploads,
	})

	return &app{
		handler:  handler,
		sessions: sessions,
		events:   events,
		limiter:  limiter,
		close:    cleanup,
	}, nil
}

func isHTTPS(publicURL string) bool {
	return strings.HasPrefix(publicURL, "https://")
}

// serveHTTP runs until ctx is cancelled. Editor sessions are flushed after
// the server stops accepting requests so no edit arrives after the last autosave.
func serveHTTP(ctx context.Context, cfg *config.Config, l zerolog.Logger) error {
	a, err := newApp(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(a.events.CloseAll)

	background, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		stopBackground()
		return err
	})
	g.Go(func() error {
		return a.sessions.Run(background)
	})
	if a.limiter != nil {
		g.Go(func() error {
			return a.limiter.Run(background)
		})
	}

	return g.Wait()
}
