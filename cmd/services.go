package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/devnotmax/studify/internal/adapters/gateway"
	"github.com/devnotmax/studify/internal/adapters/localserver"
	"github.com/devnotmax/studify/internal/adapters/notification"
	"github.com/devnotmax/studify/internal/adapters/storage"
	"github.com/devnotmax/studify/internal/config"
	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/logging"
	"github.com/devnotmax/studify/internal/ports"
	"github.com/devnotmax/studify/internal/services"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	config     *config.Config
	logger     zerolog.Logger
	logCloser  io.Closer
	storage    ports.Storage
	settings   *services.SettingsService
	controller *services.Controller
	insights   *services.InsightsService
	identity   *services.IdentityService
	notifier   *notification.Notifier

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app *appDeps

// followsAnnotation marks commands that stay up to end sessions as their
// countdown expires. One-shot commands leave an overdue session for "end".
const followsAnnotation = "studify/follows-countdown"

var follows = map[string]string{followsAnnotation: "true"}

func followsCountdown(cmd *cobra.Command) bool {
	return cmd != nil && cmd.Annotations[followsAnnotation] == "true"
}

// initializeServices sets up all the required services and adapters.
func initializeServices(cmd *cobra.Command) error {
	deps := &appDeps{}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	deps.config = cfg

	deps.logger, deps.logCloser, err = logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    config.GetLogPath(cfg),
		Console: verbose,
		Stderr:  os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	// Determine database path
	path := dbPath
	if path == "" {
		path = config.GetDBPath(cfg)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	deps.storage, err = storage.New(path)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	factory := gatewayFactory(cfg, deps.storage, deps.logger)

	deps.settings = services.NewSettingsService(deps.storage.Settings(), deps.logger)
	deps.controller = services.NewController(factory, deps.settings,
		services.WithLogger(deps.logger),
		services.WithAutoEnd(followsCountdown(cmd)),
	)
	deps.insights, err = services.NewInsightsService(factory, cfg.Goals.Daily, cfg.History.CacheSize, deps.logger)
	if err != nil {
		return err
	}
	deps.identity = services.NewIdentityService(deps.storage.Identity(), deps.controller, deps.insights, deps.logger)
	deps.notifier = notification.New(cfg.Notifications)

	ctx, cancel := context.WithCancel(context.Background())
	deps.cancel = cancel
	deps.follow(ctx)

	// Recover the signed-in identity's active session. A signed-out remote
	// user can still run login, settings and help.
	if _, err := deps.identity.Restore(ctx); err != nil {
		if !errors.Is(err, domain.ErrNotAuthenticated) {
			deps.logger.Warn().Err(err).Msg("failed to recover active session")
		}
	}

	app = deps
	return nil
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if backendFlag != "" {
		cfg.Backend = backendFlag
	}
	if serverFlag != "" {
		cfg.Server.URL = serverFlag
		if backendFlag == "" {
			cfg.Backend = config.BackendRemote
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// gatewayFactory selects the backend. The remote backend needs a signed-in
// identity; the local one serves anyone, keyed by user id.
func gatewayFactory(cfg *config.Config, store ports.Storage, logger zerolog.Logger) ports.GatewayFactory {
	if cfg.Backend == config.BackendLocal {
		return localserver.Factory(store,
			localserver.WithLogger(logger),
			localserver.WithDailyGoal(cfg.Goals.Daily),
		)
	}

	remote := gateway.Factory(cfg.Server.URL,
		gateway.WithTimeout(cfg.Server.Timeout),
		gateway.WithLogger(logger),
	)
	return func(id domain.Identity) (ports.SessionGateway, error) {
		if id.Anonymous() {
			return nil, domain.ErrNotAuthenticated
		}
		return remote(id)
	}
}

// follow keeps the history cache fresh and announces completions.
func (a *appDeps) follow(ctx context.Context) {
	cacheEvents, unsubscribeCache := a.controller.Subscribe(16)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer unsubscribeCache()
		a.insights.Follow(ctx, cacheEvents)
	}()

	events, unsubscribe := a.controller.Subscribe(16)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				// A one-shot command exits right after its completion event.
				for {
					select {
					case ev := <-events:
						a.notify(ev)
					default:
						return
					}
				}
			case ev := <-events:
				a.notify(ev)
			}
		}
	}()
}

func (a *appDeps) notify(ev services.Event) {
	if ev.Kind != services.EventCompleted {
		return
	}
	if err := a.notifier.NotifySessionComplete(ev.Results); err != nil {
		a.logger.Debug().Err(err).Msg("notification failed")
	}
}

// cleanupServices closes all resources.
func cleanupServices() error {
	if app == nil {
		return nil
	}
	deps := app
	app = nil

	deps.cancel()
	deps.controller.Close()
	deps.wg.Wait()

	var errs []error
	if err := deps.storage.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
	}
	if err := deps.logCloser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close log file: %w", err))
	}
	return errors.Join(errs...)
}

// setupSignalHandler sets up a context that cancels on interrupt signals.
func setupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
