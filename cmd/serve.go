package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/auth"
	"github.com/Tiliavir/timesheet/internal/config"
	tsmhttp "github.com/Tiliavir/timesheet/internal/http"
	"github.com/Tiliavir/timesheet/internal/http/handlers"
	"github.com/Tiliavir/timesheet/internal/http/middleware"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/storage"
	"github.com/Tiliavir/timesheet/internal/timesheet"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the timesheet server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, overrides server.addr")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	log, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	if cfg.GeneratedSecret {
		log.Warn().Msg("session.secret not set; generated a random one, sessions end when the server stops")
	}
	if cfg.Auth.Password == config.DemoPassword {
		log.Warn().Str("email", cfg.Auth.Email).Msg("signing in with the demo password; set auth.password")
	}

	handler, err := newHandler(cfg, log, time.Now)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-quit:
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server stopped")
	return nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log.level %q: %w", cfg.Level, err)
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// newHandler wires the store, services and router from cfg.
func newHandler(cfg *config.Config, log zerolog.Logger, now func() time.Time) (http.Handler, error) {
	var seed []model.Entry
	if cfg.Store.SeedDemo {
		seed = storage.DemoEntries()
	}

	var metrics *middleware.Metrics
	var opts []timesheet.Option
	if cfg.Metrics.Enabled {
		metrics = middleware.NewMetrics()
		opts = append(opts, timesheet.WithRecorder(metrics))
	}
	svc := timesheet.NewService(storage.NewRepository(seed...), log, opts...)

	manager := auth.NewManager(auth.Config{
		Secret:       []byte(cfg.Session.Secret),
		CookieName:   cfg.Session.CookieName,
		MaxAge:       cfg.Session.MaxAge,
		TokenTTL:     cfg.Session.TokenTTL,
		SecureCookie: cfg.Session.SecureCookie,
		Email:        cfg.Auth.Email,
		Password:     cfg.Auth.Password,
		OAuth: auth.OAuthConfig{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			AuthURL:      cfg.OAuth.AuthURL,
			TokenURL:     cfg.OAuth.TokenURL,
			UserInfoURL:  cfg.OAuth.UserInfoURL,
			RedirectURL:  cfg.OAuth.RedirectURL,
			Scopes:       cfg.OAuth.Scopes,
		},
	}, log)
	manager.SetClock(now)
	if manager.OAuthEnabled() {
		log.Info().Str("auth_url", cfg.OAuth.AuthURL).Msg("oauth sign-in enabled")
	}

	ipLimit, err := middleware.NewIPRateLimiter(cfg.RateLimit.PerIP)
	if err != nil {
		return nil, fmt.Errorf("create IP rate limiter: %w", err)
	}
	loginLimit, err := middleware.NewLoginRateLimiter(cfg.RateLimit.Login)
	if err != nil {
		return nil, fmt.Errorf("create login rate limiter: %w", err)
	}

	return tsmhttp.NewRouter(tsmhttp.RouterConfig{
		Timesheets:     handlers.NewTimesheetHandler(svc, now, log),
		Dashboard:      handlers.NewDashboardHandler(svc, now, log),
		Auth:           handlers.NewAuthHandler(manager, log),
		Health:         handlers.NewHealthHandler(svc),
		RequireAPI:     manager.RequireAPI,
		RequirePage:    manager.RequirePage("/login"),
		Log:            log,
		Secure:         middleware.NewSecure(middleware.SecureOptions(cfg.Secure.Development)),
		IPRateLimit:    ipLimit,
		LoginRateLimit: loginLimit,
		Metrics:        metrics,
		TrustProxy:     cfg.Server.TrustedProxy,
	}), nil
}
