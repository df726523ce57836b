// Package app brings the site up: repository, router, engine, plugins and
// finally the built-in routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillcms/internal/config"
	"github.com/quillcms/internal/db"
	"github.com/quillcms/internal/engine"
	"github.com/quillcms/internal/handler"
	"github.com/quillcms/internal/locale"
	"github.com/quillcms/internal/plugin"
	"github.com/quillcms/internal/router"
)

const shutdownTimeout = 10 * time.Second

// Resolver finds plugins compiled into the binary first and then shared
// objects in the configured plugin directory.
func Resolver(cfg *config.Config) plugin.Resolver {
	chain := plugin.Chain{plugin.Builtin()}
	if cfg.PluginsDir != "" {
		chain = append(chain, plugin.SharedObjectResolver{Dir: cfg.PluginsDir})
	}
	return chain
}

// Build opens the configured repository and assembles the engine around it.
func Build(cfg *config.Config, log zerolog.Logger) (*engine.Engine, error) {
	repo, err := db.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	log.Info().Str("backend", repo.Name()).Msg("repository opened")

	e, err := Assemble(cfg, repo, Resolver(cfg), log)
	if err != nil {
		if closeErr := db.Close(repo); closeErr != nil {
			log.Warn().Err(closeErr).Msg("close repository")
		}
		return nil, err
	}
	return e, nil
}

// Assemble builds the engine over repo and applies the plugins it declares.
// Built-in routes are registered after the plugins; a path both claim is an
// error.
func Assemble(cfg *config.Config, repo db.Repository, resolver plugin.Resolver, log zerolog.Logger) (*engine.Engine, error) {
	catalog := locale.NewCatalog(locale.DefaultLanguage)
	for _, dir := range cfg.TranslationDirectories {
		if err := catalog.LoadDir(dir); err != nil {
			return nil, fmt.Errorf("load translations: %w", err)
		}
	}

	r, err := router.New(cfg, log, catalog)
	if err != nil {
		return nil, err
	}

	e, err := engine.New(cfg, repo,
		engine.WithRouter(r),
		engine.WithLogger(log),
		engine.WithCatalog(catalog),
	)
	if err != nil {
		return nil, err
	}

	if err := plugin.NewLoader(resolver, log).Plugify(e); err != nil {
		return nil, err
	}

	if err := router.Register(handler.NewAPI(e)); err != nil {
		return nil, err
	}
	return e, nil
}

// Run serves e on addr until ctx is cancelled, then shuts down gracefully
// and releases the repository.
func Run(ctx context.Context, e *engine.Engine, addr string) error {
	log := e.Logger()
	srv := &http.Server{
		Addr:              addr,
		Handler:           e.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			_ = e.Close()
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
	case <-ctx.Done():
		log.Warn().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown server")
		}
	}

	if err := e.Close(); err != nil {
		return fmt.Errorf("close repository: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
