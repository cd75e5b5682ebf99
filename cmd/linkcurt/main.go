package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/go-chi/httplog/v2"
	"github.com/periko-gan/linkcurt-backend/internal/auth"
	"github.com/periko-gan/linkcurt-backend/internal/config"
	"github.com/periko-gan/linkcurt-backend/internal/geoip"
	"github.com/periko-gan/linkcurt-backend/internal/service"
	"github.com/periko-gan/linkcurt-backend/pkg/postgres"
	"golang.org/x/sync/errgroup"

	myhttp "github.com/periko-gan/linkcurt-backend/internal/api/http"
	repo "github.com/periko-gan/linkcurt-backend/internal/database/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return err
	}
	g.Go(func() error {
		<-ctx.Done()
		return db.Close()
	})

	if err := postgres.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return err
	}

	locator, err := geoip.Open(cfg.GeoIP.DBPath)
	if err != nil {
		return err
	}
	g.Go(func() error {
		<-ctx.Done()
		return locator.Close()
	})

	linkRepo := repo.NewLinkRepository(db)
	userRepo := repo.NewUserRepository(db)
	visitRepo := repo.NewVisitRepository(db)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	linkSvc := service.NewLinkService(linkRepo, cfg.Shortener.ShortLinkLength, cfg.Shortener.BaseURLs)
	userSvc := service.NewUserService(userRepo, tokens)
	visitSvc := service.NewVisitService(visitRepo, linkRepo, locator)

	guard := myhttp.NewGuard(tokens, userSvc)

	var shortBaseURL string
	if len(cfg.Shortener.BaseURLs) > 0 {
		shortBaseURL = cfg.Shortener.BaseURLs[0]
	}

	r := myhttp.NewRouter(httplog.NewLogger("linkcurt"), linkSvc, userSvc, visitSvc, guard, shortBaseURL)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	return g.Wait()
}
