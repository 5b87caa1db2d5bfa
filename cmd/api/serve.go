package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/heart-risk/internal/application"
	apppred "github.com/bryanwahyu/heart-risk/internal/application/predictions"
	"github.com/bryanwahyu/heart-risk/internal/infra/httpserver"
)

const shutdownTimeout = 5 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prediction HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pipeline, err := loadModel(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "load model")
		}

		svc := &apppred.Service{
			Model:        pipeline,
			Clock:        application.SystemClock{},
			StoreTimeout: cfg.Store.Timeout,
		}

		// the service stays up without a store; history is then unavailable
		repo, closeStore, err := openStore(ctx, cfg.Store)
		if errors.Is(err, errNoStoreURI) {
			zap.L().Info("no prediction store configured; history disabled")
		} else if err != nil {
			zap.L().Warn("prediction store unavailable",
				zap.String("driver", cfg.Store.Driver),
				zap.Error(err),
			)
		} else {
			defer func() {
				if err := closeStore(); err != nil {
					zap.L().Warn("close prediction store", zap.Error(err))
				}
			}()
			ictx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
			if err := repo.EnsureIndexes(ictx); err != nil {
				zap.L().Warn("ensure store indexes", zap.Error(err))
			}
			cancel()
			svc.Repo = repo
			zap.L().Info("prediction store connected", zap.String("driver", cfg.Store.Driver))
		}

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		srv := &http.Server{
			Addr:         cfg.Addr(),
			Handler:      httpserver.NewRouter(svc),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}
		return runServer(ctx, srv)
	},
}

// runServer serves until ctx is cancelled or the listener fails, then
// drains in-flight requests.
func runServer(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return eris.Wrap(srv.Shutdown(sctx), "server shutdown")
	})

	return g.Wait()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
