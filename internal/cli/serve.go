package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoya/internal/api"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the message store and memo tools over HTTP",
		Long:  "Start the HTTP API. Set MEMOYA_API_TOKEN to require a bearer token.",
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default: $MEMOYA_ADDR or :8080)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Addr
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := s.rooms.Load(ctx); err != nil {
		exitErr("load rooms", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(s.messages, s.executor(), s.rooms, cfg.APIToken, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "db", getDBPath(), "auth", cfg.APIToken != "")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			exitErr("serve", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}
}
