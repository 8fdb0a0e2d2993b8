package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const httpShutdownTimeout = 5 * time.Second

// HttpWorker serves the handler until the context is cancelled.
type HttpWorker struct {
	Address string
	Handler http.Handler
}

func (w HttpWorker) String() string {
	return "http"
}

func (w HttpWorker) Start(ctx context.Context, ready chan<- struct{}) error {
	server := &http.Server{
		Addr:              w.Address,
		Handler:           w.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", w.Address)
	if err != nil {
		return fmt.Errorf("http: listen %v: %w", w.Address, err)
	}
	slog.Info("http: listening", "address", ln.Addr().String())
	ready <- struct{}{}

	served := make(chan error, 1)
	go func() {
		served <- server.Serve(ln)
	}()

	select {
	case err := <-served:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http: shutdown failed", "error", err)
	}
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
