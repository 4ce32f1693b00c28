package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cyberheroes/portal/internal/logutil"
)

// Serve runs handler on bind until ctx is cancelled, then drains the
// server gracefully. It returns the first listener error, or nil on a
// clean shutdown.
func Serve(ctx context.Context, bind string, handler http.Handler) error {
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", bind).Logger()
	server := http.Server{
		Handler:           handler,
		Addr:              bind,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       5 * time.Minute,
	}

	listenErr := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting HTTP server")
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		listenErr <- err
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Initiating shutdown process")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Shutdown completed")
	return <-listenErr
}
