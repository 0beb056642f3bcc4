package entitlements

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/catalog-entitlements/internal/app/core"
	"github.com/magabrotheeeer/catalog-entitlements/internal/config"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/jwt"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/catalog-entitlements/internal/rabbitmq"
)

// App HTTP-сервер назначений.
type App struct {
	server *http.Server
	logger *slog.Logger
	core   *core.Core
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New собирает зависимости и HTTP-сервер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, []rabbitmq.QueueConfig{rabbitmq.AssignmentQueue()})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	c, err := core.New(ctx, cfg, logger, rabbitmq.NewPublisher(ch, rabbitmq.Exchange))
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.HTTPServer, c.Engine, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), c.DB)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		core:   c,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	a.close()
	return err
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.core.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
