// Package provisioner слушает события регистрации пользователей и выдаёт
// новым платным пользователям каталог по умолчанию.
package provisioner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/catalog-entitlements/internal/app/core"
	"github.com/magabrotheeeer/catalog-entitlements/internal/config"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/apperr"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
	"github.com/magabrotheeeer/catalog-entitlements/internal/rabbitmq"
)

// Provisioner выдаёт каталог по умолчанию пользователю.
type Provisioner interface {
	ProvisionUser(ctx context.Context, userID string) (bool, error)
}

// HandleUserRegistered возвращает обработчик сообщений user.registered.
// Нераспознанные сообщения и события о неизвестных пользователях
// отклоняются без повтора, ошибки хранилища возвращают сообщение в очередь.
func HandleUserRegistered(p Provisioner, logger *slog.Logger) func(context.Context, []byte) error {
	return func(ctx context.Context, body []byte) error {
		const op = "provisioner.HandleUserRegistered"

		var ev models.UserRegisteredEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrMalformed, err)
		}
		if ev.UserID == "" {
			return fmt.Errorf("%s: %w: empty user_id", op, rabbitmq.ErrMalformed)
		}
		if _, err := uuid.Parse(ev.UserID); err != nil {
			return fmt.Errorf("%s: %w: user_id is not a uuid: %w", op, rabbitmq.ErrMalformed, err)
		}
		log := logger.With(
			slog.String("op", op),
			slog.String("user_id", ev.UserID),
			slog.String("role", ev.Role),
		)

		changed, err := p.ProvisionUser(ctx, ev.UserID)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			log.Warn("registered user not found", sl.Err(err))
			return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrMalformed, err)
		case err != nil:
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Debug("user registration handled", slog.Bool("changed", changed))
		return nil
	}
}

// App потребитель событий регистрации.
type App struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	core   *core.Core
	logger *slog.Logger
}

// New подключается к брокеру и собирает зависимости.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.Queues())
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

	return &App{
		conn:   conn,
		ch:     ch,
		core:   c,
		logger: logger,
	}, nil
}

// Run читает очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	queue := rabbitmq.UserRegisteredQueue().QueueName
	err := rabbitmq.ConsumerMessage(ctx, a.ch, queue, a.logger, HandleUserRegistered(a.core.Engine, a.logger))
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", queue), sl.Err(err))
		return err
	}
	a.logger.Info("provisioner consuming", slog.String("queue", queue))

	<-ctx.Done()
	a.logger.Info("provisioner shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.core.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
