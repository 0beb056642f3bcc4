package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Exchange обменник событий для сервиса уведомлений и провайдера идентификации.
const Exchange = "notifications"

// Ключи маршрутизации.
const (
	RoutingKeyAssignment     = "assignment"
	RoutingKeyUserRegistered = "user.registered"
)

// QueueConfig очередь и ключ, которым она привязана к Exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// AssignmentQueue очередь событий об изменении назначений.
func AssignmentQueue() QueueConfig {
	return QueueConfig{QueueName: "entitlements.assignment", RoutingKey: RoutingKeyAssignment}
}

// UserRegisteredQueue очередь событий о регистрации пользователей.
func UserRegisteredQueue() QueueConfig {
	return QueueConfig{QueueName: "entitlements.user-registered", RoutingKey: RoutingKeyUserRegistered}
}

// Queues все очереди сервиса.
func Queues() []QueueConfig {
	return []QueueConfig{AssignmentQueue(), UserRegisteredQueue()}
}

// SetupChannel открывает канал, объявляет Exchange и привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			Exchange,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
