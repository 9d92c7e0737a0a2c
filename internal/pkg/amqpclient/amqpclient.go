package amqpclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"parsera-notifier/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const heartbeat = 10 * time.Second

type NewAMQPParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.SugaredLogger
}

type AMQPOut struct {
	fx.Out

	Conn    *amqp.Connection
	Channel *amqp.Channel
}

// dialConfig names the connection after the app so it can be found in the
// broker's management UI.
func dialConfig(cfg *config.Config) amqp.Config {
	props := amqp.NewConnectionProperties()
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "parsera-notifier"
	}
	props.SetClientConnectionName(fmt.Sprintf("%s/%s", name, cfg.ENV))
	return amqp.Config{
		Heartbeat:  heartbeat,
		Locale:     "en_US",
		Properties: props,
	}
}

// NewAMQP returns nil values when RABBITMQ_URL is unset; consumers and
// publishers treat that as disabled.
func NewAMQP(p NewAMQPParams) (AMQPOut, error) {
	url := ""
	if p.Config != nil {
		url = strings.TrimSpace(p.Config.RabbitMQ.URL)
	}
	if url == "" {
		p.Logger.Infow("rabbitmq_disabled", "reason", "missing RABBITMQ_URL")
		return AMQPOut{}, nil
	}

	conn, err := amqp.DialConfig(url, dialConfig(p.Config))
	if err != nil {
		return AMQPOut{}, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return AMQPOut{}, fmt.Errorf("rabbitmq channel: %w", err)
	}

	// amqp091 does not reconnect; a lost connection is logged so the
	// supervisor restarts the process.
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if amqpErr, ok := <-closed; ok && amqpErr != nil {
			p.Logger.Errorw("rabbitmq_connection_lost",
				"code", amqpErr.Code,
				"reason", amqpErr.Reason,
				"server", amqpErr.Server,
			)
		}
	}()

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = ch.Close()
			_ = conn.Close()
			return nil
		},
	})

	p.Logger.Infow(
		"rabbitmq_enabled",
		"exchange", p.Config.RabbitMQ.Exchange,
		"queue", p.Config.RabbitMQ.Queue,
		"routing_key", p.Config.RabbitMQ.RoutingKey,
		"prefetch", p.Config.RabbitMQ.Prefetch,
		"declare_topology", p.Config.RabbitMQ.DeclareTopology,
	)

	return AMQPOut{Conn: conn, Channel: ch}, nil
}
