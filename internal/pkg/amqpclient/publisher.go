package amqpclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"parsera-notifier/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrPublisherDisabled = errors.New("rabbitmq disabled")

type publishFunc func(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error

// Publisher sends JSON envelopes to the configured exchange and routing key.
type Publisher struct {
	cfg     *config.Config
	channel *amqp.Channel
	logger  *zap.SugaredLogger
	publish publishFunc
	now     func() time.Time

	declareOnce sync.Once
	declareErr  error
}

type NewPublisherParams struct {
	fx.In

	Cfg     *config.Config
	Channel *amqp.Channel `optional:"true"`
	Logger  *zap.SugaredLogger
}

func NewPublisher(p NewPublisherParams) *Publisher {
	var fn publishFunc
	if p.Channel != nil {
		fn = p.Channel.PublishWithContext
	}
	return &Publisher{
		cfg:     p.Cfg,
		channel: p.Channel,
		logger:  p.Logger,
		publish: fn,
		now:     time.Now,
	}
}

func (p *Publisher) Enabled() bool {
	return p.cfg != nil && strings.TrimSpace(p.cfg.RabbitMQ.URL) != "" && p.publish != nil
}

func (p *Publisher) exchange() string {
	if ex := strings.TrimSpace(p.cfg.RabbitMQ.Exchange); ex != "" {
		return ex
	}
	return "events"
}

func (p *Publisher) routingKey() string {
	if k := strings.TrimSpace(p.cfg.RabbitMQ.RoutingKey); k != "" {
		return k
	}
	return "notification.events.v1"
}

// Publish sends body as a persistent message. msgType is stored in the AMQP
// type property.
func (p *Publisher) Publish(ctx context.Context, messageID, msgType string, body []byte) error {
	if !p.Enabled() {
		return ErrPublisherDisabled
	}

	ex := p.exchange()
	if p.channel != nil && p.cfg.RabbitMQ.DeclareTopology {
		p.declareOnce.Do(func() {
			p.declareErr = p.channel.ExchangeDeclare(ex, "topic", true, false, false, false, nil)
		})
		if p.declareErr != nil {
			return fmt.Errorf("rabbitmq exchange declare %q: %w", ex, p.declareErr)
		}
	}

	key := p.routingKey()
	err := p.publish(ctx, ex, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    p.now().UTC(),
		MessageId:    messageID,
		Type:         msgType,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish exchange=%q key=%q: %w", ex, key, err)
	}

	p.logger.Infow("envelope_published", "exchange", ex, "routing_key", key, "message_id", messageID, "type", msgType)
	return nil
}
