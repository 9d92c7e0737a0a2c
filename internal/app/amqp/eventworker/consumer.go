package eventworker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"parsera-notifier/config"
	"parsera-notifier/internal/event"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrHandlerMissing = errors.New("eventworker handler missing")

type Handler interface {
	Handle(ctx context.Context, ev event.EventProtocol) error
}

// Channel is the part of *amqp.Channel the consumer drives.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
}

type Consumer struct {
	cfg     *config.Config
	channel Channel
	handler Handler
	logger  *zap.SugaredLogger

	consumerTag string

	// cancel stops the delivery loop; abort cancels the delivery in flight
	// and is only called once Stop runs out of time.
	cancel context.CancelFunc
	abort  context.CancelFunc
	wg     sync.WaitGroup
}

type NewConsumerParams struct {
	fx.In

	Config  *config.Config
	Channel *amqp.Channel `optional:"true"`
	Handler Handler       `optional:"true"`
	Logger  *zap.SugaredLogger
}

func NewConsumer(p NewConsumerParams) *Consumer {
	var ch Channel
	if p.Channel != nil {
		ch = p.Channel
	}
	return newConsumer(p.Config, ch, p.Handler, p.Logger)
}

func newConsumer(cfg *config.Config, ch Channel, h Handler, logger *zap.SugaredLogger) *Consumer {
	if h == nil {
		h = missingHandler{}
	}
	return &Consumer{
		cfg:         cfg,
		channel:     ch,
		handler:     h,
		logger:      logger,
		consumerTag: "eventworker",
	}
}

// Start declares topology if asked and begins consuming in the background.
// The delivery loop outlives ctx; Stop ends it.
func (c *Consumer) Start(ctx context.Context) error {
	if c.cfg == nil || strings.TrimSpace(c.cfg.RabbitMQ.URL) == "" || c.channel == nil {
		c.logger.Infow("eventworker_disabled", "reason", "missing rabbitmq config or channel")
		return nil
	}

	if c.cfg.RabbitMQ.DeclareTopology {
		if err := c.declareTopology(ctx); err != nil {
			return err
		}
	}

	prefetch := c.cfg.RabbitMQ.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := c.channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("rabbitmq qos: %w", err)
	}

	deliveries, err := c.channel.Consume(
		c.queue(),
		c.consumerTag,
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}

	c.logger.Infow(
		"eventworker_started",
		"queue", c.queue(),
		"prefetch", prefetch,
	)

	runCtx, cancel := context.WithCancel(context.Background())
	handleCtx, abort := context.WithCancel(context.Background())
	c.cancel, c.abort = cancel, abort
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.loop(runCtx, handleCtx, deliveries)
	}()

	return nil
}

func (c *Consumer) loop(ctx, handleCtx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Infow("eventworker_deliveries_closed")
				return
			}
			c.handleDelivery(handleCtx, d)
		}
	}
}

// Stop stops taking deliveries and waits for the one in flight to finish its
// sends. Only when ctx expires first is that delivery's context cancelled.
func (c *Consumer) Stop(ctx context.Context) error {
	if c.channel != nil {
		_ = c.channel.Cancel(c.consumerTag, false)
	}
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		c.logger.Warnw("eventworker_stop_timeout")
	}
	if c.abort != nil {
		c.abort()
	}
	return nil
}

func (c *Consumer) queue() string {
	if q := strings.TrimSpace(c.cfg.RabbitMQ.Queue); q != "" {
		return q
	}
	return "notification.events.v1"
}

func (c *Consumer) declareTopology(ctx context.Context) error {
	_ = ctx

	ex := strings.TrimSpace(c.cfg.RabbitMQ.Exchange)
	if ex == "" {
		ex = "events"
	}

	queueName := c.queue()

	routingKey := strings.TrimSpace(c.cfg.RabbitMQ.RoutingKey)
	if routingKey == "" {
		routingKey = "notification.events.v1"
	}

	dlx := ex + ".dlx"
	dlq := queueName + ".dlq"

	if err := c.channel.ExchangeDeclare(ex, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq exchange declare %q: %w", ex, err)
	}
	if err := c.channel.ExchangeDeclare(dlx, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq dlx exchange declare %q: %w", dlx, err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange": dlx,
	}
	if _, err := c.channel.QueueDeclare(queueName, true, false, false, false, args); err != nil {
		return fmt.Errorf("rabbitmq queue declare %q: %w", queueName, err)
	}
	if _, err := c.channel.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq dlq declare %q: %w", dlq, err)
	}

	if err := c.channel.QueueBind(queueName, routingKey, ex, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue bind queue=%q key=%q ex=%q: %w", queueName, routingKey, ex, err)
	}
	if err := c.channel.QueueBind(dlq, routingKey, dlx, false, nil); err != nil {
		return fmt.Errorf("rabbitmq dlq bind queue=%q key=%q ex=%q: %w", dlq, routingKey, dlx, err)
	}

	c.logger.Infow(
		"eventworker_topology_declared",
		"exchange", ex,
		"queue", queueName,
		"routing_key", routingKey,
		"dlx", dlx,
		"dlq", dlq,
	)

	return nil
}

// handleDelivery acks processed envelopes and rejects everything else
// without requeue, so it lands in the DLQ.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	messageID := strings.TrimSpace(d.MessageId)
	if messageID == "" {
		messageID = strings.TrimSpace(d.CorrelationId)
	}

	ev, err := event.Parse(d.Body)
	if err != nil {
		var ve *event.ValidationError
		path := ""
		if errors.As(err, &ve) {
			path = ve.Path
		}
		c.logger.Errorw("eventworker_invalid_envelope",
			"err", err,
			"path", path,
			"message_id", messageID,
		)
		_ = d.Reject(false)
		return
	}

	if err := c.handler.Handle(ctx, ev); err != nil {
		c.logger.Errorw("eventworker_handle_failed",
			"err", err,
			"message_id", messageID,
			"command", ev.Command,
		)
		_ = d.Reject(false)
		return
	}

	_ = d.Ack(false)
}

type missingHandler struct{}

func (missingHandler) Handle(ctx context.Context, ev event.EventProtocol) error {
	_ = ctx
	_ = ev
	return ErrHandlerMissing
}
