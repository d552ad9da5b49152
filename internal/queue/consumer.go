package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/pipeline"
	"github.com/spigell/ats-scorer/internal/utils"
)

const (
	defaultWorkers   = 2
	maxReconnectWait = time.Minute
	routingKeyPrefix = "batch."
)

type Config struct {
	URL      string
	Queue    string
	Exchange string
	Workers  int
}

// Publisher is the publishing half of an AMQP channel.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Consumer reads jobs from a durable queue with a pool of workers and
// publishes each report to a topic exchange under "batch.<id>".
type Consumer struct {
	cfg     Config
	handler *Handler
	logger  *zap.Logger
}

func NewConsumer(cfg Config, handler *Handler, logger *zap.Logger) *Consumer {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{cfg: cfg, handler: handler, logger: logger}
}

// Run consumes until ctx is cancelled, reconnecting with exponential backoff
// when the broker connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	wait := time.Second
	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			return nil
		}

		c.logger.Warn("amqp connection lost, reconnecting", zap.Error(err), zap.Duration("wait", wait))
		if err := utils.WaitFor(ctx, wait); err != nil {
			return nil
		}
		wait *= 2
		if wait > maxReconnectWait {
			wait = maxReconnectWait
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("error connecting to rabbitmq channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.ExchangeDeclare(c.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := ch.Qos(c.cfg.Workers, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	msgs, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("error consuming rabbitmq message: %w", err)
	}

	pub, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("error opening publish channel: %w", err)
	}
	defer pub.Close()
	publisher := &lockedPublisher{ch: pub}

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	c.logger.Info("consuming jobs",
		zap.String("queue", c.cfg.Queue),
		zap.String("exchange", c.cfg.Exchange),
		zap.Int("workers", c.cfg.Workers),
	)

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for d := range msgs {
				c.process(ctx, id, d, publisher)
			}
		}(i + 1)
	}

	workersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(workersDone)
	}()

	err = waitForStop(ctx, connClosed, chClosed, workersDone)

	// closing the consume channel ends the delivery stream so the pool drains
	ch.Close()
	<-workersDone
	return err
}

// waitForStop blocks until ctx is done, the connection or the consume channel
// is closed, or every worker has returned because deliveries stopped.
func waitForStop(ctx context.Context, connClosed, chClosed <-chan *amqp.Error, workersDone <-chan struct{}) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case amqpErr := <-connClosed:
		return closeError("connection", amqpErr)
	case amqpErr := <-chClosed:
		return closeError("channel", amqpErr)
	case <-workersDone:
		return errors.New("delivery stream closed")
	}
}

func closeError(what string, amqpErr *amqp.Error) error {
	if amqpErr == nil {
		return fmt.Errorf("%s closed", what)
	}
	return fmt.Errorf("%s closed: %w", what, amqpErr)
}

// process handles one delivery. Every failure is acked negatively without
// requeue so a poison message cannot loop.
func (c *Consumer) process(ctx context.Context, worker int, d amqp.Delivery, pub Publisher) {
	log := c.logger.With(zap.Int("worker", worker))

	job, report, err := c.handler.Handle(ctx, d.Body)
	if err != nil {
		fields := []zap.Field{zap.Error(err), zap.Bool("bad_message", errors.Is(err, ErrBadMessage))}
		if job != nil {
			fields = append(fields, zap.String("job_id", job.ID))
		}
		log.Error("job failed", fields...)
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("failed to nack message", zap.Error(nackErr))
		}
		return
	}

	if err := publishReport(pub, c.cfg.Exchange, report); err != nil {
		log.Error("failed to publish report", zap.String("job_id", job.ID), zap.Error(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("failed to nack message", zap.Error(nackErr))
		}
		return
	}

	if err := d.Ack(false); err != nil {
		log.Error("failed to ack message", zap.Error(err))
		return
	}

	log.Info("job done",
		zap.String("job_id", job.ID),
		zap.Int("successful", report.Successful),
		zap.Int("failed", report.Failed),
	)
}

func publishReport(pub Publisher, exchange string, report *pipeline.BatchReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	return pub.Publish(exchange, routingKeyPrefix+report.ID, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    report.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// lockedPublisher serialises publishes from the worker pool on one channel.
type lockedPublisher struct {
	mu sync.Mutex
	ch *amqp.Channel
}

func (p *lockedPublisher) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Publish(exchange, key, mandatory, immediate, msg)
}
