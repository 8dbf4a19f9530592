package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher pushes notifications onto the outbound Kafka topic through a
// buffered inbox, so Dispatch never blocks the request path. Write
// failures are logged in the flush loop; delivery is fire-and-forget by
// contract.
type Publisher struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	log     *slog.Logger
	closeCh chan struct{}
}

func NewPublisher(brokers []string, topic string, buf int, log *slog.Logger) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
		inbox:   make(chan kafka.Message, buf),
		log:     log,
		closeCh: make(chan struct{}),
	}
}

func (p *Publisher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				close(p.inbox)
				for m := range p.inbox {
					if err := p.w.WriteMessages(context.Background(), m); err != nil {
						p.log.Error("notify: drain write failed", "err", err)
					}
				}
				_ = p.w.Close()
				close(p.closeCh)
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					close(p.closeCh)
					return
				}
				if err := p.w.WriteMessages(context.Background(), m); err != nil {
					p.log.Error("notify: write failed", "topic", p.w.Topic, "err", err)
				}
			}
		}
	}()
}

func (p *Publisher) Dispatch(ctx context.Context, n Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	m := kafka.Message{Key: []byte(n.To), Value: b, Time: time.Now()}
	select {
	case p.inbox <- m:
		return nil
	default:
		return errors.New("notify: outbound queue full")
	}
}

// Close shuts the inbox; the flush goroutine drains what is left.
func (p *Publisher) Close() { close(p.inbox) }

func (p *Publisher) WaitClosed() { <-p.closeCh }
