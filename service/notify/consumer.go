package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Consumer drains the notification topic and hands each message to the
// mailer. Delivery is attempted once per message; failures are logged
// and the offset committed anyway, per the best-effort contract.
type Consumer struct {
	r      *kafka.Reader
	mailer *Mailer
	log    *slog.Logger
}

func NewConsumer(brokers []string, group, topic string, m *Mailer, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  group,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{r: r, mailer: m, log: log}
}

func (c *Consumer) Start(ctx context.Context) error {
	defer c.r.Close()

	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}

		var n Notification
		if err := json.Unmarshal(m.Value, &n); err != nil {
			c.log.Error("notify: bad message, skipping", "err", err)
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		err = c.mailer.Send(sendCtx, n)
		cancel()
		if err != nil {
			c.log.Error("notify: delivery failed", "to", n.To, "reason", n.Reason, "err", err)
			continue
		}
		c.log.Info("notify: delivered", "to", n.To, "reason", n.Reason)
	}
}
