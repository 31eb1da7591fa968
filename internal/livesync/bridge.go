package livesync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kafe-backend/internal/logger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const bridgeExchange = "kafe.signals"

// Bridge sinyalleri sunucu kopyaları arasında RabbitMQ fanout exchange ile
// paylaşır. Her kopya yerel sinyallerini yayınlar, uzaktakileri kendi
// bus'ına aktarır, kendi gönderdiklerini atlar.
type Bridge struct {
	url    string
	bus    *Bus
	origin string
	log    *logger.Logger

	retry time.Duration
}

func NewBridge(url string, bus *Bus, log *logger.Logger) *Bridge {
	return &Bridge{
		url:    url,
		bus:    bus,
		origin: uuid.NewString(),
		log:    log,
		retry:  5 * time.Second,
	}
}

// Run ctx bitene kadar bağlı kalır, koparsa yeniden bağlanır.
func (b *Bridge) Run(ctx context.Context) error {
	local, cancel := b.bus.Subscribe()
	defer cancel()

	t := time.NewTicker(b.retry)
	defer t.Stop()

	for {
		err := b.session(ctx, local)
		if ctx.Err() != nil {
			return nil
		}
		b.log.Error("", "bridge", "rabbitmq bağlantısı koptu, yeniden denenecek", err)

		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func (b *Bridge) session(ctx context.Context, local <-chan Signal) error {
	conn, err := amqp.Dial(b.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(bridgeExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", bridgeExchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	b.log.Info("", "bridge", "rabbitmq köprüsü bağlandı: "+b.origin)
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr := <-closed:
			return fmt.Errorf("connection closed: %v", amqpErr)
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if err := b.receive(d.Body); err != nil {
				b.log.Warn("", "bridge", "geçersiz sinyal atlandı: "+err.Error())
			}
		case s, ok := <-local:
			if !ok {
				return nil
			}
			body, forward, err := b.outgoing(s)
			if err != nil || !forward {
				continue
			}
			err = ch.PublishWithContext(ctx, bridgeExchange, "", false, false, amqp.Publishing{
				ContentType: "application/json",
				Timestamp:   s.At,
				Body:        body,
			})
			if err != nil {
				return fmt.Errorf("publish: %w", err)
			}
		}
	}
}

// outgoing yerel sinyali kodlar, broker'dan gelenler geri gönderilmez.
func (b *Bridge) outgoing(s Signal) ([]byte, bool, error) {
	if s.Origin != "" {
		return nil, false, nil
	}
	s.Origin = b.origin
	body, err := json.Marshal(s)
	return body, true, err
}

// receive uzaktaki sinyali yerel bus'a yayınlar.
func (b *Bridge) receive(body []byte) error {
	var s Signal
	if err := json.Unmarshal(body, &s); err != nil {
		return err
	}
	if s.Origin == "" || s.Origin == b.origin {
		return nil
	}
	b.bus.Publish(s)
	return nil
}
