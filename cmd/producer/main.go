package main

import (
	"context"
	"encoding/json"
	"time"

	"order_service/internal/config"
	"order_service/internal/generator"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Producer отвечает за генерацию и отправку тестовых заказов в Kafka.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer создает и настраивает новый экземпляр продюсера.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{writer: writer}
}

// Run запускает бесконечный цикл отправки сообщений.
func (p *Producer) Run(ctx context.Context, interval time.Duration) {
	log.Info().Msg("producer started, press CTRL+C to stop")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("producer stopping")
			return
		case <-ticker.C:
			order := generator.NewOrder()
			orderBytes, err := json.Marshal(order)
			if err != nil {
				log.Error().Err(err).Msg("failed to marshal order")
				continue
			}

			err = p.writer.WriteMessages(ctx, kafka.Message{
				Key:   []byte(order.OrderUID),
				Value: orderBytes,
			})

			if err != nil {
				log.Error().Err(err).Msg("failed to write message")
			} else {
				log.Info().Str("order_uid", order.OrderUID).Msg("order sent")
			}
		}
	}
}

func (p *Producer) Close() {
	if err := p.writer.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close kafka writer")
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Get()
	producer := NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	producer.Run(ctx, 2*time.Second)
}
