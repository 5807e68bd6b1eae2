package kafka

import (
	"context"
	"encoding/json"
	"time"

	"order_service/internal/config"
	"order_service/internal/metrics"
	"order_service/internal/model"
	"order_service/internal/repository"
	"order_service/internal/validator"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// messageReader - то, что консюмеру нужно от kafka.Reader.
// Вынесено в интерфейс, чтобы подменять ридер в тестах.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer читает и обрабатывает сообщения из Kafka.
type Consumer struct {
	reader     messageReader
	dlqWriter  *kafka.Writer // Продюсер для отправки "битых" сообщений в DLQ
	repo       repository.Repository
	tracer     trace.Tracer
	maxRetries int // Количество попыток для временных ошибок БД
}

// NewConsumer создает новый экземпляр Consumer.
func NewConsumer(cfg config.KafkaConfig, repo repository.Repository) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
		// Коммиты выполняются вручную после успешной обработки.
	})

	dlqWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.DLQTopic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Consumer{
		reader:     reader,
		dlqWriter:  dlqWriter,
		repo:       repo,
		tracer:     otel.Tracer("kafka-consumer"),
		maxRetries: 3,
	}
}

// Run запускает цикл чтения сообщений из Kafka.
func (c *Consumer) Run(ctx context.Context) {
	log.Info().Msg("kafka consumer started")
	defer func() {
		if err := c.reader.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka reader")
		}
		if err := c.dlqWriter.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka dlq writer")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("kafka consumer stopping")
			return
		default:
			// FetchMessage используется для ручного контроля коммитов
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				log.Error().Err(err).Msg("failed to fetch kafka message")
				continue
			}

			procErr := c.processMessage(ctx, msg)

			if procErr != nil {
				// Ошибка = нужна повторная обработка.
				// Сообщение не коммитится, Kafka доставит его повторно.
				log.Error().Err(procErr).Str("key", string(msg.Key)).Msg("message processing failed, awaiting redelivery")
			} else {
				// nil = обработка успешна (в т.ч. уход в DLQ).
				if err := c.reader.CommitMessages(ctx, msg); err != nil {
					log.Error().Err(err).Msg("failed to commit kafka message")
				}
			}
		}
	}
}

// processMessage выполняет десериализацию, валидацию и сохранение заказа
// через репозиторий. Возвращает error, если нужен Kafka-retry.
// Возвращает nil, если обработка успешна или сообщение ушло в DLQ.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	ctx, span := c.tracer.Start(ctx, "Consumer.processMessage")
	defer span.End()

	var order model.Order
	if err := json.Unmarshal(msg.Value, &order); err != nil {
		log.Error().Err(err).Msg("invalid JSON message, sending to DLQ")
		c.sendToDLQ(ctx, msg, "json_unmarshal_error", err)
		metrics.KafkaMessagesProcessed.WithLabelValues("dlq_validation").Inc()
		return nil // Коммитим (не ретраим "битый" JSON)
	}

	if err := validator.ValidateStruct(&order); err != nil {
		log.Error().Err(err).Str("order_uid", order.OrderUID).Msg("order validation failed, sending to DLQ")
		c.sendToDLQ(ctx, msg, "validation_error", err)
		metrics.KafkaMessagesProcessed.WithLabelValues("dlq_validation").Inc()
		return nil // Коммитим (не ретраим невалидные данные)
	}

	// Сохранение через репозиторий с внутренним retry-циклом
	var addErr error
	for i := 0; i < c.maxRetries; i++ {
		addErr = c.repo.AddOrder(ctx, &order)
		if addErr == nil {
			break
		}
		log.Error().Err(addErr).Int("attempt", i+1).Int("max", c.maxRetries).Msg("failed to store order")
		time.Sleep(time.Second * time.Duration(i+1)) // Простой backoff
	}

	if addErr != nil {
		log.Error().Str("order_uid", order.OrderUID).Int("attempts", c.maxRetries).Msg("giving up, sending to DLQ")
		c.sendToDLQ(ctx, msg, "db_save_error", addErr)
		metrics.KafkaMessagesProcessed.WithLabelValues("dlq_db_error").Inc()
		return nil // Коммитим (исчерпали попытки)
	}

	log.Info().Str("order_uid", order.OrderUID).Msg("order processed")
	metrics.KafkaMessagesProcessed.WithLabelValues("success").Inc()

	return nil
}

// sendToDLQ отправляет "битое" сообщение в DLQ топик.
func (c *Consumer) sendToDLQ(ctx context.Context, originalMsg kafka.Message, reason string, procErr error) {
	_, span := c.tracer.Start(ctx, "Consumer.sendToDLQ")
	defer span.End()

	err := c.dlqWriter.WriteMessages(ctx, kafka.Message{
		Key:   originalMsg.Key,
		Value: originalMsg.Value,
		Headers: []kafka.Header{
			{Key: "X-Original-Topic", Value: []byte(originalMsg.Topic)},
			{Key: "X-Error-Reason", Value: []byte(reason)},
			{Key: "X-Error-Details", Value: []byte(procErr.Error())},
		},
	})

	if err != nil {
		log.Error().Err(err).Str("key", string(originalMsg.Key)).Msg("failed to write message to DLQ")
		metrics.KafkaMessagesProcessed.WithLabelValues("dlq_failed_write").Inc()
	} else {
		log.Info().Str("key", string(originalMsg.Key)).Str("reason", reason).Msg("message sent to DLQ")
	}
}
