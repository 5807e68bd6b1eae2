package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"order_service/internal/model"
	repo_mocks "order_service/internal/repository/mocks"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.uber.org/mock/gomock"
)

type NoOpReader struct{}

func (r *NoOpReader) FetchMessage(context.Context) (kafka.Message, error) {
	return kafka.Message{}, nil
}
func (r *NoOpReader) CommitMessages(context.Context, ...kafka.Message) error {
	return nil
}
func (r *NoOpReader) Close() error { return nil }

// setupConsumerAndMocks - хелпер для инициализации консюмера и мока репозитория
func setupConsumerAndMocks(t *testing.T) (*gomock.Controller, *Consumer, *repo_mocks.MockRepository) {
	ctrl := gomock.NewController(t)
	mockRepo := repo_mocks.NewMockRepository(ctrl)

	consumer := &Consumer{
		reader:     &NoOpReader{},
		repo:       mockRepo,
		dlqWriter:  &kafka.Writer{}, // чтобы избежать nil panic в тестах на DLQ
		maxRetries: 3,
		tracer:     otel.Tracer("test-tracer"),
	}

	return ctrl, consumer, mockRepo
}

// helperTestOrder - валидный заказ для тестов
var helperTestOrder = model.Order{
	OrderUID:    "b563feb7-b2b8-4b6f-807c-9b63a11e81b9",
	TrackNumber: "WBILMTESTTRACK",
	Entry:       "WBIL",
	Delivery: model.Delivery{
		Name:    "Test Testov",
		Phone:   "+9720000000",
		Zip:     "2639809",
		City:    "Kiryat Mozkin",
		Address: "Ploshad Mira 15",
		Region:  "Kraiot",
		Email:   "test@gmail.com",
	},
	Payment: model.Payment{
		Transaction:  "b563feb7-b2b8-4b6f-807c-9b63a11e81b9",
		Currency:     "USD",
		Provider:     "wbpay",
		Amount:       1817,
		PaymentDt:    1637907727,
		Bank:         "alpha",
		DeliveryCost: 1500,
		GoodsTotal:   317,
	},
	Items: []model.Item{
		{
			ChrtID:      9934930,
			TrackNumber: "WBILMTESTTRACK",
			Price:       453,
			Rid:         "ab4219087a764ae0btest",
			Name:        "Mascaras",
			Sale:        30,
			Size:        "0",
			TotalPrice:  317,
			NmID:        2389212,
			Brand:       "Vivienne Sabo",
			Status:      202,
		},
	},
	Locale:          "en",
	CustomerID:      "test",
	DeliveryService: "meest",
	DateCreated:     "2021-11-26T06:22:19Z",
}

func TestConsumer_ProcessMessage_Success(t *testing.T) {
	ctrl, consumer, mockRepo := setupConsumerAndMocks(t)
	defer ctrl.Finish()

	orderBytes, _ := json.Marshal(helperTestOrder)
	msg := kafka.Message{Value: orderBytes}

	mockRepo.EXPECT().AddOrder(gomock.Any(), gomock.Any()).Return(nil)

	err := consumer.processMessage(context.Background(), msg)
	assert.NoError(t, err)
}

func TestConsumer_ProcessMessage_DBError(t *testing.T) {
	ctrl, consumer, mockRepo := setupConsumerAndMocks(t)
	defer ctrl.Finish()

	orderBytes, _ := json.Marshal(helperTestOrder)
	msg := kafka.Message{Value: orderBytes}
	dbErr := errors.New("database connection failed")

	mockRepo.EXPECT().AddOrder(gomock.Any(), gomock.Any()).Return(dbErr).Times(consumer.maxRetries)

	err := consumer.processMessage(context.Background(), msg)

	// Ошибка не возвращается: сообщение ушло в DLQ и должно закоммититься
	assert.NoError(t, err)
}

func TestConsumer_ProcessMessage_DBError_RetryLogic(t *testing.T) {
	ctrl, consumer, mockRepo := setupConsumerAndMocks(t)
	defer ctrl.Finish()

	orderBytes, _ := json.Marshal(helperTestOrder)
	msg := kafka.Message{Value: orderBytes}
	dbErr := errors.New("temp db error")

	// 2 неудачных вызова, затем удачный
	mockRepo.EXPECT().AddOrder(gomock.Any(), gomock.Any()).Return(dbErr).Times(2)
	mockRepo.EXPECT().AddOrder(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	err := consumer.processMessage(context.Background(), msg)
	assert.NoError(t, err)
}

func TestConsumer_ProcessMessage_BadJSON(t *testing.T) {
	ctrl, consumer, mockRepo := setupConsumerAndMocks(t)
	defer ctrl.Finish()

	msg := kafka.Message{Value: []byte("this is not json")}

	// Репозиторий не вызывается
	mockRepo.EXPECT().AddOrder(gomock.Any(), gomock.Any()).Times(0)

	err := consumer.processMessage(context.Background(), msg)

	// "Битый" JSON - poison pill: сообщение будет закоммичено
	assert.NoError(t, err)
}

func TestConsumer_ProcessMessage_ValidationError(t *testing.T) {
	ctrl, consumer, mockRepo := setupConsumerAndMocks(t)
	defer ctrl.Finish()

	invalidOrder := helperTestOrder
	invalidOrder.OrderUID = "" // обязательное поле отсутствует

	orderBytes, _ := json.Marshal(invalidOrder)
	msg := kafka.Message{Value: orderBytes}

	mockRepo.EXPECT().AddOrder(gomock.Any(), gomock.Any()).Times(0)

	err := consumer.processMessage(context.Background(), msg)
	assert.NoError(t, err)
}
