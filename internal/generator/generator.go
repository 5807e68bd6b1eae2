package generator

import (
	"fmt"
	"time"

	"order_service/internal/model"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// NewOrder создает и возвращает один полностью случайный заказ.
// Эта функция инкапсулирует всю логику генерации тестовых данных.
func NewOrder() model.Order {
	gofakeit.Seed(0)

	// Один трек-номер на весь заказ
	trackNumber := fmt.Sprintf("WBILM%d", gofakeit.Number(1000000, 9999999))
	var goodsTotal int32

	// 1. Состав заказа (Items)
	var items []model.Item
	itemCount := gofakeit.Number(1, 4)

	for i := 0; i < itemCount; i++ {
		price := int32(gofakeit.Number(1000, 25000))
		sale := int32(gofakeit.Number(5, 50)) // Скидка от 5% до 50%
		totalPrice := (price * (100 - sale)) / 100
		goodsTotal += totalPrice

		item := model.Item{
			ChrtID:      int32(gofakeit.Number(1000000, 9999999)),
			TrackNumber: trackNumber,
			Price:       price,
			Rid:         uuid.New().String(),
			Name:        gofakeit.ProductName(),
			Sale:        sale,
			Size:        gofakeit.RandomString([]string{"S", "M", "L", "XL", "0"}),
			TotalPrice:  totalPrice,
			NmID:        int32(gofakeit.Number(1000000, 9999999)),
			Brand:       gofakeit.Company(),
			Status:      202, // Статус "в пути"
		}
		items = append(items, item)
	}

	// 2. Данные о доставке. Один адресный объект, чтобы город,
	// регион и zip-код были согласованы друг с другом.
	addr := gofakeit.Address()

	delivery := model.Delivery{
		Name:    gofakeit.Name(),
		Phone:   fmt.Sprintf("+7%09d", gofakeit.Number(100000000, 999999999)), // e164
		Zip:     addr.Zip,
		City:    addr.City,
		Address: addr.Address,
		Region:  addr.State,
		Email:   gofakeit.Email(),
	}

	// 3. Данные об оплате
	deliveryCost := int32(gofakeit.Number(150, 1000))
	orderUID := uuid.New().String()

	payment := model.Payment{
		Transaction:  orderUID, // Транзакция связана с UID заказа
		RequestID:    "",
		Currency:     gofakeit.RandomString([]string{"USD", "EUR", "RUB", "KZT"}),
		Provider:     gofakeit.RandomString([]string{"wbpay", "click", "paypal"}),
		Amount:       goodsTotal + deliveryCost,
		PaymentDt:    time.Now().Unix() - int64(gofakeit.Number(100, 1000)),
		Bank:         gofakeit.RandomString([]string{"sber", "alpha", "tinkoff", "vtb"}),
		DeliveryCost: deliveryCost,
		GoodsTotal:   goodsTotal,
		CustomFee:    0,
	}

	// 4. Финальный заказ
	order := model.Order{
		OrderUID:          orderUID,
		TrackNumber:       trackNumber,
		Entry:             "WBIL",
		Delivery:          delivery,
		Payment:           payment,
		Items:             items,
		Locale:            gofakeit.LanguageAbbreviation(),
		InternalSignature: "",
		CustomerID:        gofakeit.Username(),
		DeliveryService:   gofakeit.RandomString([]string{"meest", "dhl", "pony"}),
		Shardkey:          fmt.Sprintf("%d", gofakeit.Number(1, 10)),
		SmID:              int32(gofakeit.Number(1, 100)),
		DateCreated:       time.Now().UTC().Format(time.RFC3339),
		OofShard:          "1",
	}

	return order
}
