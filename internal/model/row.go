package model

import "fmt"

// Row - строка результата с доступом к колонкам по имени
// (то, что возвращает sqlx.Rows.MapScan). Декодирование из Row
// отделено от выполнения запросов, чтобы его можно было
// тестировать на синтетических строках.
type Row = map[string]any

// OrderFromRow декодирует родительскую строку таблицы orders в агрегат.
// Items остаются пустыми - дочерние строки декодируются отдельно.
// Отсутствующая колонка или неподходящий тип - это ошибка декодирования,
// поле никогда не заполняется нулевым значением молча.
func OrderFromRow(row Row) (*Order, error) {
	var (
		order Order
		err   error
	)

	fields := []struct {
		column string
		dst    *string
	}{
		{"order_uid", &order.OrderUID},
		{"track_number", &order.TrackNumber},
		{"entry", &order.Entry},
		{"delivery_name", &order.Delivery.Name},
		{"delivery_phone", &order.Delivery.Phone},
		{"delivery_zip", &order.Delivery.Zip},
		{"delivery_city", &order.Delivery.City},
		{"delivery_address", &order.Delivery.Address},
		{"delivery_region", &order.Delivery.Region},
		{"delivery_email", &order.Delivery.Email},
		{"payment_transaction", &order.Payment.Transaction},
		{"payment_request_id", &order.Payment.RequestID},
		{"payment_currency", &order.Payment.Currency},
		{"payment_provider", &order.Payment.Provider},
		{"payment_bank", &order.Payment.Bank},
		{"locale", &order.Locale},
		{"internal_signature", &order.InternalSignature},
		{"customer_id", &order.CustomerID},
		{"delivery_service", &order.DeliveryService},
		{"shardkey", &order.Shardkey},
		{"date_created", &order.DateCreated},
		{"oof_shard", &order.OofShard},
	}
	for _, f := range fields {
		if *f.dst, err = rowString(row, f.column); err != nil {
			return nil, err
		}
	}

	if order.Payment.Amount, err = rowInt32(row, "payment_amount"); err != nil {
		return nil, err
	}
	if order.Payment.PaymentDt, err = rowInt64(row, "payment_payment_dt"); err != nil {
		return nil, err
	}
	if order.Payment.DeliveryCost, err = rowInt32(row, "payment_delivery_cost"); err != nil {
		return nil, err
	}
	if order.Payment.GoodsTotal, err = rowInt32(row, "payment_goods_total"); err != nil {
		return nil, err
	}
	if order.Payment.CustomFee, err = rowInt32(row, "payment_custom_fee"); err != nil {
		return nil, err
	}
	if order.SmID, err = rowInt32(row, "sm_id"); err != nil {
		return nil, err
	}

	order.Items = []Item{}
	return &order, nil
}

// ItemFromRow декодирует одну строку таблицы orders_items.
func ItemFromRow(row Row) (Item, error) {
	var (
		item Item
		err  error
	)

	if item.ChrtID, err = rowInt32(row, "chrt_id"); err != nil {
		return item, err
	}
	if item.TrackNumber, err = rowString(row, "track_number"); err != nil {
		return item, err
	}
	if item.Price, err = rowInt32(row, "price"); err != nil {
		return item, err
	}
	if item.Rid, err = rowString(row, "rid"); err != nil {
		return item, err
	}
	if item.Name, err = rowString(row, "name"); err != nil {
		return item, err
	}
	if item.Sale, err = rowInt32(row, "sale"); err != nil {
		return item, err
	}
	if item.Size, err = rowString(row, "size"); err != nil {
		return item, err
	}
	if item.TotalPrice, err = rowInt32(row, "total_price"); err != nil {
		return item, err
	}
	if item.NmID, err = rowInt32(row, "nm_id"); err != nil {
		return item, err
	}
	if item.Brand, err = rowString(row, "brand"); err != nil {
		return item, err
	}
	if item.Status, err = rowInt32(row, "status"); err != nil {
		return item, err
	}

	return item, nil
}

// OrderColumns - порядок колонок INSERT в таблицу orders.
// Имена колонок - часть контракта хранения, менять нельзя.
var OrderColumns = []string{
	"order_uid", "track_number", "entry",
	"delivery_name", "delivery_phone", "delivery_zip", "delivery_city",
	"delivery_address", "delivery_region", "delivery_email",
	"payment_transaction", "payment_request_id", "payment_currency",
	"payment_provider", "payment_amount", "payment_payment_dt", "payment_bank",
	"payment_delivery_cost", "payment_goods_total", "payment_custom_fee",
	"locale", "internal_signature", "customer_id", "delivery_service",
	"shardkey", "sm_id", "date_created", "oof_shard",
}

// ItemColumns - порядок колонок INSERT в таблицу orders_items.
var ItemColumns = []string{
	"order_uid", "chrt_id", "track_number", "price", "rid", "name",
	"sale", "size", "total_price", "nm_id", "brand", "status",
}

// Args возвращает значения агрегата в порядке OrderColumns
// для привязки параметров INSERT (без items).
func (o *Order) Args() []any {
	return []any{
		o.OrderUID, o.TrackNumber, o.Entry,
		o.Delivery.Name, o.Delivery.Phone, o.Delivery.Zip, o.Delivery.City,
		o.Delivery.Address, o.Delivery.Region, o.Delivery.Email,
		o.Payment.Transaction, o.Payment.RequestID, o.Payment.Currency,
		o.Payment.Provider, o.Payment.Amount, o.Payment.PaymentDt, o.Payment.Bank,
		o.Payment.DeliveryCost, o.Payment.GoodsTotal, o.Payment.CustomFee,
		o.Locale, o.InternalSignature, o.CustomerID, o.DeliveryService,
		o.Shardkey, o.SmID, o.DateCreated, o.OofShard,
	}
}

// Args возвращает значения товара в порядке ItemColumns.
// order_uid приходит от родительского заказа.
func (i *Item) Args(orderUID string) []any {
	return []any{
		orderUID, i.ChrtID, i.TrackNumber, i.Price, i.Rid, i.Name,
		i.Sale, i.Size, i.TotalPrice, i.NmID, i.Brand, i.Status,
	}
}

func rowString(row Row, column string) (string, error) {
	raw, ok := row[column]
	if !ok {
		return "", fmt.Errorf("колонка %q отсутствует в строке", column)
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		// lib/pq отдает текстовые колонки как []byte
		return string(v), nil
	default:
		return "", fmt.Errorf("колонка %q: ожидалась строка, получено %T", column, raw)
	}
}

func rowInt32(row Row, column string) (int32, error) {
	v, err := rowInt64(row, column)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

func rowInt64(row Row, column string) (int64, error) {
	raw, ok := row[column]
	if !ok {
		return 0, fmt.Errorf("колонка %q отсутствует в строке", column)
	}
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("колонка %q: ожидалось целое, получено %T", column, raw)
	}
}
