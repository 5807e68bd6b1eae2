package model

// Order - агрегат заказа. Хранится в плоской таблице orders
// (колонки delivery_* и payment_*) плюс дочерняя таблица orders_items.
type Order struct {
	OrderUID          string   `json:"order_uid" db:"order_uid" validate:"required"`
	TrackNumber       string   `json:"track_number" db:"track_number" validate:"required"`
	Entry             string   `json:"entry" db:"entry" validate:"required"`
	Delivery          Delivery `json:"delivery" validate:"required"`
	Payment           Payment  `json:"payment" validate:"required"`
	Items             []Item   `json:"items" validate:"required,min=1,dive"`
	Locale            string   `json:"locale" db:"locale" validate:"required,len=2"`
	InternalSignature string   `json:"internal_signature" db:"internal_signature"`
	CustomerID        string   `json:"customer_id" db:"customer_id" validate:"required"`
	DeliveryService   string   `json:"delivery_service" db:"delivery_service" validate:"required"`
	Shardkey          string   `json:"shardkey" db:"shardkey"`
	SmID              int32    `json:"sm_id" db:"sm_id" validate:"gte=0"`
	DateCreated       string   `json:"date_created" db:"date_created" validate:"required"`
	OofShard          string   `json:"oof_shard" db:"oof_shard"`
}

type Delivery struct {
	Name    string `json:"name" db:"delivery_name" validate:"required"`
	Phone   string `json:"phone" db:"delivery_phone" validate:"required,e164"`
	Zip     string `json:"zip" db:"delivery_zip" validate:"required"`
	City    string `json:"city" db:"delivery_city" validate:"required"`
	Address string `json:"address" db:"delivery_address" validate:"required"`
	Region  string `json:"region" db:"delivery_region" validate:"required"`
	Email   string `json:"email" db:"delivery_email" validate:"required,email"`
}

type Payment struct {
	Transaction  string `json:"transaction" db:"payment_transaction" validate:"required"`
	RequestID    string `json:"request_id" db:"payment_request_id"`
	Currency     string `json:"currency" db:"payment_currency" validate:"required,iso4217"`
	Provider     string `json:"provider" db:"payment_provider" validate:"required"`
	Amount       int32  `json:"amount" db:"payment_amount" validate:"gte=0"`
	PaymentDt    int64  `json:"payment_dt" db:"payment_payment_dt" validate:"required"`
	Bank         string `json:"bank" db:"payment_bank" validate:"required"`
	DeliveryCost int32  `json:"delivery_cost" db:"payment_delivery_cost" validate:"gte=0"`
	GoodsTotal   int32  `json:"goods_total" db:"payment_goods_total" validate:"gte=0"`
	CustomFee    int32  `json:"custom_fee" db:"payment_custom_fee" validate:"gte=0"`
}

type Item struct {
	ChrtID      int32  `json:"chrt_id" db:"chrt_id" validate:"required"`
	TrackNumber string `json:"track_number" db:"track_number" validate:"required"`
	Price       int32  `json:"price" db:"price" validate:"gt=0"`
	Rid         string `json:"rid" db:"rid" validate:"required"`
	Name        string `json:"name" db:"name" validate:"required"`
	Sale        int32  `json:"sale" db:"sale" validate:"gte=0,lte=100"`
	Size        string `json:"size" db:"size"`
	TotalPrice  int32  `json:"total_price" db:"total_price" validate:"gte=0"`
	NmID        int32  `json:"nm_id" db:"nm_id" validate:"required"`
	Brand       string `json:"brand" db:"brand" validate:"required"`
	Status      int32  `json:"status" db:"status" validate:"gte=0"`
}
