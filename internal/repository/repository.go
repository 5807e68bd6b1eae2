package repository

import (
	"context"

	"order_service/internal/cache"
	"order_service/internal/database"
	"order_service/internal/metrics"
	"order_service/internal/model"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -source=repository.go -destination=./mocks/repository_mock.go -package=mocks Repository

// Repository - публичный контракт сервиса заказов поверх кэша и БД.
// Единственная политика кэширования (cache-aside) живет здесь:
// ни хэндлеры, ни консюмер не трогают кэш напрямую.
type Repository interface {
	// AddOrder регистрирует заказ. Повторная отправка order_uid,
	// уже находящегося в кэше, - молчаливый no-op без обращения к БД.
	AddOrder(ctx context.Context, order *model.Order) error
	// GetOrder возвращает (nil, nil), если заказа нет.
	GetOrder(ctx context.Context, orderUID string) (*model.Order, error)
	// ListOrders всегда идет в БД мимо кэша и не пополняет его.
	ListOrders(ctx context.Context) ([]model.Order, error)
	// RemoveOrder удаляет заказ из кэша и БД. Удаление
	// несуществующего заказа - не ошибка.
	RemoveOrder(ctx context.Context, orderUID string) error
}

type orderRepository struct {
	storage database.Storage
	cache   cache.Cache
	tracer  trace.Tracer
}

// New создает репозиторий заказов над переданными кэшем и хранилищем.
func New(storage database.Storage, cache cache.Cache) Repository {
	return &orderRepository{
		storage: storage,
		cache:   cache,
		tracer:  otel.Tracer("order-repository"),
	}
}

// AddOrder кладет заказ в кэш и затем в БД. Если запись с таким UID уже
// была в кэше, повторная вставка считается дубликатом и БД не трогается -
// даже если строки в БД на самом деле нет (известный риск, задокументирован
// в DESIGN.md). При ошибке БД запись остается в кэше без строки в
// хранилище: это принятое окно несогласованности, оно не лечится.
func (r *orderRepository) AddOrder(ctx context.Context, order *model.Order) error {
	ctx, span := r.tracer.Start(ctx, "Repository.AddOrder")
	defer span.End()

	if existed := r.cache.Set(ctx, order.OrderUID, order); existed {
		log.Info().Str("order_uid", order.OrderUID).Msg("duplicate add, served from cache")
		return nil
	}

	if err := r.storage.SaveOrder(ctx, order); err != nil {
		metrics.DBErrors.WithLabelValues("save_order").Inc()
		return err
	}

	log.Info().Str("order_uid", order.OrderUID).Msg("order stored")
	return nil
}

// GetOrder ищет заказ сначала в кэше, затем в БД, пополняя кэш
// после успешного чтения. Ошибки хранилища отдаются без переупаковки.
func (r *orderRepository) GetOrder(ctx context.Context, orderUID string) (*model.Order, error) {
	ctx, span := r.tracer.Start(ctx, "Repository.GetOrder")
	defer span.End()

	if order, found := r.cache.Get(ctx, orderUID); found {
		metrics.CacheHits.Inc()
		return order, nil
	}
	metrics.CacheMisses.Inc()

	order, err := r.storage.GetOrderByUID(ctx, orderUID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		// отсутствие заказа не кэшируется
		return nil, nil
	}

	r.cache.Set(ctx, orderUID, order)
	return order, nil
}

// ListOrders возвращает все заказы из БД. Кэш одиночных записей не
// подходит для формы "вся коллекция", поэтому список не кэшируется.
func (r *orderRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	ctx, span := r.tracer.Start(ctx, "Repository.ListOrders")
	defer span.End()

	return r.storage.GetAllOrders(ctx)
}

// RemoveOrder безусловно выселяет запись из кэша и удаляет строку из БД.
// Число удаленных строк только логируется.
func (r *orderRepository) RemoveOrder(ctx context.Context, orderUID string) error {
	ctx, span := r.tracer.Start(ctx, "Repository.RemoveOrder")
	defer span.End()

	r.cache.Remove(ctx, orderUID)

	affected, err := r.storage.DeleteOrder(ctx, orderUID)
	if err != nil {
		return err
	}

	log.Info().Str("order_uid", orderUID).Int64("rows", affected).Msg("order removed")
	return nil
}
