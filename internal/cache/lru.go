package cache

import (
	"container/list"
	"context"
	"sync"

	"order_service/internal/metrics"
	"order_service/internal/model"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -source=lru.go -destination=./mocks/cache_mock.go -package=mocks Cache

// Cache определяет интерфейс кэша заказов.
// Контекст добавлен для поддержки сквозной трассировки.
type Cache interface {
	// Get возвращает заказ по ключу и отмечает его как недавно использованный.
	Get(ctx context.Context, key string) (*model.Order, bool)
	// Set вставляет или заменяет запись и сообщает, существовала ли запись
	// с этим ключом до вызова. При переполнении вытесняется самый старый элемент.
	Set(ctx context.Context, key string, order *model.Order) bool
	// Remove удаляет запись; для отсутствующего ключа ничего не делает.
	Remove(ctx context.Context, key string)
}

// lruCache реализует LRU (Least Recently Used) кэш фиксированной емкости.
// В кэше всегда лежит полностью собранный агрегат, частичные записи не кэшируются.
// Мьютекс защищает только операции с картой и никогда не удерживается
// во время обращений к БД - это забота вызывающего слоя.
type lruCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	queue    *list.List
	tracer   trace.Tracer
}

type cacheItem struct {
	key   string
	order *model.Order
}

// NewLRUCache создает новый LRU-кэш с заданной емкостью.
func NewLRUCache(capacity int) Cache {
	return &lruCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		queue:    list.New(),
		tracer:   otel.Tracer("lru-cache"),
	}
}

func (c *lruCache) Get(ctx context.Context, key string) (*model.Order, bool) {
	_, span := c.tracer.Start(ctx, "Cache.Get")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if element, exists := c.items[key]; exists {
		c.queue.MoveToFront(element)
		return element.Value.(*cacheItem).order, true
	}

	return nil, false
}

func (c *lruCache) Set(ctx context.Context, key string, order *model.Order) bool {
	_, span := c.tracer.Start(ctx, "Cache.Set")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity <= 0 {
		return false
	}

	if element, exists := c.items[key]; exists {
		c.queue.MoveToFront(element)
		element.Value.(*cacheItem).order = order
		return true
	}

	if c.queue.Len() >= c.capacity {
		c.removeOldest()
	}

	element := c.queue.PushFront(&cacheItem{key: key, order: order})
	c.items[key] = element

	metrics.CacheSize.Set(float64(c.queue.Len()))
	return false
}

func (c *lruCache) Remove(ctx context.Context, key string) {
	_, span := c.tracer.Start(ctx, "Cache.Remove")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	element, exists := c.items[key]
	if !exists {
		return
	}

	c.queue.Remove(element)
	delete(c.items, key)
	metrics.CacheSize.Set(float64(c.queue.Len()))
}

// removeOldest удаляет самый старый элемент (мьютекс уже захвачен).
func (c *lruCache) removeOldest() {
	element := c.queue.Back()
	if element != nil {
		item := c.queue.Remove(element).(*cacheItem)
		delete(c.items, item.key)

		metrics.CacheEvictions.Inc()
		metrics.CacheSize.Set(float64(c.queue.Len()))
	}
}

// Storage - источник заказов для прогрева (реализуется слоем БД).
type Storage interface {
	GetAllOrders(ctx context.Context) ([]model.Order, error)
}

// WarmUp загружает заказы из БД в кэш при старте сервиса.
// Заполняется не больше, чем позволяет емкость кэша.
func WarmUp(ctx context.Context, storage Storage, cache Cache) error {
	log.Info().Msg("warming up cache")
	orders, err := storage.GetAllOrders(ctx)
	if err != nil {
		return err
	}

	for _, order := range orders {
		orderCopy := order
		cache.Set(ctx, order.OrderUID, &orderCopy)
	}

	log.Info().Int("orders", len(orders)).Msg("cache warmup done")
	return nil
}
