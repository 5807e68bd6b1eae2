package cache

import (
	"context"
	"sync"
	"testing"

	"order_service/internal/model"

	"github.com/stretchr/testify/assert"
)

func order(uid string) *model.Order {
	return &model.Order{OrderUID: uid, Items: []model.Item{}}
}

func TestLRUCache_SetAndGet(t *testing.T) {
	cache := NewLRUCache(2)
	assertions := assert.New(t)
	ctx := context.Background()

	// 1. Добавить первый элемент
	existed := cache.Set(ctx, "key1", order("key1"))
	assertions.False(existed)
	val, found := cache.Get(ctx, "key1")
	assertions.True(found)
	assertions.Equal("key1", val.OrderUID)

	// 2. Добавить второй элемент
	cache.Set(ctx, "key2", order("key2"))
	val, found = cache.Get(ctx, "key2")
	assertions.True(found)
	assertions.Equal("key2", val.OrderUID)

	// 3. Проверить, что оба на месте
	_, found = cache.Get(ctx, "key1")
	assertions.True(found)
}

func TestLRUCache_SetReportsExisting(t *testing.T) {
	cache := NewLRUCache(2)
	assertions := assert.New(t)
	ctx := context.Background()

	// Повторный Set того же ключа сообщает, что запись уже была -
	// на этом строится дедупликация add в репозитории
	assertions.False(cache.Set(ctx, "key1", order("key1")))
	assertions.True(cache.Set(ctx, "key1", order("key1")))

	// После удаления ключ снова считается новым
	cache.Remove(ctx, "key1")
	assertions.False(cache.Set(ctx, "key1", order("key1")))
}

func TestLRUCache_Eviction(t *testing.T) {
	cache := NewLRUCache(2)
	assertions := assert.New(t)
	ctx := context.Background()

	cache.Set(ctx, "key1", order("key1"))
	cache.Set(ctx, "key2", order("key2"))

	// Третий элемент вытесняет "key1" (самый старый)
	cache.Set(ctx, "key3", order("key3"))

	_, found := cache.Get(ctx, "key1")
	assertions.False(found, "key1 should be evicted")

	_, found = cache.Get(ctx, "key2")
	assertions.True(found)
	_, found = cache.Get(ctx, "key3")
	assertions.True(found)
}

func TestLRUCache_UsageUpdatesOrder(t *testing.T) {
	cache := NewLRUCache(2)
	assertions := assert.New(t)
	ctx := context.Background()

	cache.Set(ctx, "key1", order("key1"))
	cache.Set(ctx, "key2", order("key2")) // "key1" - старый, "key2" - новый

	// 1. Используем "key1", он становится самым новым
	cache.Get(ctx, "key1")

	// 2. Добавляем "key3". Теперь вытесняется "key2"
	cache.Set(ctx, "key3", order("key3"))

	_, found := cache.Get(ctx, "key2")
	assertions.False(found, "key2 should be evicted")

	_, found = cache.Get(ctx, "key1")
	assertions.True(found)
	_, found = cache.Get(ctx, "key3")
	assertions.True(found)
}

func TestLRUCache_UpdateValue(t *testing.T) {
	cache := NewLRUCache(2)
	assertions := assert.New(t)
	ctx := context.Background()

	first := order("key1")
	cache.Set(ctx, "key1", first)

	// Обновляем значение по тому же ключу
	updated := order("key1")
	updated.TrackNumber = "WBILM0000001"
	existed := cache.Set(ctx, "key1", updated)
	assertions.True(existed)

	val, found := cache.Get(ctx, "key1")
	assertions.True(found)
	assertions.Equal("WBILM0000001", val.TrackNumber)
}

func TestLRUCache_Remove(t *testing.T) {
	cache := NewLRUCache(2)
	assertions := assert.New(t)
	ctx := context.Background()

	cache.Set(ctx, "key1", order("key1"))
	cache.Remove(ctx, "key1")

	_, found := cache.Get(ctx, "key1")
	assertions.False(found)

	// Удаление отсутствующего ключа - no-op
	cache.Remove(ctx, "missing")
}

func TestLRUCache_ZeroCapacity(t *testing.T) {
	// Кэш с 0 емкостью не должен ничего хранить
	cache := NewLRUCache(0)
	assertions := assert.New(t)
	ctx := context.Background()

	cache.Set(ctx, "key1", order("key1"))
	_, found := cache.Get(ctx, "key1")
	assertions.False(found)
}

func TestLRUCache_ConcurrentAccess(t *testing.T) {
	cache := NewLRUCache(10)
	ctx := context.Background()

	// Конкурентные читатели и писатели не должны портить кэш
	// (запускать с -race)
	var wg sync.WaitGroup
	keys := []string{"a", "b", "c", "d", "e"}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := keys[j%len(keys)]
				cache.Set(ctx, key, order(key))
				cache.Get(ctx, key)
				if j%10 == 0 {
					cache.Remove(ctx, key)
				}
			}
		}()
	}
	wg.Wait()
}
