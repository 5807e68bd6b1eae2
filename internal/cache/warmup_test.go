package cache

import (
	"context"
	"errors"
	"testing"

	"order_service/internal/cache/mocks"
	"order_service/internal/model"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestWarmUp_FillsCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := mocks.NewMockStorage(ctrl)
	mockStorage.EXPECT().GetAllOrders(gomock.Any()).Return([]model.Order{
		*order("uid-1"), *order("uid-2"),
	}, nil)

	cache := NewLRUCache(10)
	err := WarmUp(context.Background(), mockStorage, cache)
	assert.NoError(t, err)

	_, found := cache.Get(context.Background(), "uid-1")
	assert.True(t, found)
	_, found = cache.Get(context.Background(), "uid-2")
	assert.True(t, found)
}

func TestWarmUp_StorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockErr := errors.New("db down")
	mockStorage := mocks.NewMockStorage(ctrl)
	mockStorage.EXPECT().GetAllOrders(gomock.Any()).Return(nil, mockErr)

	cache := NewLRUCache(10)
	err := WarmUp(context.Background(), mockStorage, cache)
	assert.Equal(t, mockErr, err)
}

func TestWarmUp_BoundedByCapacity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	orders := make([]model.Order, 5)
	for i, uid := range []string{"a", "b", "c", "d", "e"} {
		orders[i] = *order(uid)
	}
	mockStorage := mocks.NewMockStorage(ctrl)
	mockStorage.EXPECT().GetAllOrders(gomock.Any()).Return(orders, nil)

	// Емкость меньше числа заказов: старые записи вытесняются
	cache := NewLRUCache(2)
	assert.NoError(t, WarmUp(context.Background(), mockStorage, cache))

	_, found := cache.Get(context.Background(), "a")
	assert.False(t, found)
	_, found = cache.Get(context.Background(), "d")
	assert.True(t, found)
	_, found = cache.Get(context.Background(), "e")
	assert.True(t, found)
}
