package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"order_service/internal/metrics"
	"order_service/internal/model"
	"order_service/internal/repository"
	"order_service/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// OrderHandler обрабатывает HTTP-запросы, связанные с заказами.
// Вся политика кэширования скрыта за интерфейсом репозитория.
type OrderHandler struct {
	repo repository.Repository
}

// NewOrderHandler создает новый экземпляр OrderHandler.
func NewOrderHandler(repo repository.Repository) *OrderHandler {
	return &OrderHandler{repo: repo}
}

// GetByUID возвращает заказ по UID. 404, если заказа нет.
func (h *OrderHandler) GetByUID(w http.ResponseWriter, r *http.Request) {
	handlerName := "GetByUID"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	orderUID := chi.URLParam(r, "orderUID")
	if orderUID == "" {
		respondWithError(w, http.StatusBadRequest, "UID заказа не указан", handlerName)
		return
	}

	order, err := h.repo.GetOrder(r.Context(), orderUID)
	if err != nil {
		log.Error().Err(err).Str("order_uid", orderUID).Msg("failed to get order")
		respondWithError(w, http.StatusInternalServerError, "Ошибка получения заказа", handlerName)
		return
	}
	if order == nil {
		respondWithError(w, http.StatusNotFound, "Заказ не найден", handlerName)
		return
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, order)
}

// List возвращает все заказы (всегда из БД, мимо кэша).
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	handlerName := "List"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	orders, err := h.repo.ListOrders(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list orders")
		respondWithError(w, http.StatusInternalServerError, "Ошибка получения списка заказов", handlerName)
		return
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, orders)
}

// Create принимает JSON-документ заказа и регистрирует его.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	handlerName := "Create"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	var order model.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		log.Error().Err(err).Msg("invalid order payload")
		respondWithError(w, http.StatusBadRequest, "Невалидный JSON", handlerName)
		return
	}

	if err := validator.ValidateStruct(&order); err != nil {
		log.Error().Err(err).Str("order_uid", order.OrderUID).Msg("order validation failed")
		respondWithError(w, http.StatusBadRequest, "Невалидный заказ", handlerName)
		return
	}

	if err := h.repo.AddOrder(r.Context(), &order); err != nil {
		log.Error().Err(err).Str("order_uid", order.OrderUID).Msg("failed to add order")
		respondWithError(w, http.StatusInternalServerError, "Ошибка сохранения заказа", handlerName)
		return
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "201").Inc()
	w.WriteHeader(http.StatusCreated)
}

// Delete удаляет заказ. Удаление несуществующего UID тоже отвечает 200.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	handlerName := "Delete"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	orderUID := chi.URLParam(r, "orderUID")
	if orderUID == "" {
		respondWithError(w, http.StatusBadRequest, "UID заказа не указан", handlerName)
		return
	}

	if err := h.repo.RemoveOrder(r.Context(), orderUID); err != nil {
		log.Error().Err(err).Str("order_uid", orderUID).Msg("failed to remove order")
		respondWithError(w, http.StatusInternalServerError, "Ошибка удаления заказа", handlerName)
		return
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	w.WriteHeader(http.StatusOK)
}

// respondWithJSON вспомогательная функция для отправки JSON-ответов.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string, handlerName string) {
	metrics.HttpRequestsTotal.WithLabelValues(handlerName, strconv.Itoa(code)).Inc()
	http.Error(w, message, code)
}
