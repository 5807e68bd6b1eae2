package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"order_service/internal/metrics"
	"order_service/internal/model"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -source=postgres.go -destination=./mocks/storage_mock.go -package=mocks Storage

// Storage определяет интерфейс для работы с хранилищем заказов.
type Storage interface {
	// SaveOrder вставляет родительскую строку orders и дочерние строки
	// orders_items. Дубликат order_uid отдается как ошибка уникальности БД.
	SaveOrder(ctx context.Context, order *model.Order) error
	// GetOrderByUID возвращает (nil, nil), если заказа нет:
	// отсутствие записи - это не ошибка хранилища.
	GetOrderByUID(ctx context.Context, orderUID string) (*model.Order, error)
	// GetAllOrders возвращает все заказы; пустой слайс для пустой БД.
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	// DeleteOrder удаляет заказ и возвращает число удаленных родительских
	// строк. Удаление несуществующего заказа - не ошибка (0 строк).
	DeleteOrder(ctx context.Context, orderUID string) (int64, error)
	Close() error
}

// postgresStorage обеспечивает взаимодействие с базой данных PostgreSQL.
// Пул соединений sqlx безопасен для конкурентных вызовов.
type postgresStorage struct {
	db     *sqlx.DB
	tracer trace.Tracer
}

// New создает подключение к БД, применяет миграции и возвращает
// экземпляр, реализующий интерфейс Storage.
func New(dbURL, migrationsPath string) (Storage, error) {
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}

	if err := runMigrations(dbURL, migrationsPath); err != nil {
		return nil, fmt.Errorf("ошибка применения миграций: %w", err)
	}

	return &postgresStorage{
		db:     db,
		tracer: otel.Tracer("postgres-storage"),
	}, nil
}

// runMigrations выполняет миграции БД до последней версии.
func runMigrations(dbURL, migrationsPath string) error {
	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), dbURL)
	if err != nil {
		return fmt.Errorf("не удалось создать экземпляр миграции: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("не удалось выполнить миграции: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("не удалось получить версию миграции: %w", err)
	}

	if dirty {
		log.Warn().Uint("version", version).Msg("database is in dirty state")
	}

	log.Info().Uint("version", version).Msg("migrations applied")
	return nil
}

// placeholders возвращает "$1, $2, ..., $n".
func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}

var (
	insertOrderQuery = fmt.Sprintf(
		`INSERT INTO orders (%s) VALUES (%s)`,
		strings.Join(model.OrderColumns, ", "), placeholders(len(model.OrderColumns)),
	)
	insertItemQuery = fmt.Sprintf(
		`INSERT INTO orders_items (%s) VALUES (%s)`,
		strings.Join(model.ItemColumns, ", "), placeholders(len(model.ItemColumns)),
	)
	selectOrderQuery = fmt.Sprintf(
		`SELECT %s FROM orders WHERE order_uid = $1`,
		strings.Join(model.OrderColumns, ", "),
	)
	selectAllOrdersQuery = fmt.Sprintf(
		`SELECT %s FROM orders`,
		strings.Join(model.OrderColumns, ", "),
	)
	selectItemsQuery = fmt.Sprintf(
		`SELECT %s FROM orders_items WHERE order_uid = $1`,
		strings.Join(model.ItemColumns, ", "),
	)
	selectAllItemsQuery = fmt.Sprintf(
		`SELECT %s FROM orders_items`,
		strings.Join(model.ItemColumns, ", "),
	)
)

// SaveOrder сохраняет заказ и его товары в одной транзакции.
// Транзакция - осознанное ужесточение: без нее сбой между вставкой
// родителя и товаров оставлял бы заказ без части позиций.
func (s *postgresStorage) SaveOrder(ctx context.Context, order *model.Order) (err error) {
	ctx, span := s.tracer.Start(ctx, "DB.SaveOrder")
	defer span.End()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error().Err(rbErr).Msg("transaction rollback failed")
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, insertOrderQuery, order.Args()...); err != nil {
		return fmt.Errorf("ошибка сохранения заказа: %w", err)
	}

	for _, item := range order.Items {
		if _, err = tx.ExecContext(ctx, insertItemQuery, item.Args(order.OrderUID)...); err != nil {
			return fmt.Errorf("ошибка сохранения товара: %w", err)
		}
	}

	err = tx.Commit()
	return err
}

// GetOrderByUID извлекает полный агрегат заказа по его UID.
func (s *postgresStorage) GetOrderByUID(ctx context.Context, orderUID string) (*model.Order, error) {
	ctx, span := s.tracer.Start(ctx, "DB.GetOrderByUID")
	defer span.End()

	row, err := s.queryRowMap(ctx, selectOrderQuery, orderUID)
	if err != nil {
		metrics.DBErrors.WithLabelValues("get_order").Inc()
		return nil, fmt.Errorf("не удалось получить заказ: %w", err)
	}
	if row == nil {
		return nil, nil
	}

	order, err := model.OrderFromRow(row)
	if err != nil {
		metrics.DBErrors.WithLabelValues("get_order").Inc()
		return nil, fmt.Errorf("не удалось декодировать заказ: %w", err)
	}

	items, err := s.queryItems(ctx, selectItemsQuery, orderUID)
	if err != nil {
		metrics.DBErrors.WithLabelValues("get_items").Inc()
		return nil, err
	}
	for _, it := range items {
		order.Items = append(order.Items, it.item)
	}

	return order, nil
}

// GetAllOrders извлекает все заказы. Вместо запроса товаров на каждый
// заказ (N+1) дочерняя таблица вычитывается одним запросом и
// группируется по order_uid в памяти.
func (s *postgresStorage) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	ctx, span := s.tracer.Start(ctx, "DB.GetAllOrders")
	defer span.End()

	rows, err := s.db.QueryxContext(ctx, selectAllOrdersQuery)
	if err != nil {
		metrics.DBErrors.WithLabelValues("get_all_orders").Inc()
		return nil, fmt.Errorf("ошибка получения всех заказов: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	index := map[string]int{}
	for rows.Next() {
		rowMap := map[string]any{}
		if err := rows.MapScan(rowMap); err != nil {
			metrics.DBErrors.WithLabelValues("get_all_orders").Inc()
			return nil, fmt.Errorf("ошибка чтения строки заказа: %w", err)
		}
		order, err := model.OrderFromRow(rowMap)
		if err != nil {
			metrics.DBErrors.WithLabelValues("get_all_orders").Inc()
			return nil, fmt.Errorf("не удалось декодировать заказ: %w", err)
		}
		index[order.OrderUID] = len(orders)
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка получения всех заказов: %w", err)
	}

	items, err := s.queryItems(ctx, selectAllItemsQuery)
	if err != nil {
		metrics.DBErrors.WithLabelValues("get_items").Inc()
		return nil, err
	}
	for _, it := range items {
		if i, ok := index[it.orderUID]; ok {
			orders[i].Items = append(orders[i].Items, it.item)
		}
	}

	return orders, nil
}

// DeleteOrder удаляет родительскую строку; строки orders_items
// удаляются каскадно на уровне схемы (ON DELETE CASCADE).
func (s *postgresStorage) DeleteOrder(ctx context.Context, orderUID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "DB.DeleteOrder")
	defer span.End()

	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE order_uid = $1`, orderUID)
	if err != nil {
		metrics.DBErrors.WithLabelValues("delete_order").Inc()
		return 0, fmt.Errorf("ошибка удаления заказа: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления заказа: %w", err)
	}
	return affected, nil
}

// Close закрывает соединение с БД.
func (s *postgresStorage) Close() error {
	return s.db.Close()
}

// queryRowMap возвращает одну строку запроса как модельный Row,
// nil - если строк нет.
func (s *postgresStorage) queryRowMap(ctx context.Context, query string, args ...any) (model.Row, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	rowMap := map[string]any{}
	if err := rows.MapScan(rowMap); err != nil {
		return nil, err
	}
	return rowMap, nil
}

type scannedItem struct {
	orderUID string
	item     model.Item
}

// queryItems вычитывает и декодирует строки orders_items.
func (s *postgresStorage) queryItems(ctx context.Context, query string, args ...any) ([]scannedItem, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить товары для заказа: %w", err)
	}
	defer rows.Close()

	var items []scannedItem
	for rows.Next() {
		rowMap := map[string]any{}
		if err := rows.MapScan(rowMap); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки товара: %w", err)
		}
		item, err := model.ItemFromRow(rowMap)
		if err != nil {
			return nil, fmt.Errorf("не удалось декодировать товар: %w", err)
		}
		uid, ok := rowMap["order_uid"]
		if !ok {
			return nil, fmt.Errorf("колонка %q отсутствует в строке", "order_uid")
		}
		items = append(items, scannedItem{orderUID: asString(uid), item: item})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("не удалось получить товары для заказа: %w", err)
	}
	return items, nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}
