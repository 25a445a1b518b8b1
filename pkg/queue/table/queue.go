package table

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/queue"
)

// Queue keeps items as rows of {prefix}{name}: an auto-increment id, the
// insertion date and the JSON payload. Get is not destructive; the row
// stays until Remove. Concurrent consumers of one table are not
// coordinated and may receive the same row.
type Queue struct {
	queue.Base
	db      *sql.DB
	dialect dialect
	prefix  string
	table   string
	ready   atomic.Bool
}

var _ contracts.Queue = (*Queue)(nil)

func (q *Queue) SetName(name string) {
	q.Base.SetName(name)
	q.ready.Store(false)
}

func (q *Queue) TableName() string {
	if q.table != "" {
		return q.table
	}
	return q.prefix + q.Name()
}

func (q *Queue) indexName() string {
	return "idx_" + q.TableName() + "_date"
}

func (q *Queue) Exists(ctx context.Context) (bool, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, q.dialect.ExistsQuery(), q.TableName()).Scan(&n); err != nil {
		return false, queue.ErrBackend.WithDetail("queue", q.Name()).WithDetail("op", queue.OpExists).WithCause(err)
	}
	return n > 0, nil
}

func (q *Queue) Create(ctx context.Context) error {
	table := q.TableName()
	for _, stmt := range q.dialect.CreateStatements(table, q.indexName()) {
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return queue.ErrNotMaterialized.WithDetail("queue", q.Name()).WithCause(err)
		}
	}
	q.ready.Store(true)
	q.Log().Info("queue has been created", "table", table)
	return nil
}

func (q *Queue) Destroy(ctx context.Context) error {
	table := q.TableName()
	if _, err := q.db.ExecContext(ctx, dropSQL(q.dialect, table)); err != nil {
		return queue.ErrBackend.WithDetail("queue", q.Name()).WithDetail("op", queue.OpDestroy).WithCause(err)
	}
	q.ready.Store(false)
	q.Log().Info("queue has been destroyed", "table", table)
	return nil
}

// ensure creates the table when it is missing. A failed existence check
// is transient; a failed create is ErrNotMaterialized.
func (q *Queue) ensure(ctx context.Context) error {
	if q.ready.Load() {
		return nil
	}
	exists, err := q.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		q.ready.Store(true)
		return nil
	}
	return q.Create(ctx)
}

func (q *Queue) Add(ctx context.Context, item *queue.Item) (bool, error) {
	if item == nil {
		return false, queue.ErrInvalidItem.WithDetail("reason", "nil item")
	}
	payload, err := queue.EncodeData(item.Data)
	if err != nil {
		return false, err
	}

	id, err := q.withTable(ctx, func() (int64, error) {
		return q.dialect.Insert(ctx, q.db, q.TableName(), time.Now().UTC(), string(payload))
	})
	if err != nil {
		if errors.Is(err, queue.ErrNotMaterialized) {
			return false, err
		}
		q.Log().Error("unable to add new item", "error", err)
		return false, nil
	}

	item.ID = id
	item.Handler = id
	q.Log().Info("new item added", "id", id)
	return true, nil
}

func (q *Queue) Get(ctx context.Context) (*queue.Item, error) {
	var (
		id  int64
		raw string
	)
	_, err := q.withTable(ctx, func() (int64, error) {
		row := q.db.QueryRowContext(ctx, selectEarliestSQL(q.dialect, q.TableName()))
		return 0, row.Scan(&id, &raw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		q.Log().Info("unable to get item: queue is empty")
		return nil, nil
	}
	if err != nil {
		if errors.Is(err, queue.ErrNotMaterialized) {
			return nil, err
		}
		q.Log().Error("unable to get item", "error", err)
		return nil, nil
	}

	data, err := queue.DecodeData([]byte(raw))
	if err != nil {
		q.Log().Error("unable to decode item", "id", id, "error", err)
		return nil, nil
	}

	q.Log().Info("get item", "id", id)
	return &queue.Item{ID: id, Handler: id, Data: data}, nil
}

func (q *Queue) Remove(ctx context.Context, handler any) (bool, error) {
	id, ok := rowID(handler)
	if !ok {
		return false, q.InvalidHandler(handler)
	}

	res, err := q.db.ExecContext(ctx, deleteSQL(q.dialect, q.TableName()), id)
	if err != nil {
		q.Log().Error("unable to remove item", "id", id, "error", err)
		return false, nil
	}
	n, err := res.RowsAffected()
	if err != nil || n != 1 {
		q.Log().Error("unable to remove item", "id", id, "affected", n, "error", err)
		return false, nil
	}

	q.Log().Info("item has been removed", "id", id)
	return true, nil
}

// withTable runs op after making sure the table exists, and once more after
// recreating it when op hits a missing table.
func (q *Queue) withTable(ctx context.Context, op func() (int64, error)) (int64, error) {
	if err := q.ensure(ctx); err != nil {
		return 0, err
	}

	id, err := op()
	if err == nil || !q.dialect.IsMissingTable(err) {
		return id, err
	}

	q.ready.Store(false)
	if err := q.Create(ctx); err != nil {
		return 0, err
	}
	return op()
}

// rowID accepts the int64 ids produced by Add and Get as well as any other
// integer or a decimal string.
func rowID(handler any) (int64, bool) {
	switch h := handler.(type) {
	case int64:
		return h, true
	case int:
		return int64(h), true
	case int32:
		return int64(h), true
	case int16:
		return int64(h), true
	case int8:
		return int64(h), true
	case uint:
		return int64(h), uint64(h) <= math.MaxInt64
	case uint64:
		return int64(h), h <= math.MaxInt64
	case uint32:
		return int64(h), true
	case uint16:
		return int64(h), true
	case uint8:
		return int64(h), true
	case string:
		id, err := strconv.ParseInt(h, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}
