package stock

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/stockroom/internal/domain/item"
	apperrors "github.com/xiebiao/stockroom/pkg/errors"
)

// memRepo 内存商品仓储,配合memTx模拟事务回滚
type memRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*item.Item

	// upsertHook 返回非nil错误或affected=0时模拟存储层拒绝
	upsertHook func(d item.Delta) (int64, error)
	findAllErr error
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, byID: make(map[uint]*item.Item)}
}

func (r *memRepo) snapshot() (uint, map[uint]item.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[uint]item.Item, len(r.byID))
	for id, it := range r.byID {
		cp[id] = *it
	}
	return r.nextID, cp
}

func (r *memRepo) restore(nextID uint, state map[uint]item.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID = nextID
	r.byID = make(map[uint]*item.Item, len(state))
	for id, it := range state {
		it := it
		r.byID[id] = &it
	}
}

func (r *memRepo) findByKey(key item.NaturalKey) *item.Item {
	for _, it := range r.byID {
		if it.Key() == key {
			return it
		}
	}
	return nil
}

func (r *memRepo) Upsert(_ context.Context, d item.Delta) (int64, error) {
	if r.upsertHook != nil {
		if affected, err := r.upsertHook(d); err != nil || affected == 0 {
			return affected, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if it := r.findByKey(d.Key()); it != nil {
		it.Stock += d.Stock
		return 2, nil
	}
	r.byID[r.nextID] = &item.Item{ID: r.nextID, Type: d.Type, Color: d.Color, Size: d.Size, Stock: d.Stock}
	r.nextID++
	return 1, nil
}

func (r *memRepo) FindIDByKey(_ context.Context, key item.NaturalKey) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it := r.findByKey(key); it != nil {
		return it.ID, nil
	}
	return 0, item.ErrItemNotFound
}

func (r *memRepo) FindAll(context.Context) ([]*item.Item, error) {
	if r.findAllErr != nil {
		return nil, r.findAllErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*item.Item, 0, len(r.byID))
	for _, it := range r.byID {
		cp := *it
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *memRepo) FindByID(_ context.Context, id uint) (*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.byID[id]
	if !ok {
		return nil, item.ErrItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *memRepo) SetStock(_ context.Context, id uint, stock int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.byID[id]
	if !ok {
		return item.ErrItemNotFound
	}
	it.Stock = stock
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return item.ErrItemNotFound
	}
	delete(r.byID, id)
	return nil
}

// memTx 串行执行事务,回调出错时恢复快照
type memTx struct {
	mu        sync.Mutex
	repo      *memRepo
	commitErr error
	calls     int
}

func (t *memTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++

	nextID, state := t.repo.snapshot()
	err := fn(ctx)
	if err == nil {
		err = t.commitErr
	}
	if err != nil {
		t.repo.restore(nextID, state)
	}
	return err
}

func newTestLedger() (*Ledger, *memRepo, *memTx) {
	repo := newMemRepo()
	tx := &memTx{repo: repo}
	return NewLedger(repo, tx, zap.NewNop()), repo, tx
}

func delta(typ, color, size string, stock int) item.Delta {
	return item.Delta{Type: typ, Color: color, Size: size, Stock: stock}
}

func TestBulkUpsert_InsertThenAccumulate(t *testing.T) {
	ledger, _, _ := newTestLedger()
	ctx := context.Background()

	results, err := ledger.BulkUpsert(ctx, []item.Delta{
		delta("shirt", "red", "M", 10),
		delta("shirt", "blue", "L", 3),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, item.UpsertResult{ID: 1, Accepted: true}, results[0])
	assert.Equal(t, item.UpsertResult{ID: 2, Accepted: true}, results[1])

	// 已存在的自然键累加,ID不变
	results, err = ledger.BulkUpsert(ctx, []item.Delta{delta("shirt", "red", "M", 5)})
	require.NoError(t, err)
	assert.Equal(t, uint(1), results[0].ID)

	it, err := ledger.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 15, it.Stock)
}

func TestBulkUpsert_DuplicateKeysInBatch(t *testing.T) {
	ledger, _, _ := newTestLedger()
	ctx := context.Background()

	results, err := ledger.BulkUpsert(ctx, []item.Delta{
		delta("hat", "black", "S", 1),
		delta("hat", "black", "S", 2),
		delta("hat", "black", "S", 3),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, results[0].ID, results[1].ID)
	assert.Equal(t, results[0].ID, results[2].ID)

	it, err := ledger.GetByID(ctx, results[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 6, it.Stock)
}

func TestBulkUpsert_ZeroDelta(t *testing.T) {
	ledger, _, _ := newTestLedger()
	ctx := context.Background()

	_, err := ledger.BulkUpsert(ctx, []item.Delta{delta("sock", "white", "M", 4)})
	require.NoError(t, err)

	results, err := ledger.BulkUpsert(ctx, []item.Delta{delta("sock", "white", "M", 0)})
	require.NoError(t, err)
	assert.True(t, results[0].Accepted)

	it, err := ledger.GetByID(ctx, results[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 4, it.Stock)
}

func TestBulkUpsert_EmptyBatch(t *testing.T) {
	ledger, _, tx := newTestLedger()

	results, err := ledger.BulkUpsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
	assert.Equal(t, 0, tx.calls)
}

func TestBulkUpsert_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		delta item.Delta
	}{
		{"缺少type", delta("", "red", "M", 1)},
		{"color全是空白", delta("shirt", "   ", "M", 1)},
		{"缺少size", delta("shirt", "red", "", 1)},
		{"负数库存", delta("shirt", "red", "M", -1)},
		{"type超长", delta(strings.Repeat("x", item.MaxAttrLen+1), "red", "M", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, repo, tx := newTestLedger()

			_, err := ledger.BulkUpsert(context.Background(), []item.Delta{
				delta("valid", "red", "M", 1),
				tt.delta,
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, item.ErrInvalidItems)
			assert.Equal(t, apperrors.ErrCodeInvalidParams, apperrors.GetAppError(err).Code)
			assert.Equal(t, 0, tx.calls)
			assert.Empty(t, repo.byID)
		})
	}
}

func TestBulkUpsert_RejectedBatchRollsBack(t *testing.T) {
	ledger, repo, _ := newTestLedger()
	ctx := context.Background()

	_, err := ledger.BulkUpsert(ctx, []item.Delta{delta("shirt", "red", "M", 10)})
	require.NoError(t, err)

	repo.upsertHook = func(d item.Delta) (int64, error) {
		if d.Type == "bad" {
			return 0, apperrors.WithCause(item.ErrConstraintViolation, errors.New("Error 1406: Data too long"))
		}
		return 1, nil
	}

	_, err = ledger.BulkUpsert(ctx, []item.Delta{
		delta("shirt", "red", "M", 5),
		delta("pants", "black", "L", 2),
		delta("bad", "x", "y", 1),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, item.ErrBatchRejected)
	assert.Equal(t, apperrors.ErrCodeBatchRejected, apperrors.GetAppError(err).Code)

	// 整批回滚:已有商品库存不变,新商品未写入
	items, err := ledger.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].Stock)
}

func TestBulkUpsert_NoRowsAffected(t *testing.T) {
	ledger, repo, _ := newTestLedger()

	repo.upsertHook = func(d item.Delta) (int64, error) {
		if d.Color == "ghost" {
			return 0, nil
		}
		return 1, nil
	}

	_, err := ledger.BulkUpsert(context.Background(), []item.Delta{
		delta("shirt", "red", "M", 1),
		delta("shirt", "ghost", "M", 1),
	})
	assert.ErrorIs(t, err, item.ErrBatchRejected)
	assert.Empty(t, repo.byID)
}

func TestBulkUpsert_StoreUnavailable(t *testing.T) {
	t.Run("写入失败", func(t *testing.T) {
		ledger, repo, _ := newTestLedger()
		repo.upsertHook = func(item.Delta) (int64, error) {
			return 0, apperrors.WrapDB(errors.New("connection refused"), "写入商品失败")
		}

		_, err := ledger.BulkUpsert(context.Background(), []item.Delta{delta("shirt", "red", "M", 1)})
		require.Error(t, err)
		assert.NotErrorIs(t, err, item.ErrBatchRejected)
		assert.Equal(t, apperrors.ErrCodeDatabaseError, apperrors.GetAppError(err).Code)
	})

	t.Run("提交失败", func(t *testing.T) {
		ledger, repo, tx := newTestLedger()
		tx.commitErr = errors.New("driver: bad connection")

		_, err := ledger.BulkUpsert(context.Background(), []item.Delta{delta("shirt", "red", "M", 1)})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDatabaseError, apperrors.GetAppError(err).Code)
		assert.Empty(t, repo.byID)
	})
}

func TestBulkUpsert_Concurrent(t *testing.T) {
	ledger, _, _ := newTestLedger()
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.BulkUpsert(ctx, []item.Delta{delta("shirt", "red", "M", 1)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	items, err := ledger.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, workers, items[0].Stock)
}

func TestGetAll(t *testing.T) {
	ledger, repo, _ := newTestLedger()
	ctx := context.Background()

	items, err := ledger.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = ledger.BulkUpsert(ctx, []item.Delta{
		delta("a", "a", "a", 1),
		delta("b", "b", "b", 2),
	})
	require.NoError(t, err)

	items, err = ledger.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, uint(1), items[0].ID)
	assert.Equal(t, uint(2), items[1].ID)

	repo.findAllErr = errors.New("timeout")
	_, err = ledger.GetAll(ctx)
	assert.Equal(t, apperrors.ErrCodeDatabaseError, apperrors.GetAppError(err).Code)
}

func TestGetByID_NotFound(t *testing.T) {
	ledger, _, _ := newTestLedger()

	_, err := ledger.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, item.ErrItemNotFound)
}

func TestSetStock(t *testing.T) {
	ledger, _, _ := newTestLedger()
	ctx := context.Background()

	results, err := ledger.BulkUpsert(ctx, []item.Delta{delta("shirt", "red", "M", 10)})
	require.NoError(t, err)
	id := results[0].ID

	require.NoError(t, ledger.SetStock(ctx, id, 3))
	it, err := ledger.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, it.Stock)

	// 设置为相同的值也成功
	require.NoError(t, ledger.SetStock(ctx, id, 3))

	assert.ErrorIs(t, ledger.SetStock(ctx, id, -1), item.ErrInvalidStock)
	assert.ErrorIs(t, ledger.SetStock(ctx, 999, 1), item.ErrItemNotFound)
}

func TestDelete(t *testing.T) {
	ledger, _, _ := newTestLedger()
	ctx := context.Background()

	results, err := ledger.BulkUpsert(ctx, []item.Delta{delta("shirt", "red", "M", 10)})
	require.NoError(t, err)
	id := results[0].ID

	require.NoError(t, ledger.Delete(ctx, id))
	_, err = ledger.GetByID(ctx, id)
	assert.ErrorIs(t, err, item.ErrItemNotFound)

	assert.ErrorIs(t, ledger.Delete(ctx, id), item.ErrItemNotFound)

	// 删除后同一自然键重新入库得到新ID
	results, err = ledger.BulkUpsert(ctx, []item.Delta{delta("shirt", "red", "M", 1)})
	require.NoError(t, err)
	assert.NotEqual(t, id, results[0].ID)
}
