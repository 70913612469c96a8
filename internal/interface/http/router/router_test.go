package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apporder "github.com/xiebiao/stockroom/internal/application/order"
	"github.com/xiebiao/stockroom/internal/domain/item"
	"github.com/xiebiao/stockroom/internal/domain/order"
	"github.com/xiebiao/stockroom/internal/infrastructure/config"
	"github.com/xiebiao/stockroom/internal/interface/http/handler"
	apperrors "github.com/xiebiao/stockroom/pkg/errors"
)

// envelope 统一响应结构
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type stubStock struct {
	items     map[uint]*item.Item
	upsertErr error
	listErr   error
	upserted  [][]item.Delta
}

func (s *stubStock) BulkUpsert(_ context.Context, deltas []item.Delta) ([]item.UpsertResult, error) {
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	s.upserted = append(s.upserted, deltas)
	results := make([]item.UpsertResult, len(deltas))
	for i := range deltas {
		results[i] = item.UpsertResult{ID: uint(i + 1), Accepted: true}
	}
	return results, nil
}

func (s *stubStock) GetAll(context.Context) ([]*item.Item, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var list []*item.Item
	for id := uint(1); id <= uint(len(s.items)); id++ {
		if it, ok := s.items[id]; ok {
			list = append(list, it)
		}
	}
	return list, nil
}

func (s *stubStock) GetByID(_ context.Context, id uint) (*item.Item, error) {
	it, ok := s.items[id]
	if !ok {
		return nil, item.ErrItemNotFound
	}
	return it, nil
}

func (s *stubStock) SetStock(_ context.Context, id uint, stock int) error {
	if stock < 0 {
		return item.ErrInvalidStock
	}
	it, ok := s.items[id]
	if !ok {
		return item.ErrItemNotFound
	}
	it.Stock = stock
	return nil
}

func (s *stubStock) Delete(_ context.Context, id uint) error {
	if _, ok := s.items[id]; !ok {
		return item.ErrItemNotFound
	}
	delete(s.items, id)
	return nil
}

type stubOrders struct {
	mu       sync.Mutex
	stock    map[uint]int
	orders   []*order.Order
	keys     map[string]bool
	requests []apporder.PlaceOrderRequest
}

func (s *stubOrders) PlaceOrder(_ context.Context, req apporder.PlaceOrderRequest) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)

	o, err := order.NewOrder(req.ItemID, req.Quantity)
	if err != nil {
		return nil, err
	}
	if req.IdempotencyKey != "" {
		if s.keys[req.IdempotencyKey] {
			return nil, order.ErrDuplicateRequest
		}
		s.keys[req.IdempotencyKey] = true
	}
	stock, ok := s.stock[req.ItemID]
	if !ok {
		return nil, order.ErrItemNotFound
	}
	if req.Quantity > stock {
		return nil, apperrors.WithCause(order.ErrInsufficientStock, errors.New("当前库存不足"))
	}
	o.ID = uint(len(s.orders) + 1)
	o.CreatedAt = time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)
	s.orders = append(s.orders, o)
	return o, nil
}

func (s *stubOrders) GetAll(context.Context) ([]*order.Order, error) {
	return s.orders, nil
}

func (s *stubOrders) GetByID(_ context.Context, id uint) (*order.Order, error) {
	if id == 0 || int(id) > len(s.orders) {
		return nil, order.ErrOrderNotFound
	}
	return s.orders[id-1], nil
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

type fixture struct {
	stock  *stubStock
	orders *stubOrders
	pinger *stubPinger
	srv    http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)
	f := &fixture{
		stock: &stubStock{items: map[uint]*item.Item{
			1: {ID: 1, Type: "shirt", Color: "red", Size: "M", Stock: 10, CreatedAt: now, UpdatedAt: now},
			2: {ID: 2, Type: "shirt", Color: "blue", Size: "L", Stock: 0, CreatedAt: now, UpdatedAt: now},
		}},
		orders: &stubOrders{stock: map[uint]int{1: 10, 2: 0}, keys: map[string]bool{}},
		pinger: &stubPinger{},
	}

	cfg := &config.Config{Server: config.ServerConfig{
		Port:           8080,
		Mode:           "test",
		AllowedOrigins: []string{"*"},
	}}
	f.srv = NewRouter(cfg, zap.NewNop(),
		handler.NewItemHandler(f.stock),
		handler.NewOrderHandler(f.orders),
		handler.NewHealthHandler(f.pinger),
	)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err, "JSON序列化失败")
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "解析JSON响应失败: %s", w.Body.String())
	}
	return w, env
}

func TestItems(t *testing.T) {
	t.Run("批量入库返回与输入对应的ID", func(t *testing.T) {
		f := newFixture(t)
		w, env := f.do(t, http.MethodPost, "/api/v1/items", map[string]interface{}{
			"items": []map[string]interface{}{
				{"type": "shirt", "color": "red", "size": "M", "stock": 5},
				{"type": "shirt", "color": "green", "size": "S", "stock": 0},
			},
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, env.Code)
		assert.JSONEq(t, `{"item_ids":[1,2]}`, string(env.Data))

		require.Len(t, f.stock.upserted, 1)
		assert.Equal(t, item.Delta{Type: "shirt", Color: "green", Size: "S", Stock: 0}, f.stock.upserted[0][1])
	})

	t.Run("参数错误不调用账本", func(t *testing.T) {
		cases := map[string]interface{}{
			"空列表":   map[string]interface{}{"items": []interface{}{}},
			"缺少库存":  map[string]interface{}{"items": []map[string]interface{}{{"type": "a", "color": "b", "size": "c"}}},
			"负数库存":  map[string]interface{}{"items": []map[string]interface{}{{"type": "a", "color": "b", "size": "c", "stock": -1}}},
			"缺少类型":  map[string]interface{}{"items": []map[string]interface{}{{"color": "b", "size": "c", "stock": 1}}},
			"非JSON": "not json",
		}
		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				f := newFixture(t)
				w, env := f.do(t, http.MethodPost, "/api/v1/items", body)

				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, apperrors.ErrCodeBindError, env.Code)
				assert.Empty(t, f.stock.upserted)
			})
		}
	})

	t.Run("整批被拒绝", func(t *testing.T) {
		f := newFixture(t)
		f.stock.upsertErr = apperrors.WithCause(item.ErrBatchRejected, errors.New("items[1]: duplicate"))

		w, env := f.do(t, http.MethodPost, "/api/v1/items", map[string]interface{}{
			"items": []map[string]interface{}{{"type": "a", "color": "b", "size": "c", "stock": 1}},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.ErrCodeBatchRejected, env.Code)
		assert.Equal(t, item.ErrBatchRejected.Message, env.Message)
	})

	t.Run("存储不可用不暴露内部错误", func(t *testing.T) {
		f := newFixture(t)
		f.stock.listErr = apperrors.WrapDB(errors.New("dial tcp: connection refused"), "存储服务不可用")

		w, env := f.do(t, http.MethodGet, "/api/v1/items", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, apperrors.ErrCodeDatabaseError, env.Code)
		assert.NotContains(t, env.Message, "connection refused")
	})

	t.Run("列表", func(t *testing.T) {
		f := newFixture(t)
		w, env := f.do(t, http.MethodGet, "/api/v1/items", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var data struct {
			Items []struct {
				ID        uint   `json:"id"`
				Stock     int    `json:"stock"`
				CreatedAt string `json:"created_at"`
			} `json:"items"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data.Items, 2)
		assert.Equal(t, uint(1), data.Items[0].ID)
		assert.Equal(t, 10, data.Items[0].Stock)
		assert.Equal(t, "2024-01-15 10:30:00", data.Items[0].CreatedAt)
	})

	t.Run("空列表返回[]", func(t *testing.T) {
		f := newFixture(t)
		f.stock.items = map[uint]*item.Item{}

		_, env := f.do(t, http.MethodGet, "/api/v1/items", nil)
		assert.JSONEq(t, `{"items":[]}`, string(env.Data))
	})

	t.Run("详情", func(t *testing.T) {
		f := newFixture(t)
		w, env := f.do(t, http.MethodGet, "/api/v1/items/2", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(env.Data), `"color":"blue"`)
	})

	t.Run("非数字ID按不存在处理", func(t *testing.T) {
		f := newFixture(t)
		for _, path := range []string{"/api/v1/items/abc", "/api/v1/items/0", "/api/v1/items/-1"} {
			w, env := f.do(t, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusNotFound, w.Code, path)
			assert.Equal(t, apperrors.ErrCodeItemNotFound, env.Code, path)
		}
	})

	t.Run("覆盖库存后读取到新值", func(t *testing.T) {
		f := newFixture(t)
		w, env := f.do(t, http.MethodPatch, "/api/v1/items/1", map[string]int{"stock": 3})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, env.Code)

		_, env = f.do(t, http.MethodGet, "/api/v1/items/1", nil)
		assert.Contains(t, string(env.Data), `"stock":3`)
	})

	t.Run("覆盖库存为负数", func(t *testing.T) {
		f := newFixture(t)
		w, env := f.do(t, http.MethodPatch, "/api/v1/items/1", map[string]int{"stock": -1})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.ErrCodeInvalidParams, env.Code)
		assert.Equal(t, 10, f.stock.items[1].Stock)
	})

	t.Run("覆盖库存缺少字段", func(t *testing.T) {
		f := newFixture(t)
		w, env := f.do(t, http.MethodPatch, "/api/v1/items/1", map[string]int{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.ErrCodeBindError, env.Code)
	})

	t.Run("删除后不存在", func(t *testing.T) {
		f := newFixture(t)
		w, _ := f.do(t, http.MethodDelete, "/api/v1/items/1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w, env := f.do(t, http.MethodGet, "/api/v1/items/1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperrors.ErrCodeItemNotFound, env.Code)

		w, _ = f.do(t, http.MethodDelete, "/api/v1/items/1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrders(t *testing.T) {
	t.Run("下单成功", func(t *testing.T) {
		f := newFixture(t)
		w, env := f.do(t, http.MethodPost, "/api/v1/orders", map[string]int{"item_id": 1, "quantity": 10})

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":1,"item_id":1,"quantity":10,"created_at":"2024-01-15 10:30:00"}`, string(env.Data))
	})

	t.Run("拒绝", func(t *testing.T) {
		cases := []struct {
			name   string
			body   interface{}
			status int
			code   int
		}{
			{"库存不足", map[string]int{"item_id": 2, "quantity": 1}, http.StatusBadRequest, apperrors.ErrCodeInsufficientStock},
			{"商品不存在", map[string]int{"item_id": 9999, "quantity": 1}, http.StatusNotFound, apperrors.ErrCodeItemNotFound},
			{"数量为0", map[string]int{"item_id": 1, "quantity": 0}, http.StatusBadRequest, apperrors.ErrCodeInvalidParams},
			{"缺少数量", map[string]int{"item_id": 1}, http.StatusBadRequest, apperrors.ErrCodeBindError},
			{"缺少商品", map[string]int{"quantity": 1}, http.StatusBadRequest, apperrors.ErrCodeBindError},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				f := newFixture(t)
				w, env := f.do(t, http.MethodPost, "/api/v1/orders", tc.body)

				assert.Equal(t, tc.status, w.Code)
				assert.Equal(t, tc.code, env.Code)
				assert.Empty(t, f.orders.orders)
			})
		}
	})

	t.Run("幂等键透传并拒绝重复", func(t *testing.T) {
		f := newFixture(t)
		body := map[string]int{"item_id": 1, "quantity": 1}

		w, _ := f.do(t, http.MethodPost, "/api/v1/orders", body, "Idempotency-Key", "req-1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "req-1", f.orders.requests[0].IdempotencyKey)

		w, env := f.do(t, http.MethodPost, "/api/v1/orders", body, "Idempotency-Key", "req-1")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, apperrors.ErrCodeDuplicateRequest, env.Code)
		assert.Len(t, f.orders.orders, 1)
	})

	t.Run("幂等键过长", func(t *testing.T) {
		f := newFixture(t)
		w, env := f.do(t, http.MethodPost, "/api/v1/orders", map[string]int{"item_id": 1, "quantity": 1},
			"Idempotency-Key", strings.Repeat("k", 129))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.ErrCodeInvalidParams, env.Code)
		assert.Empty(t, f.orders.requests)
	})

	t.Run("列表与详情", func(t *testing.T) {
		f := newFixture(t)
		f.do(t, http.MethodPost, "/api/v1/orders", map[string]int{"item_id": 1, "quantity": 2})
		f.do(t, http.MethodPost, "/api/v1/orders", map[string]int{"item_id": 1, "quantity": 3})

		_, env := f.do(t, http.MethodGet, "/api/v1/orders", nil)
		var data struct {
			Orders []struct {
				ID       uint `json:"id"`
				Quantity int  `json:"quantity"`
			} `json:"orders"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data.Orders, 2)
		assert.Equal(t, 3, data.Orders[1].Quantity)

		w, env := f.do(t, http.MethodGet, "/api/v1/orders/2", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(env.Data), `"quantity":3`)
	})

	t.Run("订单不存在", func(t *testing.T) {
		f := newFixture(t)
		for _, path := range []string{"/api/v1/orders/1", "/api/v1/orders/xyz"} {
			w, env := f.do(t, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusNotFound, w.Code, path)
			assert.Equal(t, apperrors.ErrCodeOrderNotFound, env.Code, path)
		}
	})
}

func TestPing(t *testing.T) {
	f := newFixture(t)

	w, env := f.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, string(env.Data))

	f.pinger.err = errors.New("connection refused")
	w, env = f.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.ErrCodeDatabaseError, env.Code)
}

func TestMiddleware(t *testing.T) {
	t.Run("响应带请求ID", func(t *testing.T) {
		f := newFixture(t)
		w, _ := f.do(t, http.MethodGet, "/ping", nil)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

		w, _ = f.do(t, http.MethodGet, "/ping", nil, "X-Request-ID", "abc-123")
		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	})

	t.Run("CORS预检", func(t *testing.T) {
		f := newFixture(t)
		w, _ := f.do(t, http.MethodOptions, "/api/v1/orders", nil,
			"Origin", "http://localhost:3000",
			"Access-Control-Request-Method", "POST",
			"Access-Control-Request-Headers", "Idempotency-Key",
		)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("指标", func(t *testing.T) {
		f := newFixture(t)
		f.do(t, http.MethodGet, "/api/v1/items/1", nil)

		w, _ := f.do(t, http.MethodGet, "/metrics", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `stockroom_http_requests_total{method="GET",path="/api/v1/items/:id",status="200"}`)
	})
}
