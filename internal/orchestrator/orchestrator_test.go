package orchestrator

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/paymentcore/internal/adapter/mock"
	"github.com/yourorg/paymentcore/internal/composer"
	"github.com/yourorg/paymentcore/internal/logging"
	"github.com/yourorg/paymentcore/internal/model"
	"github.com/yourorg/paymentcore/internal/order"
	"github.com/yourorg/paymentcore/internal/policy"
	"github.com/yourorg/paymentcore/internal/reporting"
	"github.com/yourorg/paymentcore/internal/txstore"
)

const paymentID = "/psp/creditcard/payments/5adc265f"

type capturedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

// fakeGateway answers the few routes the engine uses.
type fakeGateway struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   map[string]int
	// unavailable is the number of lookups answered with 503 before succeeding.
	unavailable int
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	if len(raw) > 0 {
		_ = sonic.Unmarshal(raw, &body)
	}
	g.mu.Lock()
	g.requests = append(g.requests, capturedRequest{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: body})
	override, hasOverride := g.status[r.Method+" "+r.URL.Path]
	busy := r.Method == http.MethodGet && g.unavailable > 0
	if busy {
		g.unavailable--
	}
	g.mu.Unlock()

	if busy {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if hasOverride {
		w.WriteHeader(override)
		_, _ = w.Write([]byte(`{"type":"https://api.payex.com/psp/errordetail/inputerror","title":"Error","status":400,"detail":"rejected"}`))
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/psp/creditcard/payments":
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"payment":{"id":"` + paymentID + `","number":1234,"state":"Ready","intent":"Authorization"},"operations":[{"method":"GET","href":"https://ecom.externalintegration.payex.com/creditcard/payments/authorize/abc","rel":"redirect-authorization"}]}`))
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, paymentID+"/"):
		kind := map[string]string{"captures": "capture", "cancellations": "cancellation", "reversals": "reversal"}[strings.TrimPrefix(r.URL.Path, paymentID+"/")]
		_, _ = w.Write([]byte(`{"payment":"` + paymentID + `","` + kind + `":{"id":"` + r.URL.Path + `/1","transaction":{"state":"Completed"}}}`))
	case r.Method == http.MethodGet && r.URL.Path == paymentID:
		_, _ = w.Write([]byte(`{"payment":{"id":"` + paymentID + `","state":"Ready","intent":"Authorization","expand":"` + r.URL.Query().Get("$expand") + `"}}`))
	case r.Method == http.MethodPatch && r.URL.Path == paymentID:
		_, _ = w.Write([]byte(`{"payment":{"id":"` + paymentID + `","state":"Aborted"}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"title":"Not Found","status":404}`))
	}
}

// fail makes method+" "+path answer with status.
func (g *fakeGateway) fail(route string, status int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status[route] = status
}

func (g *fakeGateway) setUnavailable(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unavailable = n
}

func (g *fakeGateway) last() capturedRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func newCore(t *testing.T, platform *mock.Adapter, opts ...Option) (*Core, *fakeGateway) {
	t.Helper()
	gw := &fakeGateway{status: map[string]int{}}
	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)
	if platform == nil {
		platform = mock.NewAdapter()
	}
	opts = append([]Option{WithBaseURL(srv.URL), WithHTTPClient(srv.Client())}, opts...)
	core, err := New(context.Background(), platform, opts...)
	require.NoError(t, err)
	return core, gw
}

func TestNew_PanicsOnNilPlatform(t *testing.T) {
	assert.PanicsWithValue(t, "platform adapter cannot be nil", func() {
		_, _ = New(context.Background(), nil)
	})
}

func TestNew_ConfigurationErrors(t *testing.T) {
	t.Run("adapter failure", func(t *testing.T) {
		platform := mock.NewAdapter()
		platform.GetConfigurationFunc = func(context.Context) (map[string]any, error) {
			return nil, errors.New("settings unavailable")
		}
		_, err := New(context.Background(), platform)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "settings unavailable")
	})

	t.Run("uncoercible value", func(t *testing.T) {
		platform := mock.NewAdapter()
		platform.Configuration["auto_capture"] = []string{"nope"}
		_, err := New(context.Background(), platform)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auto_capture")
	})

	t.Run("bad status rule", func(t *testing.T) {
		_, err := New(context.Background(), mock.NewAdapter(), WithStatusRules([]policy.TransitionRule{{ID: "broken", Expression: "current =="}}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken")
	})
}

func TestCore_Composers(t *testing.T) {
	core, _ := newCore(t, nil)

	assert.Equal(t, "test-access-token", core.Configuration().AccessToken)
	assert.NotNil(t, core.Orders())
	assert.NotNil(t, core.Registry())

	for _, inst := range []model.Instrument{
		model.InstrumentCreditCard, model.InstrumentMobilepay, model.InstrumentSwish, model.InstrumentVipps,
		model.InstrumentTrustly, model.InstrumentInvoice, model.InstrumentCheckout, model.InstrumentConsumer,
	} {
		comp, err := core.Composer(inst)
		require.NoError(t, err, inst)
		assert.Equal(t, inst, comp.Instrument())
	}

	_, err := core.Composer("bitcoin")
	assert.ErrorIs(t, err, model.ErrInvalidRequest)

	assert.Same(t, core.Card(), core.composers.Card)
	assert.Same(t, core.Checkout(), core.composers.Checkout)
}

func TestCore_PurchaseThenCapture(t *testing.T) {
	journal := reporting.NewJournal(10)
	core, gw := newCore(t, nil, WithRecorder(journal))
	ctx := context.Background()

	resp, err := core.Card().Purchase(ctx, "1", composer.PurchaseParams{})
	require.NoError(t, err)
	assert.Equal(t, paymentID, resp.ID())

	created := gw.last()
	assert.Equal(t, "Bearer test-access-token", created.Auth)
	assert.Equal(t, "Purchase", created.Body["payment"].(map[string]any)["operation"])

	resp, err = core.Capture(ctx, paymentID, 10000, 2000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	capture := gw.last()
	assert.Equal(t, http.MethodPost, capture.Method)
	assert.Equal(t, paymentID+"/captures", capture.Path)
	tx := capture.Body["transaction"].(map[string]any)
	assert.EqualValues(t, 10000, tx["amount"])
	assert.EqualValues(t, 2000, tx["vatAmount"])
	assert.Equal(t, "Capture of order 1", tx["description"])
	assert.Len(t, tx["payeeReference"], 30)

	entries := journal.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "capture", entries[1].Operation)
	assert.Equal(t, reporting.StatusSuccess, entries[1].Status)
}

func TestCore_ActionsResolveOrderID(t *testing.T) {
	core, gw := newCore(t, nil)
	ctx := context.Background()

	_, err := core.Card().Purchase(ctx, "1", composer.PurchaseParams{})
	require.NoError(t, err)

	tests := []struct {
		name   string
		call   func() (*model.Response, error)
		method string
		path   string
	}{
		{"cancel", func() (*model.Response, error) { return core.Cancel(ctx, "1", 10000, 2000) }, http.MethodPost, paymentID + "/cancellations"},
		{"refund", func() (*model.Response, error) { return core.Refund(ctx, "1", 5000, 1000) }, http.MethodPost, paymentID + "/reversals"},
		{"abort", func() (*model.Response, error) { return core.Abort(ctx, "1") }, http.MethodPatch, paymentID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.call()
			require.NoError(t, err)
			got := gw.last()
			assert.Equal(t, tt.method, got.Method)
			assert.Equal(t, tt.path, got.Path)
		})
	}

	abort := gw.last().Body["payment"].(map[string]any)
	assert.Equal(t, "Abort", abort["operation"])
	assert.Equal(t, model.AbortReasonCancelledByConsumer, abort["abortReason"])
}

func TestCore_Do(t *testing.T) {
	core, gw := newCore(t, nil)
	ctx := context.Background()
	_, err := core.Card().Purchase(ctx, "1", composer.PurchaseParams{})
	require.NoError(t, err)

	_, err = core.Do(ctx, model.ActionAbort, paymentID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gw.last().Method)

	_, err = core.Do(ctx, "settle", paymentID, 0, 0)
	assert.ErrorIs(t, err, model.ErrInvalidRequest)
}

func TestCore_ActionErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown payment", func(t *testing.T) {
		core, gw := newCore(t, nil)
		_, err := core.Capture(ctx, "/psp/creditcard/payments/unknown", 100, 0)
		assert.ErrorIs(t, err, model.ErrNotFound)
		assert.Zero(t, gw.count())
	})

	t.Run("empty id", func(t *testing.T) {
		core, _ := newCore(t, nil)
		_, err := core.Abort(ctx, "")
		assert.ErrorIs(t, err, model.ErrInvalidRequest)
	})

	t.Run("negative amount", func(t *testing.T) {
		core, _ := newCore(t, nil)
		_, err := core.Refund(ctx, paymentID, -1, 0)
		assert.ErrorIs(t, err, model.ErrInvalidRequest)
	})

	t.Run("vat above amount", func(t *testing.T) {
		core, _ := newCore(t, nil)
		_, err := core.Capture(ctx, paymentID, 100, 200)
		assert.ErrorIs(t, err, model.ErrInvalidRequest)
	})

	t.Run("instrument without the action", func(t *testing.T) {
		store := txstore.NewMemoryStore()
		require.NoError(t, store.Save(ctx, txstore.Record{
			PaymentID:  "/psp/swish/payments/1",
			Instrument: model.InstrumentSwish,
			OrderID:    "1",
			CreatedAt:  time.Now(),
		}))
		core, gw := newCore(t, nil, WithStore(store))

		_, err := core.Capture(ctx, "/psp/swish/payments/1", 100, 0)
		var exc *model.Exception
		require.ErrorAs(t, err, &exc)
		assert.Equal(t, "NO_ENDPOINT", exc.Code)
		assert.ErrorIs(t, err, model.ErrNoEndpoint)
		assert.Zero(t, gw.count())
	})

	t.Run("gateway rejection is logged and normalized", func(t *testing.T) {
		platform := mock.NewAdapter()
		core, gw := newCore(t, platform)
		_, err := core.Card().Purchase(ctx, "1", composer.PurchaseParams{})
		require.NoError(t, err)
		gw.fail(http.MethodPost+" "+paymentID+"/captures", http.StatusBadRequest)

		_, err = core.Capture(ctx, paymentID, 100, 0)
		var exc *model.Exception
		require.ErrorAs(t, err, &exc)
		assert.Equal(t, "GATEWAY_ERROR", exc.Code)
		assert.Equal(t, http.StatusBadRequest, exc.StatusCode)

		logs := platform.Logs()
		require.NotEmpty(t, logs)
		last := logs[len(logs)-1]
		assert.Equal(t, logging.LevelDebug, last.Level)
		assert.True(t, strings.HasPrefix(last.Message, "creditcard::Capture: API Exception: "), last.Message)
	})
}

func TestCore_CheckCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("bad request means valid credentials", func(t *testing.T) {
		core, gw := newCore(t, nil)
		gw.fail(http.MethodPost+" /psp/creditcard/payments", http.StatusBadRequest)
		require.NoError(t, core.CheckCredentials(ctx, model.InstrumentCreditCard))
		assert.Equal(t, "Test", gw.last().Body["payment"].(map[string]any)["operation"])
	})

	t.Run("unauthorized", func(t *testing.T) {
		core, gw := newCore(t, nil)
		gw.fail(http.MethodPost+" /psp/creditcard/payments", http.StatusUnauthorized)
		assert.ErrorIs(t, core.CheckCredentials(ctx, model.InstrumentCreditCard), model.ErrCredentials)
	})

	t.Run("consumer has no probe", func(t *testing.T) {
		core, gw := newCore(t, nil)
		assert.ErrorIs(t, core.CheckCredentials(ctx, model.InstrumentConsumer), model.ErrInvalidRequest)
		assert.Zero(t, gw.count())
	})

	t.Run("unknown instrument", func(t *testing.T) {
		core, _ := newCore(t, nil)
		assert.ErrorIs(t, core.CheckCredentials(ctx, "bitcoin"), model.ErrInvalidRequest)
	})
}

func TestCore_CanUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	withStatus := func(status string) *mock.Adapter {
		platform := mock.NewAdapter()
		platform.GetOrderDataFunc = func(_ context.Context, orderID string) (map[string]any, error) {
			o := mock.DefaultOrder()
			o["order_id"] = orderID
			o["status"] = status
			return o, nil
		}
		return platform
	}

	tests := []struct {
		name    string
		current string
		target  order.Status
		txID    string
		want    bool
	}{
		{"pending to failed", "pending", order.StatusFailed, "123", true},
		{"pending to captured with transaction", "pending", order.StatusCaptured, "123", true},
		{"pending to captured without transaction", "pending", order.StatusCaptured, "", false},
		{"unchanged", "authorized", order.StatusAuthorized, "123", false},
		{"captured to refunded", "captured", order.StatusRefunded, "123", true},
		{"captured to cancelled", "captured", order.StatusCancelled, "123", false},
		{"refunded is final", "refunded", order.StatusCaptured, "123", false},
		{"cancelled is final", "cancelled", order.StatusAuthorized, "", false},
		{"empty current counts as pending", "", order.StatusAuthorized, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, gw := newCore(t, withStatus(tt.current))
			ok, err := core.CanUpdateOrderStatus(ctx, "1", tt.target, tt.txID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Zero(t, gw.count())
		})
	}

	t.Run("default order", func(t *testing.T) {
		core, _ := newCore(t, nil)
		ok, err := core.CanUpdateOrderStatus(ctx, "1", order.StatusFailed, "123")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown order", func(t *testing.T) {
		core, _ := newCore(t, nil)
		_, err := core.CanUpdateOrderStatus(ctx, "404", order.StatusFailed, "123")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("empty target", func(t *testing.T) {
		core, _ := newCore(t, nil)
		_, err := core.CanUpdateOrderStatus(ctx, "1", "", "123")
		assert.ErrorIs(t, err, model.ErrInvalidRequest)
	})

	t.Run("custom rules", func(t *testing.T) {
		core, _ := newCore(t, nil, WithStatusRules([]policy.TransitionRule{
			{ID: "no_failures", Expression: "target == 'failed'", Priority: 1},
		}))
		ok, err := core.CanUpdateOrderStatus(ctx, "1", order.StatusFailed, "123")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCore_Log(t *testing.T) {
	platform := mock.NewAdapter()
	core, _ := newCore(t, platform)
	core.Log(context.Background(), logging.LevelInfo, map[string]any{"a": 1}, nil)
	logs := platform.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, logging.LevelInfo, logs[0].Level)

	quiet := mock.NewAdapter()
	quiet.Configuration["debug"] = false
	core, _ = newCore(t, quiet)
	core.Log(context.Background(), logging.LevelError, "dropped", nil)
	assert.Empty(t, quiet.Logs())
}

func TestCore_WithoutContractValidation(t *testing.T) {
	core, gw := newCore(t, nil, WithoutContractValidation())
	_, err := core.Card().Purchase(context.Background(), "1", composer.PurchaseParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, gw.count())
}

func TestCore_FetchPaymentInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("retries an unavailable gateway", func(t *testing.T) {
		journal := reporting.NewJournal(10)
		core, gw := newCore(t, nil, WithRetry(2, time.Millisecond), WithRecorder(journal))
		_, err := core.Card().Purchase(ctx, "1", composer.PurchaseParams{})
		require.NoError(t, err)
		gw.setUnavailable(1)

		resp, err := core.FetchPaymentInfo(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, paymentID, resp.ID())
		assert.Equal(t, "Ready", resp.State())
		assert.Equal(t, 3, gw.count(), "purchase, 503, 200")
		assert.Equal(t, http.MethodGet, gw.last().Method)

		entries := journal.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "FetchPaymentInfo", entries[1].Operation)
		assert.Equal(t, reporting.StatusSuccess, entries[1].Status)
	})

	t.Run("zero retries surfaces the 503", func(t *testing.T) {
		core, gw := newCore(t, nil, WithRetry(0, time.Millisecond))
		_, err := core.Card().Purchase(ctx, "1", composer.PurchaseParams{})
		require.NoError(t, err)
		gw.setUnavailable(1)

		_, err = core.FetchPaymentInfo(ctx, paymentID)
		var exc *model.Exception
		require.ErrorAs(t, err, &exc)
		assert.Equal(t, http.StatusServiceUnavailable, exc.StatusCode)
		assert.Equal(t, 2, gw.count())
	})

	t.Run("expand", func(t *testing.T) {
		core, _ := newCore(t, nil)
		_, err := core.Card().Purchase(ctx, "1", composer.PurchaseParams{})
		require.NoError(t, err)

		resp, err := core.FetchPaymentInfo(ctx, paymentID, "transactions", " captures ", "")
		require.NoError(t, err)
		got, ok := resp.Get("payment", "expand")
		require.True(t, ok)
		assert.Equal(t, "transactions,captures", got)

		_, err = core.FetchPaymentInfo(ctx, paymentID, "a&b=c")
		assert.ErrorIs(t, err, model.ErrInvalidRequest)
	})

	t.Run("unknown payment", func(t *testing.T) {
		core, gw := newCore(t, nil)
		_, err := core.FetchPaymentInfo(ctx, "404")
		assert.ErrorIs(t, err, model.ErrNotFound)
		assert.Zero(t, gw.count())
	})
}
