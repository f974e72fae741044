package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yogitridirgantara/POS-DR/internal/checkout"
	"github.com/yogitridirgantara/POS-DR/internal/domain"
	"github.com/yogitridirgantara/POS-DR/internal/publisher"
	"github.com/yogitridirgantara/POS-DR/internal/session"
	"github.com/yogitridirgantara/POS-DR/pkg/metrics"
)

// Prometheus collectors register globally, so the test package shares one set.
var (
	metricsOnce   sync.Once
	sharedMetrics *metrics.ServerMetrics
)

func testMetrics() *metrics.ServerMetrics {
	metricsOnce.Do(func() {
		sharedMetrics = metrics.NewServerMetrics("test")
	})
	return sharedMetrics
}

type inserterMock struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{} // when set, InsertTransaction waits until closed
}

func (m *inserterMock) InsertTransaction(context.Context, *domain.TransactionRecord) error {
	m.mu.Lock()
	m.calls++
	block := m.block
	err := m.err
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	return err
}

func (m *inserterMock) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *inserterMock) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *inserterMock) setBlock(block chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = block
}

type registerEnv struct {
	router   http.Handler
	sessions *session.MemoryStore
	inserter *inserterMock
}

func setupRegister(t *testing.T) *registerEnv {
	t.Helper()

	inserter := &inserterMock{}
	sessions := session.NewMemoryStore(inserter)
	t.Cleanup(sessions.Close)

	catalog := &catalogMock{products: menu()}
	cartHandler := NewCartHandler(sessions, catalog, 5*time.Second)
	checkoutHandler := NewCheckoutHandler(cartHandler, publisher.NewSalePublisher(publisher.DefaultTopic), testMetrics(), 5*time.Second)

	r := chi.NewRouter()
	r.Post("/sessions", cartHandler.CreateSession)
	r.Route("/sessions/{session_id}", func(r chi.Router) {
		r.Get("/cart", cartHandler.GetCart)
		r.Post("/cart/items", cartHandler.AddItem)
		r.Put("/cart/items/{product_id}", cartHandler.UpdateQuantity)
		r.Delete("/cart/items/{product_id}", cartHandler.RemoveItem)
		r.Put("/cart/customer", cartHandler.SetCustomer)
		r.Post("/checkout", checkoutHandler.Begin)
		r.Post("/checkout/confirm", checkoutHandler.Confirm)
		r.Post("/checkout/cancel", checkoutHandler.Cancel)
	})

	return &registerEnv{router: r, sessions: sessions, inserter: inserter}
}

func (e *registerEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, CartResponseDTO) {
	t.Helper()

	reader := strings.NewReader(body)

	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, httptest.NewRequest(method, path, reader))

	var dto CartResponseDTO
	_ = json.Unmarshal(recorder.Body.Bytes(), &dto)
	return recorder, dto
}

func (e *registerEnv) newSession(t *testing.T) string {
	t.Helper()
	recorder, dto := e.do(t, "POST", "/sessions", "")
	require.Equal(t, http.StatusCreated, recorder.Code)
	require.NotEmpty(t, dto.SessionID)
	return dto.SessionID
}

func TestCartFlow_AddUpdateRemove(t *testing.T) {
	env := setupRegister(t)
	id := env.newSession(t)

	recorder, dto := env.do(t, "POST", "/sessions/"+id+"/cart/items", `{"product_id":2}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	require.Len(t, dto.Cart.Lines, 1)
	assert.Equal(t, int64(25_000), dto.Pricing.Subtotal)

	// Same product merges into the existing line.
	recorder, dto = env.do(t, "POST", "/sessions/"+id+"/cart/items", `{"product_id":2}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	require.Len(t, dto.Cart.Lines, 1)
	assert.Equal(t, 2, dto.Cart.Lines[0].Quantity)

	recorder, dto = env.do(t, "PUT", "/sessions/"+id+"/cart/items/2", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, dto.Cart.Lines)
}

func TestCartFlow_UnknownProduct(t *testing.T) {
	env := setupRegister(t)
	id := env.newSession(t)

	recorder, _ := env.do(t, "POST", "/sessions/"+id+"/cart/items", `{"product_id":99}`)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCartFlow_UnknownSession(t *testing.T) {
	env := setupRegister(t)

	recorder, _ := env.do(t, "GET", "/sessions/nope/cart", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCheckout_HappyPath(t *testing.T) {
	env := setupRegister(t)
	id := env.newSession(t)

	env.do(t, "POST", "/sessions/"+id+"/cart/items", `{"product_id":2}`)
	env.do(t, "PUT", "/sessions/"+id+"/cart/customer", `{"customer_name":"Budi","note":"meja 4"}`)

	recorder, _ := env.do(t, "POST", "/sessions/"+id+"/checkout", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder, _ = env.do(t, "POST", "/sessions/"+id+"/checkout/confirm", "")
	require.Equal(t, http.StatusCreated, recorder.Code)

	var resp TransactionResponseDTO
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.NotNil(t, resp.Transaction)
	assert.Equal(t, "Budi", resp.Transaction.CustomerName)
	assert.Equal(t, int64(25_000), resp.Transaction.Total)
	assert.Equal(t, 1, env.inserter.callCount())

	// Cart is cleared after the acknowledged insert.
	recorder, dto := env.do(t, "GET", "/sessions/"+id+"/cart", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, dto.Cart.Lines)
	assert.Empty(t, dto.Cart.CustomerName)
}

func TestCheckout_MissingCustomerNameRejectedBeforeStore(t *testing.T) {
	env := setupRegister(t)
	id := env.newSession(t)

	env.do(t, "POST", "/sessions/"+id+"/cart/items", `{"product_id":2}`)

	recorder, _ := env.do(t, "POST", "/sessions/"+id+"/checkout", "")
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "empty_customer_name", resp.Code)
	assert.Zero(t, env.inserter.callCount())
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	env := setupRegister(t)
	id := env.newSession(t)

	env.do(t, "PUT", "/sessions/"+id+"/cart/customer", `{"customer_name":"Budi"}`)

	recorder, _ := env.do(t, "POST", "/sessions/"+id+"/checkout", "")
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Zero(t, env.inserter.callCount())
}

func TestCheckout_StoreFailureKeepsCartAndAllowsRetry(t *testing.T) {
	env := setupRegister(t)
	id := env.newSession(t)

	env.do(t, "POST", "/sessions/"+id+"/cart/items", `{"product_id":2}`)
	env.do(t, "PUT", "/sessions/"+id+"/cart/customer", `{"customer_name":"Budi"}`)
	env.inserter.setErr(errors.New("connection refused"))

	recorder, _ := env.do(t, "POST", "/sessions/"+id+"/checkout", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder, _ = env.do(t, "POST", "/sessions/"+id+"/checkout/confirm", "")
	require.Equal(t, http.StatusBadGateway, recorder.Code)

	// Cart survives the failed submission.
	_, dto := env.do(t, "GET", "/sessions/"+id+"/cart", "")
	require.Len(t, dto.Cart.Lines, 1)
	assert.Equal(t, "Budi", dto.Cart.CustomerName)

	// Retry with the same cart once the store is back.
	env.inserter.setErr(nil)
	recorder, _ = env.do(t, "POST", "/sessions/"+id+"/checkout", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	recorder, _ = env.do(t, "POST", "/sessions/"+id+"/checkout/confirm", "")
	require.Equal(t, http.StatusCreated, recorder.Code)

	_, dto = env.do(t, "GET", "/sessions/"+id+"/cart", "")
	assert.Empty(t, dto.Cart.Lines)
}

func TestCheckout_CancelReturnsToIdle(t *testing.T) {
	env := setupRegister(t)
	id := env.newSession(t)

	env.do(t, "POST", "/sessions/"+id+"/cart/items", `{"product_id":2}`)
	env.do(t, "PUT", "/sessions/"+id+"/cart/customer", `{"customer_name":"Budi"}`)

	recorder, _ := env.do(t, "POST", "/sessions/"+id+"/checkout", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder, _ = env.do(t, "POST", "/sessions/"+id+"/checkout/cancel", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	// Cart contents survive a cancel.
	_, dto := env.do(t, "GET", "/sessions/"+id+"/cart", "")
	assert.Len(t, dto.Cart.Lines, 1)
	assert.Zero(t, env.inserter.callCount())
}

func TestCheckout_ConfirmWithoutBegin(t *testing.T) {
	env := setupRegister(t)
	id := env.newSession(t)

	recorder, _ := env.do(t, "POST", "/sessions/"+id+"/checkout/confirm", "")
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestCheckout_FailedCounterTracksStoreFailuresOnly(t *testing.T) {
	env := setupRegister(t)
	id := env.newSession(t)
	failed := testMetrics().Checkouts.WithLabelValues("failed")

	// A conflict never reaches the store, so it is not a failed submission.
	before := testutil.ToFloat64(failed)
	recorder, _ := env.do(t, "POST", "/sessions/"+id+"/checkout/confirm", "")
	require.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, before, testutil.ToFloat64(failed))

	env.do(t, "POST", "/sessions/"+id+"/cart/items", `{"product_id":2}`)
	env.do(t, "PUT", "/sessions/"+id+"/cart/customer", `{"customer_name":"Budi"}`)
	env.inserter.setErr(errors.New("connection refused"))

	recorder, _ = env.do(t, "POST", "/sessions/"+id+"/checkout", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	recorder, _ = env.do(t, "POST", "/sessions/"+id+"/checkout/confirm", "")
	require.Equal(t, http.StatusBadGateway, recorder.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestCartMutation_RejectedDuringSubmission(t *testing.T) {
	env := setupRegister(t)
	id := env.newSession(t)

	env.do(t, "POST", "/sessions/"+id+"/cart/items", `{"product_id":2}`)
	env.do(t, "PUT", "/sessions/"+id+"/cart/customer", `{"customer_name":"Budi"}`)

	recorder, _ := env.do(t, "POST", "/sessions/"+id+"/checkout", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	block := make(chan struct{})
	env.inserter.setBlock(block)

	done := make(chan struct{})
	go func() {
		defer close(done)
		confirmRec, _ := env.do(t, "POST", "/sessions/"+id+"/checkout/confirm", "")
		assert.Equal(t, http.StatusCreated, confirmRec.Code)
	}()

	sess, err := env.sessions.Get(id)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return sess.Checkout.State() == checkout.StateSubmitting
	}, time.Second, time.Millisecond)

	// A line added now could never make it into the persisted record.
	recorder, _ = env.do(t, "POST", "/sessions/"+id+"/cart/items", `{"product_id":1}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)

	close(block)
	<-done

	_, dto := env.do(t, "GET", "/sessions/"+id+"/cart", "")
	assert.Empty(t, dto.Cart.Lines)
}
