package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yogitridirgantara/POS-DR/internal/domain"
	"github.com/yogitridirgantara/POS-DR/internal/repository"
	"github.com/yogitridirgantara/POS-DR/internal/service"
)

type catalogMock struct {
	products []*domain.Product
	err      error
}

func (m *catalogMock) ListProducts(context.Context) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *catalogMock) ListProductsByCategory(_ context.Context, category domain.Category) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var filtered []*domain.Product
	for _, p := range m.products {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (m *catalogMock) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *catalogMock) CreateProduct(_ context.Context, p *domain.Product) error {
	if m.err != nil {
		return m.err
	}
	p.ID = int64(len(m.products) + 1)
	m.products = append(m.products, p)
	return nil
}

func (m *catalogMock) UpdateProduct(_ context.Context, p *domain.Product) error {
	if m.err != nil {
		return m.err
	}
	for i := range m.products {
		if m.products[i].ID == p.ID {
			m.products[i] = p
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (m *catalogMock) DeleteProduct(_ context.Context, id int64) error {
	if m.err != nil {
		return m.err
	}
	for i, p := range m.products {
		if p.ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func menu() []*domain.Product {
	return []*domain.Product{
		{ID: 1, Name: "Es Teh", Category: domain.CategoryBeverage, Price: 8_000},
		{ID: 2, Name: "Nasi Goreng", Category: domain.CategoryFood, Price: 25_000},
	}
}

func productRouter(catalog Catalog) http.Handler {
	handler := NewProductHandler(catalog, 5*time.Second)
	r := chi.NewRouter()
	r.Get("/products", handler.List)
	r.Post("/products", handler.Create)
	r.Get("/products/{product_id}", handler.Get)
	r.Put("/products/{product_id}", handler.Update)
	r.Delete("/products/{product_id}", handler.Delete)
	return r
}

func TestListProducts_Success(t *testing.T) {
	router := productRouter(&catalogMock{products: menu()})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/products", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	var got []*domain.Product
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
	assert.Len(t, got, 2)
}

func TestListProducts_CategoryFilter(t *testing.T) {
	router := productRouter(&catalogMock{products: menu()})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/products?category=food", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	var got []*domain.Product
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "Nasi Goreng", got[0].Name)
}

func TestListProducts_InvalidCategory(t *testing.T) {
	router := productRouter(&catalogMock{products: menu()})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/products?category=dessert", nil))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCreateProduct_Success(t *testing.T) {
	mock := &catalogMock{}
	router := productRouter(mock)

	body := `{"product":"Sate Ayam","category":"food","price":30000}`
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/products", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Len(t, mock.products, 1)
}

func TestCreateProduct_ValidationErrorMapsTo400(t *testing.T) {
	router := productRouter(&catalogMock{err: service.ErrInvalidPrice})

	body := `{"product":"Sate Ayam","category":"food","price":-1}`
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/products", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "invalid_product", resp.Code)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	router := productRouter(&catalogMock{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("DELETE", "/products/42", nil))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestGetProduct_InvalidID(t *testing.T) {
	router := productRouter(&catalogMock{products: menu()})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/products/abc", nil))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
