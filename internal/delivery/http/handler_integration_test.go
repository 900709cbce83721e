package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/feedpilot/backend/config"
	"github.com/feedpilot/backend/internal/domain"
	"github.com/feedpilot/backend/internal/infrastructure/metrics"
	"github.com/feedpilot/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const validProduct = `{"id": "10318257783094", "title": "T-shirt Premium en coton bio", "price": "29.99",
	"availability": "in stock", "brand": "Ma Marque Premium", "product_type": "vêtements", "tags": "premium, bio"}`

const invalidProduct = `{"id": "42", "title": "Short", "price": "-5", "availability": "maybe"}`

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"https://admin.shopify.com", "http://localhost:*"},
		},
		Cache: config.CacheConfig{Type: "memory", TTL: time.Hour},
		Optimizer: config.OptimizerConfig{
			Validation: config.ValidationRules{
				MinTitleLength:       10,
				MaxTitleLength:       150,
				MinDescriptionLength: 50,
				MaxDescriptionLength: 5000,
				PriceMin:             0.01,
				PriceMax:             999999.99,
			},
			Weights: config.ScoreWeights{BaseQuality: 40, Margin: 30, Recruitment: 30},
			Tiers:   config.TierThresholds{High: 80, Medium: 60},
			Category: config.CategoryConfig{
				DefaultCode: config.DefaultCategoryCode,
				CacheSize:   64,
				Phrases:     config.DefaultCategoryPhrases(),
				Keywords:    config.DefaultCategoryKeywords(),
			},
		},
	}
}

// setupTestRouter creates a router without feed service - feed endpoints return 501
func setupTestRouter() *gin.Engine {
	handler := NewHandler(nil, zerolog.Nop())
	return SetupRouter(testConfig(), handler, zerolog.Nop(), metrics.New())
}

// setupTestRouterWithService creates a router backed by a real feed service
func setupTestRouterWithService(t *testing.T, opts ...usecase.FeedServiceOption) *gin.Engine {
	t.Helper()
	cfg := testConfig()

	optimizer, err := usecase.NewBatchOptimizerFromConfig(cfg.Optimizer, nil, func() time.Time {
		return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("NewBatchOptimizerFromConfig() error = %v", err)
	}

	svc := usecase.NewFeedService(optimizer, usecase.NewProductParser("EUR"), newMockCacheRepository(),
		usecase.FeedServiceConfig{RunTTL: time.Hour}, zerolog.Nop(), opts...)

	return SetupRouter(cfg, NewHandler(svc, zerolog.Nop()), zerolog.Nop(), metrics.New())
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to unmarshal response %q: %v", w.Body.String(), err)
	}
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		w := doRequest(setupTestRouter(), "GET", "/health", "")

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		decodeJSON(t, w, &response)

		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "feedpilot-backend" {
			t.Errorf("service = %v, want feedpilot-backend", response["service"])
		}
		version, ok := response["version"].(string)
		if !ok || strings.TrimSpace(version) == "" {
			t.Errorf("version = %v, want non-empty string", response["version"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter()

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := doRequest(router, method, "/health", "")
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupTestRouter()
	doRequest(router, "GET", "/health", "")

	w := doRequest(router, "GET", "/metrics", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `feedpilot_http_requests_total{method="GET",route="/health",status="200"} 1`) {
		t.Errorf("metrics output does not count the health request:\n%s", w.Body.String())
	}
}

// TestFeedEndpointsWithoutService tests every feed endpoint answers 501 without a service
func TestFeedEndpointsWithoutService(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/categories/map"},
		{"POST", "/api/v1/products/validate"},
		{"POST", "/api/v1/products/score"},
		{"POST", "/api/v1/feeds/optimize"},
		{"POST", "/api/v1/feeds/sync"},
		{"GET", "/api/v1/runs/abc"},
		{"GET", "/api/v1/runs/abc/export"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			w := doRequest(setupTestRouter(), endpoint.method, endpoint.path, `{}`)

			if w.Code != http.StatusNotImplemented {
				t.Errorf("Status = %d, want %d", w.Code, http.StatusNotImplemented)
			}
			var response map[string]interface{}
			decodeJSON(t, w, &response)
			if msg, _ := response["error"].(string); !strings.Contains(msg, "not configured") {
				t.Errorf("error = %q, want to contain 'not configured'", msg)
			}
		})
	}
}

func TestMapCategoryEndpoint(t *testing.T) {
	router := setupTestRouterWithService(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantCat  string
	}{
		{"tags as string", `{"productType": "vêtements", "tags": "premium, bio"}`, http.StatusOK, "1604"},
		{"tags as array", `{"productType": "", "tags": ["robe", "lin"]}`, http.StatusOK, "2271"},
		{"empty input gets default", `{}`, http.StatusOK, config.DefaultCategoryCode},
		{"invalid tags", `{"tags": 12}`, http.StatusBadRequest, ""},
		{"invalid body", `not json`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "POST", "/api/v1/categories/map", tt.body)

			if w.Code != tt.wantCode {
				t.Fatalf("Status = %d, want %d (body %s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var got domain.CategoryAssignment
			decodeJSON(t, w, &got)
			if got.Code != tt.wantCat {
				t.Errorf("Code = %s, want %s", got.Code, tt.wantCat)
			}
		})
	}
}

func TestValidateProductEndpoint(t *testing.T) {
	router := setupTestRouterWithService(t)

	t.Run("valid product", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/products/validate", validProduct)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		var got domain.ValidationResult
		decodeJSON(t, w, &got)
		if !got.IsValid || len(got.Errors) != 0 {
			t.Errorf("result = %+v, want valid", got)
		}
	})

	t.Run("invalid product lists violations", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/products/validate", invalidProduct)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		var got domain.ValidationResult
		decodeJSON(t, w, &got)
		if got.IsValid || len(got.Errors) < 3 {
			t.Errorf("result = %+v, want at least 3 violations", got)
		}
	})

	t.Run("non object body", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/products/validate", `[1, 2]`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/products/validate", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestScoreProductEndpoint(t *testing.T) {
	router := setupTestRouterWithService(t)

	t.Run("scores product", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/products/score", validProduct)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		var got domain.ProductScore
		decodeJSON(t, w, &got)
		if got.Overall < 0 || got.Overall > 100 {
			t.Errorf("Overall = %d, want within [0, 100]", got.Overall)
		}
		if len(got.Subscores) != 3 {
			t.Errorf("Subscores = %v, want 3 entries", got.Subscores)
		}
	})

	t.Run("missing identifier", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/products/score", `{"title": "T-shirt sans identifiant"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		var response map[string]string
		decodeJSON(t, w, &response)
		if response["error"] != domain.ErrMissingIdentifier.Error() {
			t.Errorf("error = %q, want %q", response["error"], domain.ErrMissingIdentifier.Error())
		}
	})
}

func TestOptimizeAndFetchRun(t *testing.T) {
	router := setupTestRouterWithService(t)

	w := doRequest(router, "POST", "/api/v1/feeds/optimize",
		`{"products": [`+validProduct+`, `+invalidProduct+`, {"title": "no id"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}

	var run domain.OptimizationRun
	decodeJSON(t, w, &run)

	if run.ID == "" || run.Source != domain.SourceRequest {
		t.Errorf("run = %+v, want id and request source", run)
	}
	if len(run.Result.OptimizedProducts) != 2 {
		t.Fatalf("len(OptimizedProducts) = %d, want 2", len(run.Result.OptimizedProducts))
	}
	if run.Result.Stats.InvalidProducts != 1 || run.Result.Stats.SkippedProducts != 1 {
		t.Errorf("Stats = %+v, want 1 invalid and 1 skipped", run.Result.Stats)
	}
	if len(run.Result.Skipped) != 1 || run.Result.Skipped[0].Index != 2 {
		t.Errorf("Skipped = %+v, want the third record", run.Result.Skipped)
	}
	invalid := run.Result.OptimizedProducts[1]
	if invalid.Valid || invalid.CustomLabels[1] != domain.StatusInvalid {
		t.Errorf("invalid product = %+v, want flagged invalid", invalid)
	}

	t.Run("fetches stored run", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/runs/"+run.ID, "")
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		var stored domain.OptimizationRun
		decodeJSON(t, w, &stored)
		if stored.ID != run.ID || stored.Result.Stats != run.Result.Stats {
			t.Errorf("stored run = %+v, want %+v", stored, run)
		}
	})

	t.Run("exports supplemental feed", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/runs/"+run.ID+"/export", "")
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
			t.Errorf("Content-Type = %q, want text/csv", ct)
		}
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, run.ID) {
			t.Errorf("Content-Disposition = %q, want the run id", cd)
		}

		rows, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
		if err != nil {
			t.Fatalf("invalid csv: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("len(rows) = %d, want header + 2", len(rows))
		}
		if rows[0][0] != "id" || rows[0][1] != "google_product_category" || rows[0][6] != "custom_label_4" {
			t.Errorf("header = %v", rows[0])
		}
		if rows[1][0] != "10318257783094" || rows[1][1] != "1604" || rows[1][6] != "2025-03-14" {
			t.Errorf("first row = %v", rows[1])
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		for _, path := range []string{"/api/v1/runs/unknown", "/api/v1/runs/unknown/export"} {
			w := doRequest(router, "GET", path, "")
			if w.Code != http.StatusNotFound {
				t.Errorf("%s: Status = %d, want %d", path, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestOptimizeEndpoint_NonFiniteMetrics(t *testing.T) {
	router := setupTestRouterWithService(t)

	body := `{"products": [
		{"id": "m1", "title": "Robe en lin", "price": "49.00", "metrics": {"impressions": 900, "roas": 1e400, "ctr": "NaN"}},
		` + validProduct + `]}`
	w := doRequest(router, "POST", "/api/v1/feeds/optimize", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}

	var run domain.OptimizationRun
	decodeJSON(t, w, &run)
	if len(run.Result.OptimizedProducts) != 2 {
		t.Fatalf("len(OptimizedProducts) = %d, want 2", len(run.Result.OptimizedProducts))
	}
	metrics := run.Result.OptimizedProducts[0].Product.Metrics
	if metrics == nil || metrics.ROAS != 0 || metrics.CTR != 0 || metrics.Impressions != 900 {
		t.Errorf("Metrics = %+v, want non-finite values zeroed", metrics)
	}

	w = doRequest(router, "GET", "/api/v1/runs/"+run.ID, "")
	if w.Code != http.StatusOK {
		t.Errorf("GET run Status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestOptimizeEndpoint_BadRequests(t *testing.T) {
	router := setupTestRouterWithService(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing products", `{}`},
		{"products not an array", `{"products": "x"}`},
		{"invalid json", `{"products": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "POST", "/api/v1/feeds/optimize", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}

	t.Run("empty batch", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/feeds/optimize", `{"products": []}`)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		var run domain.OptimizationRun
		decodeJSON(t, w, &run)
		if run.Result.Stats.AverageScore != "0.0" || run.Result.OptimizedProducts == nil {
			t.Errorf("result = %+v, want empty batch stats", run.Result)
		}
	})
}

func TestSyncEndpoint(t *testing.T) {
	catalog := []domain.Product{
		{ID: "1", Title: "T-shirt Premium en coton bio", Price: domain.NewPrice("29.99", "EUR"), Availability: domain.AvailabilityInStock, ProductType: "vêtements"},
	}

	t.Run("returns 501 without provider", func(t *testing.T) {
		w := doRequest(setupTestRouterWithService(t), "POST", "/api/v1/feeds/sync", "")
		if w.Code != http.StatusNotImplemented {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotImplemented)
		}
	})

	t.Run("syncs without body", func(t *testing.T) {
		router := setupTestRouterWithService(t, usecase.WithFeedProvider(&mockFeedProvider{products: catalog}))

		w := doRequest(router, "POST", "/api/v1/feeds/sync", "")
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
		}
		var run domain.OptimizationRun
		decodeJSON(t, w, &run)
		if run.Source != "mock" || len(run.Result.OptimizedProducts) != 1 || run.Publish != nil {
			t.Errorf("run = %+v, want one unpublished product from mock", run)
		}
	})

	t.Run("publish without publisher", func(t *testing.T) {
		router := setupTestRouterWithService(t, usecase.WithFeedProvider(&mockFeedProvider{products: catalog}))

		w := doRequest(router, "POST", "/api/v1/feeds/sync", `{"publish": true}`)
		if w.Code != http.StatusNotImplemented {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotImplemented)
		}
	})

	t.Run("publishes", func(t *testing.T) {
		publisher := &mockFeedPublisher{}
		router := setupTestRouterWithService(t,
			usecase.WithFeedProvider(&mockFeedProvider{products: catalog}), usecase.WithFeedPublisher(publisher))

		w := doRequest(router, "POST", "/api/v1/feeds/sync", `{"publish": true}`)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		var run domain.OptimizationRun
		decodeJSON(t, w, &run)
		if run.Publish == nil || run.Publish.Updated != 1 {
			t.Errorf("Publish = %+v, want 1 updated", run.Publish)
		}
	})

	t.Run("provider failure", func(t *testing.T) {
		router := setupTestRouterWithService(t, usecase.WithFeedProvider(&mockFeedProvider{err: errors.New("timeout")}))

		w := doRequest(router, "POST", "/api/v1/feeds/sync", "")
		if w.Code != http.StatusBadGateway {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadGateway)
		}
	})

	t.Run("publish failure still returns the run", func(t *testing.T) {
		router := setupTestRouterWithService(t,
			usecase.WithFeedProvider(&mockFeedProvider{products: catalog}),
			usecase.WithFeedPublisher(&mockFeedPublisher{err: errors.New("quota exceeded")}))

		w := doRequest(router, "POST", "/api/v1/feeds/sync", `{"publish": true}`)
		if w.Code != http.StatusBadGateway {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusBadGateway)
		}
		var response struct {
			Error string                 `json:"error"`
			Run   domain.OptimizationRun `json:"run"`
		}
		decodeJSON(t, w, &response)
		if !strings.Contains(response.Error, "quota exceeded") || response.Run.ID == "" {
			t.Errorf("response = %+v, want error and run", response)
		}
	})
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for the Shopify admin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://admin.shopify.com")
		w := httptest.NewRecorder()

		setupTestRouter().ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://admin.shopify.com" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "https://admin.shopify.com")
		}
		if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("Access-Control-Allow-Credentials = %q, want %q", got, "true")
		}
	})

	t.Run("api endpoint has CORS for localhost", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/feeds/optimize", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()

		setupTestRouter().ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
		}
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	router := setupTestRouter()
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := doRequest(router, "GET", "/panic", "")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	var response map[string]string
	decodeJSON(t, w, &response)
	if response["error"] == "" {
		t.Error("expected a JSON error body")
	}
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	router := setupTestRouter()

	for _, path := range []string{"/api/feeds/optimize", "/feeds/optimize", "/api/v2/feeds/optimize"} {
		w := doRequest(router, "POST", path, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("Path %s: Status = %d, want %d", path, w.Code, http.StatusNotFound)
		}
	}
}

// TestJSONResponses tests that JSON endpoints answer with valid JSON
func TestJSONResponses(t *testing.T) {
	router := setupTestRouterWithService(t)

	endpoints := []struct {
		method string
		path   string
		body   string
	}{
		{"GET", "/health", ""},
		{"POST", "/api/v1/categories/map", `{}`},
		{"POST", "/api/v1/products/validate", validProduct},
		{"POST", "/api/v1/feeds/optimize", `{"products": []}`},
		{"GET", "/api/v1/runs/missing", ""},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			w := doRequest(router, endpoint.method, endpoint.path, endpoint.body)

			if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
				t.Errorf("Content-Type = %q, want %q", got, "application/json; charset=utf-8")
			}
			var response map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Errorf("Response should be valid JSON, got error: %v", err)
			}
		})
	}
}

// --- Mock implementations ---

// mockCacheRepository is an in-memory domain.CacheRepository
type mockCacheRepository struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCacheRepository() *mockCacheRepository {
	return &mockCacheRepository{data: make(map[string][]byte)}
}

func (m *mockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *mockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

type mockFeedProvider struct {
	products []domain.Product
	err      error
}

func (m *mockFeedProvider) Name() string { return "mock" }

func (m *mockFeedProvider) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return m.products, m.err
}

type mockFeedPublisher struct {
	err error
}

func (m *mockFeedPublisher) PublishProducts(ctx context.Context, products []domain.EnrichedProduct) (*domain.PublishResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.PublishResult{Submitted: len(products), Updated: len(products)}, nil
}
