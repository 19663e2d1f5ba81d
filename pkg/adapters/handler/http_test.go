package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/adapters/render"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
)

// MockLinkService is a mock implementation of ports.LinkService
type MockLinkService struct {
	mock.Mock
}

func (m *MockLinkService) CreateLink(ctx context.Context, input domain.LinkInput) (*domain.DeepLinkSpec, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeepLinkSpec), args.Error(1)
}

func (m *MockLinkService) GetLink(ctx context.Context, id string) (*domain.DeepLinkSpec, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeepLinkSpec), args.Error(1)
}

func (m *MockLinkService) GetAnalytics(ctx context.Context, id string) (*domain.LinkAnalytics, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkAnalytics), args.Error(1)
}

// MockResolver is a mock implementation of ports.Resolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, req domain.ResolveRequest) (*domain.Resolution, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resolution), args.Error(1)
}

type stubQR struct{ err error }

func (s stubQR) DataURI(content string) (string, error) {
	return "data:image/png;base64,UVI=", s.err
}

func newTestHandler(links *MockLinkService, resolver *MockResolver) *HTTPHandler {
	return newTestHandlerWith(links, resolver, Options{BaseURL: "https://qr.example.com/", TrustProxy: true})
}

func newTestHandlerWith(links *MockLinkService, resolver *MockResolver, opts Options) *HTTPHandler {
	return NewHTTPHandler(links, resolver, render.New(0), stubQR{}, opts, zap.NewNop())
}

func TestHandler_Create(t *testing.T) {
	links := new(MockLinkService)
	h := newTestHandler(links, new(MockResolver))

	input := domain.LinkInput{
		AppScheme:   "myapp",
		AppPackage:  "com.example.app",
		FallbackURL: "https://example.com",
		CustomPath:  "profile/1",
	}
	links.On("CreateLink", mock.Anything, input).Return(&domain.DeepLinkSpec{ID: "abc12345"}, nil)

	body, _ := json.Marshal(map[string]string{
		"app_scheme":   "myapp",
		"app_package":  "com.example.app",
		"fallback_url": "https://example.com",
		"custom_path":  "profile/1",
	})
	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/api/links", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp CreateLinkResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "abc12345", resp.ID)
	assert.Equal(t, "https://qr.example.com/r/abc12345", resp.ShortURL)
	assert.Equal(t, "https://qr.example.com/api/analytics/abc12345", resp.AnalyticsURL)
	assert.True(t, strings.HasPrefix(resp.QRCode, "data:image/png;base64,"))
}

func TestHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		want       int
	}{
		{"bad json", "{", nil, http.StatusBadRequest},
		{"invalid input", `{"app_scheme":""}`, errors.Wrap(domain.ErrInvalidInput, "app_scheme"), http.StatusBadRequest},
		{"malformed spec", `{"app_scheme":"x"}`, errors.Wrap(domain.ErrMalformedSpec, "package"), http.StatusInternalServerError},
		{"store down", `{"app_scheme":"x"}`, errors.Wrap(domain.ErrStoreUnavailable, "io"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := new(MockLinkService)
			if tt.serviceErr != nil {
				links.On("CreateLink", mock.Anything, mock.Anything).Return(nil, tt.serviceErr)
			}
			rr := httptest.NewRecorder()
			newTestHandler(links, new(MockResolver)).Create(rr, httptest.NewRequest(http.MethodPost, "/api/links", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestHandler_Resolve(t *testing.T) {
	spec := &domain.DeepLinkSpec{ID: "abc12345"}
	tests := []struct {
		name         string
		path         string
		result       *domain.Resolution
		err          error
		wantStatus   int
		wantLocation string
		wantTrack    bool
	}{
		{
			name:         "android intent",
			path:         "/r/abc12345",
			result:       &domain.Resolution{Spec: spec, Plan: domain.AndroidIntentPage{IntentURI: "intent://p#Intent;scheme=myapp;end"}},
			wantStatus:   http.StatusFound,
			wantLocation: "intent://p#Intent;scheme=myapp;end",
			wantTrack:    true,
		},
		{
			name:         "desktop without stats",
			path:         "/r/abc12345?no_stat=1",
			result:       &domain.Resolution{Spec: spec, Plan: domain.DirectRedirect{URL: "https://example.com"}},
			wantStatus:   http.StatusFound,
			wantLocation: "https://example.com",
		},
		{
			name:       "iOS page",
			path:       "/r/abc12345",
			result:     &domain.Resolution{Spec: spec, Plan: domain.IOSRacePage{AppURI: "myapp://p", FallbackURL: "https://example.com"}},
			wantStatus: http.StatusOK,
			wantTrack:  true,
		},
		{name: "not found", path: "/r/abc12345", err: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantTrack: true},
		{name: "store down", path: "/r/abc12345", err: errors.Wrap(domain.ErrStoreUnavailable, "io"), wantStatus: http.StatusServiceUnavailable, wantTrack: true},
		{name: "malformed", path: "/r/abc12345", err: domain.ErrMalformedSpec, wantStatus: http.StatusInternalServerError, wantTrack: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(MockResolver)
			resolver.On("Resolve", mock.Anything, mock.MatchedBy(func(req domain.ResolveRequest) bool {
				return req.LinkID == "abc12345" && req.UserAgent == "agent/1.0" && req.Track == tt.wantTrack &&
					req.RemoteAddr == "198.51.100.4"
			})).Return(tt.result, tt.err)

			mux := http.NewServeMux()
			mux.HandleFunc("GET /r/{id}", newTestHandler(new(MockLinkService), resolver).Resolve)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("User-Agent", "agent/1.0")
			req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantLocation, rr.Header().Get("Location"))
			resolver.AssertExpectations(t)
		})
	}
}

func TestHandler_GetAndAnalytics(t *testing.T) {
	links := new(MockLinkService)
	links.On("GetLink", mock.Anything, "abc12345").Return(&domain.DeepLinkSpec{ID: "abc12345", AppScheme: "myapp"}, nil)
	links.On("GetLink", mock.Anything, "missing").Return(nil, domain.ErrNotFound)
	links.On("GetAnalytics", mock.Anything, "abc12345").Return(&domain.LinkAnalytics{LinkID: "abc12345", TotalScans: 7}, nil)
	links.On("GetAnalytics", mock.Anything, "down").Return(nil, errors.Wrap(domain.ErrStoreUnavailable, "io"))

	h := newTestHandler(links, new(MockResolver))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/links/{id}", h.Get)
	mux.HandleFunc("GET /api/analytics/{id}", h.Analytics)

	get := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	rr := get("/api/links/abc12345")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"app_scheme":"myapp"`)

	assert.Equal(t, http.StatusNotFound, get("/api/links/missing").Code)

	rr = get("/api/analytics/abc12345")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"total_scans":7`)

	assert.Equal(t, http.StatusServiceUnavailable, get("/api/analytics/down").Code)
}

func TestClientAddr(t *testing.T) {
	trusted := newTestHandlerWith(nil, nil, Options{TrustProxy: true})
	direct := newTestHandlerWith(nil, nil, Options{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1:1234", trusted.clientAddr(req))

	req.Header.Set("X-Forwarded-For", "not-an-ip")
	assert.Equal(t, "192.0.2.1:1234", trusted.clientAddr(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", trusted.clientAddr(req))

	// Without a trusted proxy the header is client-controlled and ignored.
	assert.Equal(t, "192.0.2.1:1234", direct.clientAddr(req))
}

func TestHandler_Resolve_IgnoresForwardedForByDefault(t *testing.T) {
	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, mock.MatchedBy(func(req domain.ResolveRequest) bool {
		return req.RemoteAddr == "192.0.2.1:1234"
	})).Return(&domain.Resolution{Plan: domain.DirectRedirect{URL: "https://example.com"}}, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /r/{id}", newTestHandlerWith(new(MockLinkService), resolver, Options{}).Resolve)

	req := httptest.NewRequest(http.MethodGet, "/r/abc12345", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusFound, rr.Code)
	resolver.AssertExpectations(t)
}

func TestHandler_Create_BodyTooLarge(t *testing.T) {
	links := new(MockLinkService)
	h := newTestHandlerWith(links, new(MockResolver), Options{MaxBodyBytes: 128})

	body := `{"app_scheme":"myapp","title":"` + strings.Repeat("x", 512) + `"}`
	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/api/links", strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	links.AssertNotCalled(t, "CreateLink", mock.Anything, mock.Anything)
}

func TestHandler_Health(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(new(MockLinkService), new(MockResolver)).Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"deeplink-qr"}`, rr.Body.String())
}
