package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/adapters/render"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/ports"
)

const defaultMaxBodyBytes = 64 << 10

// Options tune the HTTP handler
type Options struct {
	BaseURL string
	// TrustProxy takes the client address from X-Forwarded-For. Enable only
	// behind a proxy that overwrites the header.
	TrustProxy   bool
	MaxBodyBytes int64
}

type HTTPHandler struct {
	links        ports.LinkService
	resolver     ports.Resolver
	renderer     *render.Renderer
	qr           ports.QREncoder
	baseURL      string
	trustProxy   bool
	maxBodyBytes int64
	log          *zap.Logger
}

func NewHTTPHandler(links ports.LinkService, resolver ports.Resolver, renderer *render.Renderer, qr ports.QREncoder, opts Options, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &HTTPHandler{
		links:        links,
		resolver:     resolver,
		renderer:     renderer,
		qr:           qr,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		trustProxy:   opts.TrustProxy,
		maxBodyBytes: opts.MaxBodyBytes,
		log:          log,
	}
}

// CreateLinkRequest payload
type CreateLinkRequest struct {
	AppScheme   string `json:"app_scheme"`
	AppPackage  string `json:"app_package"`
	FallbackURL string `json:"fallback_url"`
	CustomPath  string `json:"custom_path,omitempty"`
	Title       string `json:"title,omitempty"`
}

// CreateLinkResponse payload
type CreateLinkResponse struct {
	ID           string `json:"id"`
	ShortURL     string `json:"short_url"`
	QRCode       string `json:"qr_code"`
	AnalyticsURL string `json:"analytics_url"`
}

// Create Link
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	spec, err := h.links.CreateLink(r.Context(), domain.LinkInput{
		AppScheme:   req.AppScheme,
		AppPackage:  req.AppPackage,
		FallbackURL: req.FallbackURL,
		CustomPath:  req.CustomPath,
		Title:       req.Title,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.log.Error("Failed to create link", zap.Error(err))
			http.Error(w, "could not create link", http.StatusInternalServerError)
		}
		return
	}

	shortURL := h.baseURL + "/r/" + spec.ID
	qrCode, err := h.qr.DataURI(shortURL)
	if err != nil {
		h.log.Error("Failed to encode QR code", zap.Error(err), zap.String("link_id", spec.ID))
		http.Error(w, "could not encode QR code", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, CreateLinkResponse{
		ID:           spec.ID,
		ShortURL:     shortURL,
		QRCode:       qrCode,
		AnalyticsURL: h.baseURL + "/api/analytics/" + spec.ID,
	})
}

// Resolve is the smart redirect endpoint
func (h *HTTPHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	res, err := h.resolver.Resolve(r.Context(), domain.ResolveRequest{
		LinkID:     r.PathValue("id"),
		UserAgent:  r.UserAgent(),
		Referrer:   r.Referer(),
		RemoteAddr: h.clientAddr(r),
		Track:      r.URL.Query().Get("no_stat") == "",
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			render.NotFound(w)
		case errors.Is(err, domain.ErrStoreUnavailable):
			render.Unavailable(w, http.StatusServiceUnavailable)
		default:
			render.Unavailable(w, http.StatusInternalServerError)
		}
		return
	}

	if err := h.renderer.Render(w, r, res.Plan); err != nil {
		h.log.Error("Failed to render redirect", zap.Error(err), zap.String("link_id", res.Spec.ID))
		render.Unavailable(w, http.StatusInternalServerError)
	}
}

// Get Link by id
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	spec, err := h.links.GetLink(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

// Analytics for a Link
func (h *HTTPHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.links.GetAnalytics(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "deeplink-qr",
	})
}

func (h *HTTPHandler) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Link not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.log.Error("Store unavailable", zap.Error(err))
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	default:
		h.log.Error("Lookup failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientAddr prefers the first X-Forwarded-For hop when the proxy is trusted.
func (h *HTTPHandler) clientAddr(r *http.Request) string {
	if !h.trustProxy {
		return r.RemoteAddr
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	return r.RemoteAddr
}
