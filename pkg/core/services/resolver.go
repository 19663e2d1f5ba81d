package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/classifier"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/composer"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/ports"
)

// LinkGetter is the read side the resolver needs.
type LinkGetter interface {
	GetLink(ctx context.Context, id string) (*domain.DeepLinkSpec, error)
}

// Resolver looks up a link, classifies the client and composes the redirect
// plan. The scan is handed to the event sink without waiting for the write.
type Resolver struct {
	links   LinkGetter
	events  ports.EventSink
	metrics ports.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewResolver(links LinkGetter, events ports.EventSink, metrics ports.Metrics, log *zap.Logger) *Resolver {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{links: links, events: events, metrics: metrics, log: log, now: time.Now}
}

// Resolve fails with domain.ErrNotFound for unknown ids and with
// domain.ErrStoreUnavailable when the store cannot be read; no event is
// recorded in either case.
func (r *Resolver) Resolve(ctx context.Context, req domain.ResolveRequest) (*domain.Resolution, error) {
	spec, err := r.links.GetLink(ctx, req.LinkID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			r.metrics.ResolutionFailed("not_found")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			r.metrics.ResolutionFailed("canceled")
		default:
			r.metrics.ResolutionFailed("store_unavailable")
			r.log.Error("Link lookup failed", zap.Error(err), zap.String("link_id", req.LinkID))
		}
		return nil, err
	}

	platform := classifier.Classify(req.UserAgent)
	plan, err := composer.Compose(spec, platform)
	if err != nil {
		r.metrics.ResolutionFailed("malformed_spec")
		r.log.Error("Stored link cannot be composed", zap.Error(err), zap.String("link_id", spec.ID))
		return nil, err
	}

	r.metrics.ResolutionServed(platform, plan.Kind())

	if req.Track && r.events != nil {
		r.record(spec.ID, platform, plan, req)
	}

	return &domain.Resolution{Spec: spec, Platform: platform, Plan: plan}, nil
}

func (r *Resolver) record(linkID string, platform domain.Platform, plan domain.RedirectPlan, req domain.ResolveRequest) {
	event := &domain.AnalyticsEvent{
		LinkID:    linkID,
		Timestamp: r.now().UTC(),
		Platform:  platform,
		UserAgent: req.UserAgent,
		Referrer:  req.Referrer,
		IPHash:    hashIP(req.RemoteAddr),
		Outcome:   plan.Outcome(),
	}

	if err := r.events.Submit(event); err != nil {
		r.log.Warn("Analytics event dropped", zap.Error(err), zap.String("link_id", linkID))
	}
}

// hashIP hashes the host part of a remote address.
func hashIP(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	sum := sha256.Sum256([]byte(host))
	return hex.EncodeToString(sum[:])
}

var _ ports.Resolver = (*Resolver)(nil)
