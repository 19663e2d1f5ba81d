package ports

import (
	"context"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
)

// LinkRepository defines storage operations for deep links and their scans
type LinkRepository interface {
	Create(ctx context.Context, spec *domain.DeepLinkSpec) error
	GetByID(ctx context.Context, id string) (*domain.DeepLinkSpec, error) // nil, nil when absent
	Dump(ctx context.Context) ([]domain.DeepLinkSpec, error)              // For migration

	// Analytics
	RecordEvent(ctx context.Context, event *domain.AnalyticsEvent) error
	GetAnalytics(ctx context.Context, linkID string, recent int) (*domain.LinkAnalytics, error)
}

// EventWriter is the append side of the analytics log
type EventWriter interface {
	RecordEvent(ctx context.Context, event *domain.AnalyticsEvent) error
}

// EventSink accepts analytics events without blocking the caller
type EventSink interface {
	Submit(event *domain.AnalyticsEvent) error
}

// LinkService defines the business logic for link records
type LinkService interface {
	CreateLink(ctx context.Context, input domain.LinkInput) (*domain.DeepLinkSpec, error)
	GetLink(ctx context.Context, id string) (*domain.DeepLinkSpec, error)
	GetAnalytics(ctx context.Context, id string) (*domain.LinkAnalytics, error)
}

// Resolver turns a scan into a redirect plan
type Resolver interface {
	Resolve(ctx context.Context, req domain.ResolveRequest) (*domain.Resolution, error)
}

// QREncoder renders content as an image data URI
type QREncoder interface {
	DataURI(content string) (string, error)
}

// Metrics receives service-level counters
type Metrics interface {
	ResolutionServed(platform domain.Platform, plan string)
	ResolutionFailed(reason string)
	EventRecorded()
	EventDropped(reason string)
}
