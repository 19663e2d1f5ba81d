package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/ports"
)

const (
	idLength      = 8
	maxIDAttempts = 5
	recentScans   = 50
	untitledTitle = "Untitled Link"

	// lookupTimeout bounds a shared store read, which outlives any one caller.
	lookupTimeout = 5 * time.Second
)

type LinkService struct {
	repo ports.LinkRepository
	log  *zap.Logger
	sf   singleflight.Group
	now  func() time.Time
}

func NewLinkService(repo ports.LinkRepository, log *zap.Logger) *LinkService {
	if log == nil {
		log = zap.NewNop()
	}
	return &LinkService{repo: repo, log: log, now: time.Now}
}

// CreateLink validates input and stores a new, immutable spec.
func (s *LinkService) CreateLink(ctx context.Context, input domain.LinkInput) (*domain.DeepLinkSpec, error) {
	spec := &domain.DeepLinkSpec{
		AppScheme:   input.AppScheme,
		AppPackage:  input.AppPackage,
		FallbackURL: input.FallbackURL,
		CustomPath:  strings.TrimSpace(input.CustomPath),
		Title:       strings.TrimSpace(input.Title),
		CreatedAt:   s.now().UTC(),
	}
	spec.DeepLink = DeepLinkFor(spec)
	if spec.Title == "" {
		spec.Title = untitledTitle
	}

	if err := ValidateSpec(spec); err != nil {
		return nil, err
	}

	id, err := s.newID(ctx)
	if err != nil {
		return nil, err
	}
	spec.ID = id

	if err := s.repo.Create(ctx, spec); err != nil {
		return nil, domain.StoreUnavailable(err, "create link")
	}

	s.log.Info("Link created",
		zap.String("link_id", spec.ID),
		zap.String("app_package", spec.AppPackage))
	return spec, nil
}

// GetLink returns the spec for id. Concurrent lookups of the same id share a
// single store round trip, which runs detached from every caller's context: a
// caller that goes away only stops waiting for it.
func (s *LinkService) GetLink(ctx context.Context, id string) (*domain.DeepLinkSpec, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}

	ch := s.sf.DoChan(id, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return s.repo.GetByID(lookupCtx, id)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "get link %s", id)
	case res = <-ch:
	}

	if res.Err != nil {
		return nil, domain.StoreUnavailable(res.Err, "get link %s", id)
	}

	spec, _ := res.Val.(*domain.DeepLinkSpec)
	if spec == nil {
		return nil, domain.ErrNotFound
	}
	return spec, nil
}

func (s *LinkService) GetAnalytics(ctx context.Context, id string) (*domain.LinkAnalytics, error) {
	if _, err := s.GetLink(ctx, id); err != nil {
		return nil, err
	}

	stats, err := s.repo.GetAnalytics(ctx, id, recentScans)
	if err != nil {
		return nil, domain.StoreUnavailable(err, "analytics for %s", id)
	}
	return stats, nil
}

// newID derives a short id from a random UUID and retries on collision.
func (s *LinkService) newID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]

		existing, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return "", domain.StoreUnavailable(err, "check id")
		}
		if existing == nil {
			return id, nil
		}
		s.log.Warn("Link id collision", zap.String("link_id", id), zap.Int("attempt", attempt+1))
	}
	return "", errors.New("could not allocate a unique link id")
}

var _ ports.LinkService = (*LinkService)(nil)
