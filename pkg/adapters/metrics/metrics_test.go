package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
)

func TestCollectors(t *testing.T) {
	c := New()

	c.ResolutionServed(domain.PlatformAndroid, "android_intent")
	c.ResolutionServed(domain.PlatformAndroid, "android_intent")
	c.ResolutionFailed("not_found")
	c.EventRecorded()
	c.EventDropped("queue_full")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.resolutions.WithLabelValues("android", "android_intent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failures.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.recorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dropped.WithLabelValues("queue_full")))

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `deeplink_resolutions_total{plan="android_intent",platform="android"} 2`)
}
