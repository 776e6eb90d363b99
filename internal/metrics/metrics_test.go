package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(superlikeTransfers.WithLabelValues(ResultInsufficient))
	Transfer(ResultInsufficient)
	Transfer(ResultInsufficient)
	if got := testutil.ToFloat64(superlikeTransfers.WithLabelValues(ResultInsufficient)); got != before+2 {
		t.Fatalf("expected %v, got %v", before+2, got)
	}

	before = testutil.ToFloat64(superlikeTopUps.WithLabelValues("expired"))
	TopUp("expired", 3)
	if got := testutil.ToFloat64(superlikeTopUps.WithLabelValues("expired")); got != before+3 {
		t.Fatalf("expected %v, got %v", before+3, got)
	}

	before = testutil.ToFloat64(httpRequests.WithLabelValues("GET", "404"))
	HTTPRequest("GET", 404)
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "404")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}

func TestObserveGateway(t *testing.T) {
	ObserveGateway(time.Now(), nil)
	ObserveGateway(time.Now(), errors.New("timeout"))
	if n := testutil.CollectAndCount(gatewayDuration); n != 2 {
		t.Fatalf("expected 2 series, got %d", n)
	}
}
