package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	c := NoopCartogramHooks{}
	c.OnRunStart(ctx, 3, 120)
	c.OnIteration(ctx, 1, 0.25, time.Millisecond)
	c.OnRunComplete(ctx, 1, 0.25, "converged", time.Second, nil)

	r := NoopRenderHooks{}
	r.OnRenderStart(ctx, []string{"svg"})
	r.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	k := NoopCacheHooks{}
	k.OnCacheHit(ctx, "cartogram")
	k.OnCacheMiss(ctx, "artifact")
	k.OnCacheSet(ctx, "artifact", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/cartograms")
	h.OnResponse(ctx, "POST", "/v1/cartograms", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Cartogram().(NoopCartogramHooks); !ok {
		t.Error("Cartogram() should return NoopCartogramHooks by default")
	}
	if _, ok := Render().(NoopRenderHooks); !ok {
		t.Error("Render() should return NoopRenderHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customCartogram := &testCartogramHooks{}
	SetCartogramHooks(customCartogram)
	if Cartogram() != customCartogram {
		t.Error("SetCartogramHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Cartogram().(NoopCartogramHooks); !ok {
		t.Error("Reset() should restore NoopCartogramHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testCartogramHooks{}
	SetCartogramHooks(custom)
	SetCartogramHooks(nil)

	if Cartogram() != custom {
		t.Error("SetCartogramHooks(nil) should be ignored")
	}

	Reset()
}

func TestPrometheusHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewPrometheusHooks(reg)
	ctx := context.Background()

	h.OnIteration(ctx, 1, 0.5, time.Millisecond)
	h.OnIteration(ctx, 2, 0.2, time.Millisecond)
	h.OnRunComplete(ctx, 2, 0.2, "converged", time.Second, nil)
	h.OnRunComplete(ctx, 0, 0, "", time.Second, errors.New("boom"))
	h.OnCacheHit(ctx, "cartogram")
	h.OnCacheSet(ctx, "artifact", 512)
	h.OnResponse(ctx, "POST", "/v1/cartograms", 200, time.Millisecond)

	if got := testutil.ToFloat64(h.iterationsTotal); got != 2 {
		t.Errorf("iterations_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(h.averageError); got != 0.2 {
		t.Errorf("average_error = %v, want 0.2", got)
	}
	if got := testutil.ToFloat64(h.runsTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("runs_total{status=failed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.cacheBytes.WithLabelValues("artifact")); got != 512 {
		t.Errorf("cache_written_bytes_total{type=artifact} = %v, want 512", got)
	}

	expected := `
# HELP cartogram_cache_hits_total Cache hits by key type
# TYPE cartogram_cache_hits_total counter
cartogram_cache_hits_total{type="cartogram"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "cartogram_cache_hits_total"); err != nil {
		t.Errorf("GatherAndCompare: %v", err)
	}
}

// Test implementations
type testCartogramHooks struct{ NoopCartogramHooks }
type testCacheHooks struct{ NoopCacheHooks }
