package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.BlockEnqueued("mic")
	m.BlockEnqueued("mic")
	m.BlockEvicted("app")
	m.BlockMerged("mixed")
	m.ChunkSent(10240, 3*time.Millisecond)
	m.ChunkSendFailed()
	m.ChunkSkipped("empty")

	if got := testutil.ToFloat64(m.BlocksEnqueued.WithLabelValues("mic")); got != 2 {
		t.Errorf("blocks_enqueued{mic} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.BlocksEvicted.WithLabelValues("app")); got != 1 {
		t.Errorf("blocks_evicted{app} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ChunksSent); got != 1 {
		t.Errorf("chunks_sent = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ChunkSendFailures); got != 1 {
		t.Errorf("chunk_send_failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ChunksSkipped.WithLabelValues("empty")); got != 1 {
		t.Errorf("chunk_ticks_skipped{empty} = %v, want 1", got)
	}
}

func TestMetrics_SessionStateOneHot(t *testing.T) {
	m := New()
	m.SessionState("Streaming")

	for _, s := range sessionStates {
		want := 0.0
		if s == "Streaming" {
			want = 1
		}
		if got := testutil.ToFloat64(m.State.WithLabelValues(s)); got != want {
			t.Errorf("session_state{%s} = %v, want %v", s, got, want)
		}
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ChunkSent(4096, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "audioship_chunks_sent_total 1") {
		t.Errorf("metrics output missing chunks_sent_total:\n%s", body)
	}
}
