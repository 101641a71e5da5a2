package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCountsCommitsByStatus(t *testing.T) {
	recorder := New("test")
	recorder.ObserveCommit("success", 7)
	recorder.ObserveCommit("success", 3)
	recorder.ObserveCommit("insufficient_stock", 0)

	if got := testutil.ToFloat64(recorder.commitsTotal.WithLabelValues("success")); got != 2 {
		t.Fatalf("success commits want 2 got %v", got)
	}
	if got := testutil.ToFloat64(recorder.commitUnitsTotal); got != 10 {
		t.Fatalf("shipped units want 10 got %v", got)
	}
}

func TestRecorderShortageGaugeClearsOnZero(t *testing.T) {
	recorder := New("test")
	recorder.SetShortage("Pão", 28)
	if got := testutil.ToFloat64(recorder.shortageUnits.WithLabelValues("Pão")); got != 28 {
		t.Fatalf("shortage want 28 got %v", got)
	}
	recorder.SetShortage("Pão", 0)
	if count := testutil.CollectAndCount(recorder.shortageUnits); count != 0 {
		t.Fatalf("shortage series should be removed, got %d", count)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var recorder *Recorder
	recorder.ObserveCommit("success", 1)
	recorder.ObserveBatch("success", "commit")
	recorder.SetShortage("x", 1)
	recorder.ObserveHTTP("GET", "/", "200", 0.1)
	if recorder.Handler() == nil {
		t.Fatalf("nil recorder should still expose a handler")
	}
}
