package metrics_test

import (
	"testing"
	"time"

	"github.com/roleledger/node/foundation/blockchain/metrics"
)

func Test_Drain(t *testing.T) {
	m := metrics.New()

	m.Record(metrics.BlockMined, 10*time.Millisecond)
	m.Record(metrics.BlockMined, 30*time.Millisecond)
	m.Record(metrics.ChainSynced, 5*time.Millisecond)

	report := m.Drain()

	if avg := report["blockMinedTime_avg"]; avg != 20 {
		t.Fatalf("Should average the samples to 20ms, got %v", avg)
	}
	if count := report["blockMinedTime_count"]; count != 2 {
		t.Fatalf("Should count two samples, got %v", count)
	}
	if avg := report["chainSyncedTime_avg"]; avg != 5 {
		t.Fatalf("Should average a single sample to 5ms, got %v", avg)
	}

	if report := m.Drain(); len(report) != 0 {
		t.Fatalf("Should clear the samples on read, got %v", report)
	}
}
