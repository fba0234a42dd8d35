package prometheus

import (
	"testing"
	"time"

	"github.com/shareef-labs/jobsys/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("jobsys", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordTaskDuration(core.WorkerID(1), 250*time.Millisecond)
	exporter.RecordTaskPanic(core.WorkerID(1), "panic")
	exporter.RecordQueueDepth(core.WorkerID(1), "normal", 7)
	exporter.RecordStealAttempt(core.WorkerID(1), "success")
	exporter.RecordGC(core.WorkerID(1), 3)

	panicTotal := testutil.ToFloat64(exporter.taskPanicTotal.WithLabelValues("1"))
	if panicTotal != 1 {
		t.Fatalf("panic total = %v, want 1", panicTotal)
	}

	queueDepth := testutil.ToFloat64(exporter.queueDepth.WithLabelValues("1", "normal"))
	if queueDepth != 7 {
		t.Fatalf("queue depth = %v, want 7", queueDepth)
	}

	stealTotal := testutil.ToFloat64(exporter.stealAttemptTotal.WithLabelValues("1", "success"))
	if stealTotal != 1 {
		t.Fatalf("steal attempt total = %v, want 1", stealTotal)
	}

	gcTotal := testutil.ToFloat64(exporter.gcReclaimedTotal.WithLabelValues("1"))
	if gcTotal != 3 {
		t.Fatalf("gc reclaimed total = %v, want 3", gcTotal)
	}

	histCount, err := histogramSampleCount(exporter.taskDurationSeconds.WithLabelValues("1"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if histCount != 1 {
		t.Fatalf("duration sample count = %d, want 1", histCount)
	}
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("jobsys", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("first NewMetricsExporter failed: %v", err)
	}
	second, err := NewMetricsExporter("jobsys", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("second NewMetricsExporter failed: %v", err)
	}

	first.RecordTaskPanic(core.WorkerID(0), nil)
	second.RecordTaskPanic(core.WorkerID(0), nil)

	got := testutil.ToFloat64(first.taskPanicTotal.WithLabelValues("0"))
	if got != 2 {
		t.Fatalf("shared panic counter = %v, want 2", got)
	}
}

func TestMetricsExporter_NilReceiverIsNoop(t *testing.T) {
	var exporter *MetricsExporter
	exporter.RecordTaskDuration(core.WorkerID(0), time.Second)
	exporter.RecordTaskPanic(core.WorkerID(0), "x")
	exporter.RecordStealAttempt(core.WorkerID(0), "failed")
	exporter.RecordQueueDepth(core.WorkerID(0), "normal", 1)
	exporter.RecordGC(core.WorkerID(0), 1)
}

func histogramSampleCount(observer prom.Observer) (uint64, error) {
	collector, ok := observer.(prom.Collector)
	if !ok {
		return 0, nil
	}

	metricCh := make(chan prom.Metric, 1)
	collector.Collect(metricCh)
	close(metricCh)
	for metric := range metricCh {
		msg := &dto.Metric{}
		if err := metric.Write(msg); err != nil {
			return 0, err
		}
		if msg.Histogram != nil {
			return msg.Histogram.GetSampleCount(), nil
		}
	}
	return 0, nil
}
