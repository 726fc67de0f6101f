package sched

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	SchedulerStatsName = "xbst/sched"
)

type schedulerStats struct {
	pendingCounter atomic.Int64
	pending        metric.Int64ObservableGauge
	pushed         metric.Int64Counter
	steps          metric.Int64Counter
	finished       metric.Int64Counter
	failed         metric.Int64Counter
}

func kindAttr(kind Kind) metric.MeasurementOption {
	return metric.WithAttributeSet(attribute.NewSet(
		attribute.String("xbst.task.kind", kind.String()),
	))
}

func (stats *schedulerStats) RecordPending(count int) {
	if stats == nil {
		return
	}
	stats.pendingCounter.Store(int64(count))
}

func (stats *schedulerStats) IncreasePushedCount(kind Kind) {
	if stats == nil {
		return
	}
	stats.pushed.Add(context.Background(), 1, kindAttr(kind))
}

func (stats *schedulerStats) IncreaseStepCount(kind Kind) {
	if stats == nil {
		return
	}
	stats.steps.Add(context.Background(), 1, kindAttr(kind))
}

func (stats *schedulerStats) IncreaseFinishedCount(kind Kind, err error) {
	if stats == nil {
		return
	}
	stats.finished.Add(context.Background(), 1, kindAttr(kind))
	if err != nil {
		stats.failed.Add(context.Background(), 1, kindAttr(kind))
	}
}

func newSchedulerStats(name string) *schedulerStats {
	meterName := SchedulerStatsName
	if len(name) > 0 {
		meterName = fmt.Sprintf("%s/%s", SchedulerStatsName, name)
	}
	meter := otel.Meter(meterName)
	stats := &schedulerStats{
		pushed: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xbst.task.pushed.count",
			metric.WithDescription("The number of tasks pushed onto the scheduler."),
		)),
		steps: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xbst.task.step.count",
			metric.WithDescription("The number of steps advanced by the scheduler."),
		)),
		finished: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xbst.task.finished.count",
			metric.WithDescription("The number of tasks popped from the scheduler."),
		)),
		failed: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xbst.task.failed.count",
			metric.WithDescription("The number of tasks finished with an error."),
		)),
	}
	stats.pending = lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
		"xbst.task.pending",
		metric.WithDescription("The number of tasks waiting on the scheduler stack."),
		metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
			ob.Observe(stats.pendingCounter.Load())
			return nil
		}),
	))
	return stats
}
