package observability

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	once sync.Once
)

func meterName(kind, name string) string {
	builder := &strings.Builder{}
	builder.WriteString("xbst/")
	builder.WriteString(kind)
	builder.WriteString("/")
	if len(strings.TrimSpace(name)) > 0 {
		builder.WriteString(name)
	} else {
		builder.WriteString("default")
	}
	return builder.String()
}

type appStats struct {
	ctx              context.Context
	shutdownCallback func(ctx context.Context) error
	goroutines       metric.Int64ObservableUpDownCounter
	processes        metric.Int64ObservableUpDownCounter
}

func (stats *appStats) waitForShutdown() {
	if stats == nil || stats.shutdownCallback == nil {
		return
	}
	go func() {
		<-stats.ctx.Done()
		_ = stats.shutdownCallback(context.Background())
	}()
}

// InitAppStats registers the process level instruments once. shutdown is
// invoked when ctx is done.
func InitAppStats(ctx context.Context, name string, shutdown func(ctx context.Context) error) {
	once.Do(func() {
		name = meterName("app", name)
		meter := otel.Meter(name, metric.WithInstrumentationVersion(otelruntime.Version()))
		stats := &appStats{
			ctx:              ctx,
			shutdownCallback: shutdown,
			goroutines: lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
				"app.core.goroutines",
				metric.WithDescription(`The application goroutines' info.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.NumGoroutine()))
					return nil
				}),
			)),
			processes: lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
				"app.core.processes",
				metric.WithDescription(`The application processes' info.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.GOMAXPROCS(0)))
					return nil
				}),
			)),
		}
		_ = otelruntime.Start()
		stats.waitForShutdown()
	})
}

// TreeStats publishes the shape of a tree. The tree itself is not safe
// for concurrent use, so its owner records snapshots and the exporter
// only reads the atomics.
type TreeStats struct {
	nodes  atomic.Int64
	height atomic.Int64
	leaves atomic.Int64
}

func (stats *TreeStats) Record(nodes int64, height, leaves int) {
	if stats == nil {
		return
	}
	stats.nodes.Store(nodes)
	stats.height.Store(int64(height))
	stats.leaves.Store(int64(leaves))
}

func NewTreeStats(name string) *TreeStats {
	stats := &TreeStats{}
	meter := otel.Meter(meterName("tree", name))
	gauge := func(name, desc string, src *atomic.Int64) {
		_ = lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
			name,
			metric.WithDescription(desc),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(src.Load())
				return nil
			}),
		))
	}
	gauge("xbst.tree.nodes", "The number of live nodes in the tree.", &stats.nodes)
	gauge("xbst.tree.height", "The number of levels of the tree.", &stats.height)
	gauge("xbst.tree.leaves", "The number of leaves of the tree.", &stats.leaves)
	return stats
}
