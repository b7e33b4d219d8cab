package stats

import (
	"time"

	"github.com/hashicorp/go-metrics"
	"go.uber.org/zap"

	"kassette.ai/sensedata-sync/utils/logger"
)

const serviceName = "sensedata-sync"

var sink *metrics.InmemSink

// Init keeps the run metrics in memory, Report logs them once the run is over.
func Init() {
	sink = metrics.NewInmemSink(10*time.Second, 60*time.Minute)
	config := metrics.DefaultConfig(serviceName)
	config.EnableHostname = false
	config.EnableRuntimeMetrics = false
	_, _ = metrics.NewGlobal(config, sink)
}

type KassetteStats struct {
	Name string
	Sink metrics.MetricSink
}

func NewStat(name string) *KassetteStats {
	var s metrics.MetricSink = &metrics.BlackholeSink{}
	if sink != nil {
		s = sink
	}
	return &KassetteStats{Name: name, Sink: s}
}

func (kStats *KassetteStats) Count(n int) {
	kStats.Sink.IncrCounter([]string{kStats.Name}, float32(n))
}

func (kStats *KassetteStats) Gauge(n int) {
	kStats.Sink.SetGauge([]string{kStats.Name}, float32(n))
}

// SendTiming records the milliseconds elapsed since start.
func (kStats *KassetteStats) SendTiming(start time.Time) {
	kStats.Sink.AddSample([]string{kStats.Name}, float32(time.Since(start).Milliseconds()))
}

// Report logs every counter and timer collected so far.
func Report() {
	if sink == nil {
		return
	}
	for _, interval := range sink.Data() {
		interval.RLock()
		for name, counter := range interval.Counters {
			logger.Info("stat", zap.String("name", name), zap.Float64("sum", counter.Sum), zap.Int("count", counter.Count))
		}
		for name, sample := range interval.Samples {
			logger.Info("stat", zap.String("name", name), zap.Float64("mean_ms", sample.AggregateSample.Mean()), zap.Float64("max_ms", sample.Max))
		}
		interval.RUnlock()
	}
}
