// Package monitoring samples host metrics with gopsutil, exposes them as
// Prometheus gauges and evaluates alert rules against each sample.
package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/monitoring"
	"github.com/crm/backend/internal/infrastructure/config"
)

// SampleFunc produces one reading of the system counters.
type SampleFunc func(ctx context.Context) (monitoring.Sample, error)

// GopsutilSampler returns a SampleFunc backed by gopsutil. diskPath is the
// mount point measured for disk usage.
func GopsutilSampler(diskPath string) SampleFunc {
	return func(ctx context.Context) (monitoring.Sample, error) {
		s := monitoring.Sample{CollectedAt: time.Now()}

		cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
		if err != nil {
			return s, fmt.Errorf("cpu sample: %w", err)
		}
		if len(cpuPercents) > 0 {
			s.CPUPercent = cpuPercents[0]
		}

		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return s, fmt.Errorf("memory sample: %w", err)
		}
		s.MemoryUsed = vm.Used
		s.MemoryTotal = vm.Total
		s.MemoryPercent = vm.UsedPercent

		du, err := disk.UsageWithContext(ctx, diskPath)
		if err != nil {
			return s, fmt.Errorf("disk sample: %w", err)
		}
		s.DiskUsed = du.Used
		s.DiskTotal = du.Total
		s.DiskPercent = du.UsedPercent

		s.Goroutines = runtime.NumGoroutine()
		return s, nil
	}
}

// gauges holds the Prometheus instruments updated on every sample.
type gauges struct {
	cpuPercent    prometheus.Gauge
	memoryUsed    prometheus.Gauge
	memoryPercent prometheus.Gauge
	diskUsed      prometheus.Gauge
	diskPercent   prometheus.Gauge
	goroutines    prometheus.Gauge
}

func newGauges(reg prometheus.Registerer) *gauges {
	g := &gauges{
		cpuPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "system_cpu_percent", Help: "Host CPU usage percentage.",
		}),
		memoryUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "system_memory_used_bytes", Help: "Host memory in use.",
		}),
		memoryPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "system_memory_percent", Help: "Host memory usage percentage.",
		}),
		diskUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "system_disk_used_bytes", Help: "Disk space in use on the sampled mount.",
		}),
		diskPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "system_disk_percent", Help: "Disk usage percentage on the sampled mount.",
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "system_goroutines", Help: "Number of goroutines in the process.",
		}),
	}
	if reg != nil {
		reg.MustRegister(g.cpuPercent, g.memoryUsed, g.memoryPercent, g.diskUsed, g.diskPercent, g.goroutines)
	}
	return g
}

func (g *gauges) set(s monitoring.Sample) {
	g.cpuPercent.Set(s.CPUPercent)
	g.memoryUsed.Set(float64(s.MemoryUsed))
	g.memoryPercent.Set(s.MemoryPercent)
	g.diskUsed.Set(float64(s.DiskUsed))
	g.diskPercent.Set(s.DiskPercent)
	g.goroutines.Set(float64(s.Goroutines))
}

// Collector periodically samples the host and evaluates alert rules. The
// latest sample is kept in memory for the monitoring API.
type Collector struct {
	cfg     config.MonitoringConfig
	sample  SampleFunc
	alerts  monitoring.AlertRepository
	gauges  *gauges
	logger  *zap.Logger
	mu      sync.RWMutex
	latest  *monitoring.Sample
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewCollector creates a collector. reg may be nil when Prometheus export is
// not wanted, for example in tests.
func NewCollector(cfg config.MonitoringConfig, sample SampleFunc, alerts monitoring.AlertRepository, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	return &Collector{
		cfg:    cfg,
		sample: sample,
		alerts: alerts,
		gauges: newGauges(reg),
		logger: logger,
	}
}

// Start launches the sampling loop. It is a no-op when already running.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(1)
	go c.run(ctx)

	c.logger.Info("Monitoring collector started",
		zap.Duration("sample_interval", c.cfg.SampleInterval),
		zap.Bool("alerts_enabled", c.cfg.AlertsEnabled),
	)
}

// Stop terminates the sampling loop and waits for it to exit.
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
	c.logger.Info("Monitoring collector stopped")
}

func (c *Collector) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.SampleInterval)
	defer ticker.Stop()

	var lastEval time.Time
	c.collect(ctx, &lastEval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collect(ctx, &lastEval)
		}
	}
}

func (c *Collector) collect(ctx context.Context, lastEval *time.Time) {
	s, err := c.sample(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("Failed to sample system metrics", zap.Error(err))
		}
		return
	}

	c.mu.Lock()
	c.latest = &s
	c.mu.Unlock()

	c.gauges.set(s)

	if c.cfg.AlertsEnabled && time.Since(*lastEval) >= c.cfg.AlertEvalWindow {
		*lastEval = time.Now()
		c.Evaluate(ctx, s)
	}
}

// Latest returns the most recent sample, or false when none has been taken.
func (c *Collector) Latest() (monitoring.Sample, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return monitoring.Sample{}, false
	}
	return *c.latest, true
}

// Evaluate tests every enabled rule against the sample. A breached rule
// fires at most one open alert; when the metric returns within threshold the
// open alert is resolved.
func (c *Collector) Evaluate(ctx context.Context, s monitoring.Sample) {
	rules, err := c.alerts.FindRules(ctx)
	if err != nil {
		c.logger.Warn("Failed to load alert rules", zap.Error(err))
		return
	}

	for i := range rules {
		rule := &rules[i]
		open, err := c.alerts.FindOpenAlertForRule(ctx, rule.ID)
		if err != nil {
			c.logger.Warn("Failed to look up open alert",
				zap.String("rule_id", rule.ID.String()), zap.Error(err))
			continue
		}

		if rule.Breached(s) {
			if open != nil {
				continue
			}
			value := s.Value(rule.Metric)
			msg := fmt.Sprintf("%s: %s is %.1f, threshold %.1f (%s)",
				rule.Name, rule.Metric, value, rule.Threshold, rule.Comparison)
			alert := monitoring.NewAlert(rule, msg, value)
			if err := c.alerts.SaveAlert(ctx, alert); err != nil {
				c.logger.Error("Failed to save alert", zap.Error(err))
				continue
			}
			c.logger.Warn("Alert fired",
				zap.String("rule", rule.Name),
				zap.String("metric", string(rule.Metric)),
				zap.Float64("value", value),
				zap.String("level", string(rule.Level)),
			)
			continue
		}

		if open != nil {
			if err := open.Resolve(); err != nil {
				continue
			}
			if err := c.alerts.SaveAlert(ctx, open); err != nil {
				c.logger.Error("Failed to resolve alert", zap.Error(err))
				continue
			}
			c.logger.Info("Alert resolved",
				zap.String("rule", rule.Name),
				zap.String("metric", string(rule.Metric)),
			)
		}
	}
}
