package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	reportsGenerated uint64
	reportsRejected  uint64
	pushesFailed     uint64
	sessionsSwept    uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) ReportGenerated() { atomic.AddUint64(&c.reportsGenerated, 1) }

func (c *Collector) ReportRejected() { atomic.AddUint64(&c.reportsRejected, 1) }

func (c *Collector) PushFailed() { atomic.AddUint64(&c.pushesFailed, 1) }

func (c *Collector) SessionsSwept(n int) {
	if n > 0 {
		atomic.AddUint64(&c.sessionsSwept, uint64(n))
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":         total,
		"errorsTotal":           errs,
		"rateLimitedTotal":      limited,
		"avgDurationMs":         avg,
		"totalDurationMs":       totalMs,
		"reportsGeneratedTotal": atomic.LoadUint64(&c.reportsGenerated),
		"reportsRejectedTotal":  atomic.LoadUint64(&c.reportsRejected),
		"pushesFailedTotal":     atomic.LoadUint64(&c.pushesFailed),
		"sessionsSweptTotal":    atomic.LoadUint64(&c.sessionsSwept),
	}
}
