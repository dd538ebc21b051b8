package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/rennerdo30/taqyon/internal/webview"
)

// Collector updates system metrics periodically and records shell events.
type Collector struct {
	metrics   *Metrics
	interval  time.Duration
	startTime time.Time
	ticker    *time.Ticker
	done      chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewCollector creates a new metrics collector.
func NewCollector(metrics *Metrics) *Collector {
	return &Collector{
		metrics:   metrics,
		interval:  15 * time.Second,
		startTime: time.Now(),
	}
}

// Start starts the metrics collector.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}

	c.running = true
	c.done = make(chan struct{})
	c.ticker = time.NewTicker(c.interval)

	go c.collectLoop(c.ticker, c.done)
}

// Stop stops the metrics collector.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}

	close(c.done)
	c.ticker.Stop()
	c.running = false
}

func (c *Collector) collectLoop(ticker *time.Ticker, done <-chan struct{}) {
	// Initial collection
	c.collect()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *Collector) collect() {
	c.metrics.Uptime.Set(time.Since(c.startTime).Seconds())
	c.metrics.GoRoutines.Set(float64(runtime.NumGoroutine()))
}

// RecordBridgeNotification records a notification delivered to the page.
func (c *Collector) RecordBridgeNotification(event string) {
	c.metrics.BridgeNotifications.WithLabelValues(event).Inc()
}

// RecordCount tracks the bridged counter.
func (c *Collector) RecordCount(n int64) {
	c.metrics.BridgeCount.Set(float64(n))
}

// RecordSurfaceEvent records an event handled by the render surface.
func (c *Collector) RecordSurfaceEvent(e webview.Event) {
	switch e.Type {
	case webview.TypeNavigation, webview.TypeNewWindow:
		c.metrics.NavigationDecisions.WithLabelValues(e.Type, e.Outcome).Inc()
	case webview.TypeContextMenu:
		c.metrics.ContextMenus.WithLabelValues(e.Outcome).Inc()
	case webview.TypeMenuAction:
		c.metrics.MenuActions.WithLabelValues(e.Outcome).Inc()
	case webview.TypeLoadFailed:
		c.metrics.PageLoadFailures.Inc()
	case webview.TypeReload:
		c.metrics.FrontendReloads.Inc()
	}
}

// RecordWindowEvent records a window lifecycle event such as "hidden" or "shown".
func (c *Collector) RecordWindowEvent(event string) {
	c.metrics.WindowEvents.WithLabelValues(event).Inc()
}
