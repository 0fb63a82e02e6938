package api

import (
	"sort"
	"sync"
	"time"
)

// RouteMetrics aggregates request metrics for a single method+path pair
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// MetricsCollector collects per-route request metrics in process memory
type MetricsCollector struct {
	mu     sync.RWMutex
	routes map[string]*RouteMetrics
}

var metrics = &MetricsCollector{routes: make(map[string]*RouteMetrics)}

// GetMetrics returns the process-wide collector
func GetMetrics() *MetricsCollector {
	return metrics
}

// Record folds one finished request into the route aggregates
func (c *MetricsCollector) Record(method, path string, status int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := method + " " + path
	rm, ok := c.routes[key]
	if !ok {
		rm = &RouteMetrics{Method: method, Path: path}
		c.routes[key] = rm
	}

	rm.Count++
	if status >= 400 {
		rm.ErrorCount++
	}
	rm.TotalTime += duration
	rm.AvgTime = rm.TotalTime / time.Duration(rm.Count)
	if duration > rm.MaxTime {
		rm.MaxTime = duration
	}
	rm.LastRequest = time.Now()
}

// Summary returns a snapshot of all route aggregates sorted by request count
func (c *MetricsCollector) Summary() []RouteMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]RouteMetrics, 0, len(c.routes))
	for _, rm := range c.routes {
		out = append(out, *rm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
