package health

import (
	"sync"
	"time"

	"CoreBridge/internal/domain/models"
	"CoreBridge/pkg/logger"
)

// Probe reports whether one component is healthy. A probe that returns an
// error or panics is recorded as unhealthy with the reason captured.
type Probe func() error

// Checker is a registry of named probes evaluated on a timer from a
// background goroutine.
type Checker struct {
	interval time.Duration
	logger   *logger.Logger

	mu       sync.Mutex
	probes   map[string]Probe
	statuses map[string]models.ComponentStatus

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

func NewChecker(interval time.Duration, lgr *logger.Logger) *Checker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Checker{
		interval: interval,
		logger:   lgr,
		probes:   make(map[string]Probe),
		statuses: make(map[string]models.ComponentStatus),
	}
}

// Register adds a probe. The status starts unhealthy until the first
// evaluation cycle overwrites it.
func (c *Checker) Register(name string, probe Probe) {
	c.mu.Lock()
	c.probes[name] = probe
	c.statuses[name] = models.ComponentStatus{
		Name:    name,
		Healthy: false,
		Info:    map[string]string{},
	}
	c.mu.Unlock()
	c.logger.Debug("registered health probe", logger.String("name", name))
}

// Unregister removes a probe and its status.
func (c *Checker) Unregister(name string) {
	c.mu.Lock()
	delete(c.probes, name)
	delete(c.statuses, name)
	c.mu.Unlock()
}

// Start launches the evaluation loop.
func (c *Checker) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	c.mu.Unlock()

	go c.runLoop()
}

// Stop signals the loop to exit after its current iteration and waits for it.
func (c *Checker) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopCh)
	done := c.doneCh
	c.mu.Unlock()

	<-done
}

// Status returns a snapshot copy of all component statuses.
func (c *Checker) Status() map[string]models.ComponentStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]models.ComponentStatus, len(c.statuses))
	for name, status := range c.statuses {
		out[name] = status.Clone()
	}
	return out
}

// Healthy reports whether every registered probe passed its last evaluation.
func (c *Checker) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, status := range c.statuses {
		if !status.Healthy {
			return false
		}
	}
	return true
}

// EvaluateAll runs every registered probe once. Probe references are copied
// under the lock and evaluated outside it so a slow probe does not block
// registration.
func (c *Checker) EvaluateAll() {
	c.mu.Lock()
	probes := make(map[string]Probe, len(c.probes))
	for name, probe := range c.probes {
		probes[name] = probe
	}
	c.mu.Unlock()

	for name, probe := range probes {
		healthy, detail := c.evaluate(name, probe)
		status := models.ComponentStatus{
			Name:        name,
			Healthy:     healthy,
			LastChecked: time.Now(),
			Info:        map[string]string{"detail": detail},
		}
		c.mu.Lock()
		// probe may have been unregistered mid-cycle
		if _, ok := c.probes[name]; ok {
			c.statuses[name] = status
		}
		c.mu.Unlock()
	}
}

func (c *Checker) evaluate(name string, probe Probe) (healthy bool, detail string) {
	defer func() {
		if r := recover(); r != nil {
			healthy = false
			detail = "panic in probe"
			c.logger.Error("health probe panicked", logger.String("name", name), logger.Any("panic", r))
		}
	}()

	if err := probe(); err != nil {
		c.logger.Warn("health probe failed", logger.String("name", name), logger.Error(err))
		return false, err.Error()
	}
	return true, "OK"
}

func (c *Checker) runLoop() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.EvaluateAll()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.EvaluateAll()
		}
	}
}
