package jobqueue

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fitfox/FitFox/internal/pkg/env"
	"github.com/fitfox/FitFox/internal/pkg/metrics/counter"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue         *Queue
	sweepTicker   *time.Ticker
	counterTicker *time.Ticker
	stopCh        chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	running       bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 5
		if v, err := strconv.Atoi(env.GetEnv("JOBQUEUE_WORKERS", "5")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Periodic subscription sweep - configurable interval
	sweepInterval := 60 * time.Minute
	if v, err := strconv.Atoi(env.GetEnv("SUBSCRIPTION_SWEEP_INTERVAL_MINUTES", "60")); err == nil && v > 0 {
		sweepInterval = time.Duration(v) * time.Minute
	}
	m.sweepTicker = time.NewTicker(sweepInterval)
	m.wg.Add(1)
	go m.sweepWorker(m.stopCh, sweepInterval)

	// Periodic counter flush - plan impression counters from Redis to MySQL
	flushInterval := 5 * time.Minute
	if v, err := strconv.Atoi(env.GetEnv("COUNTER_FLUSH_INTERVAL_MINUTES", "5")); err == nil && v > 0 {
		flushInterval = time.Duration(v) * time.Minute
	}
	m.counterTicker = time.NewTicker(flushInterval)
	m.wg.Add(1)
	go m.counterFlushWorker(m.stopCh, flushInterval)

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.sweepTicker != nil {
		m.sweepTicker.Stop()
	}
	if m.counterTicker != nil {
		m.counterTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// sweepWorker periodically enqueues a subscription sweep job so overdue
// subscriptions get expired even when nobody touches them.
func (m *Manager) sweepWorker(stopCh <-chan struct{}, interval time.Duration) {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started subscription sweep worker (interval: %s)", interval)

	for {
		select {
		case <-stopCh:
			log.Info("[JobQueue Manager] Subscription sweep worker stopping")
			return
		case <-m.sweepTicker.C:
			log.Debug("[JobQueue Manager] Enqueuing subscription sweep")
			if _, err := m.queue.EnqueueJob(JobTypeSubscriptionSweep, map[string]interface{}{}); err != nil {
				log.Errorf("[JobQueue Manager] Error enqueuing subscription sweep: %v", err)
			}
		}
	}
}

// counterFlushWorker periodically moves pending plan impression counters
// from Redis into the plans table.
func (m *Manager) counterFlushWorker(stopCh <-chan struct{}, interval time.Duration) {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started counter flush worker (interval: %s)", interval)

	for {
		select {
		case <-stopCh:
			log.Info("[JobQueue Manager] Counter flush worker stopping")
			return
		case <-m.counterTicker.C:
			if err := counter.FlushAll(); err != nil {
				log.Errorf("[JobQueue Manager] Error flushing counters: %v", err)
			}
		}
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// RunSubscriptionSweepOnce exposes a manual trigger for a single sweep (admin use).
func (m *Manager) RunSubscriptionSweepOnce() error {
	_, err := m.queue.EnqueueJob(JobTypeSubscriptionSweep, map[string]interface{}{})
	return err
}
