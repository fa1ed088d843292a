// Package task provides the periodic execution machinery behind watch mode:
// a scheduler that re-runs verification cycles on an interval and a prune job
// that keeps the run history within its retention window.
package task

import (
	"context"
	"sync"
	"time"
)

const defaultCycleInterval = time.Minute

// CycleFunc is one verification cycle. The context is cancelled when the
// scheduler stops; long cycles should honor it.
type CycleFunc func(context.Context)

// Scheduler runs a cycle on a fixed interval. Trigger requests an immediate
// cycle without disturbing the interval cadence; concurrent triggers coalesce.
type Scheduler struct {
	cycleInterval time.Duration
	cycle         CycleFunc
	trigger       chan struct{}
	controlMutex  sync.Mutex
	cancel        context.CancelFunc
	done          chan struct{}
}

// NewScheduler builds a scheduler for the cycle. A non-positive interval
// falls back to one minute.
func NewScheduler(cycleInterval time.Duration, cycle CycleFunc) *Scheduler {
	if cycleInterval <= 0 {
		cycleInterval = defaultCycleInterval
	}
	return &Scheduler{
		cycleInterval: cycleInterval,
		cycle:         cycle,
		trigger:       make(chan struct{}, 1),
	}
}

// Start launches the scheduling loop. Starting an already started scheduler
// is a no-op.
func (scheduler *Scheduler) Start(ctx context.Context) {
	if scheduler == nil || scheduler.cycle == nil {
		return
	}
	scheduler.controlMutex.Lock()
	if scheduler.cancel != nil {
		scheduler.controlMutex.Unlock()
		return
	}
	loopContext, cancel := context.WithCancel(ctx)
	scheduler.cancel = cancel
	done := make(chan struct{})
	scheduler.done = done
	scheduler.controlMutex.Unlock()

	go scheduler.loop(loopContext, done)
}

// Trigger requests an immediate cycle. Safe to call whether or not the
// scheduler is running; a pending trigger absorbs further ones.
func (scheduler *Scheduler) Trigger() {
	if scheduler == nil {
		return
	}
	select {
	case scheduler.trigger <- struct{}{}:
	default:
	}
}

// Stop cancels the loop and waits for an in-flight cycle to finish.
func (scheduler *Scheduler) Stop() {
	if scheduler == nil {
		return
	}
	scheduler.controlMutex.Lock()
	cancel := scheduler.cancel
	done := scheduler.done
	scheduler.cancel = nil
	scheduler.done = nil
	scheduler.controlMutex.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (scheduler *Scheduler) loop(ctx context.Context, done chan struct{}) {
	timer := time.NewTimer(scheduler.cycleInterval)
	defer func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}()
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-scheduler.trigger:
			scheduler.cycle(ctx)
		case <-timer.C:
			scheduler.cycle(ctx)
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(scheduler.cycleInterval)
	}
}
