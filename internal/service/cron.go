package service

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"qwiktest/internal/pkg/logger"
	"qwiktest/internal/pkg/metrics"
)

// CronService runs the housekeeping jobs on a fixed interval.
type CronService struct {
	clock    clockwork.Clock
	stopChan chan struct{}
	stopOnce sync.Once
	started  sync.Once
	done     chan struct{}
}

var Cron = NewCron(clockwork.NewRealClock())

func NewCron(clock clockwork.Clock) *CronService {
	return &CronService{
		clock:    clock,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

type cronJob struct {
	name string
	run  func(ctx context.Context) (int64, error)
}

func (s *CronService) jobs() []cronJob {
	return []cronJob{
		{"finish_exam_sessions", func(ctx context.Context) (int64, error) {
			n, err := ExamSession.FinishExpired(ctx)
			return int64(n), err
		}},
		{"finish_quiz_sessions", func(ctx context.Context) (int64, error) {
			n, err := QuizSession.FinishExpired(ctx)
			return int64(n), err
		}},
		{"expire_subscriptions", Subscription.ExpireDue},
		{"cancel_stale_payments", Payment.CancelStale},
	}
}

// Start launches the loop. interval <= 0 falls back to one minute.
func (s *CronService) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	s.started.Do(func() { go s.loop(interval) })
}

// Stop ends the loop and waits for a running pass to finish.
func (s *CronService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		// A loop that never ran leaves nothing to wait for.
		s.started.Do(func() { close(s.done) })
		<-s.done
	})
}

func (s *CronService) loop(interval time.Duration) {
	defer close(s.done)
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			s.RunOnce(context.Background())
		case <-s.stopChan:
			return
		}
	}
}

// RunOnce runs every job once. A failing job is logged and does not stop
// the others.
func (s *CronService) RunOnce(ctx context.Context) map[string]int64 {
	affected := make(map[string]int64)
	for _, job := range s.jobs() {
		n, err := job.run(ctx)
		if err != nil {
			logger.Errorf("cron job %s failed: %v", job.name, err)
			continue
		}
		affected[job.name] = n
		if n > 0 {
			metrics.CronRuns.WithLabelValues(job.name).Add(float64(n))
			logger.Infof("cron job %s changed %d rows", job.name, n)
		}
	}
	return affected
}
