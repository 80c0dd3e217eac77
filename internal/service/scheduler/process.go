package scheduler

import (
	"github.com/sirupsen/logrus"
)

// tick is the cron job body.
func (s *Scheduler) tick() {
	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		logrus.Info("Scheduler not running, skipping run")
		return
	}
	ctx := s.ctx
	s.mu.RUnlock()

	logrus.Info("Starting scheduled run")
	summary := s.RunOnce(ctx)
	if summary.Aborted {
		logrus.Warnf("Scheduled run %s aborted", summary.RunID)
	}
}
