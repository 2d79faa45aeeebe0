// Package scheduler runs the periodic backlog digest when one is
// configured.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type Scheduler struct {
	cron       *cron.Cron
	spec       string
	reportFunc func()
}

// New builds a scheduler that invokes reportFunc on the given cron spec,
// evaluated in UTC.
func New(spec string, reportFunc func()) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		spec:       spec,
		reportFunc: reportFunc,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		log.Printf("triggered scheduled backlog digest")
		s.reportFunc()
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("scheduler started with spec %q (UTC)", s.spec)
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Printf("scheduler stopped")
}
