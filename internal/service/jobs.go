package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 30 * time.Second

// Scheduler runs the periodic rate refresh
type Scheduler struct {
	cron *cron.Cron
	svc  *Service
	log  *logrus.Logger
	spec string
}

// NewScheduler creates a scheduler for svc running on the given cron spec
func NewScheduler(svc *Service, log *logrus.Logger, spec string) *Scheduler {
	c := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(log))))
	return &Scheduler{cron: c, svc: svc, log: log, spec: spec}
}

// Start registers the jobs and starts the cron scheduler
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RefreshRates); err != nil {
		return err
	}
	s.log.Infof("Scheduled rate refresh job: %s", s.spec)
	s.cron.Start()
	return nil
}

// Stop stops the scheduler; the returned context is done once running jobs finish
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RefreshRates reloads the rate table and the ECB reference rate
func (s *Scheduler) RefreshRates() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.svc.RefreshRates(ctx); err != nil {
		s.log.Errorf("Rate refresh failed: %v", err)
	}
	rate, err := s.svc.refreshReferenceRate(ctx)
	if err != nil {
		s.log.Warnf("Reference rate refresh failed: %v", err)
		return
	}
	s.log.WithField("reference_rate", rate).Info("Rates refreshed")
}
