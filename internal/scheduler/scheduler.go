// Package scheduler drives the recurring jobs: the nightly train-and-extract
// pass and the simulation retention purge.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/venomio5/VPFM7/internal/contextmodel"
	"github.com/venomio5/VPFM7/internal/store"
	"github.com/venomio5/VPFM7/internal/training"
)

type Scheduler struct {
	cron          *cron.Cron
	pipeline      *training.Pipeline
	store         store.Store
	trainSpec     string
	retentionDays int
	// onModels receives each freshly trained model set.
	onModels func(*contextmodel.Models)
	log      *logrus.Entry
}

func New(
	pipeline *training.Pipeline,
	st store.Store,
	trainSpec string,
	retentionDays int,
	onModels func(*contextmodel.Models),
	log *logrus.Logger,
) *Scheduler {
	cronLogger := cron.VerbosePrintfLogger(log)
	return &Scheduler{
		cron:          cron.New(cron.WithLogger(cronLogger)),
		pipeline:      pipeline,
		store:         st,
		trainSpec:     trainSpec,
		retentionDays: retentionDays,
		onModels:      onModels,
		log:           log.WithField("component", "scheduler"),
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.trainSpec, s.runTraining); err != nil {
		return fmt.Errorf("schedule training job: %w", err)
	}
	// Purge stale simulation rows shortly after each training pass.
	if _, err := s.cron.AddFunc("0 4 * * *", s.runPurge); err != nil {
		return fmt.Errorf("schedule purge job: %w", err)
	}
	s.cron.Start()
	s.log.WithFields(logrus.Fields{
		"train_spec":     s.trainSpec,
		"retention_days": s.retentionDays,
	}).Info("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) runTraining() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	models, err := s.pipeline.TrainAndExtract(ctx, time.Now().UTC())
	if err != nil {
		s.log.WithError(err).Error("Scheduled training failed")
		return
	}
	if s.onModels != nil {
		s.onModels(models)
	}
	s.log.WithField("duration", time.Since(start)).Info("Scheduled training completed")
}

func (s *Scheduler) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	n, err := s.store.PurgeSimulations(ctx, cutoff)
	if err != nil {
		s.log.WithError(err).Error("Simulation purge failed")
		return
	}
	if n > 0 {
		s.log.WithFields(logrus.Fields{"rows": n, "cutoff": cutoff}).Info("Purged stale simulations")
	}
}
