package storage

import (
	"context"
	"time"

	"github.com/roylee0704/gron"

	"gpscam/internal/models"
	"gpscam/internal/providers"
	"gpscam/internal/storage/interfaces"
	"gpscam/internal/structures"
)

// Scheduler runs the periodic maintenance of the storage layer: it
// re-persists the record store (a no-op on sqlite) and refreshes the
// record-count gauges.
type Scheduler struct {
	config    *structures.Config
	logger    providers.Logger
	store     RecordStore
	artifacts *ArtifactStore
	metrics   providers.MetricsProviderInterface
	cron      *gron.Cron
}

func (s *Scheduler) Init() {
	s.cron = gron.New()
	interval := s.config.Storage.FlushInterval

	s.cron.AddFunc(gron.Every(interval), func() {
		if err := s.store.Flush(); err != nil {
			s.logger.Errorf(providers.TypeStorage, "Error while persisting records: %s", err)
			return
		}
		s.refreshGauges()
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) refreshGauges() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if n, err := s.store.CountLocations(ctx); err == nil {
		s.metrics.SetRecordsTotal("locations", n)
	}
	if n, err := s.store.CountTemplates(ctx); err == nil {
		s.metrics.SetRecordsTotal("templates", n)
	}
	if raw, err := s.artifacts.ListFiles(s.config.Storage.RawFolder); err == nil {
		s.metrics.SetRecordsTotal("raw_artifacts", len(raw))
	}
	if proc, err := s.artifacts.ListFiles(s.config.Storage.ProcessedFolder); err == nil {
		s.metrics.SetRecordsTotal("processed_artifacts", len(proc))
	}
	s.logger.Debugf(providers.TypeStorage, "Artifact storage used: %s", models.FormatFileSize(s.artifacts.Info()))
}

func NewScheduler(config *structures.Config, logger providers.Logger, store RecordStore, artifacts *ArtifactStore, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:    config,
		logger:    logger,
		store:     store,
		artifacts: artifacts,
		metrics:   metrics,
	}
}
