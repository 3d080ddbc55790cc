package monitoring

import (
	"context"
	"log"
	"time"

	"motion-curator/core/models"
	"motion-curator/core/repository"
)

// QueueMonitor periodically reports the remediation queue depth and
// flags claims that have gone stale. Stale claims are logged, never
// released automatically: a worker may still be mid-fix.
type QueueMonitor struct {
	jobRepo    *repository.JobRepository
	staleAfter time.Duration
	ticker     *time.Ticker
}

// NewQueueMonitor creates a new queue monitor
func NewQueueMonitor(jobRepo *repository.JobRepository, staleAfter time.Duration) *QueueMonitor {
	return &QueueMonitor{
		jobRepo:    jobRepo,
		staleAfter: staleAfter,
		ticker:     time.NewTicker(1 * time.Minute),
	}
}

// Start starts the monitoring worker
func (m *QueueMonitor) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.ticker.Stop()
			return
		case <-m.ticker.C:
			m.report(ctx)
		}
	}
}

func (m *QueueMonitor) report(ctx context.Context) {
	open, err := m.jobRepo.ListJobs(ctx, repository.JobFilter{Status: string(models.JobStatusOpen)})
	if err != nil {
		log.Printf("queue monitor: failed to list open jobs: %v", err)
		return
	}
	claimed, err := m.jobRepo.ListJobs(ctx, repository.JobFilter{Status: string(models.JobStatusClaimed)})
	if err != nil {
		log.Printf("queue monitor: failed to list claimed jobs: %v", err)
		return
	}

	stale := 0
	cutoff := time.Now().Add(-m.staleAfter)
	for _, job := range claimed {
		if job.UpdatedAt.Before(cutoff) {
			stale++
			log.Printf("queue monitor: job %s claimed %s ago without a fix", job.ID, time.Since(job.UpdatedAt).Round(time.Minute))
		}
	}

	log.Printf("queue monitor: %d open, %d claimed (%d stale)", len(open), len(claimed), stale)
}
