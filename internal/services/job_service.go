package services

import (
	"github.com/draftsign/draftsign-api/internal/jobs"
)

// JobService exposes worker state for the admin status endpoint
type JobService struct {
	worker *jobs.Worker
}

// NewJobService creates a new job service
func NewJobService(worker *jobs.Worker) *JobService {
	return &JobService{worker: worker}
}

// Stats returns the current worker statistics
func (s *JobService) Stats() jobs.WorkerStats {
	return s.worker.GetStats()
}
