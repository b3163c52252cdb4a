package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sei/sei-backend/internal/docextract/domain"
)

// JobStore keeps asynchronous extraction jobs in memory.
// Jobs are removed once they are older than the TTL.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.ExtractionJob
	ttl  time.Duration
	now  func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewJobStore creates a job store and starts its expiry sweep
func NewJobStore(ttl time.Duration) *JobStore {
	s := newJobStore(ttl, time.Now)
	go s.cleanupLoop()
	return s
}

func newJobStore(ttl time.Duration, now func() time.Time) *JobStore {
	return &JobStore{
		jobs: make(map[string]*domain.ExtractionJob),
		ttl:  ttl,
		now:  now,
		stop: make(chan struct{}),
	}
}

// GenerateJobID creates a random job ID
func GenerateJobID() string {
	return uuid.New().String()
}

// StoreJob stores an extraction job
func (s *JobStore) StoreJob(job *domain.ExtractionJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = job
}

// GetJob returns a copy of the job, or nil if it is unknown or expired
func (s *JobStore) GetJob(jobID string) *domain.ExtractionJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok || s.expired(job) {
		return nil
	}
	return job.Clone()
}

// UpdateJob applies update to an existing job under the store lock
func (s *JobStore) UpdateJob(jobID string, update func(*domain.ExtractionJob)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return false
	}
	update(job)
	job.UpdatedAt = s.now()
	return true
}

// Len returns the number of stored jobs, including expired ones not yet swept
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Close stops the expiry sweep
func (s *JobStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

// ZeroBytes overwrites a byte slice with zeros so uploaded documents do not
// linger in memory after processing.
func ZeroBytes(b []byte) {
	clear(b)
}

func (s *JobStore) expired(job *domain.ExtractionJob) bool {
	return job.CreatedAt.Before(s.now().Add(-s.ttl))
}

// cleanupLoop periodically removes expired jobs
func (s *JobStore) cleanupLoop() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

func (s *JobStore) cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if s.expired(job) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}
