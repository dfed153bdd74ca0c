// Package worker provides background processing for track-related jobs.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
	"github.com/ewilliams-labs/bookbeats/internal/metrics"
)

const (
	ResultUpdated = "updated"
	ResultDropped = "dropped"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"

	defaultJobTimeout = 20 * time.Second
)

// Job represents a background preview analysis for one track.
type Job struct {
	TrackID    string
	PreviewURL string
}

// AnalyzeFunc turns a preview URL into a 0-1 energy estimate.
type AnalyzeFunc func(ctx context.Context, previewURL string) (float64, error)

// Pool manages background workers for preview analysis jobs.
type Pool struct {
	repo    ports.PlaylistRepository
	analyze AnalyzeFunc
	jobs    chan Job
	workers int
	timeout time.Duration

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

var _ ports.PreviewQueue = (*Pool)(nil)

// NewPool creates a worker pool with the given worker count and queue size.
// A nil analyze uses the MP3 loudness analyzer.
func NewPool(repo ports.PlaylistRepository, analyze AnalyzeFunc, workers int, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if analyze == nil {
		analyze = NewPreviewAnalyzer(nil).Analyze
	}
	return &Pool{
		repo:    repo,
		analyze: analyze,
		jobs:    make(chan Job, queueSize),
		workers: workers,
		timeout: defaultJobTimeout,
	}
}

// Start launches the worker goroutines. They exit when ctx is canceled or the
// pool is stopped.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-p.jobs:
					if !ok {
						return
					}
					p.processJob(ctx, job)
				}
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Enqueue queues a job without blocking. It reports false when the job was
// dropped because the queue is full or the pool is stopped.
func (p *Pool) Enqueue(trackID, previewURL string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		metrics.PreviewJobs.WithLabelValues(ResultDropped).Inc()
		return false
	}

	select {
	case p.jobs <- Job{TrackID: trackID, PreviewURL: previewURL}:
		return true
	default:
		log := logging.WithComponent("worker")
		log.Warn().Str("track_id", trackID).Msg("queue full, dropping preview job")
		metrics.PreviewJobs.WithLabelValues(ResultDropped).Inc()
		return false
	}
}

func (p *Pool) processJob(ctx context.Context, job Job) {
	log := logging.WithComponent("worker").With().Str("track_id", job.TrackID).Logger()

	if job.PreviewURL == "" {
		log.Debug().Msg("no preview url, skipping analysis")
		metrics.PreviewJobs.WithLabelValues(ResultSkipped).Inc()
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	energy, err := p.analyze(jobCtx, job.PreviewURL)
	if err != nil {
		log.Warn().Err(err).Msg("preview analysis failed")
		metrics.PreviewJobs.WithLabelValues(ResultFailed).Inc()
		return
	}

	if err := p.repo.UpdatePreviewEnergy(jobCtx, job.TrackID, energy); err != nil {
		log.Warn().Err(err).Msg("failed to store preview energy")
		metrics.PreviewJobs.WithLabelValues(ResultFailed).Inc()
		return
	}

	log.Debug().Float64("energy", energy).Msg("preview analyzed")
	metrics.PreviewJobs.WithLabelValues(ResultUpdated).Inc()
}
