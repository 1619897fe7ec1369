package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
	"github.com/johnquangdev/meeting-intelligence/internal/domain/repositories"
	"github.com/johnquangdev/meeting-intelligence/internal/usecase/intelligence"
	"github.com/johnquangdev/meeting-intelligence/pkg/config"
	"github.com/johnquangdev/meeting-intelligence/pkg/jobcontext"
	"github.com/johnquangdev/meeting-intelligence/pkg/metrics"
)

const jobType = "meeting_pipeline"

// Pipeline runs the generation stages of one meeting. *intelligence.Service satisfies it.
type Pipeline interface {
	PipelineStages(ctx context.Context, meetingID uuid.UUID) ([]intelligence.Stage, error)
	RunStages(ctx context.Context, meetingID uuid.UUID, stages []intelligence.Stage) (map[intelligence.Stage]error, error)
}

// Finisher records the outcome of a pipeline run on the meeting. *bot.Orchestrator satisfies it.
type Finisher interface {
	FinishPipeline(ctx context.Context, meetingID uuid.UUID, failure error) (*entities.MeetingRecording, error)
}

// Options tune the pool. Zero values take the defaults of config.PipelineConfig.
type Options struct {
	Workers      int
	PollInterval time.Duration
	JobTimeout   time.Duration
	StaleAfter   time.Duration
	// RetryDelay is the first backoff interval between attempts of failed stages
	RetryDelay time.Duration
}

// OptionsFromConfig maps the pipeline section of the configuration
func OptionsFromConfig(cfg config.PipelineConfig) Options {
	return Options{
		Workers:      cfg.Workers,
		PollInterval: cfg.PollInterval,
		JobTimeout:   cfg.JobTimeout,
		StaleAfter:   cfg.StaleAfter,
	}
}

// Pool claims pipeline jobs and runs them on a fixed number of workers
type Pool struct {
	jobs     repositories.PipelineJobRepository
	pipeline Pipeline
	finisher Finisher
	metrics  *metrics.Metrics
	logger   *zap.Logger
	opts     Options

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewPool creates a stopped pool
func NewPool(jobs repositories.PipelineJobRepository, pipeline Pipeline, finisher Finisher, m *metrics.Metrics, logger *zap.Logger, opts Options) *Pool {
	if opts.Workers < 1 {
		opts.Workers = 3
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 5 * time.Minute
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 15 * time.Minute
	}
	return &Pool{
		jobs:     jobs,
		pipeline: pipeline,
		finisher: finisher,
		metrics:  m,
		logger:   logger,
		opts:     opts,
	}
}

// Start launches the workers and the stale job sweeper
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("worker pool already running")
	}
	p.running = true
	p.stopChan = make(chan struct{})

	if p.logger != nil {
		p.logger.Info("starting pipeline worker pool", zap.Int("worker_count", p.opts.Workers))
	}

	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.wg.Add(1)
	go p.sweepStaleJobs(ctx)

	return nil
}

// Stop signals every worker and waits for in-flight jobs to end
func (p *Pool) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return fmt.Errorf("worker pool not running")
	}

	close(p.stopChan)
	p.wg.Wait()
	p.running = false

	if p.logger != nil {
		p.logger.Info("pipeline worker pool stopped")
	}
	return nil
}

func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// drain the queue before waiting for the next tick
			for {
				ran, err := p.ProcessNext(ctx, workerID)
				if err != nil && p.logger != nil {
					p.logger.Error("pipeline job failed",
						zap.Int("worker_id", workerID),
						zap.Error(err),
					)
				}
				if !ran || p.stopping() {
					break
				}
			}
		}
	}
}

func (p *Pool) stopping() bool {
	select {
	case <-p.stopChan:
		return true
	default:
		return false
	}
}

// sweepStaleJobs returns jobs whose worker vanished to the queue
func (p *Pool) sweepStaleJobs(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.opts.StaleAfter / 3)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.jobs.ResetStale(ctx, time.Now().Add(-p.opts.StaleAfter))
			if err != nil {
				if p.logger != nil {
					p.logger.Error("stale job sweep failed", zap.Error(err))
				}
				continue
			}
			if n > 0 && p.logger != nil {
				p.logger.Warn("requeued stale pipeline jobs", zap.Int64("count", n))
			}
		}
	}
}

// ProcessNext claims the oldest queued job and runs it. It reports whether a job was claimed.
func (p *Pool) ProcessNext(ctx context.Context, workerID int) (bool, error) {
	job, err := p.jobs.ClaimNext(ctx)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if p.logger != nil {
		p.logger.Info("worker claimed job",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("meeting_id", job.MeetingID.String()),
		)
	}
	return true, p.run(ctx, job, workerID)
}

func (p *Pool) run(ctx context.Context, job *entities.PipelineJob, workerID int) error {
	jobCtx, cancel := jobcontext.JobBegin(ctx, job.ID, jobType, workerID, p.opts.JobTimeout)
	defer cancel()
	if job.MaxRetries > 0 {
		jobCtx = jobcontext.SetMaxRetries(jobCtx, job.MaxRetries)
	}
	if p.opts.RetryDelay > 0 {
		jobCtx = jobcontext.SetBaseDelay(jobCtx, p.opts.RetryDelay)
	}

	stages, err := p.pipeline.PipelineStages(jobCtx, job.MeetingID)
	if err != nil {
		return p.failJob(ctx, job, err)
	}

	var (
		fatal       error
		stageErrors = make(map[string]string)
		pending     = stages
	)
	runErr := jobcontext.JobEnd(jobCtx, func(ctx context.Context) error {
		failed, err := p.pipeline.RunStages(ctx, job.MeetingID, pending)
		if err != nil {
			fatal = err
			return err
		}
		fatal = nil

		var (
			retry []intelligence.Stage
			errs  []error
		)
		for _, stage := range pending {
			stageErr, ok := failed[stage]
			if !ok {
				delete(stageErrors, string(stage))
				continue
			}
			stageErrors[string(stage)] = stageErr.Error()
			if jobcontext.IsRetryableError(stageErr) {
				retry = append(retry, stage)
				errs = append(errs, fmt.Errorf("%s: %w", stage, stageErr))
			}
		}
		pending = retry
		return errors.Join(errs...)
	})

	// shutdown: leave the job to the stale sweeper of the next process
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if fatal != nil {
		return p.failJob(ctx, job, fatal)
	}
	if runErr != nil && p.logger != nil {
		p.logger.Warn("pipeline stages gave up",
			zap.String("job_id", job.ID.String()),
			zap.Strings("stages", stageNames(pending)),
			zap.Error(runErr),
		)
	}

	if len(stageErrors) == 0 {
		stageErrors = nil
	}
	job.MarkAsCompleted(stageErrors)
	if err := p.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	p.metrics.PipelineJob(string(entities.PipelineJobStatusCompleted))

	if _, err := p.finisher.FinishPipeline(ctx, job.MeetingID, nil); err != nil {
		return fmt.Errorf("finish meeting: %w", err)
	}
	if p.logger != nil {
		p.logger.Info("pipeline job completed",
			zap.String("job_id", job.ID.String()),
			zap.String("meeting_id", job.MeetingID.String()),
			zap.Int("failed_stages", len(stageErrors)),
		)
	}
	return nil
}

func (p *Pool) failJob(ctx context.Context, job *entities.PipelineJob, cause error) error {
	job.MarkAsFailed(cause.Error())
	if err := p.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("save failed job: %w", err)
	}
	p.metrics.PipelineJob(string(entities.PipelineJobStatusFailed))

	if _, err := p.finisher.FinishPipeline(ctx, job.MeetingID, cause); err != nil {
		return errors.Join(cause, fmt.Errorf("finish meeting: %w", err))
	}
	return cause
}

func stageNames(stages []intelligence.Stage) []string {
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, string(s))
	}
	sort.Strings(names)
	return names
}
