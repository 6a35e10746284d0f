// Package manager runs download jobs on a bounded queue with a fixed pool
// of workers, and keeps finished files around until they expire.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"clipdrop/internal/config"
	"clipdrop/internal/core"
	"clipdrop/internal/utils"
)

const queueSize = 100

var (
	ErrQueueFull = errors.New("download queue is full")
	ErrNotFound  = errors.New("job not found")

	// ErrShuttingDown is returned by Wait when the manager stops before the
	// job finishes. The job itself is kept for the next start.
	ErrShuttingDown = errors.New("job manager is shutting down")
)

// Fetcher performs one download. *core.Downloader implements it.
type Fetcher interface {
	Download(ctx context.Context, req core.Request, jobID string, onProgress core.ProgressFunc) (*core.Result, error)
}

type JobManager struct {
	fetcher     Fetcher
	jobs        map[string]*core.Job
	byKey       map[string]string
	done        map[string]chan struct{}
	cancelFuncs map[string]context.CancelFunc
	queue       chan *core.Job
	mutex       sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	workers     sync.WaitGroup
	outputDir   string
	expiry      time.Duration
	now         func() time.Time
}

func NewJobManager(fetcher Fetcher, maxConcurrent int, outputDir string, cfg *config.Config) *JobManager {
	ctx, cancel := context.WithCancel(context.Background())

	jm := &JobManager{
		fetcher:     fetcher,
		jobs:        make(map[string]*core.Job),
		byKey:       make(map[string]string),
		done:        make(map[string]chan struct{}),
		cancelFuncs: make(map[string]context.CancelFunc),
		queue:       make(chan *core.Job, queueSize),
		ctx:         ctx,
		cancel:      cancel,
		outputDir:   outputDir,
		expiry:      time.Duration(cfg.CompletedFileExpiryHours) * time.Hour,
		now:         time.Now,
	}

	// Restore before the workers start so re-queued jobs run in order.
	if err := jm.LoadState(); err != nil {
		log.Printf("[MANAGER] Failed to load previous state: %v", err)
	}

	for i := 0; i < maxConcurrent; i++ {
		jm.workers.Add(1)
		go jm.worker(i + 1)
	}

	if jm.expiry > 0 {
		go jm.cleanupWorker()
	}

	jm.StartPeriodicStateSave()

	return jm
}

// Submit queues req unless an identical request already has a job that is
// pending or has a file on disk; in that case the existing job is returned
// and created is false.
func (jm *JobManager) Submit(req core.Request) (job core.Job, created bool, err error) {
	key := req.Key()

	jm.mutex.Lock()
	defer jm.mutex.Unlock()

	if id, ok := jm.byKey[key]; ok {
		if existing, ok := jm.jobs[id]; ok && jm.reusable(existing) {
			log.Printf("[MANAGER] Job %s reused for %s (%s)", existing.ID, req.URL, existing.Status)
			return *existing, false, nil
		}
	}

	newJob := core.NewJob(req)
	select {
	case jm.queue <- newJob:
	default:
		log.Printf("[MANAGER] Queue is full, rejecting %s", req.URL)
		return core.Job{}, false, ErrQueueFull
	}

	jm.jobs[newJob.ID] = newJob
	jm.byKey[key] = newJob.ID
	jm.done[newJob.ID] = make(chan struct{})
	log.Printf("[MANAGER] Job %s queued: URL=%s, Resolution=%s, Platform=%s", newJob.ID, req.URL, req.Resolution, req.Platform)

	return *newJob, true, nil
}

// reusable reports whether a job can answer a new identical request.
// Caller holds the lock.
func (jm *JobManager) reusable(job *core.Job) bool {
	switch job.Status {
	case core.StatusQueued, core.StatusDownloading:
		return true
	case core.StatusReady:
		if _, err := os.Stat(job.OutputPath); err != nil {
			return false
		}
		return true
	default:
		return false
	}
}

func (jm *JobManager) Get(id string) (core.Job, bool) {
	jm.mutex.RLock()
	defer jm.mutex.RUnlock()

	job, ok := jm.jobs[id]
	if !ok {
		return core.Job{}, false
	}
	return *job, true
}

func (jm *JobManager) List() []core.Job {
	jm.mutex.RLock()
	defer jm.mutex.RUnlock()

	jobs := make([]core.Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

// Done returns a channel that is closed once the job reaches a terminal
// status.
func (jm *JobManager) Done(id string) (<-chan struct{}, bool) {
	jm.mutex.RLock()
	defer jm.mutex.RUnlock()

	ch, ok := jm.done[id]
	return ch, ok
}

// Wait blocks until the job is terminal, ctx ends or the manager shuts
// down.
func (jm *JobManager) Wait(ctx context.Context, id string) (core.Job, error) {
	done, ok := jm.Done(id)
	if !ok {
		return core.Job{}, ErrNotFound
	}
	select {
	case <-done:
		job, _ := jm.Get(id)
		return job, nil
	case <-ctx.Done():
		return core.Job{}, ctx.Err()
	case <-jm.ctx.Done():
		select {
		case <-done:
			job, _ := jm.Get(id)
			return job, nil
		default:
			return core.Job{}, ErrShuttingDown
		}
	}
}

func (jm *JobManager) Cancel(id string) error {
	jm.mutex.Lock()
	defer jm.mutex.Unlock()

	job, ok := jm.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.Terminal() {
		return fmt.Errorf("job %s is already %s", id, job.Status)
	}

	if cancel, ok := jm.cancelFuncs[id]; ok {
		cancel()
	}
	jm.finishLocked(job, core.StatusCancelled)
	log.Printf("[MANAGER] Job %s cancelled", id)
	return nil
}

// finishLocked moves job to a terminal status and wakes waiters. Caller
// holds the lock.
func (jm *JobManager) finishLocked(job *core.Job, status core.JobStatus) {
	job.Status = status
	now := jm.now()
	job.CompletedAt = &now
	if ch, ok := jm.done[job.ID]; ok {
		select {
		case <-ch:
		default:
			close(ch)
		}
	}
}

func (jm *JobManager) worker(workerID int) {
	defer jm.workers.Done()
	log.Printf("[MANAGER] Worker %d started", workerID)
	defer log.Printf("[MANAGER] Worker %d shutting down", workerID)

	for {
		select {
		case <-jm.ctx.Done():
			return
		case job := <-jm.queue:
			jm.processJob(job)
		}
	}
}

func (jm *JobManager) processJob(job *core.Job) {
	ctx, cancel := context.WithCancel(jm.ctx)
	defer cancel()

	jm.mutex.Lock()
	if job.Status != core.StatusQueued {
		jm.mutex.Unlock()
		log.Printf("[MANAGER] Skipping job %s (%s)", job.ID, job.Status)
		return
	}
	job.Status = core.StatusDownloading
	jm.cancelFuncs[job.ID] = cancel
	req := job.Request()
	req.OutputDir = jm.outputDir
	jm.mutex.Unlock()

	log.Printf("[MANAGER] Processing job %s", job.ID)
	result, err := jm.fetcher.Download(ctx, req, job.ID, func(p core.Progress) {
		jm.mutex.Lock()
		job.Progress = p
		jm.mutex.Unlock()
	})

	jm.mutex.Lock()
	defer jm.mutex.Unlock()
	delete(jm.cancelFuncs, job.ID)

	switch {
	case job.Status.Terminal():
		// Cancelled while running.
	case err != nil && jm.ctx.Err() != nil:
		// Interrupted by shutdown; the saved state queues it again.
		log.Printf("[MANAGER] Job %s interrupted by shutdown, will resume", job.ID)
		job.Status = core.StatusQueued
		job.Progress = core.Progress{}
	case err != nil && ctx.Err() != nil:
		jm.finishLocked(job, core.StatusCancelled)
	case err != nil:
		log.Printf("[MANAGER] Job %s failed: %v", job.ID, err)
		job.Error = err.Error()
		jm.finishLocked(job, core.StatusFailed)
	default:
		utils.LogSuccess("[MANAGER] Job %s ready: %s", job.ID, result.Filename)
		job.Title = result.Title
		job.Filename = result.Filename
		job.OutputPath = result.OutputPath
		job.Progress.Percentage = 100
		jm.finishLocked(job, core.StatusReady)
	}
}

func (jm *JobManager) cleanupWorker() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-jm.ctx.Done():
			log.Printf("[MANAGER] Cleanup worker shutting down")
			return
		case <-ticker.C:
			jm.cleanupExpired()
		}
	}
}

// cleanupExpired deletes finished jobs older than the expiry, along with
// their files.
func (jm *JobManager) cleanupExpired() int {
	if jm.expiry <= 0 {
		return 0
	}

	jm.mutex.Lock()
	defer jm.mutex.Unlock()

	now := jm.now()
	removed := 0
	for id, job := range jm.jobs {
		if !job.Status.Terminal() || job.CompletedAt == nil || now.Sub(*job.CompletedAt) <= jm.expiry {
			continue
		}
		if job.OutputPath != "" {
			if err := os.Remove(job.OutputPath); err != nil && !os.IsNotExist(err) {
				log.Printf("[MANAGER] Failed to delete expired file %s: %v", job.OutputPath, err)
			}
		}
		delete(jm.jobs, id)
		delete(jm.done, id)
		if jm.byKey[job.Request().Key()] == id {
			delete(jm.byKey, job.Request().Key())
		}
		removed++
	}

	if removed > 0 {
		log.Printf("[MANAGER] Cleanup completed: removed %d expired jobs", removed)
	}
	return removed
}

// FilePath returns the on-disk path of a ready job's file by file name.
func (jm *JobManager) FilePath(filename string) (core.Job, bool) {
	jm.mutex.RLock()
	defer jm.mutex.RUnlock()

	for _, job := range jm.jobs {
		if job.Status == core.StatusReady && job.Filename == filename {
			return *job, true
		}
	}
	return core.Job{}, false
}

func (jm *JobManager) Shutdown() {
	log.Printf("[MANAGER] Shutting down job manager...")

	jm.cancel()
	jm.workers.Wait()

	if err := jm.SaveState(); err != nil {
		log.Printf("[MANAGER] Failed to save final state: %v", err)
	}

	log.Printf("[MANAGER] Job manager shutdown complete")
}
