package manager

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"clipdrop/internal/core"
)

// StateFile is the on-disk snapshot of the job table.
type StateFile struct {
	Jobs    map[string]*core.Job `json:"jobs"`
	SavedAt time.Time            `json:"saved_at"`
	Version string               `json:"version"`
}

const StateVersion = "1"

const stateFileName = ".clipdrop_state.json"

func (jm *JobManager) StateFilePath() string {
	return filepath.Join(jm.outputDir, stateFileName)
}

// SaveState writes the job table to a temp file and renames it into place.
func (jm *JobManager) SaveState() error {
	jm.mutex.RLock()
	state := StateFile{
		Jobs:    make(map[string]*core.Job, len(jm.jobs)),
		SavedAt: jm.now(),
		Version: StateVersion,
	}
	for id, job := range jm.jobs {
		snapshot := *job
		state.Jobs[id] = &snapshot
	}
	jm.mutex.RUnlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	path := jm.StateFilePath()
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename state file: %w", err)
	}

	log.Printf("[MANAGER] State saved with %d jobs", len(state.Jobs))
	return nil
}

// LoadState restores jobs from disk. Jobs that were queued or running when
// the process stopped are queued again; ready jobs whose file is gone are
// marked failed.
func (jm *JobManager) LoadState() error {
	data, err := os.ReadFile(jm.StateFilePath())
	if os.IsNotExist(err) {
		log.Printf("[MANAGER] No state file found, starting fresh")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var state StateFile
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to unmarshal state file: %w", err)
	}
	if state.Version != StateVersion {
		log.Printf("[MANAGER] State file version mismatch (found %s, expected %s), starting fresh",
			state.Version, StateVersion)
		return nil
	}

	jm.mutex.Lock()
	defer jm.mutex.Unlock()

	restored := 0
	for id, job := range state.Jobs {
		if !restorable(job) || id != job.ID {
			log.Printf("[MANAGER] Skipping invalid job during restoration: %s", id)
			continue
		}

		jm.jobs[id] = job
		jm.byKey[job.Request().Key()] = id
		jm.done[id] = make(chan struct{})

		if job.Status.Terminal() {
			close(jm.done[id])
		} else {
			job.Status = core.StatusQueued
			job.Progress = core.Progress{}
			select {
			case jm.queue <- job:
				log.Printf("[MANAGER] Re-queued interrupted job: %s", id)
			default:
				job.Error = "Queue full during restoration"
				jm.finishLocked(job, core.StatusFailed)
			}
		}
		restored++
	}

	log.Printf("[MANAGER] State restored: %d jobs loaded (saved at %s)",
		restored, state.SavedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func restorable(job *core.Job) bool {
	if job == nil || job.ID == "" || job.URL == "" {
		return false
	}
	if job.Status == core.StatusReady {
		if _, err := os.Stat(job.OutputPath); err != nil {
			log.Printf("[MANAGER] Ready job file missing, marking as failed: %s", job.OutputPath)
			job.Status = core.StatusFailed
			job.Error = "Output file not found after restart"
		}
	}
	return true
}

// StartPeriodicStateSave saves the job table every 30 seconds until
// shutdown.
func (jm *JobManager) StartPeriodicStateSave() {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-jm.ctx.Done():
				return
			case <-ticker.C:
				if err := jm.SaveState(); err != nil {
					log.Printf("[MANAGER] Failed to save state: %v", err)
				}
			}
		}
	}()
}
