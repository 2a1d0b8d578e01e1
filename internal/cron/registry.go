package cron

import (
	"context"
	"time"
)

// Job represents a scheduled task that runs inside the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Every wraps a job so the service runs it at most once per cadence
// instead of on every tick.
func Every(cadence time.Duration, job Job) Job {
	if job == nil {
		return nil
	}
	if cadence <= 0 {
		return job
	}
	return &cadencedJob{Job: job, cadence: cadence}
}

type cadencedJob struct {
	Job
	cadence time.Duration
}

func (c *cadencedJob) Cadence() time.Duration { return c.cadence }

// Registry tracks registered cron jobs.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry preloaded with the provided jobs.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		registry.jobs = append(registry.jobs, job)
	}
	return registry
}

// Register adds a job to the registry.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns the registered jobs in the order they were added.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
