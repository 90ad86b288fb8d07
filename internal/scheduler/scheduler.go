package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		jobs: make([]Job, 0),
	}
}

// RegisterJob adds a job and, when it has a schedule, installs it on the cron.
func (s *Scheduler) RegisterJob(job Job) error {
	schedule := job.Schedule()
	if schedule != "" {
		_, err := s.cron.AddFunc(schedule, func() {
			log.Printf("🔄 [%s] Starting scheduled job...", job.Name())
			if err := job.Execute(context.Background()); err != nil {
				log.Printf("❌ [%s] Job failed: %v", job.Name(), err)
			} else {
				log.Printf("✅ [%s] Job completed successfully", job.Name())
			}
		})
		if err != nil {
			return fmt.Errorf("schedule %s with %q: %w", job.Name(), schedule, err)
		}
		log.Printf("📅 [%s] Scheduled with cron: %s", job.Name(), schedule)
	} else {
		log.Printf("📝 [%s] Registered as on-demand job (no schedule)", job.Name())
	}

	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("🚀 Scheduler started with %d registered jobs", len(s.jobs))
}

// Stop halts the cron and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 Scheduler stopped")
}

func (s *Scheduler) RunJobByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			log.Printf("🎯 [%s] Running on-demand execution...", name)
			return job.Execute(ctx)
		}
	}
	return fmt.Errorf("job %q not found", name)
}

func (s *Scheduler) RegisteredJobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}
