// Package scheduler triggers periodic maintenance on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/scribe/internal/tasks"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// NextRun returns the first activation of schedule after from.
func NextRun(schedule string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// Enqueuer hands work to the task queue.
type Enqueuer interface {
	Enqueue(tasks ...backlite.Task) ([]string, error)
}

// CoverAuditScheduler runs the cover audit on a schedule. When a task
// queue is available the audit is enqueued there; otherwise it runs inline
// on the cron goroutine.
type CoverAuditScheduler struct {
	schedule string
	queue    Enqueuer
	auditor  *tasks.CoverAuditor

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	auditing  sync.Mutex
}

// NewCoverAuditScheduler needs at least one of queue or auditor.
func NewCoverAuditScheduler(schedule string, queue Enqueuer, auditor *tasks.CoverAuditor) *CoverAuditScheduler {
	return &CoverAuditScheduler{
		schedule: schedule,
		queue:    queue,
		auditor:  auditor,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the job and starts the cron loop. The scheduler stops
// when ctx is cancelled.
func (s *CoverAuditScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.queue == nil && s.auditor == nil {
		return fmt.Errorf("cover audit scheduler: nothing to run")
	}
	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.RunNow)
	if err != nil {
		return fmt.Errorf("failed to schedule cover audit: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	next, _ := NextRun(s.schedule, time.Now())
	log.Printf("Cover audit scheduler: started with schedule '%s'. Next run: %v", s.schedule, next)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job to finish.
func (s *CoverAuditScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.isRunning = false

	log.Printf("Cover audit scheduler: stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *CoverAuditScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the audit fires next, or nil when stopped.
func (s *CoverAuditScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	t := s.cron.Entry(s.entryID).Next
	return &t
}

// RunNow triggers one audit. Overlapping inline runs are skipped.
func (s *CoverAuditScheduler) RunNow() {
	if s.queue != nil {
		ids, err := s.queue.Enqueue(tasks.CoverAuditTask{})
		if err != nil {
			log.Printf("Cover audit: failed to enqueue: %v", err)
			return
		}
		log.Printf("Cover audit: enqueued task %v", ids)
		return
	}

	if !s.auditing.TryLock() {
		log.Printf("Cover audit: skipped (previous run still in progress)")
		return
	}
	defer s.auditing.Unlock()

	startTime := time.Now()
	report, err := s.auditor.Run(context.Background(), false)
	if err != nil {
		log.Printf("Cover audit: failed: %v", err)
		return
	}
	log.Printf("Cover audit: %s in %v", report, time.Since(startTime).Round(time.Millisecond))
}
