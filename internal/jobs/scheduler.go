// internal/jobs/scheduler.go
// Background maintenance tasks

package jobs

import (
    "context"
    "log"
    "sync"
    "time"
)

// Task is a unit of scheduled work
type Task func(ctx context.Context) error

type job struct {
    name    string
    task    Task
    next    func(now time.Time) time.Time
    timeout time.Duration
}

// Scheduler runs registered tasks on their own goroutines until the
// context passed to Start is cancelled
type Scheduler struct {
    jobs []job
    wg   sync.WaitGroup
    now  func() time.Time
}

func NewScheduler() *Scheduler {
    return &Scheduler{now: time.Now}
}

// Every runs task at a fixed interval, starting immediately
func (s *Scheduler) Every(name string, interval time.Duration, task Task) {
    first := true
    s.jobs = append(s.jobs, job{
        name: name,
        task: task,
        next: func(now time.Time) time.Time {
            if first {
                first = false
                return now
            }
            return now.Add(interval)
        },
        timeout: interval,
    })
}

// Daily runs task once a day at hour:minute local time
func (s *Scheduler) Daily(name string, hour, minute int, task Task) {
    s.jobs = append(s.jobs, job{
        name: name,
        task: task,
        next: func(now time.Time) time.Time {
            return nextDaily(now, hour, minute)
        },
        timeout: 30 * time.Minute,
    })
}

func nextDaily(now time.Time, hour, minute int) time.Time {
    next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
    if !next.After(now) {
        next = next.AddDate(0, 0, 1)
    }
    return next
}

// Start launches every job. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
    for _, j := range s.jobs {
        s.wg.Add(1)
        go s.run(ctx, j)
    }
    log.Printf("⏰ Scheduler started with %d jobs", len(s.jobs))
}

// Wait blocks until every job has stopped
func (s *Scheduler) Wait() {
    s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, j job) {
    defer s.wg.Done()

    for {
        now := s.now()
        timer := time.NewTimer(j.next(now).Sub(now))

        select {
        case <-timer.C:
            s.execute(ctx, j)
        case <-ctx.Done():
            timer.Stop()
            log.Printf("Stopping job %s", j.name)
            return
        }
    }
}

func (s *Scheduler) execute(ctx context.Context, j job) {
    runCtx, cancel := context.WithTimeout(ctx, j.timeout)
    defer cancel()

    start := time.Now()
    if err := j.task(runCtx); err != nil {
        log.Printf("Scheduled task %s failed: %v", j.name, err)
        return
    }
    if d := time.Since(start); d > time.Second {
        log.Printf("Scheduled task %s took %v", j.name, d)
    }
}
