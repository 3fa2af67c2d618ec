package background

import (
	"context"
	"log"
	"time"

	"userbase/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler keeps the cached inactive users report warm so the admin
// report endpoint rarely hits the database.
type JobScheduler struct {
	scheduler   gocron.Scheduler
	userService services.UserService
}

func NewJobScheduler(userService services.UserService, refreshInterval time.Duration) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:   scheduler,
		userService: userService,
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(refreshInterval),
		gocron.NewTask(js.refreshInactiveReport, context.Background()),
		gocron.WithName("inactive-users-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) refreshInactiveReport(ctx context.Context) {
	if err := js.userService.RefreshInactiveReport(ctx); err != nil {
		log.Printf("Failed to refresh inactive users report: %v", err)
	}
}
