package background

import (
	"context"
	"log"
	"time"

	"iconforge/internal/repositories"
	"iconforge/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler runs the orphan-blob reconciliation sweep. A generation that
// fails between blob upload and record insert, or a delete whose blob removal
// failed, leaves an object no record points at; the sweep removes those once
// they are old enough that no in-flight generation can still claim them.
type JobScheduler struct {
	scheduler gocron.Scheduler
	storage   services.StorageService
	imageRepo repositories.ImageRepository
	interval  time.Duration
	minAge    time.Duration
}

func NewJobScheduler(storage services.StorageService, imageRepo repositories.ImageRepository, interval, minAge time.Duration) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler: scheduler,
		storage:   storage,
		imageRepo: imageRepo,
		interval:  interval,
		minAge:    minAge,
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(js.sweepOrphanBlobs, context.Background()),
		gocron.WithName("orphan-blob-sweep"),
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

func (js *JobScheduler) sweepOrphanBlobs(ctx context.Context) error {
	objects, err := js.storage.List(ctx)
	if err != nil {
		log.Printf("orphan sweep: listing bucket failed: %v", err)
		return err
	}

	cutoff := time.Now().Add(-js.minAge)
	removed := 0
	for _, object := range objects {
		if object.LastModified.After(cutoff) {
			continue
		}

		exists, err := js.imageRepo.ExistsByURL(ctx, js.storage.PublicURL(object.Key))
		if err != nil {
			log.Printf("orphan sweep: record lookup for %s failed: %v", object.Key, err)
			continue
		}
		if exists {
			continue
		}

		if err := js.storage.Delete(ctx, object.Key); err != nil {
			log.Printf("orphan sweep: removing %s failed: %v", object.Key, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Printf("orphan sweep removed %d blobs", removed)
	}
	return nil
}
