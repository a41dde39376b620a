package boot

import (
	"context"
	"log"

	"gorm.io/gorm"

	"ers/src/config"
	"ers/src/core"
	"ers/src/db"
	"ers/src/lib"
	"ers/src/models"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Registration{},
		&models.WaitlistEntry{},
		&models.TransferRequest{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	// Partial unique indexes back the in-process uniqueness checks so a
	// second process cannot slip a duplicate through either.
	if err := db.Exec(`
	CREATE UNIQUE INDEX IF NOT EXISTS idx_registrations_one_active
	ON registrations (event_id, user_id)
	WHERE status IN ('pending', 'confirmed', 'waitlisted') AND deleted_at IS NULL
	`).Error; err != nil {
		log.Printf("Error creating INDEX idx_registrations_one_active: %s\n", err.Error())
	}
	if err := db.Exec(`
	CREATE UNIQUE INDEX IF NOT EXISTS idx_waitlist_one_queued
	ON waitlist_entries (event_id, user_id)
	WHERE status = 'queued' AND deleted_at IS NULL
	`).Error; err != nil {
		log.Printf("Error creating INDEX idx_waitlist_one_queued: %s\n", err.Error())
	}

	return db
}

// InitScheduler registers the periodic expiry sweep. The lazy read-time
// check alone would let capacity starve on low-traffic events.
func InitScheduler(engine *core.Engine) {
	interval := config.SweepInterval()
	id, err := lib.CreateCronJob(func() {
		n, err := engine.SweepExpired(context.Background())
		if err != nil {
			log.Printf("Error sweeping expired registrations: %s\n", err.Error())
			return
		}
		if n > 0 {
			log.Printf("Swept %d expired registrations\n", n)
		}
	}, interval)
	if err != nil {
		log.Printf("Error scheduling expiry sweep: %s\n", err.Error())
		return
	}
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	sched.Start()
	log.Printf("Expiry sweep scheduled every %s (job %s)\n", interval, *id)
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}
