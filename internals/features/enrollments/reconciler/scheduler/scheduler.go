package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"

	"kartacademy_backend/internals/features/enrollments/reconciler/service"
)

// StartStalePaymentScheduler runs the stale-payment sweep on an interval.
// The admin payments endpoints also run the sweep inline before listing, so
// this loop only keeps the data fresh between dashboard visits.
func StartStalePaymentScheduler(db *gorm.DB) {
	go func() {
		staleHours := 24
		if val := os.Getenv("STALE_PAYMENT_TIMEOUT_HOURS"); val != "" {
			if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
				staleHours = parsed
			}
		}
		intervalMin := 60
		if val := os.Getenv("STALE_PAYMENT_SWEEP_MINUTES"); val != "" {
			if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
				intervalMin = parsed
			}
		}

		rec := service.FromDB(db)
		rec.StaleAfter = time.Duration(staleHours) * time.Hour

		for {
			log.Println("[RECONCILER] sweeping stale payments...")
			if _, err := rec.Sweep(context.Background()); err != nil {
				log.Printf("[RECONCILER ERROR] sweep: %v", err)
			}
			time.Sleep(time.Duration(intervalMin) * time.Minute)
		}
	}()
}
