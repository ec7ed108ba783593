package controller

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"

	"kartacademy_backend/internals/features/enrollments/enrollments/model"
	reconcilerService "kartacademy_backend/internals/features/enrollments/reconciler/service"
)

type staleStoreSpy struct {
	listCalls int
}

func (s *staleStoreSpy) ListStalePending(_ context.Context, _ time.Time) ([]model.Enrollment, error) {
	s.listCalls++
	return nil, nil
}

func (s *staleStoreSpy) MarkTimedOut(_ context.Context, _ uuid.UUID) error { return nil }

// The list endpoint must run the stale-payment sweep before querying, so a
// filter on failed payments sees timeouts decided in this same request.
func TestListAllSweepsStalePaymentsFirst(t *testing.T) {
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("open dummy db: %v", err)
	}

	spy := &staleStoreSpy{}
	ctl := NewEnrollmentController(db)
	ctl.Reconciler = reconcilerService.NewReconciler(spy)

	app := fiber.New()
	app.Get("/enrollments", ctl.ListAll)

	req := httptest.NewRequest("GET", "/enrollments?payment_status=failed", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if spy.listCalls != 1 {
		t.Fatalf("sweep ran %d times during the list request, want 1", spy.listCalls)
	}
}
