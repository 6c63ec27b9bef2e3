package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	delinquencyDomain "loan-servicing-engine/internal/domain/delinquency"
	pauseDomain "loan-servicing-engine/internal/domain/interestpause"
	restructureDomain "loan-servicing-engine/internal/domain/restructure"
	"loan-servicing-engine/pkg/id"
)

func TestInterestPauseRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewInterestPauseRepository(db)
	ctx := context.Background()

	pauseID := id.NewID32()
	p := &pauseDomain.Pause{
		PauseID:   pauseID,
		LoanID:    1,
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Reason:    "hardship",
		IsActive:  true,
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Inactive pause on the same loan must not be listed.
	if err := repo.Create(ctx, &pauseDomain.Pause{
		PauseID:   id.NewID32(),
		LoanID:    1,
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		IsActive:  false,
	}); err != nil {
		t.Fatalf("Create inactive: %v", err)
	}

	got, err := repo.GetByPauseID(ctx, pauseID)
	if err != nil {
		t.Fatalf("GetByPauseID: %v", err)
	}
	if got.Reason != "hardship" || !got.IsActive {
		t.Fatalf("unexpected pause: %+v", got)
	}

	active, err := repo.ListActiveByLoanID(ctx, 1)
	if err != nil {
		t.Fatalf("ListActiveByLoanID: %v", err)
	}
	if len(active) != 1 || active[0].PauseID != pauseID {
		t.Fatalf("active pauses = %+v, want only %s", active, pauseID)
	}

	got.IsActive = false
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	active, _ = repo.ListActiveByLoanID(ctx, 1)
	if len(active) != 0 {
		t.Fatalf("cancelled pause still listed: %+v", active)
	}
}

func TestDelinquencyRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewDelinquencyRepository(db)
	ctx := context.Background()

	_, err := repo.GetByLoanID(ctx, 9)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("missing detail => want ErrRecordNotFound, got %v", err)
	}

	when := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	d := &delinquencyDomain.Detail{
		LoanID:           9,
		Classification:   delinquencyDomain.Delinquent30,
		DelinquentDays:   45,
		DelinquentAmount: decimal.NewFromInt(224),
		DelinquentDate:   &when,
		IsActive:         true,
	}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByLoanID(ctx, 9)
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if got.Classification != delinquencyDomain.Delinquent30 || got.DelinquentDays != 45 {
		t.Fatalf("unexpected detail: %+v", got)
	}

	got.PreviousClassification = got.Classification
	got.Classification = delinquencyDomain.Delinquent90
	got.DelinquentDays = 95
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ = repo.GetByLoanID(ctx, 9)
	if got.Classification != delinquencyDomain.Delinquent90 ||
		got.PreviousClassification != delinquencyDomain.Delinquent30 {
		t.Fatalf("transition not persisted: %+v", got)
	}
}

func TestRestructureRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewRestructureRepository(db)
	ctx := context.Background()

	restructureID := id.NewID32()
	req := &restructureDomain.Request{
		RestructureID:      restructureID,
		LoanID:             4,
		Type:               restructureDomain.TypeReschedule,
		RescheduleFromDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		ExtraInstallments:  3,
		Reason:             "income shock",
		Status:             restructureDomain.StatusPending,
		StatusUpdatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(ctx, req); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByRestructureID(ctx, restructureID)
	if err != nil {
		t.Fatalf("GetByRestructureID: %v", err)
	}
	if got.Type != restructureDomain.TypeReschedule || got.Status != restructureDomain.StatusPending {
		t.Fatalf("unexpected request: %+v", got)
	}

	locked, err := repo.GetByRestructureIDForUpdate(ctx, restructureID)
	if err != nil {
		t.Fatalf("GetByRestructureIDForUpdate: %v", err)
	}

	now := time.Now().UTC()
	locked.Status = restructureDomain.StatusApproved
	locked.ApprovedAt = &now
	if err := repo.Save(ctx, locked); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ = repo.GetByRestructureID(ctx, restructureID)
	if got.Status != restructureDomain.StatusApproved || got.ApprovedAt == nil {
		t.Fatalf("approval not persisted: %+v", got)
	}
}
