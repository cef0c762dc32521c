package gormdb

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "bnpl-ledger/internal/domain/loan"
	"bnpl-ledger/internal/testutil/dbtest"
	"bnpl-ledger/pkg/address"

	"gorm.io/gorm"
)

func makeLoan(id uint64, borrower string, status domain.Status) *domain.Loan {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Loan{
		ID:             id,
		Borrower:       borrower,
		Merchant:       address.New(),
		Amount:         5_000_000,
		CreatedAt:      now,
		DueDate:        now.Add(7 * 24 * time.Hour),
		GracePeriodEnd: now.Add(14 * 24 * time.Hour),
		Status:         status,
	}
}

func TestCreateAndGetByID(t *testing.T) {
	repo := NewLoanRepository(dbtest.Open(t))
	ctx := context.Background()

	borrower := address.New()
	if err := repo.Create(ctx, makeLoan(1, borrower, domain.StatusActive)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Borrower != borrower || got.Amount != 5_000_000 || got.Status != domain.StatusActive {
		t.Errorf("unexpected loan: %+v", got)
	}
	if got.RepaidAt != nil {
		t.Errorf("RepaidAt should be nil for a fresh loan")
	}
}

func TestSaveUpdates(t *testing.T) {
	repo := NewLoanRepository(dbtest.Open(t))
	ctx := context.Background()

	l := makeLoan(1, address.New(), domain.StatusActive)
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	l.AmountRepaid = l.Amount
	l.Status = domain.StatusRepaid
	l.IsRepaid = true
	l.RepaidAt = &now
	if err := repo.Save(ctx, l); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByIDForUpdate(ctx, 1)
	if err != nil {
		t.Fatalf("GetByIDForUpdate: %v", err)
	}
	if !got.IsRepaid || got.Status != domain.StatusRepaid || got.RepaidAt == nil || got.Remaining() != 0 {
		t.Errorf("loan not updated: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := NewLoanRepository(dbtest.Open(t))

	_, err := repo.GetByID(context.Background(), 42)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestGetActiveByBorrower(t *testing.T) {
	repo := NewLoanRepository(dbtest.Open(t))
	ctx := context.Background()

	b1 := address.New()
	seed := []*domain.Loan{
		makeLoan(1, b1, domain.StatusRepaid),
		makeLoan(2, b1, domain.StatusDefaulted),
		makeLoan(3, b1, domain.StatusActive),
		makeLoan(4, address.New(), domain.StatusActive),
	}
	for _, l := range seed {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.GetActiveByBorrower(ctx, b1)
	if err != nil {
		t.Fatalf("GetActiveByBorrower: %v", err)
	}
	if got.ID != 3 {
		t.Fatalf("active loan id = %d, want 3", got.ID)
	}

	if _, err := repo.GetActiveByBorrower(ctx, address.New()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for borrower without active loans, got %v", err)
	}
}

func TestListByBorrowerAndList(t *testing.T) {
	repo := NewLoanRepository(dbtest.Open(t))
	ctx := context.Background()

	b1, b2 := address.New(), address.New()
	for i, b := range []string{b1, b2, b1} {
		if err := repo.Create(ctx, makeLoan(uint64(i+1), b, domain.StatusRepaid)); err != nil {
			t.Fatal(err)
		}
	}

	hist, err := repo.ListByBorrower(ctx, b1)
	if err != nil {
		t.Fatalf("ListByBorrower: %v", err)
	}
	if len(hist) != 2 || hist[0].ID != 1 || hist[1].ID != 3 {
		t.Fatalf("unexpected history: %+v", hist)
	}

	all, err := repo.List(ctx, 0, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("List all: n=%d err=%v", len(all), err)
	}
	page, err := repo.List(ctx, 1, 1)
	if err != nil || len(page) != 1 || page[0].ID != 2 {
		t.Fatalf("List page: %+v err=%v", page, err)
	}
}

func TestTx_Rollback(t *testing.T) {
	repo := NewLoanRepository(dbtest.Open(t))
	ctx := context.Background()

	wantErr := errors.New("boom")
	err := repo.Tx(ctx, func(r domain.Repository) error {
		if err := r.Create(ctx, makeLoan(7, address.New(), domain.StatusActive)); err != nil {
			return err
		}
		return wantErr // force rollback
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Tx err = %v, want %v", err, wantErr)
	}

	if _, err := repo.GetByID(ctx, 7); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found after rollback, got %v", err)
	}
}
