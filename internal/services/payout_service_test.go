package services

import (
	"testing"

	"github.com/Townsmeet/imentor-sub000/internal/models"
)

func TestEvaluateBatchBelowMinimum(t *testing.T) {
	earnings := []models.Earning{
		{ID: 1, NetAmount: 4.50},
		{ID: 2, NetAmount: 2.50},
	}
	bank := &models.BankAccount{Status: models.BankAccountStatusVerified}

	eligibility := evaluateBatch(earnings, bank, 10)
	if eligibility.Eligible {
		t.Fatalf("expected not eligible at $7 against a $10 minimum")
	}
	if eligibility.Reason != ReasonBelowMinimum {
		t.Fatalf("expected below-minimum reason, got %q", eligibility.Reason)
	}
	if eligibility.Amount != 7 {
		t.Fatalf("expected amount 7, got %v", eligibility.Amount)
	}
}

func TestEvaluateBatchNothingToPay(t *testing.T) {
	bank := &models.BankAccount{Status: models.BankAccountStatusVerified}

	eligibility := evaluateBatch(nil, bank, 10)
	if eligibility.Eligible {
		t.Fatalf("expected not eligible with no earnings")
	}
	if eligibility.Reason != ReasonNothingToPay {
		t.Fatalf("expected nothing-to-pay reason, got %q", eligibility.Reason)
	}
}

func TestEvaluateBatchRequiresVerifiedBankAccount(t *testing.T) {
	earnings := []models.Earning{{ID: 1, NetAmount: 135}}

	eligibility := evaluateBatch(earnings, nil, 10)
	if eligibility.Eligible || eligibility.Reason != ReasonBankAccountMissing {
		t.Fatalf("expected missing-bank reason, got %+v", eligibility)
	}

	pending := &models.BankAccount{Status: models.BankAccountStatusPending}
	eligibility = evaluateBatch(earnings, pending, 10)
	if eligibility.Eligible || eligibility.Reason != ReasonBankAccountPending {
		t.Fatalf("expected pending-bank reason, got %+v", eligibility)
	}
}

func TestLockKeyHandlesWideIDs(t *testing.T) {
	wideID := int64(1)<<33 + 7

	if lockKey(lockClassBooking, wideID) == lockKey(lockClassPayout, wideID) {
		t.Fatalf("expected distinct keys per lock class")
	}
	if lockKey(lockClassBooking, 1) == lockKey(lockClassBooking, 2) {
		t.Fatalf("expected distinct keys per mentor")
	}
	// The key for an id past 32 bits must still land in the class's range
	// instead of failing.
	if lockKey(lockClassPayout, wideID)>>32 != lockClassPayout {
		t.Fatalf("expected class bits preserved for wide id, got %d", lockKey(lockClassPayout, wideID))
	}
}

func TestEvaluateBatchEligibleSumsNets(t *testing.T) {
	earnings := []models.Earning{
		{ID: 1, NetAmount: 135},
		{ID: 2, NetAmount: 90},
		{ID: 3, NetAmount: 45.50},
	}
	bank := &models.BankAccount{Status: models.BankAccountStatusVerified}

	eligibility := evaluateBatch(earnings, bank, 10)
	if !eligibility.Eligible {
		t.Fatalf("expected eligible, got %+v", eligibility)
	}
	if eligibility.Amount != 270.50 {
		t.Fatalf("expected amount 270.50, got %v", eligibility.Amount)
	}
	if eligibility.EarningCount != 3 {
		t.Fatalf("expected 3 earnings, got %d", eligibility.EarningCount)
	}
}
