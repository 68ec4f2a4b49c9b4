package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/Townsmeet/imentor-sub000/internal/payments"
	"github.com/Townsmeet/imentor-sub000/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

// fakeGateway is an in-memory payment processor: intents succeed when the
// test says so, transfers hand back a reference or a scripted failure.
type fakeGateway struct {
	intents      map[string]payments.IntentStatus
	transfers    map[string]string
	intentSeq    int
	transferSeq  int
	transferErr  error
	refunded     []string
	lastTransfer float64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		intents:   make(map[string]payments.IntentStatus),
		transfers: make(map[string]string),
	}
}

func (g *fakeGateway) CreateIntent(_ context.Context, _ float64, _ string, _ map[string]string) (*payments.Intent, error) {
	g.intentSeq++
	ref := fmt.Sprintf("pi_test_%d", g.intentSeq)
	g.intents[ref] = payments.IntentStatusPending
	return &payments.Intent{Ref: ref, ClientSecret: ref + "_secret", Status: payments.IntentStatusPending}, nil
}

func (g *fakeGateway) GetIntentStatus(_ context.Context, intentRef string) (payments.IntentStatus, error) {
	status, ok := g.intents[intentRef]
	if !ok {
		return "", errors.New("unknown intent")
	}
	return status, nil
}

func (g *fakeGateway) Refund(_ context.Context, intentRef string) error {
	g.refunded = append(g.refunded, intentRef)
	return nil
}

func (g *fakeGateway) Transfer(_ context.Context, _ string, amount float64, _ string, idempotencyKey string, _ map[string]string) (string, error) {
	if g.transferErr != nil {
		return "", g.transferErr
	}
	// A repeated idempotency key hands back the original transfer, the way the
	// real processor deduplicates.
	if ref, ok := g.transfers[idempotencyKey]; ok {
		return ref, nil
	}
	g.transferSeq++
	g.lastTransfer = amount
	ref := fmt.Sprintf("tr_test_%d", g.transferSeq)
	g.transfers[idempotencyKey] = ref
	return ref, nil
}

func (g *fakeGateway) succeed(intentRef string) {
	g.intents[intentRef] = payments.IntentStatusSucceeded
}

type integrationEnv struct {
	pool     *pgxpool.Pool
	gateway  *fakeGateway
	bookings *BookingService
	events   *PaymentEventService
	earnings *EarningsService
	payouts  *PayoutService
	slots    *AvailabilityService
}

func newIntegrationEnv(pool *pgxpool.Pool) *integrationEnv {
	logger := zap.NewNop()
	gateway := newFakeGateway()

	bookingRepo := repository.NewBookingRepository(pool)
	earningRepo := repository.NewEarningRepository(pool)
	notifier := NewNotificationService(repository.NewNotificationRepository(pool), nil, logger)
	earnings := NewEarningsService(pool, earningRepo, 0.10)

	return &integrationEnv{
		pool:    pool,
		gateway: gateway,
		bookings: NewBookingService(
			pool,
			bookingRepo,
			earningRepo,
			repository.NewUserRepository(pool),
			repository.NewMentorProfileRepository(pool),
			earnings,
			gateway,
			NewMeetingLinkProvider("https://meet.test"),
			notifier,
			logger,
			"usd",
		),
		events:   NewPaymentEventService(pool, bookingRepo, earnings, gateway, notifier, logger),
		earnings: earnings,
		payouts: NewPayoutService(
			pool,
			earningRepo,
			repository.NewPayoutRepository(pool),
			repository.NewBankAccountRepository(pool),
			gateway,
			notifier,
			logger,
			10,
			"usd",
		),
		slots: NewAvailabilityService(pool, repository.NewAvailabilityRepository(pool), bookingRepo),
	}
}

func TestBookingToSettlementPipeline(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	env := newIntegrationEnv(pool)

	menteeID := createTestAccount(t, ctx, pool, "mentee", 0)
	mentorID := createTestAccount(t, ctx, pool, "mentor", 100)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, menteeID, mentorID) })

	scheduledAt := time.Date(2030, 3, 12, 9, 0, 0, 0, time.UTC)
	openTestSlot(t, ctx, pool, mentorID, scheduledAt)

	detail, err := env.bookings.Create(ctx, menteeID, CreateBookingInput{
		MentorID:        mentorID,
		Title:           "Architecture review",
		ScheduledAt:     scheduledAt,
		DurationMinutes: 90,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if detail.Status != models.BookingStatusPending {
		t.Fatalf("expected pending booking, got %q", detail.Status)
	}
	if detail.Price != 150 {
		t.Fatalf("expected price 150 for 90min at rate 100, got %.2f", detail.Price)
	}
	if detail.PaymentIntentRef == nil {
		t.Fatalf("expected a payment intent ref")
	}

	// The processor retries webhooks; a duplicate success must not mint a
	// second earning.
	env.gateway.succeed(*detail.PaymentIntentRef)
	event := &payments.WebhookEvent{Type: payments.EventIntentSucceeded, IntentRef: *detail.PaymentIntentRef}
	if err := env.events.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent first delivery: %v", err)
	}
	if err := env.events.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent duplicate delivery: %v", err)
	}

	var earningCount int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM earnings WHERE booking_id = $1", detail.ID).Scan(&earningCount); err != nil {
		t.Fatalf("count earnings: %v", err)
	}
	if earningCount != 1 {
		t.Fatalf("expected exactly one earning, got %d", earningCount)
	}

	// A pending booking cannot jump straight to completed.
	if _, err := env.bookings.Complete(ctx, menteeID, "mentee", detail.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState completing a pending booking, got %v", err)
	}

	confirmed, err := env.bookings.Confirm(ctx, menteeID, "mentee", detail.ID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmed.Status != models.BookingStatusConfirmed || confirmed.MeetingLink == nil {
		t.Fatalf("expected confirmed booking with meeting link, got %+v", confirmed.Booking)
	}

	completed, err := env.bookings.Complete(ctx, mentorID, "mentor", detail.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != models.BookingStatusCompleted {
		t.Fatalf("expected completed booking, got %q", completed.Status)
	}

	earning, err := repository.NewEarningRepository(pool).GetByBookingID(ctx, detail.ID)
	if err != nil {
		t.Fatalf("GetByBookingID: %v", err)
	}
	if earning.Status != models.EarningStatusAvailable {
		t.Fatalf("expected available earning, got %q", earning.Status)
	}
	if earning.PlatformFee != 15 || earning.NetAmount != 135 {
		t.Fatalf("expected 15/135 split, got %.2f/%.2f", earning.PlatformFee, earning.NetAmount)
	}

	if _, err := env.payouts.SetupBankAccount(ctx, mentorID, SetupBankAccountInput{
		HolderName:     "Test Mentor",
		BankName:       "Test Bank",
		AccountNumber:  "000123456789",
		DestinationRef: "acct_test_1",
	}); err != nil {
		t.Fatalf("SetupBankAccount: %v", err)
	}
	if _, err := env.payouts.SetBankAccountStatus(ctx, mentorID, models.BankAccountStatusVerified); err != nil {
		t.Fatalf("SetBankAccountStatus: %v", err)
	}

	payout, err := env.payouts.Process(ctx, mentorID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if payout.Status != models.PayoutStatusCompleted {
		t.Fatalf("expected completed payout, got %q (%v)", payout.Status, payout.FailureReason)
	}
	if payout.Amount != 135 {
		t.Fatalf("expected payout amount 135, got %.2f", payout.Amount)
	}
	if env.gateway.lastTransfer != 135 {
		t.Fatalf("expected transfer of 135, got %.2f", env.gateway.lastTransfer)
	}

	paid, err := repository.NewEarningRepository(pool).GetByID(ctx, earning.ID)
	if err != nil {
		t.Fatalf("reload earning: %v", err)
	}
	if paid.Status != models.EarningStatusPaid || paid.PayoutID == nil || *paid.PayoutID != payout.ID {
		t.Fatalf("expected earning paid into payout %d, got %+v", payout.ID, paid)
	}

	// A paid earning is frozen: it can neither go back to available nor be
	// paid into another payout.
	if err := env.earnings.MarkAvailable(ctx, earning.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState reopening a paid earning, got %v", err)
	}
	if err := env.earnings.MarkPaid(ctx, earning.ID, payout.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState re-paying a paid earning, got %v", err)
	}

	remaining, err := env.earnings.AvailableEarningsFor(ctx, mentorID)
	if err != nil {
		t.Fatalf("AvailableEarningsFor: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected drained ledger, got %d earnings", len(remaining))
	}

	// The ledger is drained now; a second run must report ineligibility, not
	// pay twice.
	if _, err := env.payouts.Process(ctx, mentorID); !errors.Is(err, ErrPayoutNotEligible) {
		t.Fatalf("expected ErrPayoutNotEligible on a drained ledger, got %v", err)
	}
}

func TestCreateRejectsOverlappingBookings(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	env := newIntegrationEnv(pool)

	firstMenteeID := createTestAccount(t, ctx, pool, "mentee", 0)
	secondMenteeID := createTestAccount(t, ctx, pool, "mentee", 0)
	mentorID := createTestAccount(t, ctx, pool, "mentor", 80)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, firstMenteeID, secondMenteeID, mentorID) })

	scheduledAt := time.Date(2030, 4, 1, 12, 0, 0, 0, time.UTC)
	openTestSlot(t, ctx, pool, mentorID, scheduledAt)

	if open, err := env.slots.IsSlotOpen(ctx, mentorID, scheduledAt, 60); err != nil || !open {
		t.Fatalf("expected open slot, got open=%v err=%v", open, err)
	}

	if _, err := env.bookings.Create(ctx, firstMenteeID, CreateBookingInput{
		MentorID:        mentorID,
		Title:           "First session",
		ScheduledAt:     scheduledAt,
		DurationMinutes: 60,
	}); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	if conflict, err := env.slots.HasConflict(ctx, mentorID, scheduledAt.Add(30*time.Minute), 45); err != nil || !conflict {
		t.Fatalf("expected conflict for overlapping window, got conflict=%v err=%v", conflict, err)
	}

	// Starts mid-way through the first window: different start, still an
	// overlap.
	_, err := env.bookings.Create(ctx, secondMenteeID, CreateBookingInput{
		MentorID:        mentorID,
		Title:           "Second session",
		ScheduledAt:     scheduledAt.Add(30 * time.Minute),
		DurationMinutes: 45,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCancelNeverTouchesConfirmedBookings(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	env := newIntegrationEnv(pool)

	menteeID := createTestAccount(t, ctx, pool, "mentee", 0)
	mentorID := createTestAccount(t, ctx, pool, "mentor", 60)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, menteeID, mentorID) })

	scheduledAt := time.Date(2030, 5, 10, 8, 0, 0, 0, time.UTC)
	openTestSlot(t, ctx, pool, mentorID, scheduledAt)

	detail, err := env.bookings.Create(ctx, menteeID, CreateBookingInput{
		MentorID:        mentorID,
		Title:           "Interview prep",
		ScheduledAt:     scheduledAt,
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	env.gateway.succeed(*detail.PaymentIntentRef)
	if _, err := env.bookings.Confirm(ctx, menteeID, "mentee", detail.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if _, err := env.bookings.Cancel(ctx, menteeID, "mentee", detail.ID); !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("expected ErrAlreadyConfirmed, got %v", err)
	}
}

func TestPaymentSuccessAfterCancellationMintsNoEarning(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	env := newIntegrationEnv(pool)

	menteeID := createTestAccount(t, ctx, pool, "mentee", 0)
	mentorID := createTestAccount(t, ctx, pool, "mentor", 100)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, menteeID, mentorID) })

	scheduledAt := time.Date(2030, 6, 3, 9, 0, 0, 0, time.UTC)
	openTestSlot(t, ctx, pool, mentorID, scheduledAt)

	// Paid, then cancelled, then the processor redelivers the success event.
	detail, err := env.bookings.Create(ctx, menteeID, CreateBookingInput{
		MentorID:        mentorID,
		Title:           "Code review",
		ScheduledAt:     scheduledAt,
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	env.gateway.succeed(*detail.PaymentIntentRef)
	event := &payments.WebhookEvent{Type: payments.EventIntentSucceeded, IntentRef: *detail.PaymentIntentRef}
	if err := env.events.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if _, err := env.bookings.Cancel(ctx, menteeID, "mentee", detail.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(env.gateway.refunded) != 1 {
		t.Fatalf("expected one refund from cancellation, got %d", len(env.gateway.refunded))
	}
	if err := env.events.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent redelivery: %v", err)
	}

	var earningCount int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM earnings WHERE booking_id = $1", detail.ID).Scan(&earningCount); err != nil {
		t.Fatalf("count earnings: %v", err)
	}
	if earningCount != 0 {
		t.Fatalf("expected no earning for a cancelled booking, got %d", earningCount)
	}
	var paymentStatus models.PaymentStatus
	if err := pool.QueryRow(ctx, "SELECT payment_status FROM bookings WHERE id = $1", detail.ID).Scan(&paymentStatus); err != nil {
		t.Fatalf("read payment status: %v", err)
	}
	if paymentStatus != models.PaymentStatusRefunded {
		t.Fatalf("expected refunded payment, got %q", paymentStatus)
	}

	// Cancelled while unpaid, then the success lands late: the charge must be
	// sent back and still mint nothing.
	late, err := env.bookings.Create(ctx, menteeID, CreateBookingInput{
		MentorID:        mentorID,
		Title:           "System design",
		ScheduledAt:     scheduledAt.Add(2 * time.Hour),
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Create late booking: %v", err)
	}
	if _, err := env.bookings.Cancel(ctx, menteeID, "mentee", late.ID); err != nil {
		t.Fatalf("Cancel late booking: %v", err)
	}
	env.gateway.succeed(*late.PaymentIntentRef)
	if err := env.events.HandleEvent(ctx, &payments.WebhookEvent{
		Type:      payments.EventIntentSucceeded,
		IntentRef: *late.PaymentIntentRef,
	}); err != nil {
		t.Fatalf("HandleEvent late success: %v", err)
	}

	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM earnings WHERE booking_id = $1", late.ID).Scan(&earningCount); err != nil {
		t.Fatalf("count late earnings: %v", err)
	}
	if earningCount != 0 {
		t.Fatalf("expected no earning for a late-paid cancelled booking, got %d", earningCount)
	}
	if err := pool.QueryRow(ctx, "SELECT payment_status FROM bookings WHERE id = $1", late.ID).Scan(&paymentStatus); err != nil {
		t.Fatalf("read late payment status: %v", err)
	}
	if paymentStatus != models.PaymentStatusRefunded {
		t.Fatalf("expected late charge refunded, got %q", paymentStatus)
	}
	if len(env.gateway.refunded) != 2 {
		t.Fatalf("expected the late charge refunded too, got %d refunds", len(env.gateway.refunded))
	}

	// A straggling failure event for the cancelled booking must not prompt the
	// mentee to retry payment.
	if err := env.events.HandleEvent(ctx, &payments.WebhookEvent{
		Type:      payments.EventIntentFailed,
		IntentRef: *late.PaymentIntentRef,
	}); err != nil {
		t.Fatalf("HandleEvent late failure: %v", err)
	}
	var retryPrompts int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND kind = 'payment_failed'",
		menteeID,
	).Scan(&retryPrompts); err != nil {
		t.Fatalf("count retry prompts: %v", err)
	}
	if retryPrompts != 0 {
		t.Fatalf("expected no payment-failed notification for a cancelled booking, got %d", retryPrompts)
	}
}

func TestPayoutRunResumesInterruptedTransfer(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	env := newIntegrationEnv(pool)

	menteeID := createTestAccount(t, ctx, pool, "mentee", 0)
	mentorID := createTestAccount(t, ctx, pool, "mentor", 100)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, menteeID, mentorID) })

	scheduledAt := time.Date(2030, 7, 20, 14, 0, 0, 0, time.UTC)
	openTestSlot(t, ctx, pool, mentorID, scheduledAt)

	detail, err := env.bookings.Create(ctx, menteeID, CreateBookingInput{
		MentorID:        mentorID,
		Title:           "Career chat",
		ScheduledAt:     scheduledAt,
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	env.gateway.succeed(*detail.PaymentIntentRef)
	if err := env.events.HandleEvent(ctx, &payments.WebhookEvent{
		Type:      payments.EventIntentSucceeded,
		IntentRef: *detail.PaymentIntentRef,
	}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if _, err := env.bookings.Confirm(ctx, menteeID, "mentee", detail.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := env.bookings.Complete(ctx, mentorID, "mentor", detail.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	earning, err := repository.NewEarningRepository(pool).GetByBookingID(ctx, detail.ID)
	if err != nil {
		t.Fatalf("GetByBookingID: %v", err)
	}

	if _, err := env.payouts.SetupBankAccount(ctx, mentorID, SetupBankAccountInput{
		HolderName:     "Test Mentor",
		BankName:       "Test Bank",
		AccountNumber:  "000987654321",
		DestinationRef: "acct_test_2",
	}); err != nil {
		t.Fatalf("SetupBankAccount: %v", err)
	}
	if _, err := env.payouts.SetBankAccountStatus(ctx, mentorID, models.BankAccountStatusVerified); err != nil {
		t.Fatalf("SetBankAccountStatus: %v", err)
	}

	// Stage the aftermath of a run that died after sending the transfer but
	// before closing the batch: a payout stuck in processing whose transfer
	// the processor already has under the payout's idempotency key.
	stuck, err := repository.NewPayoutRepository(pool).Create(ctx, repository.CreatePayoutInput{
		MentorID:       mentorID,
		Amount:         90,
		Currency:       "usd",
		BankAccountRef: "acct_test_2",
		PeriodStart:    earning.CreatedAt,
		PeriodEnd:      earning.CreatedAt.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("stage stuck payout: %v", err)
	}
	sentRef, err := env.gateway.Transfer(ctx, "acct_test_2", 90, "usd", "payout-"+formatID(stuck.ID), nil)
	if err != nil {
		t.Fatalf("stage sent transfer: %v", err)
	}

	payout, err := env.payouts.Process(ctx, mentorID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if payout.ID != stuck.ID {
		t.Fatalf("expected the stuck payout %d to be resumed, got %d", stuck.ID, payout.ID)
	}
	if payout.Status != models.PayoutStatusCompleted {
		t.Fatalf("expected completed payout, got %q", payout.Status)
	}
	if payout.TransferRef == nil || *payout.TransferRef != sentRef {
		t.Fatalf("expected the original transfer %q, got %v", sentRef, payout.TransferRef)
	}
	if env.gateway.transferSeq != 1 {
		t.Fatalf("expected a single transfer at the processor, got %d", env.gateway.transferSeq)
	}

	paid, err := repository.NewEarningRepository(pool).GetByID(ctx, earning.ID)
	if err != nil {
		t.Fatalf("reload earning: %v", err)
	}
	if paid.Status != models.EarningStatusPaid || paid.PayoutID == nil || *paid.PayoutID != stuck.ID {
		t.Fatalf("expected earning paid into payout %d, got %+v", stuck.ID, paid)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func createTestAccount(t *testing.T, ctx context.Context, pool *pgxpool.Pool, role string, hourlyRate float64) int64 {
	t.Helper()

	userRepo := repository.NewUserRepository(pool)
	user := &models.User{
		Email:        fmt.Sprintf("pipeline-test-%s-%d@example.com", role, time.Now().UnixNano()),
		PasswordHash: "test-hash",
		Role:         role,
	}
	if err := userRepo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser(%s): %v", role, err)
	}

	if role == "mentor" {
		if _, err := pool.Exec(ctx, `
			INSERT INTO mentor_profiles (user_id, full_name, hourly_rate, onboarding_complete)
			VALUES ($1, 'Test Mentor', $2, TRUE)
		`, user.ID, hourlyRate); err != nil {
			t.Fatalf("insert mentor profile: %v", err)
		}
	}

	return user.ID
}

func openTestSlot(t *testing.T, ctx context.Context, pool *pgxpool.Pool, mentorID int64, scheduledAt time.Time) {
	t.Helper()

	slotRepo := repository.NewAvailabilityRepository(pool)
	if _, err := slotRepo.Create(ctx, repository.CreateSlotInput{
		MentorID:    mentorID,
		Weekday:     int(scheduledAt.UTC().Weekday()),
		StartMinute: 0,
		EndMinute:   1440,
		IsAvailable: true,
	}); err != nil {
		t.Fatalf("open slot: %v", err)
	}
}

func cleanupTestUsers(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userIDs ...int64) {
	t.Helper()

	if len(userIDs) == 0 {
		return
	}

	if _, err := pool.Exec(ctx, "DELETE FROM notifications WHERE user_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup notifications: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM earnings WHERE mentor_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup earnings: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM payouts WHERE mentor_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup payouts: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM bank_accounts WHERE mentor_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup bank accounts: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM bookings WHERE mentor_id = ANY($1) OR mentee_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup bookings: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM availability_slots WHERE mentor_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup availability slots: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM mentor_profiles WHERE user_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup mentor profiles: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup users: %v", err)
	}
}
