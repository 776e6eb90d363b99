package superlikes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/imadgeboyega/matchup-backend/internal/common/database"
)

func setupPostgres(t *testing.T) *sqlx.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL is not set")
	}

	db, err := database.NewPostgresDBFromURL(dbURL)
	if err != nil {
		t.Fatalf("db connection: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.ExecContext(ctx, "TRUNCATE superlike_topups, superlike_withdrawals, superlikes_record, users RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("reset db: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *sqlx.DB, balance int64) int64 {
	t.Helper()

	var id int64
	n := time.Now().UnixNano()
	err := db.QueryRowx(`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id`,
		"user", fmt.Sprintf("u%d@example.com", n)).Scan(&id)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if balance > 0 {
		if _, err := db.Exec(`INSERT INTO superlikes_record (user_id, amount) VALUES ($1, $2)`, id, balance); err != nil {
			t.Fatalf("seed balance: %v", err)
		}
	}
	return id
}

func TestPostgresTransfer(t *testing.T) {
	db := setupPostgres(t)
	store := NewPostgresStore(db)
	ctx := context.Background()

	alice := seedUser(t, db, 10)
	bob := seedUser(t, db, 0)

	balance, err := store.Transfer(ctx, alice, bob, 4)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if balance != 6 {
		t.Fatalf("expected sender balance 6, got %d", balance)
	}
	if got, _ := store.Balance(ctx, bob); got != 4 {
		t.Fatalf("expected receiver balance 4, got %d", got)
	}

	if _, err := store.Transfer(ctx, alice, bob, 7); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if _, err := store.Transfer(ctx, alice, 999999, 1); !errors.Is(err, ErrReceiverNotFound) {
		t.Fatalf("expected ErrReceiverNotFound, got %v", err)
	}
	if got, _ := store.Balance(ctx, alice); got != 6 {
		t.Fatalf("failed transfers must not debit, got %d", got)
	}
}

func TestPostgresConcurrentWithdrawals(t *testing.T) {
	db := setupPostgres(t)
	store := NewPostgresStore(db)
	user := seedUser(t, db, 100)

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.Withdraw(context.Background(), user, 100)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case !errors.Is(err, ErrInsufficientBalance):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly one success, got %d", success)
	}

	if got, _ := store.Balance(context.Background(), user); got != 0 {
		t.Fatalf("expected zero balance, got %d", got)
	}
	withdrawals, total, err := store.ListWithdrawals(context.Background(), &WithdrawalFilter{UserID: &user, Limit: 50})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(withdrawals) != 1 || withdrawals[0].Amount != 100 {
		t.Fatalf("expected one withdrawal of 100, got %d rows", total)
	}
}

func TestPostgresConcurrentTopUpCompletion(t *testing.T) {
	db := setupPostgres(t)
	store := NewPostgresStore(db)
	ctx := context.Background()
	user := seedUser(t, db, 0)

	topUp := &TopUp{
		UserID:            user,
		Amount:            5,
		Price:             decimal.NewFromInt(50),
		Phone:             "254712345678",
		CheckoutRequestID: "ws_CO_test",
		ExternalReference: "INV-TEST",
		Status:            TopUpPending,
	}
	if err := store.CreateTopUp(ctx, topUp); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreateTopUp(ctx, topUp); !errors.Is(err, ErrDuplicateTopUp) {
		t.Fatalf("expected ErrDuplicateTopUp, got %v", err)
	}

	const deliveries = 5
	var wg sync.WaitGroup
	settled := make(chan bool, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, ok, err := store.CompleteTopUp(ctx, topUp.CheckoutRequestID)
			if err != nil {
				t.Errorf("complete: %v", err)
			}
			settled <- ok
		}()
	}
	wg.Wait()
	close(settled)

	credited := 0
	for ok := range settled {
		if ok {
			credited++
		}
	}
	if credited != 1 {
		t.Fatalf("expected one crediting delivery, got %d", credited)
	}
	if got, _ := store.Balance(ctx, user); got != 5 {
		t.Fatalf("expected balance 5, got %d", got)
	}
	if _, ok, _ := store.FailTopUp(ctx, topUp.CheckoutRequestID); ok {
		t.Fatal("completed top-up must not fail afterwards")
	}
}

func TestPostgresCompleteWithdrawals(t *testing.T) {
	db := setupPostgres(t)
	store := NewPostgresStore(db)
	ctx := context.Background()

	alice := seedUser(t, db, 10)
	bob := seedUser(t, db, 10)
	for _, id := range []int64{alice, bob, alice, bob} {
		if _, _, err := store.Withdraw(ctx, id, 2); err != nil {
			t.Fatalf("withdraw: %v", err)
		}
	}

	n, err := store.CompleteWithdrawals(ctx, alice)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 completed, got %d", n)
	}

	pending := WithdrawalPending
	left, total, err := store.ListWithdrawals(ctx, &WithdrawalFilter{Status: &pending, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 pending withdrawals, got %d", total)
	}
	for _, w := range left {
		if w.UserID != bob {
			t.Fatalf("only bob's withdrawals should stay pending, found %+v", w)
		}
	}

	if n, err := store.CompleteWithdrawals(ctx, alice); err != nil || n != 0 {
		t.Fatalf("expected nothing left for alice, got %d, %v", n, err)
	}
}

func TestPostgresListPendingTopUps(t *testing.T) {
	db := setupPostgres(t)
	store := NewPostgresStore(db)
	ctx := context.Background()
	user := seedUser(t, db, 0)

	for i := 0; i < 2; i++ {
		err := store.CreateTopUp(ctx, &TopUp{
			UserID:            user,
			Amount:            1,
			Price:             decimal.NewFromInt(5),
			Phone:             "254712345678",
			CheckoutRequestID: fmt.Sprintf("ws_pending_%d", i),
			ExternalReference: fmt.Sprintf("INV-%d", i),
			Status:            TopUpPending,
		})
		if err != nil {
			t.Fatalf("create top-up: %v", err)
		}
	}
	if _, _, _, err := store.CompleteTopUp(ctx, "ws_pending_1"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	pending, err := store.ListPendingTopUps(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].CheckoutRequestID != "ws_pending_0" {
		t.Fatalf("expected only ws_pending_0, got %+v", pending)
	}
	if none, _ := store.ListPendingTopUps(ctx, time.Now().Add(-time.Hour)); len(none) != 0 {
		t.Fatalf("expected no pending top-ups before the cutoff, got %d", len(none))
	}
}
