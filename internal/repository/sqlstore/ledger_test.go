package sqlstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sakif/leadbook/internal/model"
)

func TestDebit(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name        string
		balance     int
		amount      int
		wantOK      bool
		wantBalance int
		wantTxs     int
	}{
		{"covers amount", 50, 7, true, 43, 1},
		{"exact balance", 10, 10, true, 0, 1},
		{"insufficient", 5, 20, false, 5, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStore(t)
			u := createTestUser(t, s, "u", tc.balance)

			ok, err := s.Debit(ctx, u.ID, tc.amount, "Search: kafe - Ankara")
			if err != nil {
				t.Fatalf("Debit() error = %v", err)
			}
			if ok != tc.wantOK {
				t.Errorf("Debit() = %v, want %v", ok, tc.wantOK)
			}

			balance, _, _ := s.Balance(ctx, u.ID)
			if balance != tc.wantBalance {
				t.Errorf("balance = %d, want %d", balance, tc.wantBalance)
			}

			txs, _ := s.Transactions(ctx, u.ID, 100)
			if len(txs) != tc.wantTxs {
				t.Fatalf("transactions = %d, want %d", len(txs), tc.wantTxs)
			}
			if tc.wantTxs == 1 && txs[0].Amount != -tc.amount {
				t.Errorf("transaction amount = %d, want %d", txs[0].Amount, -tc.amount)
			}
		})
	}
}

func TestLedger_MissingUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	balance, exists, err := s.Balance(ctx, "ghost")
	if err != nil || exists || balance != 0 {
		t.Errorf("Balance(ghost) = %d, %v, %v", balance, exists, err)
	}
	if ok, err := s.Debit(ctx, "ghost", 1, "x"); ok || err != nil {
		t.Errorf("Debit(ghost) = %v, %v", ok, err)
	}
	if ok, err := s.Credit(ctx, "ghost", 1, "x"); ok || err != nil {
		t.Errorf("Credit(ghost) = %v, %v", ok, err)
	}
}

// The balance always equals the starting balance plus the sum of the
// recorded transaction amounts.
func TestLedger_BalanceMatchesHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "u", 50)

	steps := []struct {
		credit bool
		amount int
	}{
		{false, 7}, {true, 100}, {false, 200}, {false, 43}, {true, 5}, {false, 105},
	}
	for _, st := range steps {
		if st.credit {
			s.Credit(ctx, u.ID, st.amount, "top-up")
		} else {
			s.Debit(ctx, u.ID, st.amount, "search")
		}
	}

	balance, _, _ := s.Balance(ctx, u.ID)
	txs, _ := s.Transactions(ctx, u.ID, 100)

	sum := 0
	for _, tx := range txs {
		sum += tx.Amount
	}
	if balance != 50+sum {
		t.Errorf("balance %d != 50 + sum(transactions) %d", balance, sum)
	}
	// The 200 debit is the only one that cannot be covered.
	if len(txs) != 5 {
		t.Errorf("transactions = %d, want 5", len(txs))
	}
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
}

func TestDebit_ConcurrentNeverOverdraws(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "u", 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Debit(ctx, u.ID, 1, "search")
			if err != nil {
				t.Errorf("Debit() error = %v", err)
				return
			}
			if ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	balance, _, _ := s.Balance(ctx, u.ID)
	if succeeded != 10 || balance != 0 {
		t.Errorf("succeeded = %d, balance = %d; want 10 and 0", succeeded, balance)
	}
}

func TestTransactions_NewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fixedClock(s, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	u := createTestUser(t, s, "u", 0)

	for i := 1; i <= 3; i++ {
		s.Credit(ctx, u.ID, i, "top-up")
	}

	txs, err := s.Transactions(ctx, u.ID, 2)
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(txs) != 2 || txs[0].Amount != 3 || txs[1].Amount != 2 {
		t.Errorf("Transactions() = %+v", txs)
	}
}

func TestQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	fixedClock(s, start)
	u := createTestUser(t, s, "u", 0)

	for _, city := range []string{"Ankara", "İzmir", "All Cities"} {
		q := &model.Query{UserID: u.ID, City: city, Category: "kafe", Country: "Türkiye", Limit: 10, ResultCount: 7}
		if err := s.RecordQuery(ctx, q); err != nil {
			t.Fatalf("RecordQuery() error = %v", err)
		}
	}

	recent, err := s.RecentQueries(ctx, u.ID, 2)
	if err != nil {
		t.Fatalf("RecentQueries() error = %v", err)
	}
	if len(recent) != 2 || recent[0].City != "All Cities" || recent[0].Limit != 10 || recent[0].ResultCount != 7 {
		t.Errorf("RecentQueries() = %+v", recent)
	}

	total, _ := s.CountQueries(ctx, u.ID, time.Time{})
	// The user row took the first tick, so the queries sit at +1s, +2s, +3s.
	later, _ := s.CountQueries(ctx, u.ID, start.Add(2*time.Second))
	if total != 3 || later != 2 {
		t.Errorf("CountQueries total = %d, since = %d; want 3 and 2", total, later)
	}
}
