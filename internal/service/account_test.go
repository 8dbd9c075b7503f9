package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/store"
)

func TestAccountService_Create(t *testing.T) {
	svc := NewAccountService(store.NewAccountStore())

	account, err := svc.Create(CreateAccountRequest{Name: "alpha bot 1", InitialCash: 10000})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if account.ID == "" {
		t.Error("ID is empty")
	}
	if !account.CurrentCash.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("CurrentCash = %s, want 10000", account.CurrentCash)
	}
	if !account.FrozenCash.IsZero() {
		t.Errorf("FrozenCash = %s, want 0", account.FrozenCash)
	}
	if account.Positions == nil {
		t.Error("Positions map not initialized")
	}
}

func TestAccountService_CreateValidation(t *testing.T) {
	svc := NewAccountService(store.NewAccountStore())

	tests := []struct {
		name string
		req  CreateAccountRequest
	}{
		{"empty name", CreateAccountRequest{Name: "", InitialCash: 100}},
		{"name too long", CreateAccountRequest{Name: strings.Repeat("a", 65), InitialCash: 100}},
		{"name with bad characters", CreateAccountRequest{Name: "bot!@#", InitialCash: 100}},
		{"negative cash", CreateAccountRequest{Name: "bot", InitialCash: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(tt.req)
			var validationErr *domain.ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestAccountService_Snapshot(t *testing.T) {
	accounts := store.NewAccountStore()
	svc := NewAccountService(accounts)

	account := &domain.Account{
		ID:          "acc-1",
		Name:        "snap",
		CurrentCash: decimal.NewFromInt(5000),
		FrozenCash:  decimal.NewFromInt(1200),
		Positions: map[string]*domain.Position{
			"ETH:CRYPTO": {Symbol: "ETH", Market: "CRYPTO", Quantity: decimal.NewFromInt(2)},
			"BTC:CRYPTO": {Symbol: "BTC", Market: "CRYPTO", Quantity: decimal.NewFromInt(1)},
		},
		CreatedAt: time.Now(),
	}
	if err := accounts.Create(account); err != nil {
		t.Fatalf("create account: %v", err)
	}

	snap, err := svc.Snapshot("acc-1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snap.SpendableCash.Equal(decimal.NewFromInt(3800)) {
		t.Errorf("SpendableCash = %s, want 3800", snap.SpendableCash)
	}
	if len(snap.Positions) != 2 {
		t.Fatalf("Positions len = %d, want 2", len(snap.Positions))
	}
	// Sorted by symbol.
	if snap.Positions[0].Symbol != "BTC" || snap.Positions[1].Symbol != "ETH" {
		t.Errorf("Positions order = [%s %s], want [BTC ETH]",
			snap.Positions[0].Symbol, snap.Positions[1].Symbol)
	}

	if _, err := svc.Snapshot("missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Snapshot(missing) err = %v, want ErrAccountNotFound", err)
	}
}

func TestAccountService_List(t *testing.T) {
	svc := NewAccountService(store.NewAccountStore())

	if got := svc.List(); len(got) != 0 {
		t.Errorf("List on empty store len = %d, want 0", len(got))
	}

	first, err := svc.Create(CreateAccountRequest{Name: "first", InitialCash: 100})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(CreateAccountRequest{Name: "second", InitialCash: 200}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got := svc.List()
	if len(got) != 2 {
		t.Fatalf("List len = %d, want 2", len(got))
	}
	if got[0].ID != first.ID {
		t.Errorf("List[0].ID = %s, want the oldest account %s", got[0].ID, first.ID)
	}
}
