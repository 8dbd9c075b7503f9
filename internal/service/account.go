package service

import (
	"log/slog"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/store"
)

var accountNameRegex = regexp.MustCompile(`^[a-zA-Z0-9 _-]{1,64}$`)

// CreateAccountRequest represents the input for account creation.
type CreateAccountRequest struct {
	Name        string
	InitialCash float64
}

// AccountSnapshot is a consistent read of an account's cash and positions,
// taken under the account mutex.
type AccountSnapshot struct {
	ID            string
	Name          string
	CurrentCash   decimal.Decimal
	FrozenCash    decimal.Decimal
	SpendableCash decimal.Decimal
	Positions     []domain.Position
	CreatedAt     time.Time
}

// AccountService handles account creation and state queries.
type AccountService struct {
	store *store.AccountStore
}

// NewAccountService creates a new AccountService.
func NewAccountService(store *store.AccountStore) *AccountService {
	return &AccountService{store: store}
}

// Create validates the request and creates a new trading account.
func (s *AccountService) Create(req CreateAccountRequest) (*domain.Account, error) {
	if !accountNameRegex.MatchString(req.Name) {
		return nil, &domain.ValidationError{
			Message: "name must match ^[a-zA-Z0-9 _-]{1,64}$",
		}
	}
	if req.InitialCash < 0 {
		return nil, &domain.ValidationError{
			Message: "initial_cash must be >= 0",
		}
	}

	account := &domain.Account{
		ID:          uuid.New().String(),
		Name:        req.Name,
		CurrentCash: decimal.NewFromFloat(req.InitialCash),
		FrozenCash:  decimal.Zero,
		Positions:   make(map[string]*domain.Position),
		CreatedAt:   time.Now(),
	}

	if err := s.store.Create(account); err != nil {
		return nil, err
	}

	slog.Info("account created",
		slog.String("account_id", account.ID),
		slog.String("name", account.Name),
		slog.String("initial_cash", account.CurrentCash.StringFixed(2)))

	return account, nil
}

// Snapshot returns a consistent view of the account's cash and positions.
func (s *AccountService) Snapshot(accountID string) (*AccountSnapshot, error) {
	account, err := s.store.Get(accountID)
	if err != nil {
		return nil, err
	}

	account.Mu.Lock()
	snap := &AccountSnapshot{
		ID:            account.ID,
		Name:          account.Name,
		CurrentCash:   account.CurrentCash,
		FrozenCash:    account.FrozenCash,
		SpendableCash: account.SpendableCash(),
		CreatedAt:     account.CreatedAt,
	}
	for _, p := range account.Positions {
		snap.Positions = append(snap.Positions, *p)
	}
	account.Mu.Unlock()

	sort.Slice(snap.Positions, func(i, j int) bool {
		if snap.Positions[i].Symbol != snap.Positions[j].Symbol {
			return snap.Positions[i].Symbol < snap.Positions[j].Symbol
		}
		return snap.Positions[i].Market < snap.Positions[j].Market
	})
	return snap, nil
}

// List returns snapshots for every account, oldest first.
func (s *AccountService) List() []*AccountSnapshot {
	accounts := s.store.List()
	out := make([]*AccountSnapshot, 0, len(accounts))
	for _, a := range accounts {
		snap, err := s.Snapshot(a.ID)
		if err != nil {
			continue
		}
		out = append(out, snap)
	}
	return out
}
