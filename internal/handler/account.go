package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/service"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accountSvc *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc *service.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// createAccountRequest is the JSON request body for POST /accounts.
type createAccountRequest struct {
	Name        string  `json:"name"`
	InitialCash float64 `json:"initial_cash"`
}

// accountResponse is the JSON representation of an account snapshot.
type accountResponse struct {
	AccountID     string             `json:"account_id"`
	Name          string             `json:"name"`
	CurrentCash   float64            `json:"current_cash"`
	FrozenCash    float64            `json:"frozen_cash"`
	SpendableCash float64            `json:"spendable_cash"`
	Positions     []positionResponse `json:"positions"`
	CreatedAt     string             `json:"created_at"`
}

// positionResponse is a single position in an account response.
type positionResponse struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Market            string  `json:"market"`
	Quantity          float64 `json:"quantity"`
	AvailableQuantity float64 `json:"available_quantity"`
	AvgCost           float64 `json:"avg_cost"`
}

func toAccountResponse(snap *service.AccountSnapshot) accountResponse {
	resp := accountResponse{
		AccountID:     snap.ID,
		Name:          snap.Name,
		CurrentCash:   snap.CurrentCash.InexactFloat64(),
		FrozenCash:    snap.FrozenCash.InexactFloat64(),
		SpendableCash: snap.SpendableCash.InexactFloat64(),
		Positions:     make([]positionResponse, 0, len(snap.Positions)),
		CreatedAt:     snap.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, p := range snap.Positions {
		resp.Positions = append(resp.Positions, toPositionResponse(p))
	}
	return resp
}

func toPositionResponse(p domain.Position) positionResponse {
	return positionResponse{
		Symbol:            p.Symbol,
		Name:              p.Name,
		Market:            p.Market,
		Quantity:          p.Quantity.InexactFloat64(),
		AvailableQuantity: p.AvailableQuantity.InexactFloat64(),
		AvgCost:           p.AvgCost.InexactFloat64(),
	}
}

// Create handles POST /accounts.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	account, err := h.accountSvc.Create(service.CreateAccountRequest{
		Name:        req.Name,
		InitialCash: req.InitialCash,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	snap, err := h.accountSvc.Snapshot(account.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toAccountResponse(snap))
}

// Get handles GET /accounts/{account_id}.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	snap, err := h.accountSvc.Snapshot(accountID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toAccountResponse(snap))
}

// List handles GET /accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	snaps := h.accountSvc.List()
	out := make([]accountResponse, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, toAccountResponse(snap))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

// GetPositions handles GET /accounts/{account_id}/positions.
func (h *AccountHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	snap, err := h.accountSvc.Snapshot(accountID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	positions := make([]positionResponse, 0, len(snap.Positions))
	for _, p := range snap.Positions {
		positions = append(positions, toPositionResponse(p))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"positions": positions})
}
