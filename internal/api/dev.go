package api

import (
	"github.com/gorilla/mux"
	"net/http"
)

type fundRequest struct {
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`
}

type mintRequest struct {
	Owner  string `json:"owner"`
	Asset  string `json:"asset"`
	Amount uint64 `json:"amount"`
}

type transferRequest struct {
	Asset string `json:"asset"`
	From  string `json:"from"`
	To    string `json:"to"`
}

type BalanceResponse struct {
	Owner    string `json:"owner"`
	Currency uint64 `json:"currency"`
	Asset    string `json:"asset,omitempty"`
	Units    uint64 `json:"units"`
}

func (s *Server) handleFund(w http.ResponseWriter, r *http.Request) {
	if s.faucet == nil {
		writeError(w, ErrFaucetOff)
		return
	}

	var req fundRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	balance, err := s.faucet.Fund(r.Context(), req.Owner, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{Owner: req.Owner, Currency: balance})
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	if s.faucet == nil {
		writeError(w, ErrFaucetOff)
		return
	}

	var req mintRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	units, err := s.faucet.Mint(r.Context(), req.Owner, req.Asset, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{Owner: req.Owner, Asset: req.Asset, Units: units})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if s.faucet == nil {
		writeError(w, ErrFaucetOff)
		return
	}

	var req transferRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.faucet.Transfer(r.Context(), req.Asset, req.From, req.To); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	if s.faucet == nil {
		writeError(w, ErrFaucetOff)
		return
	}

	owner := mux.Vars(r)["owner"]
	asset := r.URL.Query().Get("asset")

	currencyBalance, units, err := s.faucet.Balances(r.Context(), owner, asset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{Owner: owner, Currency: currencyBalance, Asset: asset, Units: units})
}
