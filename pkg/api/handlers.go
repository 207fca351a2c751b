// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/settlement"
)

const maxBody = 1 << 16

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

func requireAddress(name string, a ids.Address) error {
	if a.IsEmpty() {
		return fmt.Errorf("%w: %s is required", ErrBadRequest, name)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Round:  s.engine.CurrentRound().Number,
		Time:   s.now(),
	})
}

// handleDeposit takes fee income: the currency is minted into the engine
// account and then frozen until the next thaw.
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireAddress("from", req.From); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Amount.IsZero() {
		writeError(w, r, settlement.ErrInvalidAmount)
		return
	}

	if err := s.currency.Mint(r.Context(), s.engine.Address(), req.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	frozen, err := s.engine.Deposit(s.now(), req.From, req.Amount)
	if err != nil {
		if burnErr := s.currency.Burn(r.Context(), s.engine.Address(), req.Amount); burnErr != nil {
			s.log.Error("failed to burn unfrozen deposit",
				log.String("request_id", RequestID(r.Context())),
				log.String("amount", req.Amount.Format()),
				log.Error(burnErr),
			)
			err = fmt.Errorf("%w; burn unfrozen deposit: %w", err, burnErr)
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DepositResponse{Frozen: frozen})
}

func (s *Server) handleThaw(w http.ResponseWriter, r *http.Request) {
	opened, err := s.engine.Thaw(s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opened)
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req SettleRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireAddress("caller", req.Caller); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.engine.Settle(r.Context(), s.now(), req.Caller, req.TokenAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCurrentAuction(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.CurrentAuction(s.now()))
}

func (s *Server) handleNextAuction(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.NextAuction())
}

func (s *Server) handleNextPrice(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.NextPriceChange(s.now()))
}

func (s *Server) handleRounds(w http.ResponseWriter, r *http.Request) {
	state := s.engine.State()
	writeJSON(w, http.StatusOK, RoundsResponse{Current: state.Current, History: state.History})
}

func roundNumber(r *http.Request) (uint64, error) {
	n, err := strconv.ParseUint(mux.Vars(r)["number"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: round number: %v", ErrBadRequest, err)
	}
	return n, nil
}

func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	n, err := roundNumber(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	round, ok := s.engine.Round(n)
	if !ok {
		writeError(w, r, fmt.Errorf("%w: round %d", ErrNotFound, n))
		return
	}
	writeJSON(w, http.StatusOK, round)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		writeError(w, r, fmt.Errorf("%w: no history recorder configured", ErrNotAvailable))
		return
	}
	n, err := roundNumber(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		if limit, err = strconv.Atoi(q); err != nil || limit < 0 {
			writeError(w, r, fmt.Errorf("%w: limit must be a non-negative integer", ErrBadRequest))
			return
		}
	}

	trades, err := s.recorder.Trades(r.Context(), n, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if trades == nil {
		trades = []settlement.Receipt{}
	}
	writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := ids.AddressFromString(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	ctx := r.Context()
	resp := AccountResponse{Address: addr}
	if resp.Tokens, err = s.tokens.BalanceOf(ctx, addr); err != nil {
		writeError(w, r, err)
		return
	}
	if resp.Allowance, err = s.tokens.Allowance(ctx, addr, s.engine.Address()); err != nil {
		writeError(w, r, err)
		return
	}
	if resp.Currency, err = s.currency.BalanceOf(ctx, addr); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleApprove sets owner's allowance for the engine on the token ledger.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req ApproveRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireAddress("owner", req.Owner); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.tokens.Approve(r.Context(), req.Owner, s.engine.Address(), req.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	var req FaucetRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireAddress("to", req.To); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.tokens.Mint(r.Context(), req.To, req.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
