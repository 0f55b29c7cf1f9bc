package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

func (s *Server) handleCreateCardSettings(w http.ResponseWriter, r *http.Request) {
	var settings core.CreditCardSettings
	if err := readJSON(r, &settings); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.cards.CreateSettings(r.Context(), settings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListCardSettings(w http.ResponseWriter, r *http.Request) {
	ref, err := refDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	overviews, err := s.cards.ListOverviews(r.Context(), ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overviews)
}

func (s *Server) handleGetCardSettings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	settings, err := s.cards.GetSettings(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateCardSettings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var settings core.CreditCardSettings
	if err := readJSON(r, &settings); err != nil {
		writeError(w, r, err)
		return
	}
	settings.ID = id
	if err := s.cards.UpdateSettings(r.Context(), settings); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleDeleteCardSettings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.cards.DeleteSettings(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCardOverview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ref, err := refDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	overview, err := s.cards.Overview(r.Context(), id, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleCycleTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ref, err := refDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.cards.CycleTransactions(r.Context(), id, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleListStatements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	statements, err := s.cards.ListStatements(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statements)
}

func (s *Server) handleGenerateStatement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		CycleEnd *core.Date `json:"cycle_end_date,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
	}
	st, err := s.cards.GenerateStatement(r.Context(), id, body.CycleEnd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		Amount        *decimal.Decimal `json:"amount,omitempty"`
		PaymentDate   *core.Date       `json:"payment_date,omitempty"`
		FromAccountID *int64           `json:"from_account_id,omitempty"`
	}
	if err := readJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.cards.Settle(r.Context(), id, body.Amount, body.PaymentDate, body.FromAccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetStatement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	st, err := s.cards.GetStatement(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
