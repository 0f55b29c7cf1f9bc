package http

import (
	"net/http"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var p core.InstallmentPlan
	if err := readJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := s.installments.CreatePlan(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	var status *core.PlanStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st := core.PlanStatus(v)
		if !st.Valid() {
			writeError(w, r, core.Validationf("invalid status %q", v))
			return
		}
		status = &st
	}
	plans, err := s.installments.ListPlans(r.Context(), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleUpcomingInstallments(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 30)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payments, err := s.installments.UpcomingPayments(r.Context(), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := s.installments.GetPlan(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handlePayInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		PaidDate *core.Date `json:"paid_date,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
	}
	tx, err := s.installments.PayNext(r.Context(), id, body.PaidDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleCancelPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	plan, err := s.installments.CancelPlan(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.installments.DeletePlan(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
