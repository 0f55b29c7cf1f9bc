package http

import (
	"net/http"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
	"github.com/Rajamiththiran/money-manager-sub000/internal/services"
)

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var a core.Account
	if err := readJSON(r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateAccount(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.ledger.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var a core.Account
	if err := readJSON(r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	a.ID = id
	if err := s.ledger.UpdateAccount(r.Context(), a); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteAccount(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	asOf, err := queryDatePtr(r, "as_of")
	if err != nil {
		writeError(w, r, err)
		return
	}
	balance, err := s.ledger.AccountBalance(r.Context(), id, asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := readJSON(r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateCategory(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.ledger.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var c core.Category
	if err := readJSON(r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	c.ID = id
	if err := s.ledger.UpdateCategory(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := readJSON(r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := transactionFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.ledger.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func transactionFilter(r *http.Request) (services.TransactionFilter, error) {
	var (
		f   services.TransactionFilter
		err error
	)
	if f.AccountID, err = queryInt64Ptr(r, "account_id"); err != nil {
		return f, err
	}
	if f.CategoryID, err = queryInt64Ptr(r, "category_id"); err != nil {
		return f, err
	}
	if v := r.URL.Query().Get("type"); v != "" {
		t := core.TransactionType(v)
		if !t.Valid() {
			return f, core.Validationf("invalid type %q", v)
		}
		f.Type = &t
	}
	if f.From, err = queryDatePtr(r, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryDatePtr(r, "to"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(r, "limit", 0); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset", 0); err != nil {
		return f, err
	}
	return f, nil
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var t core.Transaction
	if err := readJSON(r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = id
	if err := s.ledger.UpdateTransaction(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBalances(w http.ResponseWriter, r *http.Request) {
	asOf, err := queryDatePtr(r, "as_of")
	if err != nil {
		writeError(w, r, err)
		return
	}
	balances, err := s.ledger.ListAccountBalances(r.Context(), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	asOf, err := queryDatePtr(r, "as_of")
	if err != nil {
		writeError(w, r, err)
		return
	}
	nw, err := s.ledger.ComputeNetWorth(r.Context(), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nw)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := summaryRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.ledger.Summarize(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCategorySpending(w http.ResponseWriter, r *http.Request) {
	from, to, err := summaryRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	spending, err := s.ledger.SpendingByCategory(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spending)
}

func (s *Server) handleDailySummaries(w http.ResponseWriter, r *http.Request) {
	from, to, err := summaryRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	daily, err := s.ledger.DailySummaries(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, daily)
}

func summaryRange(r *http.Request) (core.Date, core.Date, error) {
	from, err := queryDate(r, "from")
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	to, err := queryDate(r, "to")
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	return from, to, nil
}
