package http

import (
	"net/http"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	backup, err := s.backup.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="ledger-backup.json"`)
	writeJSON(w, http.StatusOK, backup)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var backup core.Backup
	if err := readJSON(r, &backup); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.backup.Restore(r.Context(), backup); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.backup.Clear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
