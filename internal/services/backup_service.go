package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

// BackupService exports and restores the full engine state. Restore and
// clear are destructive: they replace or remove everything in one unit.
type BackupService struct {
	store BackupStore
}

func NewBackupService(store BackupStore) *BackupService {
	return &BackupService{store: store}
}

// Export wraps the current state in a versioned envelope.
func (s *BackupService) Export(ctx context.Context) (core.Backup, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return core.Backup{}, fmt.Errorf("snapshot state: %w", err)
	}

	backup := core.Backup{
		Version:    core.BackupVersion,
		ExportedAt: time.Now().UTC(),
		Data:       snap,
	}

	slog.InfoContext(ctx, "Backup exported",
		"accounts", len(snap.Accounts),
		"transactions", len(snap.Transactions),
		"recurring", len(snap.Recurring),
		"plans", len(snap.InstallmentPlans),
		"statements", len(snap.CreditCardStatements))
	return backup, nil
}

// Restore replaces all state with the backup's contents.
func (s *BackupService) Restore(ctx context.Context, backup core.Backup) error {
	if err := backup.Validate(); err != nil {
		return err
	}
	if err := s.store.Restore(ctx, backup.Data); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}

	slog.InfoContext(ctx, "Backup restored",
		"exported_at", backup.ExportedAt,
		"accounts", len(backup.Data.Accounts),
		"transactions", len(backup.Data.Transactions))
	return nil
}

// Clear removes all state.
func (s *BackupService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	slog.WarnContext(ctx, "All data cleared")
	return nil
}
