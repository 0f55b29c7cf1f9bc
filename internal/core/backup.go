package core

import "time"

// BackupVersion is the envelope version written by exports and the only
// version restores accept.
const BackupVersion = 1

type (
	// Snapshot is the complete engine state, used by backup export and
	// restore. Slices keep insertion order so IDs survive a round trip.
	Snapshot struct {
		Accounts             []Account              `json:"accounts"`
		Categories           []Category             `json:"categories"`
		Transactions         []Transaction          `json:"transactions"`
		Recurring            []RecurringTransaction `json:"recurring_transactions"`
		InstallmentPlans     []InstallmentPlan      `json:"installment_plans"`
		InstallmentPayments  []InstallmentPayment   `json:"installment_payments"`
		CreditCardSettings   []CreditCardSettings   `json:"credit_card_settings"`
		CreditCardStatements []CreditCardStatement  `json:"credit_card_statements"`
		Budgets              []Budget               `json:"budgets"`
	}

	// Backup is the export envelope around a snapshot.
	Backup struct {
		Version    int       `json:"version"`
		ExportedAt time.Time `json:"exported_at"`
		Data       Snapshot  `json:"data"`
	}
)

// Validate checks a backup envelope before restore.
func (b Backup) Validate() error {
	if b.Version != BackupVersion {
		return Validationf("unsupported backup version %d", b.Version)
	}
	return nil
}
