package amqp

import (
	"encoding/json"
	"time"
)

// Event routing keys published to the ledger exchange.
const (
	EventTransactionCreated = "transaction.created"
	EventStatementGenerated = "statement.generated"
)

// TransactionEvent notifies consumers that a ledger transaction was written.
// It carries only identifiers; consumers fetch the full record when needed.
type TransactionEvent struct {
	TransactionID int64     `json:"transaction_id"`
	AccountID     int64     `json:"account_id"`
	Type          string    `json:"type"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
}

// StatementEvent notifies consumers that a credit card statement was
// generated or settled.
type StatementEvent struct {
	StatementID int64     `json:"statement_id"`
	SettingsID  int64     `json:"settings_id"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewTransactionEvent builds an event for a freshly written transaction.
// Source names the engine that produced it (api, recurring, installment,
// settlement).
func NewTransactionEvent(transactionID, accountID int64, txType, source string) *TransactionEvent {
	return &TransactionEvent{
		TransactionID: transactionID,
		AccountID:     accountID,
		Type:          txType,
		Source:        source,
		Timestamp:     time.Now(),
	}
}

func NewStatementEvent(statementID, settingsID int64, status string) *StatementEvent {
	return &StatementEvent{
		StatementID: statementID,
		SettingsID:  settingsID,
		Status:      status,
		Timestamp:   time.Now(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func (e *StatementEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes a transaction event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// StatementEventFromJSON decodes a statement event body.
func StatementEventFromJSON(data []byte) (*StatementEvent, error) {
	var e StatementEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
