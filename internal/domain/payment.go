package domain

import "time"

// Settings is the singleton config table document. DeployedAt is written once,
// on the first load ever, and never changed afterwards.
type Settings struct {
	BonusPercent      int64      `bson:"bonus_percent" json:"bonus_percent"`
	TotalTransactions int64      `bson:"total_transactions" json:"total_transactions"`
	DeployedAt        *time.Time `bson:"deployed_at,omitempty" json:"deployed_at,omitempty"`
}

// PendingPayment is an outstanding deposit request. At most one live record
// exists per user; a newer request replaces an older one.
type PendingPayment struct {
	UserID        string    `bson:"user_id" json:"user_id"`
	Nominal       int64     `bson:"nominal" json:"nominal"`
	BonusAmount   int64     `bson:"bonus_amount" json:"bonus_amount"`
	TotalAdded    int64     `bson:"total_added" json:"total_added"`
	TransactionID string    `bson:"transaction_id" json:"transaction_id"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// Age reports how long the payment has been pending as of now.
func (p PendingPayment) Age(now time.Time) time.Duration {
	return now.Sub(p.CreatedAt)
}
