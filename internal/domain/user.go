package domain

import (
	"strconv"
	"time"
)

// User represents a Telegram user registered with the storefront. Users are
// keyed in the users table by their stringified Telegram id.
type User struct {
	Balance  int64     `bson:"balance" json:"balance"`
	JoinedAt time.Time `bson:"joined_at" json:"joined_at"`
	Banned   bool      `bson:"banned" json:"banned"`
}

// UserKey converts a Telegram user id into the string key used by the users
// and pending_payments tables.
func UserKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
