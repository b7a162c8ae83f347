// Package admin centralizes the administrator authorization check. Every
// privileged operation goes through Authorize; sessions and callback payloads
// are never trusted as a proxy for it.
package admin

import (
	"github.com/sirupsen/logrus"

	"tg_store_bot/internal/logging"
)

// Authorizer validates callers against the single configured admin id.
type Authorizer struct {
	adminID int64
	logger  *logrus.Entry
}

// NewAuthorizer constructs an Authorizer for the configured admin id.
func NewAuthorizer(adminID int64, logger *logrus.Entry) *Authorizer {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Authorizer{
		adminID: adminID,
		logger:  logger,
	}
}

// Authorize reports whether userID is the administrator. Denied attempts at
// privileged operations are logged with the operation name.
func (a *Authorizer) Authorize(userID int64, operation string) bool {
	if a == nil || a.adminID == 0 {
		return false
	}
	if userID == a.adminID {
		return true
	}

	a.logger.WithFields(logging.Fields{
		"event":     "admin_denied",
		"user_id":   userID,
		"operation": operation,
	}).Warn("non-admin attempted privileged operation")

	return false
}

// AdminID returns the configured admin id.
func (a *Authorizer) AdminID() int64 {
	return a.adminID
}
