package admin

import (
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestAuthorize(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	auth := NewAuthorizer(42, logger.WithField("test", t.Name()))

	if !auth.Authorize(42, "restock") {
		t.Fatalf("expected the configured admin to be authorized")
	}
	if len(hook.Entries) != 0 {
		t.Fatalf("expected no log for an authorized call")
	}

	if auth.Authorize(7, "restock") {
		t.Fatalf("expected a non-admin to be denied")
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Data["event"] != "admin_denied" {
		t.Fatalf("expected a denial to be logged, got %v", entry)
	}
	if entry.Data["operation"] != "restock" {
		t.Fatalf("expected the operation to be named, got %v", entry.Data["operation"])
	}
}

func TestAuthorizeWithUnsetAdminDeniesEveryone(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	auth := NewAuthorizer(0, logger.WithField("test", t.Name()))

	if auth.Authorize(0, "stats") {
		t.Fatalf("expected an unset admin id to deny everyone")
	}
}

func TestAdminID(t *testing.T) {
	logger, _ := logtest.NewNullLogger()

	if got := NewAuthorizer(42, logger.WithField("test", t.Name())).AdminID(); got != 42 {
		t.Fatalf("expected admin id 42, got %d", got)
	}
}
