package broadcast

import (
	"context"
	"errors"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"tg_store_bot/internal/domain"
)

type memTables struct {
	users map[string]domain.User
}

func (m *memTables) Users(context.Context) map[string]domain.User {
	return m.users
}

type recordingSender struct {
	sent    []int64
	failFor map[int64]error
}

func (r *recordingSender) Send(_ context.Context, chatID int64, _ string) error {
	if err, ok := r.failFor[chatID]; ok {
		return err
	}
	r.sent = append(r.sent, chatID)
	return nil
}

func newTestBroadcaster(t *testing.T, tables *memTables, sender *recordingSender) *Broadcaster {
	t.Helper()

	logger, _ := logtest.NewNullLogger()
	return NewBroadcaster(tables, sender, logger.WithField("test", t.Name()))
}

func TestSendReachesEveryUserInOrder(t *testing.T) {
	tables := &memTables{users: map[string]domain.User{
		"300": {},
		"100": {},
		"200": {},
	}}
	sender := &recordingSender{}
	broadcaster := newTestBroadcaster(t, tables, sender)

	delivered, failed, err := broadcaster.Send(context.Background(), "maintenance tonight")
	if err != nil {
		t.Fatalf("expected broadcast to succeed, got %v", err)
	}

	if delivered != 3 || failed != 0 {
		t.Fatalf("expected 3 delivered and 0 failed, got %d/%d", delivered, failed)
	}
	want := []int64{100, 200, 300}
	for i, id := range want {
		if sender.sent[i] != id {
			t.Fatalf("expected deterministic order %v, got %v", want, sender.sent)
		}
	}
}

func TestSendContinuesPastFailures(t *testing.T) {
	tables := &memTables{users: map[string]domain.User{
		"100": {},
		"200": {},
		"300": {},
	}}
	sender := &recordingSender{failFor: map[int64]error{200: errors.New("blocked by user")}}
	broadcaster := newTestBroadcaster(t, tables, sender)

	delivered, failed, err := broadcaster.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected broadcast to succeed, got %v", err)
	}

	if delivered != 2 {
		t.Fatalf("expected 2 delivered, got %d", delivered)
	}
	if failed != 1 {
		t.Fatalf("expected 1 failed, got %d", failed)
	}
}

func TestSendCountsMalformedKeysAsFailed(t *testing.T) {
	tables := &memTables{users: map[string]domain.User{
		"100":     {},
		"corrupt": {},
	}}
	sender := &recordingSender{}
	broadcaster := newTestBroadcaster(t, tables, sender)

	delivered, failed, err := broadcaster.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected broadcast to succeed, got %v", err)
	}

	if delivered != 1 || failed != 1 {
		t.Fatalf("expected 1 delivered and 1 failed, got %d/%d", delivered, failed)
	}
}

func TestSendRequiresInitialization(t *testing.T) {
	var broadcaster *Broadcaster

	if _, _, err := broadcaster.Send(context.Background(), "x"); err == nil {
		t.Fatalf("expected uninitialized broadcaster to error")
	}
}
