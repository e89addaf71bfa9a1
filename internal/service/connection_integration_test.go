package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"playdates/internal/database"
	"playdates/internal/repository"
)

type socialFixture struct {
	db          *database.DB
	parents     *repository.ParentRepository
	connections *ConnectionService
	messages    *MessageService
}

func newSocialFixture(t *testing.T) *socialFixture {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	parents := repository.NewParentRepository(db)
	email := &EmailService{log: log}
	connections := NewConnectionService(repository.NewConnectionRepository(db), parents, email, log)
	messages := NewMessageService(db, repository.NewMessageRepository(db), connections)

	return &socialFixture{
		db:          db,
		parents:     parents,
		connections: connections,
		messages:    messages,
	}
}

func (f *socialFixture) createParent(t *testing.T, email, name string) int64 {
	t.Helper()
	parent, err := f.parents.CreateParent(email, "hash", name)
	if err != nil {
		t.Fatalf("failed to create parent: %v", err)
	}
	return parent.ID
}

func TestConnectionLifecycle(t *testing.T) {
	f := newSocialFixture(t)
	ctx := context.Background()

	alice := f.createParent(t, "alice@example.com", "Alice")
	bob := f.createParent(t, "bob@example.com", "Bob")

	conn, err := f.connections.Request(ctx, alice, bob)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// Pending is not connected
	connected, err := f.connections.AreConnected(alice, bob)
	if err != nil {
		t.Fatalf("AreConnected failed: %v", err)
	}
	if connected {
		t.Error("AreConnected = true for pending request")
	}

	// Duplicate request in either direction is rejected
	if _, err := f.connections.Request(ctx, bob, alice); !errors.Is(err, ErrConnectionExists) {
		t.Errorf("reverse duplicate error = %v, want ErrConnectionExists", err)
	}

	// Only the recipient may accept
	if err := f.connections.Accept(alice, conn.ID); !errors.Is(err, ErrNotRequestRecipient) {
		t.Errorf("requester accept error = %v, want ErrNotRequestRecipient", err)
	}

	if err := f.connections.Accept(bob, conn.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// Accepted connections are symmetric
	for _, pair := range [][2]int64{{alice, bob}, {bob, alice}} {
		connected, err := f.connections.AreConnected(pair[0], pair[1])
		if err != nil {
			t.Fatalf("AreConnected failed: %v", err)
		}
		if !connected {
			t.Errorf("AreConnected(%d, %d) = false after accept", pair[0], pair[1])
		}
	}
}

func TestDeclineIsTerminal(t *testing.T) {
	f := newSocialFixture(t)
	ctx := context.Background()

	alice := f.createParent(t, "alice@example.com", "Alice")
	bob := f.createParent(t, "bob@example.com", "Bob")

	conn, err := f.connections.Request(ctx, alice, bob)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if err := f.connections.Decline(bob, conn.ID); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	if _, err := f.connections.Request(ctx, alice, bob); !errors.Is(err, ErrConnectionDeclined) {
		t.Errorf("re-request error = %v, want ErrConnectionDeclined", err)
	}
	if _, err := f.connections.Request(ctx, bob, alice); !errors.Is(err, ErrConnectionDeclined) {
		t.Errorf("reverse re-request error = %v, want ErrConnectionDeclined", err)
	}
}

func TestSelfConnectionRejected(t *testing.T) {
	f := newSocialFixture(t)

	alice := f.createParent(t, "alice@example.com", "Alice")
	if _, err := f.connections.Request(context.Background(), alice, alice); !errors.Is(err, ErrSelfConnection) {
		t.Errorf("self request error = %v, want ErrSelfConnection", err)
	}
}

func TestMessagingGatedOnAcceptedConnection(t *testing.T) {
	f := newSocialFixture(t)
	ctx := context.Background()

	alice := f.createParent(t, "alice@example.com", "Alice")
	bob := f.createParent(t, "bob@example.com", "Bob")

	if _, err := f.messages.Send(alice, bob, "hi"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("send without connection error = %v, want ErrNotConnected", err)
	}

	conn, err := f.connections.Request(ctx, alice, bob)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if _, err := f.messages.Send(alice, bob, "hi"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("send with pending connection error = %v, want ErrNotConnected", err)
	}

	if err := f.connections.Accept(bob, conn.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if _, err := f.messages.Send(alice, bob, "hi"); err != nil {
		t.Fatalf("send after accept failed: %v", err)
	}
	if _, err := f.messages.Send(bob, alice, "hello back"); err != nil {
		t.Fatalf("reply failed: %v", err)
	}

	// Conversation is ordered oldest first and marks bob's message read
	conversation, err := f.messages.Conversation(alice, bob, 0)
	if err != nil {
		t.Fatalf("conversation failed: %v", err)
	}
	if len(conversation) != 2 {
		t.Fatalf("len(conversation) = %d, want 2", len(conversation))
	}
	if conversation[0].SenderID != alice || conversation[1].SenderID != bob {
		t.Errorf("conversation order wrong: %+v", conversation)
	}

	counts, err := f.messages.UnreadCounts(alice)
	if err != nil {
		t.Fatalf("unread counts failed: %v", err)
	}
	if counts[bob] != 0 {
		t.Errorf("unread from bob = %d after reading conversation, want 0", counts[bob])
	}
}

func TestEmptyMessageRejected(t *testing.T) {
	f := newSocialFixture(t)

	alice := f.createParent(t, "alice@example.com", "Alice")
	bob := f.createParent(t, "bob@example.com", "Bob")

	if _, err := f.messages.Send(alice, bob, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("blank send error = %v, want ErrEmptyMessage", err)
	}
}
