package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-messenger-backend/internal/domain"
)

func TestCreateUser_NormalizesAndAssignsID(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	u := &domain.User{Email: "  Alice@Example.COM ", Username: "Alice", PasswordHash: "h", Nickname: "Al"}
	if err := CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.Email != "alice@example.com" || u.Username != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}

	dup := &domain.User{Email: "alice@example.com", Username: "other", PasswordHash: "h"}
	if err := CreateUser(context.Background(), db, dup); err == nil {
		t.Fatalf("expected unique violation on email")
	}
}

func TestSetUserPresence_OnlineClearsLastSeen_OfflineStampsIt(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()
	u := &domain.User{Email: "b@x.io", Username: "b", PasswordHash: "h"}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	off := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	if err := SetUserPresence(ctx, db, u.ID, false, off); err != nil {
		t.Fatalf("offline: %v", err)
	}
	got, _ := GetUser(ctx, db, u.ID)
	if got.IsOnline || got.LastSeen == nil || !got.LastSeen.Equal(off) {
		t.Fatalf("offline state wrong: %+v", got)
	}

	if err := SetUserPresence(ctx, db, u.ID, true, off.Add(time.Hour)); err != nil {
		t.Fatalf("online: %v", err)
	}
	got, _ = GetUser(ctx, db, u.ID)
	if !got.IsOnline || got.LastSeen != nil {
		t.Fatalf("online state wrong: %+v", got)
	}

	online, err := CountOnlineUsers(ctx, db)
	if err != nil || online != 1 {
		t.Fatalf("CountOnlineUsers = %d, %v", online, err)
	}
}

func TestSetUserPresence_UnknownUser(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	err := SetUserPresence(context.Background(), db, "ghost", true, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := GetUser(context.Background(), db, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from GetUser, got %v", err)
	}
}

func TestResetPresence_ClearsStaleOnlineFlags(t *testing.T) {
	s := NewStore(newTestDB(t, &domain.User{}))
	ctx := context.Background()
	var ids []string
	for _, name := range []string{"on1", "on2", "off"} {
		u := &domain.User{Email: name + "@x.io", Username: name, PasswordHash: "h"}
		if err := CreateUser(ctx, s.DB, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		ids = append(ids, u.ID)
	}
	earlier := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = SetUserPresence(ctx, s.DB, ids[0], true, earlier)
	_ = SetUserPresence(ctx, s.DB, ids[1], true, earlier)
	_ = SetUserPresence(ctx, s.DB, ids[2], false, earlier)

	at := earlier.Add(24 * time.Hour)
	n, err := ResetPresence(ctx, s, at)
	if err != nil || n != 2 {
		t.Fatalf("ResetPresence = %d, %v; want 2", n, err)
	}
	if online, _ := CountOnlineUsers(ctx, s.DB); online != 0 {
		t.Fatalf("still online: %d", online)
	}
	if u, _ := GetUser(ctx, s.DB, ids[0]); u.LastSeen == nil || !u.LastSeen.Equal(at) {
		t.Fatalf("reset user last seen = %v", u.LastSeen)
	}
	if u, _ := GetUser(ctx, s.DB, ids[2]); u.LastSeen == nil || !u.LastSeen.Equal(earlier) {
		t.Fatalf("offline user must keep its last seen, got %v", u.LastSeen)
	}
}
