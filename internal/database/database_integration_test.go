//go:build integration

package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/voxus/internal/models"
	"gorm.io/gorm"
)

// go test -tags integration ./internal/database/ с TEST_DATABASE_URL на пустую базу postgres

func connectTest(t *testing.T) *Database {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db := &Database{}
	if err := db.Connect(dsn); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *Database, name string) *models.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	u := &models.User{
		Username:     name + "_" + suffix,
		Email:        name + "_" + suffix + "@test.local",
		PasswordHash: "x",
		Enabled:      true,
		LastSeenAt:   time.Now(),
	}
	if err := db.SaveUser(context.Background(), u); err != nil {
		t.Fatalf("SaveUser returned error: %v", err)
	}
	return u
}

func TestConversationPairUnique(t *testing.T) {
	db := connectTest(t)
	ctx := context.Background()
	a, b := createUser(t, db, "alice"), createUser(t, db, "bob")

	if err := db.CreateConversation(ctx, &models.Conversation{ParticipantA: a.ID, ParticipantB: b.ID}); err != nil {
		t.Fatal(err)
	}
	err := db.CreateConversation(ctx, &models.Conversation{ParticipantA: b.ID, ParticipantB: a.ID})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("reversed pair must hit the unique index, got %v", err)
	}

	conv, err := db.FindConversationBetween(ctx, b.ID, a.ID)
	if err != nil || !conv.HasParticipant(a.ID) {
		t.Errorf("lookup by unordered pair failed: %v", err)
	}
}

func TestGroupMemberUniqueAndCascade(t *testing.T) {
	db := connectTest(t)
	ctx := context.Background()
	owner, member := createUser(t, db, "owner"), createUser(t, db, "member")

	group := &models.GroupConversation{Name: "team", CreatedBy: owner.ID}
	err := db.CreateGroup(ctx, group, []models.GroupMember{
		{UserID: owner.ID, Role: models.RoleAdmin, JoinedAt: time.Now()},
		{UserID: member.ID, Role: models.RoleMember, JoinedAt: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}

	dup := &models.GroupMember{GroupID: group.ID, UserID: member.ID, Role: models.RoleMember, JoinedAt: time.Now()}
	if err := db.AddMember(ctx, dup); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("second membership must hit idx_group_member, got %v", err)
	}

	msg := models.Message{SenderID: member.ID, Content: "hi", Type: models.KindText}
	msg.SetTarget(models.GroupTarget(group.ID))
	if err := db.SaveMessage(ctx, &msg); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteGroup(ctx, group.ID); err != nil {
		t.Fatalf("DeleteGroup returned error: %v", err)
	}
	if _, err := db.GetGroup(ctx, group.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("group must be gone, got %v", err)
	}
	if members, _ := db.ListGroupMembers(ctx, group.ID); len(members) != 0 {
		t.Errorf("memberships must be deleted, got %d", len(members))
	}
	if msgs, _ := db.ListMessages(ctx, models.GroupTarget(group.ID)); len(msgs) != 0 {
		t.Errorf("messages must be deleted, got %d", len(msgs))
	}
	if err := db.DeleteGroup(ctx, group.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("second delete must report not found, got %v", err)
	}
}

func TestFriendshipActivePair(t *testing.T) {
	db := connectTest(t)
	ctx := context.Background()
	a, b := createUser(t, db, "alice"), createUser(t, db, "bob")

	first := &models.Friendship{RequesterID: a.ID, AddresseeID: b.ID}
	first.SetStatus(models.FriendshipPending)
	if err := db.CreateFriendship(ctx, first); err != nil {
		t.Fatal(err)
	}

	reverse := &models.Friendship{RequesterID: b.ID, AddresseeID: a.ID}
	reverse.SetStatus(models.FriendshipPending)
	if err := db.CreateFriendship(ctx, reverse); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("reverse request must hit active_pair, got %v", err)
	}

	first.SetStatus(models.FriendshipRejected)
	if err := db.UpdateFriendship(ctx, first); err != nil {
		t.Fatal(err)
	}
	if _, err := db.FindActiveFriendship(ctx, a.ID, b.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("rejected request must not be active, got %v", err)
	}

	again := &models.Friendship{RequesterID: b.ID, AddresseeID: a.ID}
	again.SetStatus(models.FriendshipPending)
	if err := db.CreateFriendship(ctx, again); err != nil {
		t.Errorf("request after rejection must be allowed: %v", err)
	}
}
