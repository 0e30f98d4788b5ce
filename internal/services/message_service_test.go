package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/voxus/internal/models"
	"github.com/thereayou/voxus/internal/pubsub"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

type messageFixture struct {
	store    *memStore
	pub      *recorder
	uploader *fakeUploader
	clk      *clock
	svc      *MessageService
	alice    *models.User
	bob      *models.User
	conv     *models.Conversation
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	store := newMemStore()
	pub := &recorder{}
	uploader := newFakeUploader()
	clk := newClock()
	svc := NewMessageService(store, uploader, pub)
	svc.now = clk.Now

	alice := store.addUser(t, "alice")
	bob := store.addUser(t, "bob")
	conv, err := NewConversationService(store, nil).EnsureConversation(context.Background(), alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}

	return &messageFixture{
		store: store, pub: pub, uploader: uploader, clk: clk, svc: svc,
		alice: alice, bob: bob, conv: conv,
	}
}

func TestSendDirectText(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	target := models.DirectTarget(f.conv.ID)

	env, err := f.svc.SendText(ctx, target, f.alice.ID, "hello")
	if err != nil {
		t.Fatalf("SendText returned error: %v", err)
	}
	if env.ConversationID == nil || *env.ConversationID != f.conv.ID || env.GroupID != nil {
		t.Errorf("envelope must reference only the conversation: %+v", env)
	}
	if !env.CreatedAt.Equal(f.clk.Now()) {
		t.Errorf("expected server timestamp %v, got %v", f.clk.Now(), env.CreatedAt)
	}

	if got := f.pub.on(pubsub.ChatTopic(f.conv.ID)); len(got) != 1 {
		t.Errorf("expected 1 event on chat topic, got %d", len(got))
	}
	if f.pub.count() != 1 {
		t.Errorf("message must be published to exactly one topic, got %d events", f.pub.count())
	}
}

func TestSendMessageValidation(t *testing.T) {
	f := newMessageFixture(t)
	stranger := f.store.addUser(t, "stranger")
	target := models.DirectTarget(f.conv.ID)

	tests := []struct {
		name string
		req  SendMessageRequest
		want error
	}{
		{"no target", SendMessageRequest{SenderID: f.alice.ID, Content: "x"}, ErrInvalidArgument},
		{"empty text", SendMessageRequest{Target: target, SenderID: f.alice.ID, Content: "  "}, ErrInvalidArgument},
		{"unknown kind", SendMessageRequest{Target: target, SenderID: f.alice.ID, Kind: "VIDEO", Content: "x"}, ErrInvalidArgument},
		{"image without data", SendMessageRequest{Target: target, SenderID: f.alice.ID, Kind: models.KindImage}, ErrInvalidArgument},
		{"unknown sender", SendMessageRequest{Target: target, SenderID: uuid.New(), Content: "x"}, ErrNotFound},
		{"unknown conversation", SendMessageRequest{Target: models.DirectTarget(uuid.New()), SenderID: f.alice.ID, Content: "x"}, ErrNotFound},
		{"not a participant", SendMessageRequest{Target: target, SenderID: stranger.ID, Content: "x"}, ErrForbidden},
		{"image that is text", SendMessageRequest{
			Target: target, SenderID: f.alice.ID, Kind: models.KindImage,
			Attachment: &Attachment{Data: []byte("plain text")},
		}, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SendMessage(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if n := f.store.messageCount(); n != 0 {
		t.Errorf("rejected messages must not be stored, got %d", n)
	}
	if f.pub.count() != 0 {
		t.Errorf("rejected messages must not be published, got %d", f.pub.count())
	}
}

func TestGroupMessageRequiresMembership(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	groups := NewGroupService(f.store, nil)
	group, err := groups.CreateGroup(ctx, f.alice.ID, "team", nil)
	if err != nil {
		t.Fatal(err)
	}
	target := models.GroupTarget(group.ID)

	if _, err := f.svc.SendText(ctx, target, f.bob.ID, "hi"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-member, got %v", err)
	}

	if err := groups.JoinGroup(ctx, group.ID, f.bob.ID); err != nil {
		t.Fatal(err)
	}
	env, err := f.svc.SendText(ctx, target, f.bob.ID, "hi")
	if err != nil {
		t.Fatalf("SendText returned error: %v", err)
	}
	if env.GroupID == nil || *env.GroupID != group.ID || env.ConversationID != nil {
		t.Errorf("envelope must reference only the group: %+v", env)
	}
	if got := f.pub.on(pubsub.GroupTopic(group.ID)); len(got) != 1 {
		t.Errorf("expected 1 event on group topic, got %d", len(got))
	}

	if err := f.svc.CanView(ctx, target, f.bob.ID); err != nil {
		t.Errorf("member must be able to read history: %v", err)
	}
}

func TestSendAttachments(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	target := models.DirectTarget(f.conv.ID)

	img, err := f.svc.SendMessage(ctx, SendMessageRequest{
		Target: target, SenderID: f.alice.ID, Kind: models.KindImage,
		Attachment: &Attachment{Data: pngBytes},
	})
	if err != nil {
		t.Fatalf("image message returned error: %v", err)
	}
	if !strings.HasPrefix(img.MediaURL, "https://cdn.test/chat_") || !strings.HasSuffix(img.MediaURL, ".png") {
		t.Errorf("unexpected image url %q", img.MediaURL)
	}

	file, err := f.svc.SendMessage(ctx, SendMessageRequest{
		Target: target, SenderID: f.bob.ID, Kind: models.KindFile,
		Attachment: &Attachment{Data: []byte("report body"), FileName: "report.txt"},
	})
	if err != nil {
		t.Fatalf("file message returned error: %v", err)
	}
	if !strings.HasPrefix(file.MediaURL, "https://cdn.test/file_") {
		t.Errorf("unexpected file url %q", file.MediaURL)
	}
	if file.FileName != "report.txt" || file.FileSize == nil || *file.FileSize != int64(len("report body")) {
		t.Errorf("file metadata not recorded: %+v", file)
	}
}

func TestUploadFailureLeavesNothing(t *testing.T) {
	f := newMessageFixture(t)
	f.uploader.uploadErr = errors.New("s3 down")

	_, err := f.svc.SendMessage(context.Background(), SendMessageRequest{
		Target: models.DirectTarget(f.conv.ID), SenderID: f.alice.ID, Kind: models.KindImage,
		Attachment: &Attachment{Data: pngBytes},
	})
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	if n := f.store.messageCount(); n != 0 {
		t.Errorf("no message must be stored after upload failure, got %d", n)
	}
	if f.pub.count() != 0 {
		t.Errorf("no event must be published after upload failure")
	}
}

func TestPersistFailureDeletesBlob(t *testing.T) {
	f := newMessageFixture(t)
	f.store.saveMessageErr = errors.New("db down")

	_, err := f.svc.SendMessage(context.Background(), SendMessageRequest{
		Target: models.DirectTarget(f.conv.ID), SenderID: f.alice.ID, Kind: models.KindImage,
		Attachment: &Attachment{Data: pngBytes},
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if len(f.uploader.deleted) != 1 || len(f.uploader.uploads) != 0 {
		t.Errorf("uploaded blob must be removed, deleted=%v left=%d", f.uploader.deleted, len(f.uploader.uploads))
	}
}

func TestHistoryOrdering(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	target := models.DirectTarget(f.conv.ID)

	for _, text := range []string{"one", "two", "three"} {
		if _, err := f.svc.SendText(ctx, target, f.alice.ID, text); err != nil {
			t.Fatal(err)
		}
		f.clk.Advance(time.Second)
	}

	history, err := f.svc.GetMessages(ctx, f.conv.ID)
	if err != nil {
		t.Fatalf("GetMessages returned error: %v", err)
	}
	var got []string
	for _, m := range history {
		got = append(got, m.Content)
	}
	if strings.Join(got, ",") != "one,two,three" {
		t.Errorf("unexpected order %v", got)
	}

	if _, err := f.svc.GetGroupMessages(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown group, got %v", err)
	}
}
