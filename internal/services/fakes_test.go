package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/voxus/internal/models"
	"gorm.io/gorm"
)

// memStore повторяет уникальные индексы postgres-схемы в памяти
type memStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*models.User
	conversations map[uuid.UUID]*models.Conversation
	groups        map[uuid.UUID]*models.GroupConversation
	members       []models.GroupMember
	messages      []models.Message
	friendships   map[uuid.UUID]*models.Friendship
	calls         map[uuid.UUID]*models.VideoCall

	saveMessageErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[uuid.UUID]*models.User{},
		conversations: map[uuid.UUID]*models.Conversation{},
		groups:        map[uuid.UUID]*models.GroupConversation{},
		friendships:   map[uuid.UUID]*models.Friendship{},
		calls:         map[uuid.UUID]*models.VideoCall{},
	}
}

func (s *memStore) addUser(t *testing.T, username string) *models.User {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: uuid.New(), Username: username, Enabled: true}
	s.users[u.ID] = u
	return u
}

func (s *memStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) FindEnabledUserByPhone(_ context.Context, phone string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.PhoneNumber == phone && u.Enabled {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) GetConversation(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) FindConversationBetween(_ context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.PairKey(a, b)
	for _, c := range s.conversations {
		if c.PairKey == key {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) CreateConversation(_ context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv.PairKey = models.PairKey(conv.ParticipantA, conv.ParticipantB)
	for _, c := range s.conversations {
		if c.PairKey == conv.PairKey {
			return gorm.ErrDuplicatedKey
		}
	}
	conv.ID = uuid.New()
	cp := *conv
	s.conversations[conv.ID] = &cp
	return nil
}

func (s *memStore) ListUserConversations(_ context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Conversation
	for _, c := range s.conversations {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memStore) GetGroup(_ context.Context, id uuid.UUID) (*models.GroupConversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *memStore) CreateGroup(_ context.Context, group *models.GroupConversation, members []models.GroupMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	for _, m := range members {
		if seen[m.UserID] {
			return gorm.ErrDuplicatedKey
		}
		seen[m.UserID] = true
	}
	group.ID = uuid.New()
	cp := *group
	s.groups[group.ID] = &cp
	for _, m := range members {
		m.ID = uuid.New()
		m.GroupID = group.ID
		s.members = append(s.members, m)
	}
	return nil
}

func (s *memStore) DeleteGroup(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.groups, id)

	members := s.members[:0]
	for _, m := range s.members {
		if m.GroupID != id {
			members = append(members, m)
		}
	}
	s.members = members

	messages := s.messages[:0]
	for _, m := range s.messages {
		if m.GroupID == nil || *m.GroupID != id {
			messages = append(messages, m)
		}
	}
	s.messages = messages
	return nil
}

func (s *memStore) GetMembership(_ context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.GroupID == groupID && m.UserID == userID {
			cp := m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) AddMember(_ context.Context, member *models.GroupMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.GroupID == member.GroupID && m.UserID == member.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	member.ID = uuid.New()
	s.members = append(s.members, *member)
	return nil
}

func (s *memStore) RemoveMember(_ context.Context, groupID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.members {
		if m.GroupID == groupID && m.UserID == userID {
			s.members = append(s.members[:i], s.members[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *memStore) ListGroupMembers(_ context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GroupMember
	for _, m := range s.members {
		if m.GroupID == groupID {
			if u, ok := s.users[m.UserID]; ok {
				m.User = *u
			}
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) ListUserGroups(_ context.Context, userID uuid.UUID) ([]models.GroupConversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GroupConversation
	for _, m := range s.members {
		if m.UserID == userID {
			if g, ok := s.groups[m.GroupID]; ok {
				out = append(out, *g)
			}
		}
	}
	return out, nil
}

func (s *memStore) SaveMessage(_ context.Context, message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveMessageErr != nil {
		return s.saveMessageErr
	}
	message.ID = uuid.New()
	s.messages = append(s.messages, *message)
	return nil
}

func (s *memStore) ListMessages(_ context.Context, target models.Target) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.Target() == target {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *memStore) GetFriendship(_ context.Context, id uuid.UUID) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.friendships[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *memStore) FindActiveFriendship(_ context.Context, a, b uuid.UUID) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.PairKey(a, b)
	for _, f := range s.friendships {
		if f.ActivePair != nil && *f.ActivePair == key {
			cp := *f
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) activePairTaken(f *models.Friendship) bool {
	if f.ActivePair == nil {
		return false
	}
	for id, other := range s.friendships {
		if id != f.ID && other.ActivePair != nil && *other.ActivePair == *f.ActivePair {
			return true
		}
	}
	return false
}

func (s *memStore) CreateFriendship(_ context.Context, f *models.Friendship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activePairTaken(f) {
		return gorm.ErrDuplicatedKey
	}
	f.ID = uuid.New()
	cp := *f
	s.friendships[f.ID] = &cp
	return nil
}

func (s *memStore) UpdateFriendship(_ context.Context, f *models.Friendship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.friendships[f.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if s.activePairTaken(f) {
		return gorm.ErrDuplicatedKey
	}
	cp := *f
	s.friendships[f.ID] = &cp
	return nil
}

func (s *memStore) ListFriendships(_ context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Friendship
	for _, f := range s.friendships {
		if f.RequesterID == userID || f.AddresseeID == userID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *memStore) ListAcceptedFriendships(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	all, _ := s.ListFriendships(ctx, userID)
	var out []models.Friendship
	for _, f := range all {
		if f.Status == models.FriendshipAccepted {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *memStore) GetCall(_ context.Context, id uuid.UUID) (*models.VideoCall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) CreateCall(_ context.Context, call *models.VideoCall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	call.ID = uuid.New()
	cp := *call
	s.calls[call.ID] = &cp
	return nil
}

func (s *memStore) UpdateCall(_ context.Context, call *models.VideoCall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calls[call.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *call
	s.calls[call.ID] = &cp
	return nil
}

func (s *memStore) FindActiveCallByUser(_ context.Context, userID uuid.UUID) (*models.VideoCall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c.HasParty(userID) && !c.Status.Terminal() {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) ListCallsByUser(_ context.Context, userID uuid.UUID) ([]models.VideoCall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.VideoCall
	for _, c := range s.calls {
		if c.HasParty(userID) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) activeCalls(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.HasParty(userID) && !c.Status.Terminal() {
			n++
		}
	}
	return n
}

type published struct {
	topic   string
	payload interface{}
}

// recorder запоминает все публикации по порядку
type recorder struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (r *recorder) Publish(_ context.Context, topic string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{topic: topic, payload: payload})
	return r.err
}

func (r *recorder) on(topic string) []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []interface{}
	for _, e := range r.events {
		if e.topic == topic {
			out = append(out, e.payload)
		}
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// decode перегоняет payload через JSON, как это делает шина
func decode(t *testing.T, payload interface{}, into interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
}

type fakeUploader struct {
	mu        sync.Mutex
	uploads   map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploads: map[string][]byte{}}
}

func (u *fakeUploader) Upload(_ context.Context, data []byte, logicalName string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.uploadErr != nil {
		return "", u.uploadErr
	}
	url := "https://cdn.test/" + logicalName
	u.uploads[url] = data
	return url, nil
}

func (u *fakeUploader) Delete(_ context.Context, url string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.uploads[url]; !ok {
		return errors.New("no such object")
	}
	delete(u.uploads, url)
	u.deleted = append(u.deleted, url)
	return nil
}

// clock - управляемое время для сервисов
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
