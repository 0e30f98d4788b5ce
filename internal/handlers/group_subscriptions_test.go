package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/voxus/internal/models"
	"github.com/thereayou/voxus/internal/pubsub"
	"github.com/thereayou/voxus/internal/services"
	"github.com/thereayou/voxus/internal/websocket"
	"gorm.io/gorm"
)

// memGroups - группы в памяти; заодно пускает в group/{id} только участников
type memGroups struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*models.User
	groups  map[uuid.UUID]*models.GroupConversation
	members map[uuid.UUID]map[uuid.UUID]models.GroupMember
}

func newMemGroups() *memGroups {
	return &memGroups{
		users:   map[uuid.UUID]*models.User{},
		groups:  map[uuid.UUID]*models.GroupConversation{},
		members: map[uuid.UUID]map[uuid.UUID]models.GroupMember{},
	}
}

func (m *memGroups) addUser(name string) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: uuid.New(), Username: name, Enabled: true}
	m.users[u.ID] = u
	return u.ID
}

func (m *memGroups) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memGroups) FindEnabledUserByPhone(context.Context, string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *memGroups) GetGroup(_ context.Context, id uuid.UUID) (*models.GroupConversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memGroups) CreateGroup(_ context.Context, group *models.GroupConversation, members []models.GroupMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	group.ID = uuid.New()
	cp := *group
	m.groups[group.ID] = &cp
	m.members[group.ID] = map[uuid.UUID]models.GroupMember{}
	for i := range members {
		members[i].ID = uuid.New()
		members[i].GroupID = group.ID
		m.members[group.ID][members[i].UserID] = members[i]
	}
	return nil
}

func (m *memGroups) DeleteGroup(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.groups, id)
	delete(m.members, id)
	return nil
}

func (m *memGroups) GetMembership(_ context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[groupID][userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &member, nil
}

func (m *memGroups) AddMember(_ context.Context, member *models.GroupMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[member.GroupID][member.UserID]; ok {
		return gorm.ErrDuplicatedKey
	}
	member.ID = uuid.New()
	m.members[member.GroupID][member.UserID] = *member
	return nil
}

func (m *memGroups) RemoveMember(_ context.Context, groupID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[groupID][userID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.members[groupID], userID)
	return nil
}

func (m *memGroups) ListGroupMembers(_ context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GroupMember
	for _, member := range m.members[groupID] {
		member.User = *m.users[member.UserID]
		out = append(out, member)
	}
	return out, nil
}

func (m *memGroups) ListUserGroups(_ context.Context, userID uuid.UUID) ([]models.GroupConversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GroupConversation
	for id, members := range m.members {
		if _, ok := members[userID]; ok {
			out = append(out, *m.groups[id])
		}
	}
	return out, nil
}

func (m *memGroups) CanSubscribe(ctx context.Context, userID uuid.UUID, topic string) error {
	prefix, id, ok := pubsub.ParseTopic(topic)
	if !ok || prefix != "group/" {
		return services.ErrForbidden
	}
	if _, err := m.GetMembership(ctx, id, userID); err != nil {
		return services.ErrForbidden
	}
	return nil
}

func online(t *testing.T, hub *websocket.Hub, userID uuid.UUID) *websocket.Client {
	t.Helper()
	c := websocket.NewClient(hub, nil, userID)
	hub.Register(c)
	deadline := time.Now().Add(time.Second)
	for !hub.IsOnline(userID) {
		if time.Now().After(deadline) {
			t.Fatal("client was not registered")
		}
		time.Sleep(time.Millisecond)
	}
	return c
}

func pending(c *websocket.Client) int {
	n := 0
	for {
		select {
		case <-c.Send:
			n++
		default:
			return n
		}
	}
}

func TestGroupTopicFollowsMembership(t *testing.T) {
	store := newMemGroups()
	hub := websocket.NewHub(store)
	go hub.Run()
	defer hub.Stop()

	groups := services.NewGroupService(store, hub)
	ctx := context.Background()

	alice, bob, carol := store.addUser("alice"), store.addUser("bob"), store.addUser("carol")
	group, err := groups.CreateGroup(ctx, alice, "team", []uuid.UUID{bob, carol})
	if err != nil {
		t.Fatal(err)
	}
	topic := pubsub.GroupTopic(group.ID)

	b, c := online(t, hub, bob), online(t, hub, carol)
	for _, client := range []*websocket.Client{b, c} {
		if err := hub.Subscribe(ctx, client, topic); err != nil {
			t.Fatalf("member could not subscribe: %v", err)
		}
	}

	if err := groups.RemoveMember(ctx, group.ID, carol, alice); err != nil {
		t.Fatal(err)
	}
	pending(b)
	pending(c)

	hub.Publish(ctx, topic, map[string]string{"content": "after removal"})
	if n := pending(c); n != 0 {
		t.Errorf("removed member received %d frames", n)
	}
	if n := pending(b); n != 1 {
		t.Errorf("remaining member expected 1 frame, got %d", n)
	}
	if err := hub.Subscribe(ctx, c, topic); !errors.Is(err, services.ErrForbidden) {
		t.Errorf("removed member must not resubscribe, got %v", err)
	}

	if err := groups.DeleteGroup(ctx, group.ID, alice); err != nil {
		t.Fatal(err)
	}
	if n := hub.Subscribers(topic); n != 0 {
		t.Errorf("deleted group still has %d subscribers", n)
	}
}
