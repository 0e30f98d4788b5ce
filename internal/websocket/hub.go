package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/voxus/internal/pubsub"
	"github.com/thereayou/voxus/internal/services"
)

// TopicAuthorizer решает, может ли пользователь слушать общий топик
// (chat/{id}, group/{id}). Персональные топики проверяет сам Hub.
type TopicAuthorizer interface {
	CanSubscribe(ctx context.Context, userID uuid.UUID, topic string) error
}

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Topics map[string]bool
	Hub    *Hub
	mu     sync.RWMutex
	closed bool
}

// Hub держит соединения и раздает события подписчикам топиков.
// Реализует pubsub.Deliverer для шины и pubsub.Publisher для работы без Redis.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Клиенты по UserID (один пользователь может иметь несколько соединений)
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Подписчики топиков
	topics map[string]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	authorizer TopicAuthorizer

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

var (
	_ pubsub.Deliverer = (*Hub)(nil)
	_ pubsub.Publisher = (*Hub)(nil)
)

// NewHub создает новый Hub
func NewHub(authorizer TopicAuthorizer) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		topics:      make(map[string]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		authorizer:  authorizer,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetAuthorizer нужен, когда авторизатор создается после хаба
func (h *Hub) SetAuthorizer(a TopicAuthorizer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.authorizer = a
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop закрывает все соединения
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		if client.Conn != nil {
			client.Conn.Close()
		}
		client.closeSend()
		delete(h.clients, id)
	}
	h.userClients = make(map[uuid.UUID]map[uuid.UUID]*Client)
	h.topics = make(map[string]map[uuid.UUID]*Client)
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	log.Debug().Str("client_id", client.ID.String()).Str("user_id", client.UserID.String()).Msg("client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	client.mu.Lock()
	for topic := range client.Topics {
		h.removeSubscriberUnsafe(topic, client.ID)
	}
	client.Topics = make(map[string]bool)
	client.mu.Unlock()

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	client.closeSend()

	log.Debug().Str("client_id", client.ID.String()).Str("user_id", client.UserID.String()).Msg("client unregistered")
}

// Subscribe подписывает клиента на топик. Персональный топик доступен только владельцу,
// общие топики проверяет TopicAuthorizer.
func (h *Hub) Subscribe(ctx context.Context, client *Client, topic string) error {
	if _, _, ok := pubsub.ParseTopic(topic); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	if owner, personal := pubsub.PersonalOwner(topic); personal {
		if owner != client.UserID {
			return fmt.Errorf("%w: %s belongs to another user", ErrUnauthorized, topic)
		}
	} else {
		h.mu.RLock()
		authorizer := h.authorizer
		h.mu.RUnlock()

		if authorizer == nil {
			return fmt.Errorf("%w: %s", ErrUnauthorized, topic)
		}
		if err := authorizer.CanSubscribe(ctx, client.UserID, topic); err != nil {
			return err
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[uuid.UUID]*Client)
	}
	h.topics[topic][client.ID] = client

	client.mu.Lock()
	client.Topics[topic] = true
	client.mu.Unlock()

	return nil
}

func (h *Hub) Unsubscribe(client *Client, topic string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	defer client.mu.Unlock()

	if !client.Topics[topic] {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, topic)
	}
	delete(client.Topics, topic)
	h.removeSubscriberUnsafe(topic, client.ID)
	return nil
}

func (h *Hub) removeSubscriberUnsafe(topic string, clientID uuid.UUID) {
	if subs, ok := h.topics[topic]; ok {
		delete(subs, clientID)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Deliver раздает закодированное pubsub.Event подписчикам топика
func (h *Hub) Deliver(topic string, payload []byte) {
	var evt pubsub.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("undecodable event")
		return
	}

	frame, err := json.Marshal(Message{
		Type:      TypeEvent,
		Topic:     topic,
		Data:      evt.Payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("event frame not encoded")
		return
	}

	h.SendToTopic(topic, frame)
	h.dropRevoked(topic, evt.Payload)
}

// dropRevoked снимает подписки, которые событие сделало незаконными:
// исключенный участник теряет group/{id}, при удалении группы - все ее участники.
// Уведомление успевает уйти подписчикам до снятия подписки.
func (h *Hub) dropRevoked(topic string, payload json.RawMessage) {
	prefix, id, ok := pubsub.ParseTopic(topic)
	if !ok {
		return
	}

	switch {
	case prefix == "group/" && topic == pubsub.MemberRemovedTopic(id):
		var notice services.MemberRemovedNotice
		if err := json.Unmarshal(payload, &notice); err != nil || notice.UserID == uuid.Nil {
			return
		}
		h.dropUserTopics(notice.UserID, pubsub.GroupTopic(id), pubsub.MemberRemovedTopic(id))

	case prefix == "groups/":
		var notice services.GroupDeletedNotice
		if err := json.Unmarshal(payload, &notice); err != nil || notice.Type != services.NoticeGroupDeleted {
			return
		}
		h.dropUserTopics(id, pubsub.GroupTopic(notice.GroupID), pubsub.MemberRemovedTopic(notice.GroupID))
	}
}

func (h *Hub) dropUserTopics(userID uuid.UUID, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.userClients[userID] {
		client.mu.Lock()
		for _, topic := range topics {
			if client.Topics[topic] {
				delete(client.Topics, topic)
				h.removeSubscriberUnsafe(topic, client.ID)
			}
		}
		client.mu.Unlock()
	}

	log.Debug().Str("user_id", userID.String()).Strs("topics", topics).Msg("subscriptions revoked")
}

// Publish доставляет событие локальным подписчикам без внешней шины
func (h *Hub) Publish(_ context.Context, topic string, payload interface{}) error {
	data, err := pubsub.Encode(topic, payload)
	if err != nil {
		return err
	}
	h.Deliver(topic, data)
	return nil
}

// SendToTopic отправляет готовый фрейм всем подписчикам топика
func (h *Hub) SendToTopic(topic string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.topics[topic] {
		select {
		case client.Send <- frame:
		default:
			log.Warn().Str("client_id", client.ID.String()).Str("topic", topic).Msg("client send channel full")
		}
	}
}

// SendToUser отправляет фрейм во все соединения пользователя
func (h *Hub) SendToUser(userID uuid.UUID, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.userClients[userID] {
		select {
		case client.Send <- frame:
		default:
			log.Warn().Str("client_id", client.ID.String()).Msg("client send channel full")
		}
	}
}

func (h *Hub) ping() {
	data, err := json.Marshal(Message{Type: TypePing, Timestamp: time.Now()})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// GetOnlineUsers возвращает список онлайн пользователей
func (h *Hub) GetOnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]uuid.UUID, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	return users
}

func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID]) > 0
}

// Subscribers - число подписчиков топика
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
