package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/voxus/internal/services"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер фрейма, вложения идут через HTTP
	maxMessageSize = 512 * 1024 // 512KB

	// Таймаут обработки одной команды
	handleTimeout = 15 * time.Second
)

// ClientMessageHandler обрабатывает команды клиента (chat.send, video-call.* ...)
type ClientMessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *Message) error
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Topics: make(map[string]bool),
		Hub:    hub,
	}
}

// ReadPump читает фреймы клиента до ошибки соединения
func (c *Client) ReadPump(handler ClientMessageHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.Conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("client_id", c.ID.String()).Msg("websocket read error")
			}
			break
		}

		// отправитель всегда тот, кто аутентифицирован на соединении
		msg.UserID = c.UserID
		c.dispatch(handler, &msg)
	}
}

func (c *Client) dispatch(handler ClientMessageHandler, msg *Message) {
	ctx, cancel := context.WithTimeout(c.Hub.ctx, handleTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case TypePong:
		return

	case TypeSubscribe:
		if err = c.Hub.Subscribe(ctx, c, msg.Topic); err == nil {
			c.reply(TypeSubscribed, msg, map[string]string{"topic": msg.Topic})
		}

	case TypeUnsubscribe:
		if err = c.Hub.Unsubscribe(c, msg.Topic); err == nil {
			c.reply(TypeAck, msg, nil)
		}

	default:
		if handler == nil {
			err = ErrInvalidMessage
			break
		}
		err = handler.HandleMessage(ctx, c, msg)
	}

	if err != nil {
		log.Debug().Err(err).Str("type", string(msg.Type)).Str("user_id", c.UserID.String()).Msg("frame rejected")
		c.SendError(msg.RequestID, err)
	}
}

// WritePump отправляет фреймы клиенту
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendMessage(msgType MessageType, data interface{}) error {
	return c.send(Message{Type: msgType, UserID: c.UserID}, data)
}

// Reply отвечает на команду с тем же request_id
func (c *Client) Reply(req *Message, data interface{}) error {
	return c.reply(TypeAck, req, data)
}

func (c *Client) reply(msgType MessageType, req *Message, data interface{}) error {
	return c.send(Message{Type: msgType, Topic: req.Topic, RequestID: req.RequestID, UserID: c.UserID}, data)
}

func (c *Client) send(msg Message, data interface{}) error {
	msg.Timestamp = time.Now()

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		msg.Data = jsonData
	}

	msgData, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.Send <- msgData:
		return nil
	default:
		return ErrClientQueueFull
	}
}

// closeSend закрывает канал Send ровно один раз; после этого send возвращает ErrClientClosed
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// SendError отдает клиенту код ошибки и текст
func (c *Client) SendError(requestID string, err error) {
	code := services.Code(err)
	switch {
	case errors.Is(err, ErrUnauthorized):
		code = services.CodeForbidden
	case errors.Is(err, ErrInvalidMessage), errors.Is(err, ErrUnknownTopic), errors.Is(err, ErrNotSubscribed):
		code = services.CodeInvalidArgument
	}

	c.send(Message{Type: TypeError, RequestID: requestID, UserID: c.UserID}, map[string]string{
		"code":  code,
		"error": err.Error(),
	})
}

func (c *Client) IsSubscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Topics[topic]
}

func (c *Client) GetTopics() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	topics := make([]string, 0, len(c.Topics))
	for topic := range c.Topics {
		topics = append(topics, topic)
	}
	return topics
}
