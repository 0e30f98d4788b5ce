package pubsub

import (
	"strings"

	"github.com/google/uuid"
)

// Имена топиков стабильны: клиенты подписываются на них напрямую
func ConversationsTopic(userID uuid.UUID) string { return "conversations/" + userID.String() }

func ChatTopic(conversationID uuid.UUID) string { return "chat/" + conversationID.String() }

func GroupsTopic(userID uuid.UUID) string { return "groups/" + userID.String() }

func GroupTopic(groupID uuid.UUID) string { return "group/" + groupID.String() }

func MemberRemovedTopic(groupID uuid.UUID) string {
	return "group/" + groupID.String() + "/member-removed"
}

func FriendRequestsTopic(userID uuid.UUID) string { return "friend-requests/" + userID.String() }

func VideoCallTopic(userID uuid.UUID) string { return "video-call/" + userID.String() }

func VideoSignalTopic(userID uuid.UUID) string { return "video-signal/" + userID.String() }

// personalPrefixes - топики, принадлежащие одному пользователю
var personalPrefixes = []string{
	"conversations/",
	"groups/",
	"friend-requests/",
	"video-call/",
	"video-signal/",
}

// ParseTopic разбирает имя топика на префикс и id сущности.
// ok=false для неизвестных или битых имен.
func ParseTopic(topic string) (prefix string, id uuid.UUID, ok bool) {
	parts := strings.Split(topic, "/")
	switch {
	case len(parts) == 2:
	case len(parts) == 3 && parts[0] == "group" && parts[2] == "member-removed":
	default:
		return "", uuid.Nil, false
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return "", uuid.Nil, false
	}

	prefix = parts[0] + "/"
	switch prefix {
	case "conversations/", "chat/", "groups/", "group/", "friend-requests/", "video-call/", "video-signal/":
		return prefix, id, true
	}
	return "", uuid.Nil, false
}

// PersonalOwner возвращает владельца персонального топика
func PersonalOwner(topic string) (uuid.UUID, bool) {
	prefix, id, ok := ParseTopic(topic)
	if !ok {
		return uuid.Nil, false
	}
	for _, p := range personalPrefixes {
		if p == prefix {
			return id, true
		}
	}
	return uuid.Nil, false
}
