package models

import "github.com/google/uuid"

type targetKind uint8

const (
	targetNone targetKind = iota
	targetDirect
	targetGroup
)

// Target - адресат сообщения: Direct(conversationID) или Group(groupID).
// Нулевое значение невалидно.
type Target struct {
	kind targetKind
	id   uuid.UUID
}

func DirectTarget(conversationID uuid.UUID) Target {
	return Target{kind: targetDirect, id: conversationID}
}

func GroupTarget(groupID uuid.UUID) Target {
	return Target{kind: targetGroup, id: groupID}
}

func (t Target) ID() uuid.UUID { return t.id }

func (t Target) IsGroup() bool { return t.kind == targetGroup }

func (t Target) IsDirect() bool { return t.kind == targetDirect }

func (t Target) Valid() bool { return t.kind != targetNone && t.id != uuid.Nil }

func (t Target) String() string {
	switch t.kind {
	case targetDirect:
		return "direct:" + t.id.String()
	case targetGroup:
		return "group:" + t.id.String()
	}
	return "none"
}
