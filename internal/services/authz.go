package services

import (
	"fmt"

	"github.com/thereayou/voxus/internal/models"
)

// CanRemoveMember: участник может удалить только себя, ADMIN - любого,
// создателя группы не может удалить никто
func CanRemoveMember(requesterRole models.GroupRole, isSelf, targetIsCreator bool) error {
	if !isSelf && requesterRole != models.RoleAdmin {
		return fmt.Errorf("%w: only ADMIN can remove other members", ErrForbidden)
	}
	if targetIsCreator {
		return fmt.Errorf("%w: group creator cannot be removed", ErrForbidden)
	}
	return nil
}

func CanDeleteGroup(isCreator bool) error {
	if !isCreator {
		return fmt.Errorf("%w: only group creator can delete group", ErrForbidden)
	}
	return nil
}

// CanPostToGroup проверяет членство отправителя
func CanPostToGroup(member *models.GroupMember) error {
	if member == nil {
		return fmt.Errorf("%w: not a member of the group", ErrForbidden)
	}
	return nil
}

// CanPostToConversation: писать в диалог могут только его участники
func CanPostToConversation(isParticipant bool) error {
	if !isParticipant {
		return fmt.Errorf("%w: not a participant of the conversation", ErrForbidden)
	}
	return nil
}
