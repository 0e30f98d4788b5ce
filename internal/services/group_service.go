package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/voxus/internal/models"
	"github.com/thereayou/voxus/internal/pubsub"
)

type groupDeps interface {
	UserStore
	GroupStore
}

type GroupService struct {
	store     groupDeps
	publisher pubsub.Publisher
	now       func() time.Time
}

func NewGroupService(store groupDeps, publisher pubsub.Publisher) *GroupService {
	return &GroupService{store: store, publisher: publisher, now: time.Now}
}

// CreateGroup создает группу: создатель становится ADMIN, остальные - MEMBER.
// Все участники проверяются до записи, поэтому частично созданной группы не бывает.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID uuid.UUID, name string, initialMemberIDs []uuid.UUID) (*models.GroupConversation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidArgument)
	}

	if _, err := s.store.GetUser(ctx, creatorID); err != nil {
		return nil, storeErr(err, "creator %s", creatorID)
	}

	now := s.now()
	members := []models.GroupMember{{UserID: creatorID, Role: models.RoleAdmin, JoinedAt: now}}
	seen := map[uuid.UUID]bool{creatorID: true}

	for _, memberID := range initialMemberIDs {
		if seen[memberID] {
			continue
		}
		seen[memberID] = true

		if _, err := s.store.GetUser(ctx, memberID); err != nil {
			return nil, storeErr(err, "user %s", memberID)
		}
		members = append(members, models.GroupMember{UserID: memberID, Role: models.RoleMember, JoinedAt: now})
	}

	group := &models.GroupConversation{
		Name:      name,
		CreatedBy: creatorID,
		CreatedAt: now,
	}
	if err := s.store.CreateGroup(ctx, group, members); err != nil {
		return nil, storeErr(err, "create group")
	}

	log.Info().
		Str("group_id", group.ID.String()).
		Str("creator", creatorID.String()).
		Int("members", len(members)).
		Msg("group created")

	view := NewGroupView(group)
	for _, m := range members {
		publish(ctx, s.publisher, pubsub.GroupsTopic(m.UserID), view)
	}

	return group, nil
}

func (s *GroupService) JoinGroup(ctx context.Context, groupID, userID uuid.UUID) error {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return storeErr(err, "group %s", groupID)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return storeErr(err, "user %s", userID)
	}

	if _, err := s.store.GetMembership(ctx, groupID, userID); err == nil {
		return ErrAlreadyMember
	} else if !isNotFound(err) {
		return storeErr(err, "membership lookup")
	}

	member := &models.GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		Role:     models.RoleMember,
		JoinedAt: s.now(),
	}
	if err := s.store.AddMember(ctx, member); err != nil {
		if isDuplicate(err) {
			return ErrAlreadyMember
		}
		return storeErr(err, "add member")
	}

	publish(ctx, s.publisher, pubsub.GroupTopic(groupID), GroupNotice{
		Type:    NoticeMemberJoined,
		GroupID: groupID,
		UserID:  userID,
		Message: user.Username + " joined the group",
	})

	return nil
}

func (s *GroupService) RemoveMember(ctx context.Context, groupID, targetUserID, requesterID uuid.UUID) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return storeErr(err, "group %s", groupID)
	}

	target, err := s.store.GetUser(ctx, targetUserID)
	if err != nil {
		return storeErr(err, "user %s", targetUserID)
	}

	if _, err := s.store.GetUser(ctx, requesterID); err != nil {
		return storeErr(err, "requester %s", requesterID)
	}

	requester, err := s.store.GetMembership(ctx, groupID, requesterID)
	if err != nil {
		return storeErr(err, "requester is not a member of the group")
	}

	isSelf := requesterID == targetUserID
	if err := CanRemoveMember(requester.Role, isSelf, group.CreatedBy == targetUserID); err != nil {
		return err
	}

	if _, err := s.store.GetMembership(ctx, groupID, targetUserID); err != nil {
		return storeErr(err, "user is not a member of the group")
	}

	if err := s.store.RemoveMember(ctx, groupID, targetUserID); err != nil {
		return storeErr(err, "remove member")
	}

	text := target.Username + " was removed from the group"
	if isSelf {
		text = target.Username + " left the group"
	}

	log.Info().
		Str("group_id", groupID.String()).
		Str("user_id", targetUserID.String()).
		Str("by", requesterID.String()).
		Msg("group member removed")

	publish(ctx, s.publisher, pubsub.MemberRemovedTopic(groupID), MemberRemovedNotice{
		GroupID: groupID,
		UserID:  targetUserID,
		Message: text,
	})

	return nil
}

// DeleteGroup: список участников снимается до удаления, чтобы было кого уведомить
func (s *GroupService) DeleteGroup(ctx context.Context, groupID, requesterID uuid.UUID) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return storeErr(err, "group %s", groupID)
	}

	if err := CanDeleteGroup(group.CreatedBy == requesterID); err != nil {
		return err
	}

	members, err := s.store.ListGroupMembers(ctx, groupID)
	if err != nil {
		return storeErr(err, "list members")
	}

	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		return storeErr(err, "delete group")
	}

	log.Info().Str("group_id", groupID.String()).Int("members", len(members)).Msg("group deleted")

	notice := GroupDeletedNotice{
		Type:      NoticeGroupDeleted,
		GroupID:   groupID,
		GroupName: group.Name,
		Message:   "The group was deleted by its creator",
	}
	for _, m := range members {
		publish(ctx, s.publisher, pubsub.GroupsTopic(m.UserID), notice)
	}

	return nil
}

func (s *GroupService) GetGroupMembers(ctx context.Context, groupID uuid.UUID) ([]MemberView, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, storeErr(err, "group %s", groupID)
	}

	members, err := s.store.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, storeErr(err, "list members")
	}

	views := make([]MemberView, len(members))
	for i, m := range members {
		views[i] = MemberView{
			ID:        m.ID,
			UserID:    m.UserID,
			Username:  m.User.Username,
			AvatarURL: m.User.AvatarURL,
			Role:      m.Role,
			JoinedAt:  m.JoinedAt,
		}
	}
	return views, nil
}

func (s *GroupService) GetGroupsForUser(ctx context.Context, userID uuid.UUID) ([]GroupView, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, storeErr(err, "user %s", userID)
	}

	groups, err := s.store.ListUserGroups(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "list groups")
	}

	views := make([]GroupView, len(groups))
	for i := range groups {
		views[i] = NewGroupView(&groups[i])
	}
	return views, nil
}
