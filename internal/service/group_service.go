package service

import (
	"context"
	"io"

	"github.com/mbeoliero/kit/log"
	"github.com/parley-chat/parley/internal/entity"
	"github.com/parley-chat/parley/internal/repository"
	"github.com/parley-chat/parley/internal/storage"
	"github.com/parley-chat/parley/pkg/constant"
	"github.com/parley-chat/parley/pkg/errcode"
	"github.com/parley-chat/parley/pkg/idgen"
)

// GroupService handles group-related business logic
type GroupService struct {
	groupRepo *repository.GroupRepo
	userRepo  *repository.UserRepo
	store     storage.AttachmentStore
}

// NewGroupService creates a new GroupService
func NewGroupService(groupRepo *repository.GroupRepo, userRepo *repository.UserRepo, store storage.AttachmentStore) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		store:     store,
	}
}

// CreateGroupRequest represents group creation request
type CreateGroupRequest struct {
	Name      string   `json:"name"`
	MemberIds []string `json:"member_ids,omitempty"`
}

// CreateGroup creates a group owned by the caller. The owner is always
// a member; additional initial members are added after creation.
func (s *GroupService) CreateGroup(ctx context.Context, ownerId string, req *CreateGroupRequest) (*entity.GroupInfo, error) {
	if req.Name == "" {
		return nil, errcode.ErrInvalidParam
	}

	groupId, err := idgen.NextID()
	if err != nil {
		log.CtxError(ctx, "generate group id failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	now := entity.NowUnixMilli()
	group := &entity.Group{
		Id:      groupId,
		Name:    req.Name,
		OwnerId: ownerId,
	}
	owner := &entity.GroupMember{
		GroupId:   groupId,
		UserId:    ownerId,
		RoleLevel: constant.RoleLevelOwner,
		JoinedAt:  now,
	}

	if err := s.groupRepo.CreateWithOwner(ctx, group, owner); err != nil {
		log.CtxError(ctx, "create group failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	for _, memberId := range req.MemberIds {
		if memberId == ownerId {
			continue
		}
		member := &entity.GroupMember{
			GroupId:   groupId,
			UserId:    memberId,
			RoleLevel: constant.RoleLevelMember,
			JoinedAt:  now,
		}
		if err := s.groupRepo.AddMember(ctx, member); err != nil {
			log.CtxWarn(ctx, "add initial member failed: group_id=%s, user_id=%s, error=%v", groupId, memberId, err)
		}
	}

	log.CtxInfo(ctx, "group created: group_id=%s, owner_id=%s", groupId, ownerId)
	return s.GetGroup(ctx, ownerId, groupId)
}

// GetGroup gets a group with hydrated members, caller must be a member
func (s *GroupService) GetGroup(ctx context.Context, userId, groupId string) (*entity.GroupInfo, error) {
	group, err := s.groupRepo.GetById(ctx, groupId)
	if err != nil {
		log.CtxError(ctx, "get group failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if group == nil {
		return nil, errcode.ErrGroupNotFound
	}

	isMember, err := s.groupRepo.IsMember(ctx, groupId, userId)
	if err != nil {
		log.CtxError(ctx, "check membership failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if !isMember {
		return nil, errcode.ErrNotGroupMember
	}

	members, err := s.getMemberInfos(ctx, groupId)
	if err != nil {
		return nil, err
	}

	return group.ToGroupInfo(members), nil
}

// ListUserGroups lists all groups the user belongs to
func (s *GroupService) ListUserGroups(ctx context.Context, userId string) ([]*entity.GroupInfo, error) {
	groups, err := s.groupRepo.GetUserGroups(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "list user groups failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	infos := make([]*entity.GroupInfo, 0, len(groups))
	for _, group := range groups {
		infos = append(infos, group.ToGroupInfo(nil))
	}
	return infos, nil
}

// ListAllGroups lists every group, for discovery before joining
func (s *GroupService) ListAllGroups(ctx context.Context) ([]*entity.GroupInfo, error) {
	groups, err := s.groupRepo.ListAll(ctx)
	if err != nil {
		log.CtxError(ctx, "list groups failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	infos := make([]*entity.GroupInfo, 0, len(groups))
	for _, group := range groups {
		infos = append(infos, group.ToGroupInfo(nil))
	}
	return infos, nil
}

// JoinGroup adds the caller to a group. Joining a group the caller
// already belongs to fails with ErrAlreadyGroupMember.
func (s *GroupService) JoinGroup(ctx context.Context, userId, groupId string) (*entity.GroupInfo, error) {
	group, err := s.groupRepo.GetById(ctx, groupId)
	if err != nil {
		log.CtxError(ctx, "get group failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if group == nil {
		return nil, errcode.ErrGroupNotFound
	}

	alreadyMember, err := s.groupRepo.IsMember(ctx, groupId, userId)
	if err != nil {
		log.CtxError(ctx, "check membership failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if alreadyMember {
		return nil, errcode.ErrAlreadyGroupMember
	}

	member := &entity.GroupMember{
		GroupId:   groupId,
		UserId:    userId,
		RoleLevel: constant.RoleLevelMember,
		JoinedAt:  entity.NowUnixMilli(),
	}
	if err := s.groupRepo.AddMember(ctx, member); err != nil {
		log.CtxError(ctx, "join group failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "user joined group: group_id=%s, user_id=%s", groupId, userId)
	return s.GetGroup(ctx, userId, groupId)
}

// AddMember adds a user to the group. The caller must already be a
// member. Adding an existing member fails with ErrAlreadyGroupMember.
func (s *GroupService) AddMember(ctx context.Context, callerId, groupId, userId string) (*entity.GroupInfo, error) {
	group, err := s.groupRepo.GetById(ctx, groupId)
	if err != nil {
		log.CtxError(ctx, "get group failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if group == nil {
		return nil, errcode.ErrGroupNotFound
	}

	callerIsMember, err := s.groupRepo.IsMember(ctx, groupId, callerId)
	if err != nil {
		log.CtxError(ctx, "check membership failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if !callerIsMember {
		return nil, errcode.ErrNotGroupMember
	}

	exists, err := s.userRepo.Exists(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "check user exists failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if !exists {
		return nil, errcode.ErrMemberNotFound
	}

	alreadyMember, err := s.groupRepo.IsMember(ctx, groupId, userId)
	if err != nil {
		log.CtxError(ctx, "check membership failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if alreadyMember {
		return nil, errcode.ErrAlreadyGroupMember
	}

	member := &entity.GroupMember{
		GroupId:   groupId,
		UserId:    userId,
		RoleLevel: constant.RoleLevelMember,
		JoinedAt:  entity.NowUnixMilli(),
	}
	if err := s.groupRepo.AddMember(ctx, member); err != nil {
		log.CtxError(ctx, "add member failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "member added: group_id=%s, user_id=%s, by=%s", groupId, userId, callerId)
	return s.GetGroup(ctx, callerId, groupId)
}

// UpdatePicture validates, uploads and stores a new group picture.
// Only the owner may change it. An upload failure leaves the stored
// group untouched.
func (s *GroupService) UpdatePicture(ctx context.Context, callerId, groupId string, file io.Reader, contentType, fileName string, size int64) (*entity.GroupInfo, error) {
	if err := storage.ValidatePicture(contentType, size); err != nil {
		return nil, err
	}

	group, err := s.groupRepo.GetById(ctx, groupId)
	if err != nil {
		log.CtxError(ctx, "get group failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if group == nil {
		return nil, errcode.ErrGroupNotFound
	}

	caller, err := s.groupRepo.GetMember(ctx, groupId, callerId)
	if err != nil {
		log.CtxError(ctx, "get member failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if caller == nil || caller.RoleLevel < constant.RoleLevelOwner {
		return nil, errcode.ErrNotGroupOwner
	}

	url, err := s.store.Upload(ctx, file, contentType, fileName, "groups")
	if err != nil {
		log.CtxError(ctx, "upload group picture failed: group_id=%s, error=%v", groupId, err)
		return nil, err
	}

	if err := s.groupRepo.Update(ctx, groupId, map[string]interface{}{"picture": url}); err != nil {
		log.CtxError(ctx, "save group picture failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "group picture updated: group_id=%s, by=%s", groupId, callerId)
	return s.GetGroup(ctx, callerId, groupId)
}

// getMemberInfos hydrates the member list of a group
func (s *GroupService) getMemberInfos(ctx context.Context, groupId string) ([]*entity.UserInfo, error) {
	memberIds, err := s.groupRepo.GetMemberUserIds(ctx, groupId)
	if err != nil {
		log.CtxError(ctx, "get member ids failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if len(memberIds) == 0 {
		return nil, nil
	}

	users, err := s.userRepo.GetByIds(ctx, memberIds)
	if err != nil {
		log.CtxError(ctx, "get members failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	infos := make([]*entity.UserInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, user.ToUserInfo())
	}
	return infos, nil
}
