package repository

import (
	"context"
	"errors"

	"github.com/parley-chat/parley/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupRepo is the repository for group operations
type GroupRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewGroupRepo creates a new GroupRepo
func NewGroupRepo(db *gorm.DB, rdb *redis.Client) *GroupRepo {
	return &GroupRepo{db: db, rdb: rdb}
}

// CreateWithOwner creates the group and its owner membership atomically
func (r *GroupRepo) CreateWithOwner(ctx context.Context, group *entity.Group, owner *entity.GroupMember) error {
	now := entity.NowUnixMilli()
	group.CreatedAt = now
	group.UpdatedAt = now
	owner.CreatedAt = now
	owner.UpdatedAt = now

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Create(owner).Error
	})
}

// GetById gets group by Id, returns nil if not found
func (r *GroupRepo) GetById(ctx context.Context, id string) (*entity.Group, error) {
	var group entity.Group
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

// Update updates group info
func (r *GroupRepo) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	updates["updated_at"] = entity.NowUnixMilli()
	return r.db.WithContext(ctx).Model(&entity.Group{}).Where("id = ?", id).Updates(updates).Error
}

// AddMember adds a member to the group, no-op when already present
func (r *GroupRepo) AddMember(ctx context.Context, member *entity.GroupMember) error {
	now := entity.NowUnixMilli()
	member.CreatedAt = now
	member.UpdatedAt = now

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(member).Error
}

// ListAll gets every group, newest first
func (r *GroupRepo) ListAll(ctx context.Context) ([]*entity.Group, error) {
	var groups []*entity.Group
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// GetMember gets a group member, returns nil if not found
func (r *GroupRepo) GetMember(ctx context.Context, groupId, userId string) (*entity.GroupMember, error) {
	var member entity.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupId, userId).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// GetMemberUserIds gets user Ids of all members
func (r *GroupRepo) GetMemberUserIds(ctx context.Context, groupId string) ([]string, error) {
	var userIds []string
	err := r.db.WithContext(ctx).
		Model(&entity.GroupMember{}).
		Where("group_id = ?", groupId).
		Pluck("user_id", &userIds).Error
	if err != nil {
		return nil, err
	}
	return userIds, nil
}

// IsMember checks if user is a member of the group
func (r *GroupRepo) IsMember(ctx context.Context, groupId, userId string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupId, userId).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserGroups gets all groups that user is a member of
func (r *GroupRepo) GetUserGroups(ctx context.Context, userId string) ([]*entity.Group, error) {
	var groups []*entity.Group
	err := r.db.WithContext(ctx).
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userId).
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}
