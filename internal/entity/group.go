package entity

import "github.com/parley-chat/parley/pkg/constant"

// Group represents a group conversation
type Group struct {
	Id        string `json:"id" gorm:"column:id;primaryKey"`
	Name      string `json:"name" gorm:"column:name"`
	OwnerId   string `json:"owner_id" gorm:"column:owner_id"`
	Picture   string `json:"picture" gorm:"column:picture"`
	CreatedAt int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for Group
func (Group) TableName() string {
	return "groups"
}

// ConversationId returns the broadcast room identifier for the group
func (g *Group) ConversationId() string {
	return GroupConversationId(g.Id)
}

// GroupMember represents a group membership row. Membership is
// append-only: members are never removed in this system.
type GroupMember struct {
	Id        int64  `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	GroupId   string `json:"group_id" gorm:"column:group_id;uniqueIndex:idx_group_user"`
	UserId    string `json:"user_id" gorm:"column:user_id;uniqueIndex:idx_group_user"`
	RoleLevel int32  `json:"role_level" gorm:"column:role_level"`
	JoinedAt  int64  `json:"joined_at" gorm:"column:joined_at"`
	CreatedAt int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for GroupMember
func (GroupMember) TableName() string {
	return "group_members"
}

// IsOwner checks if the member is the group owner
func (gm *GroupMember) IsOwner() bool {
	return gm.RoleLevel == constant.RoleLevelOwner
}

// GroupInfo represents group info with hydrated members
type GroupInfo struct {
	Id        string      `json:"id"`
	Name      string      `json:"name"`
	OwnerId   string      `json:"owner_id"`
	Picture   string      `json:"picture,omitempty"`
	Members   []*UserInfo `json:"members,omitempty"`
	CreatedAt int64       `json:"created_at"`
}

// ToGroupInfo converts Group to GroupInfo with the given members
func (g *Group) ToGroupInfo(members []*UserInfo) *GroupInfo {
	return &GroupInfo{
		Id:        g.Id,
		Name:      g.Name,
		OwnerId:   g.OwnerId,
		Picture:   g.Picture,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}
