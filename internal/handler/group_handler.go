package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/parley-chat/parley/internal/entity"
	"github.com/parley-chat/parley/internal/middleware"
	"github.com/parley-chat/parley/internal/service"
	"github.com/parley-chat/parley/pkg/errcode"
	"github.com/parley-chat/parley/pkg/response"
)

// GroupHandler handles group-related requests
type GroupHandler struct {
	groupService *service.GroupService
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroup handles group creation
func (h *GroupHandler) CreateGroup(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req service.CreateGroupRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	group, err := h.groupService.CreateGroup(ctx, userId, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, group)
}

// GetGroup returns a group with its members
func (h *GroupHandler) GetGroup(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	groupId := c.Param("group_id")
	if groupId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	group, err := h.groupService.GetGroup(ctx, userId, groupId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, group)
}

// ListGroups lists the caller's groups, or every group when the
// request carries scope=all (discovery before joining)
func (h *GroupHandler) ListGroups(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var groups []*entity.GroupInfo
	var err error
	if string(c.Query("scope")) == "all" {
		groups, err = h.groupService.ListAllGroups(ctx)
	} else {
		groups, err = h.groupService.ListUserGroups(ctx, userId)
	}
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, groups)
}

// JoinGroup adds the caller to a group
func (h *GroupHandler) JoinGroup(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	groupId := c.Param("group_id")
	if groupId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	group, err := h.groupService.JoinGroup(ctx, userId, groupId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, group)
}

// AddMemberRequest is the add member request body
type AddMemberRequest struct {
	UserId string `json:"user_id"`
}

// AddMember adds a user to a group
func (h *GroupHandler) AddMember(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	groupId := c.Param("group_id")
	var req AddMemberRequest
	if err := c.BindAndValidate(&req); err != nil || groupId == "" || req.UserId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	group, err := h.groupService.AddMember(ctx, userId, groupId, req.UserId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, group)
}

// UpdatePicture handles group picture upload (multipart form, owner only)
func (h *GroupHandler) UpdatePicture(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	groupId := c.Param("group_id")
	if groupId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	fh, err := c.FormFile("picture")
	if err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	file, err := fh.Open()
	if err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}
	defer file.Close()

	group, err := h.groupService.UpdatePicture(ctx, userId, groupId, file, fh.Header.Get("Content-Type"), fh.Filename, fh.Size)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, group)
}
