package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/parley-chat/parley/internal/middleware"
	"github.com/parley-chat/parley/internal/service"
	"github.com/parley-chat/parley/pkg/errcode"
	"github.com/parley-chat/parley/pkg/response"
)

// UserHandler handles user-related requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers handles the user directory listing
func (h *UserHandler) ListUsers(ctx context.Context, c *app.RequestContext) {
	users, err := h.userService.ListUsers(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, users)
}

// GetProfile returns the caller's full profile
func (h *UserHandler) GetProfile(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	profile, err := h.userService.GetProfile(ctx, userId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, profile)
}

// GetUserById returns another user's public info
func (h *UserHandler) GetUserById(ctx context.Context, c *app.RequestContext) {
	targetId := c.Param("user_id")
	if targetId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	info, err := h.userService.GetUserInfo(ctx, targetId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, info)
}

// UpdateProfile updates the caller's profile fields
func (h *UserHandler) UpdateProfile(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req service.UpdateProfileRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	profile, err := h.userService.UpdateProfile(ctx, userId, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, profile)
}

// UpdatePicture handles profile picture upload (multipart form)
func (h *UserHandler) UpdatePicture(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
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

	profile, err := h.userService.UpdatePicture(ctx, userId, file, fh.Header.Get("Content-Type"), fh.Filename, fh.Size)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, profile)
}
