package service

import (
	"context"
	"io"

	"github.com/mbeoliero/kit/log"
	"github.com/parley-chat/parley/internal/entity"
	"github.com/parley-chat/parley/internal/repository"
	"github.com/parley-chat/parley/internal/storage"
	"github.com/parley-chat/parley/pkg/errcode"
)

// UserService handles user-related business logic
type UserService struct {
	userRepo *repository.UserRepo
	store    storage.AttachmentStore
}

// NewUserService creates a new UserService
func NewUserService(userRepo *repository.UserRepo, store storage.AttachmentStore) *UserService {
	return &UserService{
		userRepo: userRepo,
		store:    store,
	}
}

// ListUsers lists all users as directory entries
func (s *UserService) ListUsers(ctx context.Context) ([]*entity.UserInfo, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		log.CtxError(ctx, "list users failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	infos := make([]*entity.UserInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, user.ToUserInfo())
	}
	return infos, nil
}

// GetProfile gets the full profile of a user
func (s *UserService) GetProfile(ctx context.Context, userId string) (*entity.Profile, error) {
	user, err := s.userRepo.GetById(ctx, userId)
	if err != nil {
		log.CtxDebug(ctx, "get user failed: user_id=%s, error=%v", userId, err)
		return nil, errcode.ErrUserNotFound
	}
	return user.ToProfile(), nil
}

// GetUserInfo gets user info by Id
func (s *UserService) GetUserInfo(ctx context.Context, userId string) (*entity.UserInfo, error) {
	user, err := s.userRepo.GetById(ctx, userId)
	if err != nil {
		log.CtxDebug(ctx, "get user failed: user_id=%s, error=%v", userId, err)
		return nil, errcode.ErrUserNotFound
	}
	return user.ToUserInfo(), nil
}

// UpdateProfileRequest represents profile update request
type UpdateProfileRequest struct {
	Username string `json:"username,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// UpdateProfile updates the caller's profile fields
func (s *UserService) UpdateProfile(ctx context.Context, userId string, req *UpdateProfileRequest) (*entity.Profile, error) {
	exists, err := s.userRepo.Exists(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "check user exists failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if !exists {
		return nil, errcode.ErrUserNotFound
	}

	updates := make(map[string]interface{})
	if req.Username != "" {
		updates["username"] = req.Username
	}
	if req.Bio != "" {
		updates["bio"] = req.Bio
	}

	if len(updates) > 0 {
		if err := s.userRepo.Update(ctx, userId, updates); err != nil {
			log.CtxError(ctx, "update user failed: %v", err)
			return nil, errcode.ErrInternalServer
		}
	}

	return s.GetProfile(ctx, userId)
}

// UpdatePicture validates, uploads and stores a new profile picture.
// An upload failure leaves the stored profile untouched.
func (s *UserService) UpdatePicture(ctx context.Context, userId string, file io.Reader, contentType, fileName string, size int64) (*entity.Profile, error) {
	if err := storage.ValidatePicture(contentType, size); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.Exists(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "check user exists failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if !exists {
		return nil, errcode.ErrUserNotFound
	}

	url, err := s.store.Upload(ctx, file, contentType, fileName, "profiles")
	if err != nil {
		log.CtxError(ctx, "upload profile picture failed: user_id=%s, error=%v", userId, err)
		return nil, err
	}

	if err := s.userRepo.Update(ctx, userId, map[string]interface{}{"picture": url}); err != nil {
		log.CtxError(ctx, "save profile picture failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "profile picture updated: user_id=%s", userId)
	return s.GetProfile(ctx, userId)
}
