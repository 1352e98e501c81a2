package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/parley-chat/parley/internal/middleware"
	"github.com/parley-chat/parley/internal/service"
	"github.com/parley-chat/parley/pkg/errcode"
	"github.com/parley-chat/parley/pkg/response"
)

// MessageHandler handles message-related requests
type MessageHandler struct {
	msgService *service.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(msgService *service.MessageService) *MessageHandler {
	return &MessageHandler{msgService: msgService}
}

// SendMessage handles sending a message. Accepts JSON for text-only
// messages and multipart form when a file is attached.
func (h *MessageHandler) SendMessage(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	req, cleanup, err := h.bindSendRequest(c)
	if err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}
	if cleanup != nil {
		defer cleanup()
	}

	var msg interface{}
	var sendErr error
	switch {
	case req.RecipientId != "":
		msg, sendErr = h.msgService.SendDirectMessage(ctx, userId, req)
	case req.GroupId != "":
		msg, sendErr = h.msgService.SendGroupMessage(ctx, userId, req)
	default:
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if sendErr != nil {
		response.Error(ctx, c, sendErr)
		return
	}
	response.Success(ctx, c, msg)
}

// bindSendRequest parses either a JSON body or a multipart form into a
// SendMessageRequest. The returned cleanup closes the attached file.
func (h *MessageHandler) bindSendRequest(c *app.RequestContext) (*service.SendMessageRequest, func(), error) {
	contentType := string(c.ContentType())
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var req service.SendMessageRequest
		if err := c.BindAndValidate(&req); err != nil {
			return nil, nil, err
		}
		return &req, nil, nil
	}

	req := &service.SendMessageRequest{
		RecipientId: c.PostForm("recipient_id"),
		GroupId:     c.PostForm("group_id"),
		Content:     c.PostForm("content"),
		ClientMsgId: c.PostForm("client_msg_id"),
	}
	if v := c.PostForm("sent_at"); v != "" {
		req.SentAt, _ = strconv.ParseInt(v, 10, 64)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		// No file part, plain form send
		return req, nil, nil
	}

	file, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}

	req.Attachment = &service.Attachment{
		Reader:      file,
		ContentType: fh.Header.Get("Content-Type"),
		FileName:    fh.Filename,
		Size:        fh.Size,
	}
	return req, func() { file.Close() }, nil
}

// GetDirectMessages fetches the conversation with a peer
func (h *MessageHandler) GetDirectMessages(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	peerId := c.Param("user_id")
	if peerId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	limit, _ := strconv.Atoi(string(c.Query("limit")))

	result, err := h.msgService.GetDirectMessages(ctx, userId, peerId, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// GetGroupMessages fetches a group conversation
func (h *MessageHandler) GetGroupMessages(ctx context.Context, c *app.RequestContext) {
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

	limit, _ := strconv.Atoi(string(c.Query("limit")))

	result, err := h.msgService.GetGroupMessages(ctx, userId, groupId, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// MarkReadRequest is the mark read request body
type MarkReadRequest struct {
	MessageId string `json:"message_id"`
}

// MarkRead records that the caller read a message (HTTP fallback for
// the mark_read WebSocket event).
func (h *MessageHandler) MarkRead(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req MarkReadRequest
	if err := c.BindAndValidate(&req); err != nil || req.MessageId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	rcpt, err := h.msgService.MarkMessageRead(ctx, userId, req.MessageId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, rcpt)
}
