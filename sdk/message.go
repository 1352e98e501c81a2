package sdk

import (
	"context"
	"io"
	"strconv"
)

// AttachmentUpload is a file accompanying a message send
type AttachmentUpload struct {
	FileName string
	Reader   io.Reader
}

// SendMessage sends a message, with multipart encoding when a file is
// attached. Exactly one of req.RecipientId and req.GroupId must be set.
func (c *Client) SendMessage(ctx context.Context, req *SendMessageRequest, attachment *AttachmentUpload) (*MessageInfo, error) {
	var result MessageInfo

	if attachment == nil {
		if err := c.post(ctx, "/messages", req, &result); err != nil {
			return nil, err
		}
		return &result, nil
	}

	fields := map[string]string{
		"content":       req.Content,
		"client_msg_id": req.ClientMsgId,
	}
	if req.RecipientId != "" {
		fields["recipient_id"] = req.RecipientId
	}
	if req.GroupId != "" {
		fields["group_id"] = req.GroupId
	}
	if req.SentAt != 0 {
		fields["sent_at"] = strconv.FormatInt(req.SentAt, 10)
	}

	err := c.requestMultipart(ctx, "POST", "/messages", fields, "file", attachment.FileName, attachment.Reader, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetDirectMessages fetches the conversation with a peer
func (c *Client) GetDirectMessages(ctx context.Context, peerId string, limit int) (*ConversationMessages, error) {
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	var result ConversationMessages
	if err := c.get(ctx, "/messages/direct/"+peerId, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetGroupMessages fetches a group conversation
func (c *Client) GetGroupMessages(ctx context.Context, groupId string, limit int) (*ConversationMessages, error) {
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	var result ConversationMessages
	if err := c.get(ctx, "/messages/group/"+groupId, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MarkRead records that the authenticated user read a message
func (c *Client) MarkRead(ctx context.Context, messageId string) (*ReadReceipt, error) {
	var result ReadReceipt
	body := map[string]string{"message_id": messageId}
	if err := c.post(ctx, "/messages/read", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
