package errcode

import "fmt"

// Error represents a business error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("errcode: %d, msg: %s", e.Code, e.Msg)
}

// New creates a new error with code and message
func New(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap wraps an error with additional context
func (e *Error) Wrap(err error) *Error {
	if err == nil {
		return e
	}
	return &Error{
		Code: e.Code,
		Msg:  fmt.Sprintf("%s: %v", e.Msg, err),
	}
}

// Is reports whether target carries the same code, so errors.Is works
// across wrapped instances.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Error codes. The thousands digit encodes the class: 1xxx validation,
// 2xxx auth, 3xxx groups, 4xxx messages/conversations, 5xxx transport,
// 6xxx upstream collaborators. Validation and authorization errors are
// never retried; an upstream error aborts the whole operation.
var (
	// Success
	ErrSuccess = New(0, "success")

	// Validation errors (1xxx)
	ErrInvalidParam       = New(1001, "invalid parameter")
	ErrInternalServer     = New(1002, "internal server error")
	ErrUnauthorized       = New(1003, "unauthorized")
	ErrForbidden          = New(1004, "forbidden")
	ErrNotFound           = New(1005, "not found")
	ErrNoPermission       = New(1007, "no permission to access this resource")
	ErrInvalidParticipant = New(1008, "invalid participant identity")
	ErrEmptyMessage       = New(1009, "message content or attachment required")
	ErrFileTypeNotAllowed = New(1010, "file type not allowed")
	ErrFileTooLarge       = New(1011, "file too large")

	// Auth errors (2xxx)
	ErrTokenInvalid  = New(2001, "token invalid")
	ErrTokenExpired  = New(2002, "token expired")
	ErrTokenMissing  = New(2003, "token missing")
	ErrTokenMismatch = New(2004, "token user mismatch")
	ErrLoginFailed   = New(2005, "login failed")
	ErrUserNotFound  = New(2006, "user not found")
	ErrUserExists    = New(2007, "user already exists")
	ErrPasswordWrong = New(2008, "password wrong")

	// Group errors (3xxx)
	ErrGroupNotFound      = New(3001, "group not found")
	ErrNotGroupMember     = New(3002, "not a group member")
	ErrAlreadyGroupMember = New(3003, "already a group member")
	ErrNotGroupOwner      = New(3004, "not group owner")
	ErrMemberNotFound     = New(3005, "some members not found")

	// Message and conversation errors (4xxx)
	ErrMessageNotFound = New(4001, "message not found")
	ErrConvNotFound    = New(4002, "conversation not found")
	ErrNotParticipant  = New(4003, "not a participant of this conversation")
	ErrSeqAllocFailed  = New(4004, "seq allocation failed")
	ErrSendFailed      = New(4005, "message send failed")

	// Transport errors (5xxx)
	ErrConnOverLimit   = New(5001, "connection over max limit")
	ErrConnClosed      = New(5002, "connection closed")
	ErrInvalidProtocol = New(5003, "invalid protocol")

	// Upstream collaborator errors (6xxx)
	ErrAttachmentUpload = New(6001, "attachment upload failed")
	ErrStorageFailure   = New(6002, "storage operation failed")
)
