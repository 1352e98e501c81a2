package sdk

import "fmt"

// Error represents an API error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("code: %d, msg: %s", e.Code, e.Msg)
}

// NewError creates a new error
func NewError(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Common error codes
const (
	CodeSuccess = 0

	// Validation errors (1xxx)
	CodeInvalidParam       = 1001
	CodeInternalServer     = 1002
	CodeUnauthorized       = 1003
	CodeForbidden          = 1004
	CodeNotFound           = 1005
	CodeNoPermission       = 1007
	CodeInvalidParticipant = 1008
	CodeEmptyMessage       = 1009
	CodeFileTypeNotAllowed = 1010
	CodeFileTooLarge       = 1011

	// Auth errors (2xxx)
	CodeTokenInvalid  = 2001
	CodeTokenExpired  = 2002
	CodeTokenMissing  = 2003
	CodeTokenMismatch = 2004
	CodeLoginFailed   = 2005
	CodeUserNotFound  = 2006
	CodeUserExists    = 2007
	CodePasswordWrong = 2008

	// Group errors (3xxx)
	CodeGroupNotFound      = 3001
	CodeNotGroupMember     = 3002
	CodeAlreadyGroupMember = 3003
	CodeNotGroupOwner      = 3004
	CodeMemberNotFound     = 3005

	// Message errors (4xxx)
	CodeMessageNotFound = 4001
	CodeConvNotFound    = 4002
	CodeNotParticipant  = 4003
	CodeSeqAllocFailed  = 4004
	CodeSendFailed      = 4005

	// Transport errors (5xxx)
	CodeConnOverLimit   = 5001
	CodeConnClosed      = 5002
	CodeInvalidProtocol = 5003
	CodePushFailed      = 5004

	// Upstream errors (6xxx)
	CodeAttachmentUpload = 6001
	CodeStorageFailure   = 6002
)

// Predefined errors
var (
	ErrInvalidParam       = NewError(CodeInvalidParam, "invalid parameter")
	ErrInternalServer     = NewError(CodeInternalServer, "internal server error")
	ErrUnauthorized       = NewError(CodeUnauthorized, "unauthorized")
	ErrInvalidParticipant = NewError(CodeInvalidParticipant, "invalid participant identity")
	ErrEmptyMessage       = NewError(CodeEmptyMessage, "message content or attachment required")
	ErrFileTypeNotAllowed = NewError(CodeFileTypeNotAllowed, "file type not allowed")
	ErrFileTooLarge       = NewError(CodeFileTooLarge, "file too large")

	ErrTokenInvalid = NewError(CodeTokenInvalid, "token invalid")
	ErrLoginFailed  = NewError(CodeLoginFailed, "login failed")
	ErrUserNotFound = NewError(CodeUserNotFound, "user not found")
	ErrUserExists   = NewError(CodeUserExists, "user already exists")

	ErrGroupNotFound      = NewError(CodeGroupNotFound, "group not found")
	ErrNotGroupMember     = NewError(CodeNotGroupMember, "not a group member")
	ErrAlreadyGroupMember = NewError(CodeAlreadyGroupMember, "already a group member")
	ErrNotGroupOwner      = NewError(CodeNotGroupOwner, "not group owner")

	ErrMessageNotFound = NewError(CodeMessageNotFound, "message not found")
	ErrConnClosed      = NewError(CodeConnClosed, "connection closed")
)
