package core

import "errors"

// Error codes for rejections reported back to the sender.
const (
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeSilenced         = "silenced"
	ErrCodeUnknownTarget    = "unknown_target"
	ErrCodeSelfTarget       = "self_target"
	ErrCodeAlreadyManager   = "already_manager"
	ErrCodeAlreadySilenced  = "already_silenced"
	ErrCodeNameTaken        = "name_taken"
	ErrCodeInvalidName      = "invalid_name"
	ErrCodeInvalidCommand   = "invalid_command"
)

var (
	ErrNameTaken   = errors.New("name already in use")
	ErrNameBound   = errors.New("connection already has a name")
	ErrUnknownConn = errors.New("unknown connection")
)

// CoreError wraps a code and the human-readable notice sent to the user.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// IsCode reports whether err is a *CoreError carrying code.
func IsCode(err error, code string) bool {
	var ce *CoreError
	return errors.As(err, &ce) && ce.Code == code
}
