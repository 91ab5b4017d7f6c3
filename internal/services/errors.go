package services

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a business failure for the HTTP boundary.
type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrCodeValidation    ErrorCode = "VALIDATION"
	ErrCodePartialWrite  ErrorCode = "PARTIAL_WRITE"
	ErrCodeInternal      ErrorCode = "INTERNAL"
)

// ServiceError is a business-rule failure with a user-facing message. It is
// returned to the handler layer instead of aborting the request pipeline;
// infrastructure errors stay plain wrapped errors.
type ServiceError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// User-facing messages match the product's Vietnamese copy.
var (
	ErrClassNotFound   = &ServiceError{Code: ErrCodeNotFound, Message: "Lớp học không tồn tại!"}
	ErrExamNotFound    = &ServiceError{Code: ErrCodeNotFound, Message: "Bài thi không tồn tại hoặc đã bị xóa khỏi hệ thống!"}
	ErrAttemptNotFound = &ServiceError{Code: ErrCodeNotFound, Message: "Không tìm thấy bài làm của học viên!"}
	ErrUserNotFound    = &ServiceError{Code: ErrCodeNotFound, Message: "Người dùng không tồn tại!"}

	ErrClassCodeExists  = &ServiceError{Code: ErrCodeAlreadyExists, Message: "Mã lớp học đã tồn tại. Vui lòng kiểm tra lại!"}
	ErrAlreadyJoined    = &ServiceError{Code: ErrCodeAlreadyExists, Message: "Học viên đã tham gia lớp học. Vui lòng kiểm tra lại!"}
	ErrAlreadySubmitted = &ServiceError{Code: ErrCodeAlreadyExists, Message: "Học viên đã nộp bài thi này. Vui lòng kiểm tra lại!"}

	ErrNotClassMember = &ServiceError{Code: ErrCodeForbidden, Message: "Học viên chưa tham gia lớp học. Vui lòng kiểm tra lại!"}

	ErrGeneric = &ServiceError{Code: ErrCodeInternal, Message: "Đã có lỗi xảy ra. Vui lòng kiểm tra lại!"}
)

// NewPermissionError reports that the caller is not the owning teacher of the
// class (and not an admin). The message names the attempted action.
func NewPermissionError(action string) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeForbidden,
		Message: fmt.Sprintf("%s thất bại. Người dùng không phải giáo viên của lớp học!", action),
	}
}

// NewPartialWriteError reports a bulk write that persisted fewer rows than
// requested. After the transaction rolls back the caller should re-fetch.
func NewPartialWriteError(step string, err error) *ServiceError {
	message := "Đã có lỗi xảy ra. Vui lòng kiểm tra lại!"
	switch step {
	case "results":
		message = "Đã có lỗi xảy ra khi lưu đáp án. Vui lòng kiểm tra lại!"
	case "test_cases":
		message = "Đã có lỗi xảy ra khi lưu test case. Vui lòng kiểm tra lại!"
	}
	return &ServiceError{Code: ErrCodePartialWrite, Message: message, Err: err}
}

// NewValidationError wraps request validation failures with a business code.
func NewValidationError(err error) *ServiceError {
	return &ServiceError{Code: ErrCodeValidation, Message: err.Error(), Err: err}
}

// AsServiceError extracts a ServiceError from an error chain.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsNotFound reports whether err is a business not-found failure.
func IsNotFound(err error) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == ErrCodeNotFound
}

// IsForbidden reports whether err is an authorization failure.
func IsForbidden(err error) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == ErrCodeForbidden
}
