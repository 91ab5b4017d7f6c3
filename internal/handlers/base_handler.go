package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/services"
	"github.com/OEP-2025/online-exam-service/internal/utils"
	"github.com/OEP-2025/online-exam-service/internal/validator"
)

// ErrorResponse is the envelope for all failed requests.
type ErrorResponse struct {
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse is the envelope for mutations that return no resource body.
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the helpers shared by all HTTP handlers.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.LoggerFromContext(c.Request.Context(), h.logger).Info(msg, args...)
}

// parseIDParam reads a positive integer path parameter. On failure it writes
// the 400 response itself and returns 0.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid " + name + " parameter",
		})
		return 0
	}
	return uint(id)
}

// parseUintQuery reads a positive integer query parameter, writing the 400
// response itself when the value is missing or malformed.
func (h *BaseHandler) parseUintQuery(c *gin.Context, name string) uint {
	raw := c.Query(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid " + name + " parameter",
		})
		return 0
	}
	return uint(id)
}

// parsePageQuery reads page/size query parameters with listing defaults.
func (h *BaseHandler) parsePageQuery(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", "10"))
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	return page, size
}

// currentUser returns the authenticated user set by the auth middleware. On
// failure it writes the 401 response itself and returns nil.
func (h *BaseHandler) currentUser(c *gin.Context) *models.User {
	user, err := GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return nil
	}
	return user
}

// handleServiceError maps business failures onto HTTP statuses. The message in
// the response body is the service's user-facing copy.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	logger := utils.LoggerFromContext(c.Request.Context(), h.logger)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Dữ liệu không hợp lệ. Vui lòng kiểm tra lại!",
			Details: validationErrs,
		})
		return
	}

	if serviceErr, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch serviceErr.Code {
		case services.ErrCodeNotFound:
			status = http.StatusNotFound
		case services.ErrCodeForbidden:
			status = http.StatusForbidden
		case services.ErrCodeAlreadyExists:
			status = http.StatusConflict
		case services.ErrCodeValidation:
			status = http.StatusBadRequest
		case services.ErrCodePartialWrite, services.ErrCodeInternal:
			status = http.StatusInternalServerError
		}

		if status == http.StatusInternalServerError {
			logger.Error("Service error", "code", serviceErr.Code, "error", err)
		}

		c.JSON(status, ErrorResponse{
			Error:   string(serviceErr.Code),
			Message: serviceErr.Message,
		})
		return
	}

	logger.Error("Unhandled error", "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "Đã có lỗi xảy ra. Vui lòng kiểm tra lại!",
	})
}
