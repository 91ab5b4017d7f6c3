package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OEP-2025/online-exam-service/internal/services"
	"github.com/OEP-2025/online-exam-service/internal/utils"
	"github.com/OEP-2025/online-exam-service/internal/validator"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	exportService  services.ExportService
	validator      *validator.Validator
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		exportService:  exportService,
		validator:      validator,
	}
}

// SubmitExam records and grades the calling student's finished attempt
func (h *AttemptHandler) SubmitExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	var req validator.SubmitExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user := h.currentUser(c)
	if user == nil {
		return
	}

	h.LogRequest(c, "Submitting exam", "exam_id", examID, "user_id", user.UserID)

	result, err := h.attemptService.Submit(c.Request.Context(), examID, &req, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Nộp bài thi thành công!",
		Data:    result,
	})
}

// ListAttempts lists the graded attempts of an exam for its owning teacher
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	user := h.currentUser(c)
	if user == nil {
		return
	}

	summaries, err := h.attemptService.ListByExam(c.Request.Context(), examID, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: summaries})
}

// ExportAttempts downloads the graded attempts of an exam as an xlsx file
func (h *AttemptHandler) ExportAttempts(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	user := h.currentUser(c)
	if user == nil {
		return
	}

	h.LogRequest(c, "Exporting exam results", "exam_id", examID, "user_id", user.UserID)

	content, filename, err := h.exportService.ExportExamResults(c.Request.Context(), examID, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}
