package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OEP-2025/online-exam-service/internal/services"
	"github.com/OEP-2025/online-exam-service/internal/utils"
	"github.com/OEP-2025/online-exam-service/internal/validator"
)

type ExamHandler struct {
	BaseHandler
	examService services.ExamService
	validator   *validator.Validator
}

func NewExamHandler(
	examService services.ExamService,
	validator *validator.Validator,
	logger utils.Logger,
) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		examService: examService,
		validator:   validator,
	}
}

// CreateExam creates an exam together with its full question graph
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req validator.CreateExamRequest
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

	h.LogRequest(c, "Creating exam", "class_id", req.ClassID, "user_id", user.UserID)

	examID, err := h.examService.Create(c.Request.Context(), &req, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Tạo bài thi thành công!",
		Data:    gin.H{"examId": examID},
	})
}

// UpdateExam replaces the exam row and its entire question graph
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	var req validator.UpdateExamRequest
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

	h.LogRequest(c, "Updating exam", "exam_id", examID, "user_id", user.UserID)

	if _, err := h.examService.Update(c.Request.Context(), examID, &req, user); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Cập nhật bài thi thành công!",
		Data:    gin.H{"examId": examID},
	})
}

// DeleteExam soft-deletes an exam and its question graph
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	user := h.currentUser(c)
	if user == nil {
		return
	}

	h.LogRequest(c, "Deleting exam", "exam_id", examID, "user_id", user.UserID)

	if err := h.examService.Delete(c.Request.Context(), examID, user); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Xóa bài thi thành công!",
	})
}

// ViewExam renders the exam definition for its authors, answer key included
func (h *ExamHandler) ViewExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}
	classID := h.parseUintQuery(c, "classId")
	if classID == 0 {
		return
	}

	user := h.currentUser(c)
	if user == nil {
		return
	}

	view, err := h.examService.View(c.Request.Context(), examID, classID, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: view})
}

// ViewExamStudent renders the exam for a student. ?action=view reveals the
// answer key merged with the student's own attempt; any other action returns
// the redacted pre-submission rendering.
func (h *ExamHandler) ViewExamStudent(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}
	classID := h.parseUintQuery(c, "classId")
	if classID == 0 {
		return
	}

	action := c.DefaultQuery("action", "do")

	user := h.currentUser(c)
	if user == nil {
		return
	}

	view, err := h.examService.ViewByStudent(c.Request.Context(), examID, classID, action, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: view})
}
