package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OEP-2025/online-exam-service/internal/services"
	"github.com/OEP-2025/online-exam-service/internal/utils"
	"github.com/OEP-2025/online-exam-service/internal/validator"
)

type ClassHandler struct {
	BaseHandler
	classService services.ClassService
	validator    *validator.Validator
}

func NewClassHandler(
	classService services.ClassService,
	validator *validator.Validator,
	logger utils.Logger,
) *ClassHandler {
	return &ClassHandler{
		BaseHandler:  NewBaseHandler(logger),
		classService: classService,
		validator:    validator,
	}
}

// ListClasses lists classes for the caller. ?joined=true returns the classes
// the caller participates in; otherwise the open published classes not yet
// joined.
func (h *ClassHandler) ListClasses(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}

	joined := c.DefaultQuery("joined", "false") == "true"

	classes, err := h.classService.ListClasses(c.Request.Context(), joined, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: classes})
}

// CreateClass creates a new class owned by the calling teacher
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req validator.CreateClassRequest
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

	h.LogRequest(c, "Creating class", "class_code", req.ClassCode, "user_id", user.UserID)

	classID, err := h.classService.Create(c.Request.Context(), &req, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Tạo lớp học thành công!",
		Data:    gin.H{"classId": classID},
	})
}

// JoinClass enrolls the calling student into a published class
func (h *ClassHandler) JoinClass(c *gin.Context) {
	var req validator.JoinClassRequest
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

	h.LogRequest(c, "Joining class", "class_id", req.ClassID, "user_id", user.UserID)

	if err := h.classService.Join(c.Request.Context(), &req, user); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Tham gia lớp học thành công!",
	})
}

// GetClassDetail returns the class header plus its student roster
func (h *ClassHandler) GetClassDetail(c *gin.Context) {
	classID := h.parseIDParam(c, "id")
	if classID == 0 {
		return
	}

	user := h.currentUser(c)
	if user == nil {
		return
	}

	detail, err := h.classService.GetDetail(c.Request.Context(), classID, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: detail})
}

// ListExamsToDo lists the published exams of a class with the caller's
// done/to-do status
func (h *ClassHandler) ListExamsToDo(c *gin.Context) {
	classID := h.parseIDParam(c, "id")
	if classID == 0 {
		return
	}

	user := h.currentUser(c)
	if user == nil {
		return
	}

	page, size := h.parsePageQuery(c)

	result, err := h.classService.ListExamsToDo(c.Request.Context(), classID, page, size, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: result})
}

// ListExamsCreated lists all exams of a class for its owning teacher
func (h *ClassHandler) ListExamsCreated(c *gin.Context) {
	classID := h.parseIDParam(c, "id")
	if classID == 0 {
		return
	}

	user := h.currentUser(c)
	if user == nil {
		return
	}

	page, size := h.parsePageQuery(c)

	result, err := h.classService.ListExamsCreated(c.Request.Context(), classID, page, size, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: result})
}

// ListDocuments lists the shared documents of a class
func (h *ClassHandler) ListDocuments(c *gin.Context) {
	classID := h.parseIDParam(c, "id")
	if classID == 0 {
		return
	}

	user := h.currentUser(c)
	if user == nil {
		return
	}

	page, size := h.parsePageQuery(c)

	result, err := h.classService.ListDocuments(c.Request.Context(), classID, page, size, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: result})
}

// AddDocument attaches a document to a class
func (h *ClassHandler) AddDocument(c *gin.Context) {
	classID := h.parseIDParam(c, "id")
	if classID == 0 {
		return
	}

	var req validator.AddDocumentRequest
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

	if err := h.classService.AddDocument(c.Request.Context(), classID, &req, user); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Thêm tài liệu thành công!",
	})
}

// ListSubjects lists the subject master data for class creation forms
func (h *ClassHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.classService.ListSubjects(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: subjects})
}
