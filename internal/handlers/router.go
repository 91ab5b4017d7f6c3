package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/OEP-2025/online-exam-service/internal/config"
	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/repositories"
	"github.com/OEP-2025/online-exam-service/internal/services"
	"github.com/OEP-2025/online-exam-service/internal/utils"
	"github.com/OEP-2025/online-exam-service/internal/validator"
)

type HandlerManager struct {
	classHandler   *ClassHandler
	examHandler    *ExamHandler
	attemptHandler *AttemptHandler
	authMiddleware *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		classHandler:   NewClassHandler(serviceManager.Class(), validator, logger),
		examHandler:    NewExamHandler(serviceManager.Exam(), validator, logger),
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), serviceManager.Export(), validator, logger),
		authMiddleware: authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Class routes
		classes := v1.Group("/classes")
		{
			// Create classes - Teachers and Admins only
			classes.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.classHandler.CreateClass)

			// Join a published class - Students only
			classes.POST("/join", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.classHandler.JoinClass)

			// Browse and read classes - all authenticated users
			classes.GET("", hm.classHandler.ListClasses)
			classes.GET("/:id", hm.classHandler.GetClassDetail)
			classes.GET("/:id/exams-to-do", hm.classHandler.ListExamsToDo)

			// Authoring-side listings and uploads - Teachers and Admins only
			classes.GET("/:id/exams-created", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.classHandler.ListExamsCreated)
			classes.GET("/:id/documents", hm.classHandler.ListDocuments)
			classes.POST("/:id/documents", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.classHandler.AddDocument)
		}

		// Subject master data
		v1.GET("/subjects", hm.classHandler.ListSubjects)

		// Exam routes
		exams := v1.Group("/exams")
		{
			// Authoring - Teachers and Admins only
			exams.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.examHandler.CreateExam)
			exams.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.examHandler.UpdateExam)
			exams.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.examHandler.DeleteExam)
			exams.GET("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.examHandler.ViewExam)

			// Taking and reviewing - Students only
			exams.GET("/:id/student", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.examHandler.ViewExamStudent)
			exams.POST("/:id/submit", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.attemptHandler.SubmitExam)

			// Results - Teachers and Admins only
			exams.GET("/:id/attempts", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.attemptHandler.ListAttempts)
			exams.GET("/:id/attempts/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.attemptHandler.ExportAttempts)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "online-exam-service",
		})
	})
}
