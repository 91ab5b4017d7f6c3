package services

import (
	"context"

	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/repositories"
	"github.com/OEP-2025/online-exam-service/internal/validator"
)

// ===== EXAM SERVICE =====

// ExamService owns the exam authoring workflow: authorization plus the
// multi-step question-graph writes, each wrapped in one transaction.
type ExamService interface {
	Create(ctx context.Context, req *validator.CreateExamRequest, actor *models.User) (uint, error)
	Update(ctx context.Context, examID uint, req *validator.UpdateExamRequest, actor *models.User) (uint, error)
	Delete(ctx context.Context, examID uint, actor *models.User) error

	// View renders the exam definition for its authors: correctness flags
	// included, hidden test cases included, no attempt data.
	View(ctx context.Context, examID, classID uint, actor *models.User) (*ExamView, error)

	// ViewByStudent renders the exam for a student. action "view" reveals the
	// answer key merged with the student's own attempt; any other action is
	// the redacted pre-submission rendering with sample test cases only.
	ViewByStudent(ctx context.Context, examID, classID uint, action string, actor *models.User) (*ExamView, error)
}

// ===== CLASS SERVICE =====

type ClassDetailResponse struct {
	ClassCode   string                    `json:"classCode"`
	ClassName   string                    `json:"className"`
	TeacherName string                    `json:"teacherName"`
	Description string                    `json:"description"`
	SubjectCode string                    `json:"subjectCode"`
	SubjectName string                    `json:"subjectName"`
	Students    []*repositories.StudentRow `json:"students"`
}

type SubjectItem struct {
	SubjectID   uint   `json:"subjectId"`
	SubjectName string `json:"subjectName"`
}

// PagedResult carries one page of rows plus the unpaged total.
type PagedResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// ClassService owns class lifecycle, membership and class-scoped listings.
type ClassService interface {
	ListClasses(ctx context.Context, joined bool, actor *models.User) (interface{}, error)
	Create(ctx context.Context, req *validator.CreateClassRequest, actor *models.User) (uint, error)
	Join(ctx context.Context, req *validator.JoinClassRequest, actor *models.User) error
	GetDetail(ctx context.Context, classID uint, actor *models.User) (*ClassDetailResponse, error)

	ListExamsToDo(ctx context.Context, classID uint, page, size int, actor *models.User) (*PagedResult[*repositories.ExamToDoRow], error)
	ListExamsCreated(ctx context.Context, classID uint, page, size int, actor *models.User) (*PagedResult[*repositories.ExamCreatedRow], error)

	ListDocuments(ctx context.Context, classID uint, page, size int, actor *models.User) (*PagedResult[*models.ClassDocument], error)
	AddDocument(ctx context.Context, classID uint, req *validator.AddDocumentRequest, actor *models.User) error

	ListSubjects(ctx context.Context) ([]*SubjectItem, error)
}

// ===== ATTEMPT SERVICE =====

// SubmitResult is returned to the student right after grading.
type SubmitResult struct {
	AttemptID     uint    `json:"attemptId"`
	Score         float64 `json:"score"`
	CorrectCount  int     `json:"correctCount"`
	TotalQuestion int     `json:"totalQuestion"`
}

// AttemptSummary is one graded attempt in the teacher's results listing.
type AttemptSummary struct {
	AttemptID uint    `json:"attemptId"`
	UserID    uint    `json:"userId"`
	UserName  string  `json:"userName"`
	FullName  string  `json:"fullName"`
	Score     float64 `json:"score"`
	StartTime string  `json:"startTime,omitempty"`
	EndTime   string  `json:"endTime,omitempty"`
}

// AttemptService records submissions and grades them against the answer key.
type AttemptService interface {
	Submit(ctx context.Context, examID uint, req *validator.SubmitExamRequest, actor *models.User) (*SubmitResult, error)
	ListByExam(ctx context.Context, examID uint, actor *models.User) ([]*AttemptSummary, error)
}

// ===== EXPORT SERVICE =====

// ExportService renders grading results as spreadsheet downloads.
type ExportService interface {
	ExportExamResults(ctx context.Context, examID uint, actor *models.User) ([]byte, string, error)
}

// ===== SERVICE MANAGER =====

// ServiceManager wires and exposes all services behind one lifecycle.
type ServiceManager interface {
	Initialize(ctx context.Context) error
	Class() ClassService
	Exam() ExamService
	Attempt() AttemptService
	Export() ExportService
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
