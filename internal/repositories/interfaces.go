package repositories

import (
	"context"

	"github.com/OEP-2025/online-exam-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER / ROW STRUCTS =====

type PageFilters struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// AvailableClassRow is one row of the "classes to join" listing.
type AvailableClassRow struct {
	ClassID      uint   `json:"classId"`
	ClassCode    string `json:"classCode"`
	ClassName    string `json:"className"`
	TeacherName  string `json:"teacherName"`
	SubjectCode  string `json:"subjectCode"`
	SubjectName  string `json:"subjectName"`
	TotalStudent int64  `json:"totalStudent"`
	TotalExam    int64  `json:"totalExam"`
}

// JoinedClassRow is one row of the "classes I joined" listing.
type JoinedClassRow struct {
	ClassID     uint                  `json:"classId"`
	ClassCode   string                `json:"classCode"`
	ClassName   string                `json:"className"`
	Description string                `json:"description"`
	Status      models.LearningStatus `json:"status"`
	SubjectCode string                `json:"subjectCode"`
	SubjectName string                `json:"subjectName"`
}

// ExamToDoRow is one row of the published-exam listing for a student,
// Status is 1 when the student already has an attempt for the exam.
type ExamToDoRow struct {
	ExamID        uint   `json:"examId"`
	ExamName      string `json:"examName"`
	TotalQuestion int    `json:"totalQuestion"`
	TotalMinutes  int    `json:"totalMinutes"`
	Status        int    `json:"status"`
}

// ExamCreatedRow is one row of the authored-exam listing for a teacher.
type ExamCreatedRow struct {
	ExamID        uint   `json:"examId"`
	ExamName      string `json:"examName"`
	TotalQuestion int    `json:"totalQuestion"`
	TotalMinutes  int    `json:"totalMinutes"`
	IsPublished   bool   `json:"isPublished"`
}

// StudentRow is one member of a class.
type StudentRow struct {
	UserID   uint                  `json:"userId"`
	UserName string                `json:"userName"`
	FullName string                `json:"fullName"`
	Status   models.LearningStatus `json:"status"`
}

// ExamGraph is the exam row plus its full tree of questions, answer options
// and test cases. Results and test cases are exam-wide sets; grouping by
// question id is the reader's job.
type ExamGraph struct {
	Exam      *models.Exam       `json:"exam"`
	Questions []*models.Question `json:"questions"`
	Results   []*models.Result   `json:"results"`
	TestCases []*models.TestCase `json:"testCases"`
}

// ===== REPOSITORY INTERFACES =====

// ClassRepository owns the class table and its listings.
type ClassRepository interface {
	Create(ctx context.Context, tx *gorm.DB, class *models.Class) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Class, error)

	ListJoined(ctx context.Context, tx *gorm.DB, userID uint) ([]*JoinedClassRow, error)
	ListNotJoined(ctx context.Context, tx *gorm.DB, userID uint) ([]*AvailableClassRow, error)
	ListExamsToDo(ctx context.Context, tx *gorm.DB, classID, userID uint, filters PageFilters) ([]*ExamToDoRow, int64, error)
	ListExamsCreated(ctx context.Context, tx *gorm.DB, classID uint, filters PageFilters) ([]*ExamCreatedRow, int64, error)
}

// MembershipRepository owns the user_class join table.
type MembershipRepository interface {
	Add(ctx context.Context, tx *gorm.DB, membership *models.UserClass) error
	IsMember(ctx context.Context, tx *gorm.DB, classID, userID uint) (bool, error)
	GetStudents(ctx context.Context, tx *gorm.DB, classID uint) ([]*StudentRow, error)
}

// ExamRepository owns the exam -> questions -> results/test_cases graph.
// Question, result and test-case rows are never touched outside an exam
// operation; every bulk insert verifies the affected-row count against the
// requested cardinality and reports ErrRowCountMismatch on a shortfall.
type ExamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Bulk child writes. Generated ids are backfilled into the slice elements
	// in input order.
	InsertQuestions(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	InsertResults(ctx context.Context, tx *gorm.DB, results []*models.Result) error
	InsertTestCases(ctx context.Context, tx *gorm.DB, testCases []*models.TestCase) error

	// Child deletes for the full-replacement write path.
	DeleteQuestions(ctx context.Context, tx *gorm.DB, examID uint) error
	DeleteResults(ctx context.Context, tx *gorm.DB, examID uint) error
	DeleteTestCases(ctx context.Context, tx *gorm.DB, examID uint) error

	// Graph reads.
	GetQuestions(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.Question, error)
	GetResults(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.Result, error)
	GetTestCases(ctx context.Context, tx *gorm.DB, examID uint, sampleOnly bool) ([]*models.TestCase, error)
	GetGraph(ctx context.Context, examID uint, sampleOnly bool) (*ExamGraph, error)

	// InvalidateCache drops the cached exam row, graphs and class exam
	// listings. Called after the surrounding transaction commits so a
	// concurrent reader cannot re-cache the pre-commit state.
	InvalidateCache(ctx context.Context, examID, classID uint)
}

// AttemptRepository owns attempts and their recorded answers.
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error
	GetByTriple(ctx context.Context, tx *gorm.DB, userID, classID, examID uint) (*models.Attempt, error)
	ListByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.Attempt, error)

	InsertAnswers(ctx context.Context, tx *gorm.DB, answers []*models.AttemptAnswer) error
	GetAnswers(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error)
}

// SubjectRepository reads the subject master data.
type SubjectRepository interface {
	List(ctx context.Context, tx *gorm.DB) ([]*models.Subject, error)
}

// DocumentRepository owns class_document rows.
type DocumentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, document *models.ClassDocument) error
	ListByClass(ctx context.Context, tx *gorm.DB, classID uint, filters PageFilters) ([]*models.ClassDocument, int64, error)
}

// UserRepository reads user rows (this service is not the owner of user data).
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	ExistsByID(ctx context.Context, id uint) (bool, error)
}
