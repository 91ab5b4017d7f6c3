package validator

import (
	"encoding/json"
	"time"

	"github.com/OEP-2025/online-exam-service/internal/models"
)

// ===== EXAM REQUESTS =====

// ResultRequest is one answer option of a question. The key accepts both a
// JSON number and a numeric string.
type ResultRequest struct {
	ResultKey   models.FlexInt `json:"resultKey" validate:"min=0"`
	ResultValue string         `json:"resultValue" validate:"required"`
	IsCorrect   bool           `json:"isCorrect"`
}

// TestCaseRequest is one grading fixture of a coding question
type TestCaseRequest struct {
	IsSampleCase   bool   `json:"isSampleCase"`
	InputData      string `json:"inputData"`
	ExpectedOutput string `json:"expectedOutput"`
}

// QuestionRequest is one question with its nested children
type QuestionRequest struct {
	QuestionNumber  int                 `json:"questionNumber" validate:"min=0"`
	QuestionType    models.QuestionType `json:"questionType"`
	QuestionContent string              `json:"questionContent" validate:"required"`
	Results         []ResultRequest     `json:"results" validate:"dive"`
	TestCases       []TestCaseRequest   `json:"testCases" validate:"dive"`
}

// CreateExamRequest creates an exam together with its full question graph.
// The stored question count is always derived from len(Questions).
type CreateExamRequest struct {
	ClassID      uint              `json:"classId" validate:"required"`
	ExamName     string            `json:"examName" validate:"required,exam_name"`
	Description  string            `json:"description" validate:"max=2000"`
	TotalMinutes int               `json:"totalMinutes" validate:"required,min=1,max=600"`
	Publish      bool              `json:"publish"`
	Questions    []QuestionRequest `json:"questions" validate:"dive"`
}

// UpdateExamRequest replaces the exam row and its entire question graph
type UpdateExamRequest struct {
	ExamName     string            `json:"examName" validate:"required,exam_name"`
	Description  string            `json:"description" validate:"max=2000"`
	TotalMinutes int               `json:"totalMinutes" validate:"required,min=1,max=600"`
	Publish      bool              `json:"publish"`
	Questions    []QuestionRequest `json:"questions" validate:"dive"`
}

// ===== CLASS REQUESTS =====

type CreateClassRequest struct {
	ClassCode   string `json:"classCode" validate:"required,class_code"`
	ClassName   string `json:"className" validate:"required,min=3,max=200"`
	SubjectID   uint   `json:"subjectId" validate:"required"`
	Description string `json:"description" validate:"max=2000"`
}

type JoinClassRequest struct {
	ClassID uint `json:"classId" validate:"required"`
}

type AddDocumentRequest struct {
	FileName string `json:"fileName" validate:"required,max=255"`
	FilePath string `json:"filePath" validate:"required,max=500"`
}

// ===== ATTEMPT REQUESTS =====

// AnswerRequest is one chosen option of a submission. The key accepts both a
// JSON number and a numeric string; matching stays exact-value numeric.
type AnswerRequest struct {
	QuestionID         uint           `json:"questionId" validate:"required"`
	ChoosedResultKey   models.FlexInt `json:"choosedResultKey"`
	ChoosedResultValue string         `json:"choosedResultValue"`
}

// SubmitExamRequest records a student's finished attempt. StartTime is the
// client-reported session start; when absent the submission time is used.
type SubmitExamRequest struct {
	ClassID     uint            `json:"classId" validate:"required"`
	StartTime   *time.Time      `json:"startTime"`
	Answers     []AnswerRequest `json:"answers" validate:"dive"`
	SessionData json.RawMessage `json:"sessionData,omitempty"`
}
