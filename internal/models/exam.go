package models

import (
	"time"

	"gorm.io/plugin/soft_delete"
)

// Question type tags. Free-text classification, kept open for new types; the
// grading and redaction logic only cares about the answer options themselves.
type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
	Coding       QuestionType = "coding"
)

type Exam struct {
	ExamID        uint   `json:"examId" gorm:"column:exam_id;primaryKey"`
	ClassID       uint   `json:"classId" gorm:"column:class_id;not null;index"`
	ExamName      string `json:"examName" gorm:"column:exam_name;not null;size:200"`
	Description   string `json:"description" gorm:"column:description;type:text"`
	TotalQuestion int    `json:"totalQuestion" gorm:"column:total_question;not null"`
	TotalMinutes  int    `json:"totalMinutes" gorm:"column:total_minutes;not null"`
	IsPublished   bool   `json:"isPublished" gorm:"column:is_published;not null;default:false"`

	CreatedTime time.Time             `json:"createdTime" gorm:"column:created_time;autoCreateTime"`
	UpdatedTime time.Time             `json:"updatedTime" gorm:"column:updated_time;autoUpdateTime"`
	IsDeleted   soft_delete.DeletedAt `json:"-" gorm:"column:is_deleted;softDelete:flag"`
}

func (Exam) TableName() string {
	return "exam"
}

// Question belongs to exactly one exam. QuestionNumber is an ordering hint
// only: it is neither unique nor contiguous and must never be used as a key.
type Question struct {
	QuestionID      uint         `json:"questionId" gorm:"column:question_id;primaryKey"`
	ExamID          uint         `json:"examId" gorm:"column:exam_id;not null;index"`
	QuestionNumber  int          `json:"questionNumber" gorm:"column:question_number;not null"`
	QuestionType    QuestionType `json:"questionType" gorm:"column:question_type;size:50"`
	QuestionContent string       `json:"questionContent" gorm:"column:question_content;type:text"`

	CreatedTime time.Time             `json:"createdTime" gorm:"column:created_time;autoCreateTime"`
	UpdatedTime time.Time             `json:"updatedTime" gorm:"column:updated_time;autoUpdateTime"`
	IsDeleted   soft_delete.DeletedAt `json:"-" gorm:"column:is_deleted;softDelete:flag"`
}

func (Question) TableName() string {
	return "questions"
}

// Result is one answer option of a question. ResultKey orders the options and
// is the value a student's chosen answer is matched against.
type Result struct {
	ResultID    uint   `json:"resultId" gorm:"column:result_id;primaryKey"`
	QuestionID  uint   `json:"questionId" gorm:"column:question_id;not null;index"`
	ResultKey   int    `json:"resultKey" gorm:"column:result_key;not null"`
	ResultValue string `json:"resultValue" gorm:"column:result_value;type:text"`
	IsCorrect   bool   `json:"isCorrect" gorm:"column:is_correct;not null;default:false"`

	CreatedTime time.Time             `json:"createdTime" gorm:"column:created_time;autoCreateTime"`
	UpdatedTime time.Time             `json:"updatedTime" gorm:"column:updated_time;autoUpdateTime"`
	IsDeleted   soft_delete.DeletedAt `json:"-" gorm:"column:is_deleted;softDelete:flag"`
}

func (Result) TableName() string {
	return "results"
}

// TestCase is an optional grading fixture for coding questions. Rows not
// flagged as sample cases are never sent to students.
type TestCase struct {
	TestCaseID     uint   `json:"testCaseId" gorm:"column:test_case_id;primaryKey"`
	QuestionID     uint   `json:"questionId" gorm:"column:question_id;not null;index"`
	IsSampleCase   bool   `json:"isSampleCase" gorm:"column:is_sample_case;not null;default:false"`
	InputData      string `json:"inputData" gorm:"column:input_data;type:text"`
	ExpectedOutput string `json:"expectedOutput" gorm:"column:expected_output;type:text"`

	CreatedTime time.Time             `json:"createdTime" gorm:"column:created_time;autoCreateTime"`
	UpdatedTime time.Time             `json:"updatedTime" gorm:"column:updated_time;autoUpdateTime"`
	IsDeleted   soft_delete.DeletedAt `json:"-" gorm:"column:is_deleted;softDelete:flag"`
}

func (TestCase) TableName() string {
	return "test_cases"
}
