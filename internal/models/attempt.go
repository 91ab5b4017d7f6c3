package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/plugin/soft_delete"
)

// Attempt is one user's recorded session against one exam within one class.
// There is one logical attempt per (user, class, exam); the store looks
// attempts up by that triple rather than enforcing a unique constraint.
type Attempt struct {
	AttemptID uint       `json:"attemptId" gorm:"column:attempt_id;primaryKey"`
	UserID    uint       `json:"userId" gorm:"column:user_id;not null;index:idx_attempt_triple"`
	ClassID   uint       `json:"classId" gorm:"column:class_id;not null;index:idx_attempt_triple"`
	ExamID    uint       `json:"examId" gorm:"column:exam_id;not null;index:idx_attempt_triple"`
	StartTime *time.Time `json:"startTime" gorm:"column:start_time"`
	EndTime   *time.Time `json:"endTime" gorm:"column:end_time"`
	Score     float64    `json:"score" gorm:"column:score;type:numeric(5,2)"`

	// Browser info, screen resolution and the like, stored as-is.
	SessionData datatypes.JSON `json:"sessionData,omitempty" gorm:"column:session_data;type:jsonb"`

	CreatedTime time.Time             `json:"createdTime" gorm:"column:created_time;autoCreateTime"`
	UpdatedTime time.Time             `json:"updatedTime" gorm:"column:updated_time;autoUpdateTime"`
	IsDeleted   soft_delete.DeletedAt `json:"-" gorm:"column:is_deleted;softDelete:flag"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// AttemptAnswer records one chosen option of an attempt. ChoosedResultValue is
// a denormalized copy of the option text at submission time and is not
// re-validated against the results table when read back.
type AttemptAnswer struct {
	ID                 uint   `json:"id" gorm:"column:id;primaryKey"`
	AttemptID          uint   `json:"attemptId" gorm:"column:attempt_id;not null;index"`
	QuestionID         uint   `json:"questionId" gorm:"column:question_id;not null;index"`
	ChoosedResultKey   int    `json:"choosedResultKey" gorm:"column:choosed_result_key;not null"`
	ChoosedResultValue string `json:"choosedResultValue" gorm:"column:choosed_result_value;type:text"`

	CreatedTime time.Time `json:"createdTime" gorm:"column:created_time;autoCreateTime"`
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
