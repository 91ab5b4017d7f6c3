package models

import (
	"time"

	"gorm.io/plugin/soft_delete"
)

// LearningStatus tracks a student's progress inside a class.
type LearningStatus int

const (
	LearningToDo       LearningStatus = 1
	LearningInProgress LearningStatus = 2
	LearningDone       LearningStatus = 3
)

type Class struct {
	ClassID     uint   `json:"classId" gorm:"column:class_id;primaryKey"`
	TeacherID   uint   `json:"teacherId" gorm:"column:teacher_id;not null;index"`
	ClassCode   string `json:"classCode" gorm:"column:class_code;not null;size:50;index"`
	ClassName   string `json:"className" gorm:"column:class_name;not null;size:200"`
	SubjectID   uint   `json:"subjectId" gorm:"column:subject_id;not null"`
	Description string `json:"description" gorm:"column:description;type:text"`

	CreatedTime time.Time             `json:"createdTime" gorm:"column:created_time;autoCreateTime"`
	UpdatedTime time.Time             `json:"updatedTime" gorm:"column:updated_time;autoUpdateTime"`
	IsDeleted   soft_delete.DeletedAt `json:"-" gorm:"column:is_deleted;softDelete:flag"`

	// Relations
	Subject *Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
	Teacher *User    `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
}

func (Class) TableName() string {
	return "class"
}

type Subject struct {
	SubjectID   uint   `json:"subjectId" gorm:"column:subject_id;primaryKey"`
	SubjectCode string `json:"subjectCode" gorm:"column:subject_code;not null;size:50"`
	SubjectName string `json:"subjectName" gorm:"column:subject_name;not null;size:200"`

	CreatedTime time.Time             `json:"createdTime" gorm:"column:created_time;autoCreateTime"`
	UpdatedTime time.Time             `json:"updatedTime" gorm:"column:updated_time;autoUpdateTime"`
	IsDeleted   soft_delete.DeletedAt `json:"-" gorm:"column:is_deleted;softDelete:flag"`
}

func (Subject) TableName() string {
	return "subject"
}

// UserClass is a class membership row.
type UserClass struct {
	ID      uint           `json:"id" gorm:"column:id;primaryKey"`
	UserID  uint           `json:"userId" gorm:"column:user_id;not null;index:idx_user_class"`
	ClassID uint           `json:"classId" gorm:"column:class_id;not null;index:idx_user_class"`
	Status  LearningStatus `json:"status" gorm:"column:status;not null"`

	CreatedTime time.Time             `json:"createdTime" gorm:"column:created_time;autoCreateTime"`
	UpdatedTime time.Time             `json:"updatedTime" gorm:"column:updated_time;autoUpdateTime"`
	IsDeleted   soft_delete.DeletedAt `json:"-" gorm:"column:is_deleted;softDelete:flag"`
}

func (UserClass) TableName() string {
	return "user_class"
}

type ClassDocument struct {
	DocumentID uint   `json:"documentId" gorm:"column:document_id;primaryKey"`
	ClassID    uint   `json:"classId" gorm:"column:class_id;not null;index"`
	FileName   string `json:"fileName" gorm:"column:file_name;not null;size:255"`
	FilePath   string `json:"filePath" gorm:"column:file_path;not null;size:500"`

	CreatedTime time.Time             `json:"createdTime" gorm:"column:created_time;autoCreateTime"`
	UpdatedTime time.Time             `json:"updatedTime" gorm:"column:updated_time;autoUpdateTime"`
	IsDeleted   soft_delete.DeletedAt `json:"-" gorm:"column:is_deleted;softDelete:flag"`
}

func (ClassDocument) TableName() string {
	return "class_document"
}
