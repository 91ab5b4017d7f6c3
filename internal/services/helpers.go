package services

import (
	"context"

	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/validator"
	"gorm.io/gorm"
)

// withTx runs fn inside a database transaction. Unit tests construct services
// with a nil DB and repository fakes; fn then runs directly and atomicity is
// the fake's concern.
func withTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

// isOwningTeacher applies the standard write authorization: admins always
// pass, anyone else must be the class's teacher.
func isOwningTeacher(class *models.Class, actor *models.User) bool {
	if actor.RoleID == models.RoleAdmin {
		return true
	}
	return class.TeacherID == actor.UserID
}

// buildQuestionRows maps request questions to model rows for one exam,
// preserving input order so generated ids line up with the request.
func buildQuestionRows(examID uint, questions []validator.QuestionRequest) []*models.Question {
	rows := make([]*models.Question, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, &models.Question{
			ExamID:          examID,
			QuestionNumber:  q.QuestionNumber,
			QuestionType:    q.QuestionType,
			QuestionContent: q.QuestionContent,
		})
	}
	return rows
}

// buildChildRows flattens the nested results and test cases of the request,
// tagging each row with the generated id of its parent question. questionRows
// must be the freshly inserted rows in request order.
func buildChildRows(questionRows []*models.Question, questions []validator.QuestionRequest) ([]*models.Result, []*models.TestCase) {
	var results []*models.Result
	var testCases []*models.TestCase

	for i, q := range questions {
		questionID := questionRows[i].QuestionID

		for _, r := range q.Results {
			results = append(results, &models.Result{
				QuestionID:  questionID,
				ResultKey:   r.ResultKey.Int(),
				ResultValue: r.ResultValue,
				IsCorrect:   r.IsCorrect,
			})
		}

		for _, tc := range q.TestCases {
			testCases = append(testCases, &models.TestCase{
				QuestionID:     questionID,
				IsSampleCase:   tc.IsSampleCase,
				InputData:      tc.InputData,
				ExpectedOutput: tc.ExpectedOutput,
			})
		}
	}

	return results, testCases
}
