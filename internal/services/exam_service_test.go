package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OEP-2025/online-exam-service/internal/events"
	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/repositories"
	"github.com/OEP-2025/online-exam-service/internal/validator"
)

func validCreateExamRequest(classID uint) *validator.CreateExamRequest {
	return &validator.CreateExamRequest{
		ClassID:      classID,
		ExamName:     "Kiểm tra giữa kỳ",
		Description:  "Chương 1-5",
		TotalMinutes: 45,
		Publish:      true,
		Questions: []validator.QuestionRequest{
			{
				QuestionNumber:  1,
				QuestionType:    models.SingleChoice,
				QuestionContent: "2 + 2 = ?",
				Results: []validator.ResultRequest{
					{ResultKey: 1, ResultValue: "3"},
					{ResultKey: 2, ResultValue: "4", IsCorrect: true},
				},
			},
			{
				QuestionNumber:  2,
				QuestionType:    models.Coding,
				QuestionContent: "In ra 'hello'",
				TestCases: []validator.TestCaseRequest{
					{IsSampleCase: true, InputData: "", ExpectedOutput: "hello"},
					{IsSampleCase: false, InputData: "x", ExpectedOutput: "hello"},
				},
			},
		},
	}
}

func TestExamServiceCreate(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	publisher := testPublisher()
	svc := newExamServiceForTest(repo, publisher)

	examID, err := svc.Create(context.Background(), validCreateExamRequest(1), testTeacher())
	require.NoError(t, err)
	require.NotZero(t, examID)

	exam := repo.exam.exams[examID]
	require.NotNil(t, exam)
	assert.Equal(t, 2, exam.TotalQuestion, "question count must be derived from the payload")
	assert.True(t, exam.IsPublished)

	assert.Equal(t, []string{"create_exam", "insert_questions", "insert_results", "insert_test_cases"}, repo.exam.ops)
	assert.Len(t, repo.exam.results, 2)
	assert.Len(t, repo.exam.testCases, 2)

	// children carry the generated ids of their parent questions
	questions := repo.exam.questions[examID]
	require.Len(t, questions, 2)
	assert.Equal(t, questions[0].QuestionID, repo.exam.results[0].QuestionID)
	assert.Equal(t, questions[1].QuestionID, repo.exam.testCases[0].QuestionID)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.ExamCreated, published[0].Type)
}

func TestExamServiceCreateClassNotFound(t *testing.T) {
	repo := newFakeRepository()
	svc := newExamServiceForTest(repo, testPublisher())

	_, err := svc.Create(context.Background(), validCreateExamRequest(99), testTeacher())
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestExamServiceCreateNotOwningTeacher(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	svc := newExamServiceForTest(repo, testPublisher())

	other := &models.User{UserID: 77, UserName: "teacher2", RoleID: models.RoleTeacher}
	_, err := svc.Create(context.Background(), validCreateExamRequest(1), other)

	require.True(t, IsForbidden(err))
	assert.Empty(t, repo.exam.ops, "a denied write must not touch the store")
}

func TestExamServiceCreateAdminBypass(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	svc := newExamServiceForTest(repo, testPublisher())

	_, err := svc.Create(context.Background(), validCreateExamRequest(1), testAdmin())
	assert.NoError(t, err)
}

func TestExamServiceCreateInvalidGraph(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	svc := newExamServiceForTest(repo, testPublisher())

	req := validCreateExamRequest(1)
	// duplicate option key and no correct answer
	req.Questions[0].Results = []validator.ResultRequest{
		{ResultKey: 1, ResultValue: "a"},
		{ResultKey: 1, ResultValue: "b"},
	}

	_, err := svc.Create(context.Background(), req, testTeacher())
	serviceErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, serviceErr.Code)
	assert.Empty(t, repo.exam.ops)
}

func TestExamServiceCreatePartialWrite(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	svc := newExamServiceForTest(repo, testPublisher())

	repo.exam.insertResultsErr = repositories.NewRowCountError("results", 2, 1)

	_, err := svc.Create(context.Background(), validCreateExamRequest(1), testTeacher())
	serviceErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodePartialWrite, serviceErr.Code)
	assert.Contains(t, serviceErr.Message, "đáp án")
}

func TestExamServiceUpdateReplacesGraph(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	svc := newExamServiceForTest(repo, testPublisher())

	examID, err := svc.Create(context.Background(), validCreateExamRequest(1), testTeacher())
	require.NoError(t, err)
	repo.exam.ops = nil

	update := &validator.UpdateExamRequest{
		ExamName:     "Kiểm tra cuối kỳ",
		TotalMinutes: 90,
		Questions: []validator.QuestionRequest{
			{
				QuestionNumber:  1,
				QuestionType:    models.SingleChoice,
				QuestionContent: "3 * 3 = ?",
				Results: []validator.ResultRequest{
					{ResultKey: 1, ResultValue: "9", IsCorrect: true},
				},
			},
		},
	}

	_, err = svc.Update(context.Background(), examID, update, testTeacher())
	require.NoError(t, err)

	// children must be removed before their parent questions, and the new
	// graph inserted parent-first
	assert.Equal(t, []string{
		"update_exam",
		"delete_test_cases", "delete_results", "delete_questions",
		"insert_questions", "insert_results", "insert_test_cases",
	}, repo.exam.ops)

	exam := repo.exam.exams[examID]
	assert.Equal(t, "Kiểm tra cuối kỳ", exam.ExamName)
	assert.Equal(t, 1, exam.TotalQuestion)
	assert.Len(t, repo.exam.questions[examID], 1)
	assert.Len(t, repo.exam.results, 1)
	assert.Empty(t, repo.exam.testCases)
}

func TestExamServiceWritesInvalidateCacheAfterCommit(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	svc := newExamServiceForTest(repo, testPublisher())

	examID, err := svc.Create(context.Background(), validCreateExamRequest(1), testTeacher())
	require.NoError(t, err)
	assert.Equal(t, [][2]uint{{examID, 1}}, repo.exam.invalidated)

	// a rolled-back write leaves the cache untouched
	repo.exam.insertResultsErr = repositories.NewRowCountError("results", 1, 0)
	update := &validator.UpdateExamRequest{
		ExamName:     "Kiểm tra cuối kỳ",
		TotalMinutes: 90,
		Questions: []validator.QuestionRequest{
			{
				QuestionNumber:  1,
				QuestionType:    models.SingleChoice,
				QuestionContent: "3 * 3 = ?",
				Results: []validator.ResultRequest{
					{ResultKey: 1, ResultValue: "9", IsCorrect: true},
				},
			},
		},
	}
	_, err = svc.Update(context.Background(), examID, update, testTeacher())
	require.Error(t, err)
	assert.Len(t, repo.exam.invalidated, 1)

	repo.exam.insertResultsErr = nil
	_, err = svc.Update(context.Background(), examID, update, testTeacher())
	require.NoError(t, err)
	require.Len(t, repo.exam.invalidated, 2)
	assert.Equal(t, [2]uint{examID, 1}, repo.exam.invalidated[1])

	require.NoError(t, svc.Delete(context.Background(), examID, testTeacher()))
	assert.Len(t, repo.exam.invalidated, 3)
}

func TestExamServiceUpdateExamNotFound(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	svc := newExamServiceForTest(repo, testPublisher())

	update := &validator.UpdateExamRequest{ExamName: "Bài thi", TotalMinutes: 30}
	_, err := svc.Update(context.Background(), 404, update, testTeacher())
	assert.ErrorIs(t, err, ErrExamNotFound)
}

func TestExamServiceDeleteIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	svc := newExamServiceForTest(repo, testPublisher())

	examID, err := svc.Create(context.Background(), validCreateExamRequest(1), testTeacher())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), examID, testTeacher()))

	// the exam is gone, so deleting again reports not-found
	err = svc.Delete(context.Background(), examID, testTeacher())
	assert.ErrorIs(t, err, ErrExamNotFound)
}

func TestExamServiceDeleteForbidden(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	svc := newExamServiceForTest(repo, testPublisher())

	examID, err := svc.Create(context.Background(), validCreateExamRequest(1), testTeacher())
	require.NoError(t, err)

	student := testStudent()
	err = svc.Delete(context.Background(), examID, student)
	require.True(t, IsForbidden(err))
	assert.NotNil(t, repo.exam.exams[examID], "exam must survive a denied delete")
}

func TestExamServiceViewAuthoring(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	svc := newExamServiceForTest(repo, testPublisher())

	examID, err := svc.Create(context.Background(), validCreateExamRequest(1), testTeacher())
	require.NoError(t, err)

	view, err := svc.View(context.Background(), examID, 1, testTeacher())
	require.NoError(t, err)

	assert.True(t, view.Publish)
	assert.Empty(t, view.Score, "authoring view carries no attempt data")
	require.Len(t, view.Questions, 2)
	assert.True(t, view.Questions[0].Results[1].IsCorrect)
	assert.Len(t, view.Questions[1].TestCases, 2, "authors see hidden test cases")
}

func TestExamServiceViewByStudentRedacted(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	svc := newExamServiceForTest(repo, testPublisher())

	examID, err := svc.Create(context.Background(), validCreateExamRequest(1), testTeacher())
	require.NoError(t, err)

	view, err := svc.ViewByStudent(context.Background(), examID, 1, "do", testStudent())
	require.NoError(t, err)

	assert.Equal(t, "0.00", view.Score)
	for _, question := range view.Questions {
		for _, option := range question.Results {
			assert.False(t, option.IsCorrect)
			assert.False(t, option.UserChoosed)
			assert.Empty(t, option.UserResult)
		}
		for _, tc := range question.TestCases {
			assert.True(t, tc.IsSampleCase, "hidden test cases must never reach students")
		}
	}
}

func TestExamServiceViewByStudentReveal(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	svc := newExamServiceForTest(repo, testPublisher())

	examID, err := svc.Create(context.Background(), validCreateExamRequest(1), testTeacher())
	require.NoError(t, err)

	student := testStudent()
	now := time.Now()
	attempt := &models.Attempt{
		UserID:  student.UserID,
		ClassID: 1,
		ExamID:  examID,
		EndTime: &now,
		Score:   7.5,
	}
	require.NoError(t, repo.attempt.Create(context.Background(), nil, attempt))

	questionID := repo.exam.questions[examID][0].QuestionID
	require.NoError(t, repo.attempt.InsertAnswers(context.Background(), nil, []*models.AttemptAnswer{
		{AttemptID: attempt.AttemptID, QuestionID: questionID, ChoosedResultKey: 2, ChoosedResultValue: "4"},
	}))

	view, err := svc.ViewByStudent(context.Background(), examID, 1, "view", student)
	require.NoError(t, err)

	assert.Equal(t, "7.50", view.Score)

	first := view.Questions[0]
	require.Len(t, first.Results, 2)
	assert.False(t, first.Results[0].UserChoosed)
	assert.True(t, first.Results[1].IsCorrect)
	assert.True(t, first.Results[1].UserChoosed)
	assert.Equal(t, "4", first.Results[1].UserResult)
}

func TestExamServiceViewByStudentRevealWithoutAttempt(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	svc := newExamServiceForTest(repo, testPublisher())

	examID, err := svc.Create(context.Background(), validCreateExamRequest(1), testTeacher())
	require.NoError(t, err)

	view, err := svc.ViewByStudent(context.Background(), examID, 1, "view", testStudent())
	require.NoError(t, err)

	assert.Equal(t, "0.00", view.Score)
	for _, option := range view.Questions[0].Results {
		assert.False(t, option.UserChoosed)
	}
}
