package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/repositories"
)

func viewTestGraph() *repositories.ExamGraph {
	return &repositories.ExamGraph{
		Exam: &models.Exam{
			ExamID:        5,
			ExamName:      "Thi thử",
			TotalMinutes:  60,
			TotalQuestion: 2,
			IsPublished:   true,
		},
		Questions: []*models.Question{
			{QuestionID: 1, QuestionNumber: 1, QuestionType: models.SingleChoice, QuestionContent: "Q1"},
			{QuestionID: 2, QuestionNumber: 2, QuestionType: models.MultiChoice, QuestionContent: "Q2"},
		},
		// stored out of key order on purpose
		Results: []*models.Result{
			{ResultID: 11, QuestionID: 1, ResultKey: 3, ResultValue: "c"},
			{ResultID: 12, QuestionID: 1, ResultKey: 1, ResultValue: "a", IsCorrect: true},
			{ResultID: 13, QuestionID: 1, ResultKey: 2, ResultValue: "b"},
			{ResultID: 14, QuestionID: 2, ResultKey: 2, ResultValue: "y", IsCorrect: true},
			{ResultID: 15, QuestionID: 2, ResultKey: 1, ResultValue: "x", IsCorrect: true},
		},
		TestCases: []*models.TestCase{
			{TestCaseID: 21, QuestionID: 2, IsSampleCase: true, InputData: "in", ExpectedOutput: "out"},
		},
	}
}

func TestBuildExamViewOrdersOptionsByKey(t *testing.T) {
	view := BuildExamView(viewTestGraph(), nil, nil, RenderAuthoring)

	require.Len(t, view.Questions, 2)
	keys := make([]int, 0, 3)
	for _, option := range view.Questions[0].Results {
		keys = append(keys, option.ResultKey)
	}
	assert.Equal(t, []int{1, 2, 3}, keys)
}

func TestBuildExamViewAuthoring(t *testing.T) {
	view := BuildExamView(viewTestGraph(), nil, nil, RenderAuthoring)

	assert.True(t, view.Publish)
	assert.Empty(t, view.Score)
	assert.True(t, view.Questions[0].Results[0].IsCorrect)
	assert.False(t, view.Questions[0].Results[0].UserChoosed)
}

func TestBuildExamViewRedactedNeverLeaks(t *testing.T) {
	// answers are passed in but must be ignored outside reveal mode
	answers := []*models.AttemptAnswer{
		{QuestionID: 1, ChoosedResultKey: 1, ChoosedResultValue: "a"},
	}
	attempt := &models.Attempt{AttemptID: 9, Score: 8.0}

	view := BuildExamView(viewTestGraph(), attempt, answers, RenderRedacted)

	assert.Equal(t, "8.00", view.Score)
	for _, question := range view.Questions {
		for _, option := range question.Results {
			assert.False(t, option.IsCorrect)
			assert.False(t, option.UserChoosed)
			assert.Empty(t, option.UserResult)
		}
	}
}

func TestBuildExamViewRevealMatchesByKey(t *testing.T) {
	attempt := &models.Attempt{AttemptID: 9, Score: 5.0}
	answers := []*models.AttemptAnswer{
		{AttemptID: 9, QuestionID: 1, ChoosedResultKey: 2, ChoosedResultValue: "b"},
		{AttemptID: 9, QuestionID: 2, ChoosedResultKey: 1, ChoosedResultValue: "x"},
		{AttemptID: 9, QuestionID: 2, ChoosedResultKey: 2, ChoosedResultValue: "y"},
	}

	view := BuildExamView(viewTestGraph(), attempt, answers, RenderReveal)

	assert.Equal(t, "5.00", view.Score)

	q1 := view.Questions[0]
	assert.True(t, q1.Results[0].IsCorrect, "the answer key is visible in reveal mode")
	assert.False(t, q1.Results[0].UserChoosed)
	assert.True(t, q1.Results[1].UserChoosed)
	assert.Equal(t, "b", q1.Results[1].UserResult)

	q2 := view.Questions[1]
	assert.True(t, q2.Results[0].UserChoosed)
	assert.True(t, q2.Results[1].UserChoosed)
}

func TestBuildExamViewRevealWithoutAttempt(t *testing.T) {
	view := BuildExamView(viewTestGraph(), nil, nil, RenderReveal)

	assert.Equal(t, "0.00", view.Score)
	for _, question := range view.Questions {
		for _, option := range question.Results {
			assert.False(t, option.UserChoosed)
		}
	}
}

func TestBuildExamViewEmptyChildrenStayNonNil(t *testing.T) {
	graph := &repositories.ExamGraph{
		Exam:      &models.Exam{ExamID: 1},
		Questions: []*models.Question{{QuestionID: 1}},
	}

	view := BuildExamView(graph, nil, nil, RenderAuthoring)

	require.Len(t, view.Questions, 1)
	assert.NotNil(t, view.Questions[0].Results)
	assert.NotNil(t, view.Questions[0].TestCases)
}
