package services

import (
	"fmt"
	"sort"

	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/repositories"
)

// RenderMode selects how much of the answer key a rendered exam exposes.
// Modeling this as a closed enum keeps the redaction guarantee checkable:
// every field that could leak the key is written in exactly one switch below.
type RenderMode int

const (
	// RenderAuthoring shows correctness flags and all test cases; no attempt
	// data is involved.
	RenderAuthoring RenderMode = iota

	// RenderReveal merges the answer key with the student's recorded attempt.
	RenderReveal

	// RenderRedacted forces correctness and selection fields to zero values.
	// Used for any student rendering before submission.
	RenderRedacted
)

// OptionView is one answer option of a rendered question.
type OptionView struct {
	ResultKey   int    `json:"resultKey"`
	ResultValue string `json:"resultValue"`
	IsCorrect   bool   `json:"isCorrect"`
	UserChoosed bool   `json:"userChoosed"`
	UserResult  string `json:"userResult"`
}

// TestCaseView is one rendered test case.
type TestCaseView struct {
	IsSampleCase   bool   `json:"isSampleCase"`
	InputData      string `json:"inputData"`
	ExpectedOutput string `json:"expectedOutput"`
}

// QuestionView is one rendered question with its options and test cases.
type QuestionView struct {
	QuestionNumber  int                 `json:"questionNumber"`
	QuestionType    models.QuestionType `json:"questionType"`
	QuestionContent string              `json:"questionContent"`
	Results         []OptionView        `json:"results"`
	TestCases       []TestCaseView      `json:"testcases"`
}

// ExamView is the display-safe rendering of an exam, optionally merged with
// one student's attempt.
type ExamView struct {
	ExamID       uint           `json:"examId"`
	ExamName     string         `json:"examName"`
	Description  string         `json:"description"`
	TotalMinutes int            `json:"totalMinutes"`
	Publish      bool           `json:"publish"`
	Score        string         `json:"score,omitempty"`
	Questions    []QuestionView `json:"questions"`
}

// BuildExamView assembles the rendered exam from a loaded graph and, for
// student reveal mode, the attempt's answer rows. Within each question the
// options are emitted sorted by result key ascending regardless of storage
// order. Answers are matched by exact numeric key; a question the student
// never answered simply has no matches.
func BuildExamView(graph *repositories.ExamGraph, attempt *models.Attempt, answers []*models.AttemptAnswer, mode RenderMode) *ExamView {
	view := &ExamView{
		ExamID:       graph.Exam.ExamID,
		ExamName:     graph.Exam.ExamName,
		Description:  graph.Exam.Description,
		TotalMinutes: graph.Exam.TotalMinutes,
		Questions:    make([]QuestionView, 0, len(graph.Questions)),
	}

	switch mode {
	case RenderAuthoring:
		view.Publish = graph.Exam.IsPublished
	case RenderReveal, RenderRedacted:
		score := 0.0
		if attempt != nil {
			score = attempt.Score
		}
		view.Score = fmt.Sprintf("%.2f", score)
	}

	resultsByQuestion := make(map[uint][]*models.Result, len(graph.Questions))
	for _, r := range graph.Results {
		resultsByQuestion[r.QuestionID] = append(resultsByQuestion[r.QuestionID], r)
	}
	testCasesByQuestion := make(map[uint][]*models.TestCase, len(graph.Questions))
	for _, tc := range graph.TestCases {
		testCasesByQuestion[tc.QuestionID] = append(testCasesByQuestion[tc.QuestionID], tc)
	}
	answersByQuestion := make(map[uint][]*models.AttemptAnswer, len(answers))
	for _, a := range answers {
		answersByQuestion[a.QuestionID] = append(answersByQuestion[a.QuestionID], a)
	}

	for _, question := range graph.Questions {
		item := QuestionView{
			QuestionNumber:  question.QuestionNumber,
			QuestionType:    question.QuestionType,
			QuestionContent: question.QuestionContent,
			Results:         []OptionView{},
			TestCases:       []TestCaseView{},
		}

		options := resultsByQuestion[question.QuestionID]
		sort.SliceStable(options, func(i, j int) bool {
			return options[i].ResultKey < options[j].ResultKey
		})

		// key -> submitted value, from this question's answer rows
		chosen := make(map[int]string)
		if mode == RenderReveal {
			for _, answer := range answersByQuestion[question.QuestionID] {
				chosen[answer.ChoosedResultKey] = answer.ChoosedResultValue
			}
		}

		for _, option := range options {
			ov := OptionView{
				ResultKey:   option.ResultKey,
				ResultValue: option.ResultValue,
			}

			switch mode {
			case RenderAuthoring:
				ov.IsCorrect = option.IsCorrect
			case RenderReveal:
				ov.IsCorrect = option.IsCorrect
				if value, ok := chosen[option.ResultKey]; ok {
					ov.UserChoosed = true
					ov.UserResult = value
				}
			case RenderRedacted:
				// all leakable fields stay zero
			}

			item.Results = append(item.Results, ov)
		}

		for _, tc := range testCasesByQuestion[question.QuestionID] {
			item.TestCases = append(item.TestCases, TestCaseView{
				IsSampleCase:   tc.IsSampleCase,
				InputData:      tc.InputData,
				ExpectedOutput: tc.ExpectedOutput,
			})
		}

		view.Questions = append(view.Questions, item)
	}

	return view
}
