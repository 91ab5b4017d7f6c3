package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/OEP-2025/online-exam-service/internal/events"
	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/repositories"
	"github.com/OEP-2025/online-exam-service/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Grading scale: a fully correct exam scores 10.
const maxScore = 10.0

type attemptService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewAttemptService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) AttemptService {
	return &attemptService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Submit grades the student's answers against the stored answer key and
// records the attempt with its answer rows in one transaction.
func (s *attemptService) Submit(ctx context.Context, examID uint, req *validator.SubmitExamRequest, actor *models.User) (*SubmitResult, error) {
	s.logger.Info("Submitting exam", "exam_id", examID, "class_id", req.ClassID, "user_id", actor.UserID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs)
	}

	if _, err := s.repo.Class().GetByID(ctx, nil, req.ClassID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to load class: %w", err)
	}

	if actor.RoleID == models.RoleStudent {
		member, err := s.repo.Membership().IsMember(ctx, nil, req.ClassID, actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check membership: %w", err)
		}
		if !member {
			return nil, ErrNotClassMember
		}
	}

	graph, err := s.repo.Exam().GetGraph(ctx, examID, false)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to load exam graph: %w", err)
	}
	if graph.Exam.ClassID != req.ClassID {
		return nil, ErrExamNotFound
	}

	// One logical attempt per (user, class, exam).
	if _, err := s.repo.Attempt().GetByTriple(ctx, nil, actor.UserID, req.ClassID, examID); err == nil {
		return nil, ErrAlreadySubmitted
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check previous attempt: %w", err)
	}

	correct, total := grade(graph, req.Answers)
	score := 0.0
	if total > 0 {
		score = math.Round(float64(correct)/float64(total)*maxScore*100) / 100
	}

	now := time.Now()
	startTime := req.StartTime
	if startTime == nil {
		startTime = &now
	}
	attempt := &models.Attempt{
		UserID:    actor.UserID,
		ClassID:   req.ClassID,
		ExamID:    examID,
		StartTime: startTime,
		EndTime:   &now,
		Score:     score,
	}
	if len(req.SessionData) > 0 {
		attempt.SessionData = datatypes.JSON(req.SessionData)
	}

	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.repo.Attempt().Create(ctx, tx, attempt); err != nil {
			return fmt.Errorf("failed to create attempt: %w", err)
		}

		answers := make([]*models.AttemptAnswer, 0, len(req.Answers))
		for _, a := range req.Answers {
			answers = append(answers, &models.AttemptAnswer{
				AttemptID:          attempt.AttemptID,
				QuestionID:         a.QuestionID,
				ChoosedResultKey:   a.ChoosedResultKey.Int(),
				ChoosedResultValue: a.ChoosedResultValue,
			})
		}

		if err := s.repo.Attempt().InsertAnswers(ctx, tx, answers); err != nil {
			if repositories.IsRowCountMismatch(err) {
				return NewPartialWriteError("answers", err)
			}
			return fmt.Errorf("failed to insert answers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exam submitted", "attempt_id", attempt.AttemptID, "score", score)
	s.publishEvent(ctx, events.NewEvent(events.ExamSubmitted, &events.ExamSubmittedEvent{
		ExamID:  examID,
		ClassID: req.ClassID,
		UserID:  actor.UserID,
		Score:   score,
	}))

	return &SubmitResult{
		AttemptID:     attempt.AttemptID,
		Score:         score,
		CorrectCount:  correct,
		TotalQuestion: total,
	}, nil
}

// ListByExam returns the graded attempts of an exam for its owning teacher.
func (s *attemptService) ListByExam(ctx context.Context, examID uint, actor *models.User) ([]*AttemptSummary, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to load exam: %w", err)
	}

	class, err := s.repo.Class().GetByID(ctx, nil, exam.ClassID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to load class: %w", err)
	}
	if !isOwningTeacher(class, actor) {
		return nil, NewPermissionError("Xem kết quả bài thi")
	}

	attempts, err := s.repo.Attempt().ListByExam(ctx, nil, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	students, err := s.repo.Membership().GetStudents(ctx, nil, exam.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	studentsByID := make(map[uint]*repositories.StudentRow, len(students))
	for _, st := range students {
		studentsByID[st.UserID] = st
	}

	summaries := make([]*AttemptSummary, 0, len(attempts))
	for _, attempt := range attempts {
		summary := &AttemptSummary{
			AttemptID: attempt.AttemptID,
			UserID:    attempt.UserID,
			Score:     attempt.Score,
		}
		if st, ok := studentsByID[attempt.UserID]; ok {
			summary.UserName = st.UserName
			summary.FullName = st.FullName
		}
		if attempt.StartTime != nil {
			summary.StartTime = attempt.StartTime.Format(time.RFC3339)
		}
		if attempt.EndTime != nil {
			summary.EndTime = attempt.EndTime.Format(time.RFC3339)
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// grade counts fully correct questions: the set of keys the student chose for
// a question must equal the set of keys flagged correct. Questions without
// answer options (coding questions graded offline) count toward the total but
// never as correct here.
func grade(graph *repositories.ExamGraph, answers []validator.AnswerRequest) (correct, total int) {
	total = graph.Exam.TotalQuestion
	if total == 0 {
		total = len(graph.Questions)
	}

	correctKeys := make(map[uint]map[int]bool, len(graph.Questions))
	for _, r := range graph.Results {
		if r.IsCorrect {
			if correctKeys[r.QuestionID] == nil {
				correctKeys[r.QuestionID] = make(map[int]bool)
			}
			correctKeys[r.QuestionID][r.ResultKey] = true
		}
	}

	chosenKeys := make(map[uint]map[int]bool, len(answers))
	for _, a := range answers {
		if chosenKeys[a.QuestionID] == nil {
			chosenKeys[a.QuestionID] = make(map[int]bool)
		}
		chosenKeys[a.QuestionID][a.ChoosedResultKey.Int()] = true
	}

	for _, question := range graph.Questions {
		want := correctKeys[question.QuestionID]
		got := chosenKeys[question.QuestionID]
		if len(want) == 0 || len(want) != len(got) {
			continue
		}

		match := true
		for key := range want {
			if !got[key] {
				match = false
				break
			}
		}
		if match {
			correct++
		}
	}

	return correct, total
}

func (s *attemptService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.Type, "error", err)
	}
}
