package services

import (
	"fmt"
	"log/slog"

	"context"

	"github.com/OEP-2025/online-exam-service/internal/events"
	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/repositories"
	"github.com/OEP-2025/online-exam-service/internal/validator"
	"gorm.io/gorm"
)

type examService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewExamService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ExamService {
	return &examService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== AUTHORING WRITES =====

func (s *examService) Create(ctx context.Context, req *validator.CreateExamRequest, actor *models.User) (uint, error) {
	s.logger.Info("Creating exam", "class_id", req.ClassID, "exam_name", req.ExamName, "actor_id", actor.UserID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return 0, NewValidationError(errs)
	}
	if errs := s.validator.ValidateExamGraph(req.Questions); errs.HasErrors() {
		return 0, NewValidationError(errs)
	}

	class, err := s.repo.Class().GetByID(ctx, nil, req.ClassID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrClassNotFound
		}
		return 0, fmt.Errorf("failed to load class: %w", err)
	}
	if !isOwningTeacher(class, actor) {
		return 0, NewPermissionError("Tạo bài thi")
	}

	exam := &models.Exam{
		ClassID:       req.ClassID,
		ExamName:      req.ExamName,
		Description:   req.Description,
		TotalQuestion: len(req.Questions),
		TotalMinutes:  req.TotalMinutes,
		IsPublished:   req.Publish,
	}

	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.repo.Exam().Create(ctx, tx, exam); err != nil {
			return fmt.Errorf("failed to create exam: %w", err)
		}
		return s.insertQuestionGraph(ctx, tx, exam.ExamID, req.Questions)
	})
	if err != nil {
		return 0, err
	}
	s.repo.Exam().InvalidateCache(ctx, exam.ExamID, exam.ClassID)

	s.logger.Info("Exam created", "exam_id", exam.ExamID, "questions", len(req.Questions))
	s.publishEvent(ctx, events.NewEvent(events.ExamCreated, &events.ExamEvent{
		ExamID:        exam.ExamID,
		ClassID:       exam.ClassID,
		ExamName:      exam.ExamName,
		TotalQuestion: exam.TotalQuestion,
		IsPublished:   exam.IsPublished,
		ActorID:       actor.UserID,
	}))

	return exam.ExamID, nil
}

func (s *examService) Update(ctx context.Context, examID uint, req *validator.UpdateExamRequest, actor *models.User) (uint, error) {
	s.logger.Info("Updating exam", "exam_id", examID, "actor_id", actor.UserID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return 0, NewValidationError(errs)
	}
	if errs := s.validator.ValidateExamGraph(req.Questions); errs.HasErrors() {
		return 0, NewValidationError(errs)
	}

	exam, class, err := s.loadExamWithClass(ctx, examID)
	if err != nil {
		return 0, err
	}
	if !isOwningTeacher(class, actor) {
		return 0, NewPermissionError("Cập nhật bài thi")
	}

	exam.ExamName = req.ExamName
	exam.Description = req.Description
	exam.TotalQuestion = len(req.Questions)
	exam.TotalMinutes = req.TotalMinutes
	exam.IsPublished = req.Publish

	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.repo.Exam().Update(ctx, tx, exam); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrExamNotFound
			}
			return fmt.Errorf("failed to update exam: %w", err)
		}

		// Full replacement: children first, parent questions last, then the
		// new graph in the reverse order.
		if err := s.repo.Exam().DeleteTestCases(ctx, tx, examID); err != nil {
			return err
		}
		if err := s.repo.Exam().DeleteResults(ctx, tx, examID); err != nil {
			return err
		}
		if err := s.repo.Exam().DeleteQuestions(ctx, tx, examID); err != nil {
			return err
		}

		return s.insertQuestionGraph(ctx, tx, examID, req.Questions)
	})
	if err != nil {
		return 0, err
	}
	s.repo.Exam().InvalidateCache(ctx, examID, exam.ClassID)

	s.logger.Info("Exam updated", "exam_id", examID, "questions", len(req.Questions))
	s.publishEvent(ctx, events.NewEvent(events.ExamUpdated, &events.ExamEvent{
		ExamID:        examID,
		ClassID:       exam.ClassID,
		ExamName:      exam.ExamName,
		TotalQuestion: exam.TotalQuestion,
		IsPublished:   exam.IsPublished,
		ActorID:       actor.UserID,
	}))

	return examID, nil
}

func (s *examService) Delete(ctx context.Context, examID uint, actor *models.User) error {
	s.logger.Info("Deleting exam", "exam_id", examID, "actor_id", actor.UserID)

	exam, class, err := s.loadExamWithClass(ctx, examID)
	if err != nil {
		return err
	}
	if !isOwningTeacher(class, actor) {
		return NewPermissionError("Xóa bài thi")
	}

	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.repo.Exam().DeleteTestCases(ctx, tx, examID); err != nil {
			return err
		}
		if err := s.repo.Exam().DeleteResults(ctx, tx, examID); err != nil {
			return err
		}
		if err := s.repo.Exam().DeleteQuestions(ctx, tx, examID); err != nil {
			return err
		}

		if err := s.repo.Exam().Delete(ctx, tx, examID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrExamNotFound
			}
			return fmt.Errorf("failed to delete exam: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.repo.Exam().InvalidateCache(ctx, examID, exam.ClassID)

	s.logger.Info("Exam deleted", "exam_id", examID)
	s.publishEvent(ctx, events.NewEvent(events.ExamDeleted, &events.ExamEvent{
		ExamID:  examID,
		ClassID: exam.ClassID,
		ActorID: actor.UserID,
	}))

	return nil
}

// ===== RENDERED VIEWS =====

func (s *examService) View(ctx context.Context, examID, classID uint, actor *models.User) (*ExamView, error) {
	class, err := s.repo.Class().GetByID(ctx, nil, classID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to load class: %w", err)
	}
	if !isOwningTeacher(class, actor) {
		return nil, NewPermissionError("Xem bài thi")
	}

	graph, err := s.repo.Exam().GetGraph(ctx, examID, false)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to load exam graph: %w", err)
	}

	return BuildExamView(graph, nil, nil, RenderAuthoring), nil
}

func (s *examService) ViewByStudent(ctx context.Context, examID, classID uint, action string, actor *models.User) (*ExamView, error) {
	if _, err := s.repo.Class().GetByID(ctx, nil, classID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to load class: %w", err)
	}

	// Hidden grading cases are never transmitted to students.
	graph, err := s.repo.Exam().GetGraph(ctx, examID, true)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to load exam graph: %w", err)
	}

	mode := RenderRedacted
	var attempt *models.Attempt
	var answers []*models.AttemptAnswer

	if action == "view" {
		mode = RenderReveal

		// A student without a recorded attempt still gets the rendered exam:
		// score 0 and no matched options.
		attempt, err = s.repo.Attempt().GetByTriple(ctx, nil, actor.UserID, classID, examID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to load attempt: %w", err)
		}
		if attempt != nil {
			answers, err = s.repo.Attempt().GetAnswers(ctx, nil, attempt.AttemptID)
			if err != nil {
				return nil, fmt.Errorf("failed to load attempt answers: %w", err)
			}
		}
	}

	return BuildExamView(graph, attempt, answers, mode), nil
}

// ===== INTERNAL =====

// insertQuestionGraph bulk-inserts questions then their children, mapping
// row-count shortfalls to partial-write failures so the transaction unwinds.
func (s *examService) insertQuestionGraph(ctx context.Context, tx *gorm.DB, examID uint, questions []validator.QuestionRequest) error {
	if len(questions) == 0 {
		return nil
	}

	questionRows := buildQuestionRows(examID, questions)
	if err := s.repo.Exam().InsertQuestions(ctx, tx, questionRows); err != nil {
		if repositories.IsRowCountMismatch(err) {
			return NewPartialWriteError("questions", err)
		}
		return fmt.Errorf("failed to insert questions: %w", err)
	}

	results, testCases := buildChildRows(questionRows, questions)

	if err := s.repo.Exam().InsertResults(ctx, tx, results); err != nil {
		if repositories.IsRowCountMismatch(err) {
			return NewPartialWriteError("results", err)
		}
		return fmt.Errorf("failed to insert results: %w", err)
	}

	if err := s.repo.Exam().InsertTestCases(ctx, tx, testCases); err != nil {
		if repositories.IsRowCountMismatch(err) {
			return NewPartialWriteError("test_cases", err)
		}
		return fmt.Errorf("failed to insert test cases: %w", err)
	}

	return nil
}

func (s *examService) loadExamWithClass(ctx context.Context, examID uint) (*models.Exam, *models.Class, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrExamNotFound
		}
		return nil, nil, fmt.Errorf("failed to load exam: %w", err)
	}

	class, err := s.repo.Class().GetByID(ctx, nil, exam.ClassID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrClassNotFound
		}
		return nil, nil, fmt.Errorf("failed to load class: %w", err)
	}

	return exam, class, nil
}

// publishEvent sends an event best-effort; delivery failures are logged, not
// surfaced to the caller.
func (s *examService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.Type, "error", err)
	}
}
