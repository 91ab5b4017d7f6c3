package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/OEP-2025/online-exam-service/internal/events"
	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/repositories"
	"github.com/OEP-2025/online-exam-service/internal/validator"
	"gorm.io/gorm"
)

type classService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewClassService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ClassService {
	return &classService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ListClasses returns either the classes the actor joined or the classes
// still open to them. Admins browsing the open list see every class.
func (s *classService) ListClasses(ctx context.Context, joined bool, actor *models.User) (interface{}, error) {
	if joined {
		rows, err := s.repo.Class().ListJoined(ctx, nil, actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to list joined classes: %w", err)
		}
		return rows, nil
	}

	userID := actor.UserID
	if actor.RoleID == models.RoleAdmin {
		userID = 0
	}
	rows, err := s.repo.Class().ListNotJoined(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list available classes: %w", err)
	}
	return rows, nil
}

func (s *classService) Create(ctx context.Context, req *validator.CreateClassRequest, actor *models.User) (uint, error) {
	s.logger.Info("Creating class", "class_code", req.ClassCode, "actor_id", actor.UserID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return 0, NewValidationError(errs)
	}

	// Class code must be unique among live classes.
	_, err := s.repo.Class().GetByCode(ctx, nil, req.ClassCode)
	if err == nil {
		return 0, ErrClassCodeExists
	}
	if !repositories.IsNotFoundError(err) {
		return 0, fmt.Errorf("failed to check class code: %w", err)
	}

	class := &models.Class{
		TeacherID:   actor.UserID,
		ClassCode:   req.ClassCode,
		ClassName:   req.ClassName,
		SubjectID:   req.SubjectID,
		Description: req.Description,
	}
	if err := s.repo.Class().Create(ctx, nil, class); err != nil {
		return 0, fmt.Errorf("failed to create class: %w", err)
	}

	s.logger.Info("Class created", "class_id", class.ClassID)
	s.publishEvent(ctx, events.NewEvent(events.ClassCreated, &events.ClassEvent{
		ClassID:   class.ClassID,
		ClassCode: class.ClassCode,
		ClassName: class.ClassName,
		ActorID:   actor.UserID,
	}))

	return class.ClassID, nil
}

func (s *classService) Join(ctx context.Context, req *validator.JoinClassRequest, actor *models.User) error {
	s.logger.Info("Joining class", "class_id", req.ClassID, "user_id", actor.UserID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return NewValidationError(errs)
	}

	class, err := s.repo.Class().GetByID(ctx, nil, req.ClassID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrClassNotFound
		}
		return fmt.Errorf("failed to load class: %w", err)
	}

	member, err := s.repo.Membership().IsMember(ctx, nil, class.ClassID, actor.UserID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if member {
		return ErrAlreadyJoined
	}

	membership := &models.UserClass{
		UserID:  actor.UserID,
		ClassID: class.ClassID,
		Status:  models.LearningToDo,
	}
	if err := s.repo.Membership().Add(ctx, nil, membership); err != nil {
		return fmt.Errorf("failed to join class: %w", err)
	}

	s.publishEvent(ctx, events.NewEvent(events.ClassMemberJoined, &events.ClassEvent{
		ClassID:   class.ClassID,
		ClassCode: class.ClassCode,
		ClassName: class.ClassName,
		ActorID:   actor.UserID,
	}))

	return nil
}

func (s *classService) GetDetail(ctx context.Context, classID uint, actor *models.User) (*ClassDetailResponse, error) {
	class, err := s.repo.Class().GetByIDWithDetails(ctx, nil, classID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to load class: %w", err)
	}

	if err := s.requireMembershipForStudents(ctx, classID, actor); err != nil {
		return nil, err
	}

	detail := &ClassDetailResponse{
		ClassCode:   class.ClassCode,
		ClassName:   class.ClassName,
		Description: class.Description,
	}
	if class.Teacher != nil {
		detail.TeacherName = fmt.Sprintf("%s (%s)", class.Teacher.FullName, class.Teacher.UserName)
	}
	if class.Subject != nil {
		detail.SubjectCode = class.Subject.SubjectCode
		detail.SubjectName = class.Subject.SubjectName
	}

	students, err := s.repo.Membership().GetStudents(ctx, nil, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	detail.Students = students

	return detail, nil
}

// ===== CLASS-SCOPED LISTINGS =====

func (s *classService) ListExamsToDo(ctx context.Context, classID uint, page, size int, actor *models.User) (*PagedResult[*repositories.ExamToDoRow], error) {
	if err := s.requireClassAndMembership(ctx, classID, actor); err != nil {
		return nil, err
	}

	rows, total, err := s.repo.Class().ListExamsToDo(ctx, nil, classID, actor.UserID, pageFilters(page, size))
	if err != nil {
		return nil, fmt.Errorf("failed to list exams to do: %w", err)
	}
	return &PagedResult[*repositories.ExamToDoRow]{Items: rows, Total: total}, nil
}

func (s *classService) ListExamsCreated(ctx context.Context, classID uint, page, size int, actor *models.User) (*PagedResult[*repositories.ExamCreatedRow], error) {
	if err := s.requireClassAndMembership(ctx, classID, actor); err != nil {
		return nil, err
	}

	rows, total, err := s.repo.Class().ListExamsCreated(ctx, nil, classID, pageFilters(page, size))
	if err != nil {
		return nil, fmt.Errorf("failed to list created exams: %w", err)
	}
	return &PagedResult[*repositories.ExamCreatedRow]{Items: rows, Total: total}, nil
}

func (s *classService) ListDocuments(ctx context.Context, classID uint, page, size int, actor *models.User) (*PagedResult[*models.ClassDocument], error) {
	if err := s.requireClassAndMembership(ctx, classID, actor); err != nil {
		return nil, err
	}

	documents, total, err := s.repo.Document().ListByClass(ctx, nil, classID, pageFilters(page, size))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return &PagedResult[*models.ClassDocument]{Items: documents, Total: total}, nil
}

func (s *classService) AddDocument(ctx context.Context, classID uint, req *validator.AddDocumentRequest, actor *models.User) error {
	s.logger.Info("Adding class document", "class_id", classID, "file_name", req.FileName, "actor_id", actor.UserID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return NewValidationError(errs)
	}

	class, err := s.repo.Class().GetByID(ctx, nil, classID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrClassNotFound
		}
		return fmt.Errorf("failed to load class: %w", err)
	}
	if !isOwningTeacher(class, actor) {
		return NewPermissionError("Thêm tài liệu")
	}

	document := &models.ClassDocument{
		ClassID:  classID,
		FileName: req.FileName,
		FilePath: req.FilePath,
	}
	if err := s.repo.Document().Create(ctx, nil, document); err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	return nil
}

func (s *classService) ListSubjects(ctx context.Context) ([]*SubjectItem, error) {
	subjects, err := s.repo.Subject().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}

	items := make([]*SubjectItem, 0, len(subjects))
	for _, subject := range subjects {
		items = append(items, &SubjectItem{
			SubjectID:   subject.SubjectID,
			SubjectName: subject.SubjectName,
		})
	}
	return items, nil
}

// ===== INTERNAL =====

// requireClassAndMembership verifies the class exists and, for students only,
// that the actor is a member.
func (s *classService) requireClassAndMembership(ctx context.Context, classID uint, actor *models.User) error {
	if _, err := s.repo.Class().GetByID(ctx, nil, classID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrClassNotFound
		}
		return fmt.Errorf("failed to load class: %w", err)
	}
	return s.requireMembershipForStudents(ctx, classID, actor)
}

func (s *classService) requireMembershipForStudents(ctx context.Context, classID uint, actor *models.User) error {
	if actor.RoleID != models.RoleStudent {
		return nil
	}

	member, err := s.repo.Membership().IsMember(ctx, nil, classID, actor.UserID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return ErrNotClassMember
	}
	return nil
}

func pageFilters(page, size int) repositories.PageFilters {
	if size <= 0 {
		size = 10
	}
	if page < 0 {
		page = 0
	}
	return repositories.PageFilters{Limit: size, Offset: page * size}
}

func (s *classService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.Type, "error", err)
	}
}
