package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/OEP-2025/online-exam-service/internal/cache"
	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAttemptPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// Create inserts the attempt row
func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	if err := a.getDB(tx).WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, a.cacheManager.Class,
		fmt.Sprintf("exams:%d:*", attempt.ClassID))
	return nil
}

// GetByTriple looks the attempt up by its (user, class, exam) identity.
// When more than one row matches, the newest one wins.
func (a *AttemptPostgreSQL) GetByTriple(ctx context.Context, tx *gorm.DB, userID, classID, examID uint) (*models.Attempt, error) {
	var attempt models.Attempt
	err := a.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND class_id = ? AND exam_id = ?", userID, classID, examID).
		Order("attempt_id DESC").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// ListByExam returns every attempt recorded for an exam, for grading exports
func (a *AttemptPostgreSQL) ListByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.Attempt, error) {
	var attempts []*models.Attempt
	err := a.getDB(tx).WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("score DESC, attempt_id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

// InsertAnswers bulk inserts the recorded answers of an attempt
func (a *AttemptPostgreSQL) InsertAnswers(ctx context.Context, tx *gorm.DB, answers []*models.AttemptAnswer) error {
	if len(answers) == 0 {
		return nil
	}

	result := a.getDB(tx).WithContext(ctx).Create(&answers)
	if result.Error != nil {
		return fmt.Errorf("failed to insert attempt answers: %w", result.Error)
	}
	if result.RowsAffected != int64(len(answers)) {
		return repositories.NewRowCountError("attempt_answers", int64(len(answers)), result.RowsAffected)
	}

	return nil
}

// GetAnswers returns the recorded answers of an attempt
func (a *AttemptPostgreSQL) GetAnswers(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error) {
	var answers []*models.AttemptAnswer
	err := a.getDB(tx).WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt answers: %w", err)
	}
	return answers, nil
}
