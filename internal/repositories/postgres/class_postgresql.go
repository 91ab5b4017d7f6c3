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

type ClassPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewClassPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ClassRepository {
	return &ClassPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *ClassPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// Create inserts the class row and invalidates the class listings
func (c *ClassPostgreSQL) Create(ctx context.Context, tx *gorm.DB, class *models.Class) error {
	if err := c.getDB(tx).WithContext(ctx).Create(class).Error; err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, c.cacheManager.Class, "list:*")
	return nil
}

// GetByID retrieves a class row by ID with caching
func (c *ClassPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error) {
	if tx != nil {
		var class models.Class
		if err := tx.WithContext(ctx).First(&class, id).Error; err != nil {
			return nil, err
		}
		return &class, nil
	}

	cacheKey := fmt.Sprintf("id:%d", id)
	var class models.Class

	err := c.cacheManager.Class.CacheOrExecute(ctx, cacheKey, &class, cache.ClassCacheConfig.TTL, func() (interface{}, error) {
		var dbClass models.Class
		if err := c.db.WithContext(ctx).First(&dbClass, id).Error; err != nil {
			return nil, err
		}
		return &dbClass, nil
	})
	if err != nil {
		return nil, err
	}

	return &class, nil
}

// GetByIDWithDetails retrieves a class with its subject and teacher preloaded
func (c *ClassPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error) {
	cacheKey := fmt.Sprintf("details:%d", id)
	var class models.Class

	err := c.cacheManager.Class.CacheOrExecute(ctx, cacheKey, &class, cache.ClassCacheConfig.TTL, func() (interface{}, error) {
		var dbClass models.Class
		err := c.getDB(tx).WithContext(ctx).
			Preload("Subject").
			Preload("Teacher").
			First(&dbClass, id).Error
		if err != nil {
			return nil, err
		}
		return &dbClass, nil
	})
	if err != nil {
		return nil, err
	}

	return &class, nil
}

// GetByCode looks a class up by its join code
func (c *ClassPostgreSQL) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Class, error) {
	var class models.Class
	err := c.getDB(tx).WithContext(ctx).
		Where("class_code = ?", code).
		First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// ListJoined returns the classes a user is a member of, newest membership first
func (c *ClassPostgreSQL) ListJoined(ctx context.Context, tx *gorm.DB, userID uint) ([]*repositories.JoinedClassRow, error) {
	var rows []*repositories.JoinedClassRow
	err := c.getDB(tx).WithContext(ctx).
		Table("user_class uc").
		Select(`c.class_id, c.class_code, c.class_name, c.description, uc.status,
			s.subject_code, s.subject_name`).
		Joins("JOIN class c ON c.class_id = uc.class_id AND c.is_deleted = 0").
		Joins("JOIN subject s ON s.subject_id = c.subject_id").
		Where("uc.user_id = ? AND uc.is_deleted = 0", userID).
		Order("uc.created_time DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list joined classes: %w", err)
	}
	return rows, nil
}

// ListNotJoined returns the classes a user could still join, with member and
// exam counts for the browse page
func (c *ClassPostgreSQL) ListNotJoined(ctx context.Context, tx *gorm.DB, userID uint) ([]*repositories.AvailableClassRow, error) {
	var rows []*repositories.AvailableClassRow
	err := c.getDB(tx).WithContext(ctx).
		Table("class c").
		Select(`c.class_id, c.class_code, c.class_name, u.full_name AS teacher_name,
			s.subject_code, s.subject_name,
			(SELECT COUNT(*) FROM user_class uc WHERE uc.class_id = c.class_id AND uc.is_deleted = 0) AS total_student,
			(SELECT COUNT(*) FROM exam e WHERE e.class_id = c.class_id AND e.is_deleted = 0) AS total_exam`).
		Joins("JOIN subject s ON s.subject_id = c.subject_id").
		Joins("JOIN users u ON u.user_id = c.teacher_id").
		Where("c.is_deleted = 0").
		Where("c.class_id NOT IN (?)",
			c.getDB(tx).Table("user_class").
				Select("class_id").
				Where("user_id = ? AND is_deleted = 0", userID)).
		Order("c.created_time DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list available classes: %w", err)
	}
	return rows, nil
}

// ListExamsToDo pages through the published exams of a class for a student.
// Status is 1 when the student already has an attempt for the exam.
func (c *ClassPostgreSQL) ListExamsToDo(ctx context.Context, tx *gorm.DB, classID, userID uint, filters repositories.PageFilters) ([]*repositories.ExamToDoRow, int64, error) {
	db := c.getDB(tx).WithContext(ctx)

	var total int64
	err := db.Model(&models.Exam{}).
		Where("class_id = ? AND is_published = ?", classID, true).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count exams: %w", err)
	}

	query := db.Table("exam e").
		Select(`e.exam_id, e.exam_name, e.total_question, e.total_minutes,
			CASE WHEN a.attempt_id IS NULL THEN 0 ELSE 1 END AS status`).
		Joins("LEFT JOIN attempts a ON a.exam_id = e.exam_id AND a.class_id = e.class_id AND a.user_id = ? AND a.is_deleted = 0", userID).
		Where("e.class_id = ? AND e.is_published = ? AND e.is_deleted = 0", classID, true).
		Order("e.created_time DESC")
	query = applyPaging(query, filters)

	var rows []*repositories.ExamToDoRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list exams to do: %w", err)
	}
	return rows, total, nil
}

// ListExamsCreated pages through every exam of a class for its teacher,
// drafts included
func (c *ClassPostgreSQL) ListExamsCreated(ctx context.Context, tx *gorm.DB, classID uint, filters repositories.PageFilters) ([]*repositories.ExamCreatedRow, int64, error) {
	db := c.getDB(tx).WithContext(ctx)

	var total int64
	err := db.Model(&models.Exam{}).
		Where("class_id = ?", classID).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count exams: %w", err)
	}

	query := db.Model(&models.Exam{}).
		Select("exam_id, exam_name, total_question, total_minutes, is_published").
		Where("class_id = ?", classID).
		Order("created_time DESC")
	query = applyPaging(query, filters)

	var rows []*repositories.ExamCreatedRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list created exams: %w", err)
	}
	return rows, total, nil
}

// applyPaging applies limit/offset when set
func applyPaging(query *gorm.DB, filters repositories.PageFilters) *gorm.DB {
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
