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

type MembershipPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewMembershipPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.MembershipRepository {
	return &MembershipPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (m *MembershipPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return m.db
}

// Add inserts a membership row and drops the cached membership check
func (m *MembershipPostgreSQL) Add(ctx context.Context, tx *gorm.DB, membership *models.UserClass) error {
	if err := m.getDB(tx).WithContext(ctx).Create(membership).Error; err != nil {
		return fmt.Errorf("failed to add class member: %w", err)
	}

	cache.SafeDelete(ctx, m.cacheManager.Exists,
		fmt.Sprintf("member:%d:%d", membership.ClassID, membership.UserID))
	cache.SafeInvalidatePattern(ctx, m.cacheManager.Class, "list:*")
	return nil
}

// IsMember reports whether the user has a live membership row for the class
func (m *MembershipPostgreSQL) IsMember(ctx context.Context, tx *gorm.DB, classID, userID uint) (bool, error) {
	var count int64
	err := m.getDB(tx).WithContext(ctx).
		Model(&models.UserClass{}).
		Where("class_id = ? AND user_id = ?", classID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check class membership: %w", err)
	}
	return count > 0, nil
}

// GetStudents returns the members of a class with their learning status
func (m *MembershipPostgreSQL) GetStudents(ctx context.Context, tx *gorm.DB, classID uint) ([]*repositories.StudentRow, error) {
	var rows []*repositories.StudentRow
	err := m.getDB(tx).WithContext(ctx).
		Table("user_class uc").
		Select("u.user_id, u.user_name, u.full_name, uc.status").
		Joins("JOIN users u ON u.user_id = uc.user_id").
		Where("uc.class_id = ? AND uc.is_deleted = 0", classID).
		Order("u.full_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get class students: %w", err)
	}
	return rows, nil
}
