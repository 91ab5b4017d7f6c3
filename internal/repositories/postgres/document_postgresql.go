package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/repositories"
)

type DocumentPostgreSQL struct {
	db *gorm.DB
}

func NewDocumentPostgreSQL(db *gorm.DB) repositories.DocumentRepository {
	return &DocumentPostgreSQL{db: db}
}

func (d *DocumentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return d.db
}

// Create inserts a class document row
func (d *DocumentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, document *models.ClassDocument) error {
	if err := d.getDB(tx).WithContext(ctx).Create(document).Error; err != nil {
		return fmt.Errorf("failed to create class document: %w", err)
	}
	return nil
}

// ListByClass pages through the documents of a class, newest first
func (d *DocumentPostgreSQL) ListByClass(ctx context.Context, tx *gorm.DB, classID uint, filters repositories.PageFilters) ([]*models.ClassDocument, int64, error) {
	db := d.getDB(tx).WithContext(ctx)

	var total int64
	err := db.Model(&models.ClassDocument{}).
		Where("class_id = ?", classID).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count class documents: %w", err)
	}

	query := db.Where("class_id = ?", classID).Order("created_time DESC")
	query = applyPaging(query, filters)

	var documents []*models.ClassDocument
	if err := query.Find(&documents).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list class documents: %w", err)
	}
	return documents, total, nil
}
