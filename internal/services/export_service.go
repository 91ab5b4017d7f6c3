package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/xuri/excelize/v2"
)

type exportService struct {
	attempts AttemptService
	logger   *slog.Logger
}

func NewExportService(attempts AttemptService, logger *slog.Logger) ExportService {
	return &exportService{
		attempts: attempts,
		logger:   logger,
	}
}

// ExportExamResults renders the graded attempts of an exam as an xlsx file.
// Authorization is the attempt listing's: owning teacher or admin.
func (s *exportService) ExportExamResults(ctx context.Context, examID uint, actor *models.User) ([]byte, string, error) {
	summaries, err := s.attempts.ListByExam(ctx, examID, actor)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Error("Failed to close spreadsheet", "error", err)
		}
	}()

	const sheet = "Results"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, "", fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := []string{"#", "Username", "Full name", "Score", "Started", "Submitted"}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, "", fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, summary := range summaries {
		row := i + 2
		values := []interface{}{
			i + 1,
			summary.UserName,
			summary.FullName,
			summary.Score,
			summary.StartTime,
			summary.EndTime,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, "", fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, "", fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to serialize spreadsheet: %w", err)
	}

	filename := fmt.Sprintf("exam_%d_results_%s.xlsx", examID, time.Now().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}
