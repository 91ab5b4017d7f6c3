package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/repositories"
)

func TestExportExamResults(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	examID, _ := seedExamWithKey(t, repo)

	end := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	repo.attempt.attempts = append(repo.attempt.attempts, &models.Attempt{
		AttemptID: 1, UserID: 20, ClassID: 1, ExamID: examID, EndTime: &end, Score: 8.5,
	})
	repo.membership.students = []*repositories.StudentRow{
		{UserID: 20, UserName: "student1", FullName: "Học viên B"},
	}

	attempts := newAttemptServiceForTest(repo, testPublisher())
	svc := NewExportService(attempts, testLogger())

	content, filename, err := svc.ExportExamResults(context.Background(), examID, testTeacher())
	require.NoError(t, err)
	require.NotEmpty(t, content)
	assert.Contains(t, filename, "exam_")
	assert.Contains(t, filename, ".xlsx")

	// the produced file must be a readable workbook with the data row
	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	username, err := f.GetCellValue("Results", "B2")
	require.NoError(t, err)
	assert.Equal(t, "student1", username)

	score, err := f.GetCellValue("Results", "D2")
	require.NoError(t, err)
	assert.Equal(t, "8.5", score)
}

func TestExportExamResultsForbidden(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	examID, _ := seedExamWithKey(t, repo)

	attempts := newAttemptServiceForTest(repo, testPublisher())
	svc := NewExportService(attempts, testLogger())

	_, _, err := svc.ExportExamResults(context.Background(), examID, testStudent())
	assert.True(t, IsForbidden(err))
}
