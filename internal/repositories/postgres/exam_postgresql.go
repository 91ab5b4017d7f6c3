package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/OEP-2025/online-exam-service/internal/cache"
	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/repositories"
)

type ExamPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (e *ExamPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

// Create inserts the exam row
func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	if err := e.getDB(tx).WithContext(ctx).Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	return nil
}

// GetByID retrieves an exam by ID with caching
func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	// Inside a transaction the row may have just been written; bypass the cache
	// so the read sees the transaction's view.
	if tx != nil {
		var exam models.Exam
		if err := tx.WithContext(ctx).First(&exam, id).Error; err != nil {
			return nil, err
		}
		return &exam, nil
	}

	cacheKey := fmt.Sprintf("id:%d", id)
	var exam models.Exam

	err := e.cacheManager.Exam.CacheOrExecute(ctx, cacheKey, &exam, cache.ExamCacheConfig.TTL, func() (interface{}, error) {
		var dbExam models.Exam
		if err := e.db.WithContext(ctx).First(&dbExam, id).Error; err != nil {
			return nil, err
		}
		return &dbExam, nil
	})
	if err != nil {
		return nil, err
	}

	return &exam, nil
}

// Update rewrites the mutable exam columns
func (e *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	result := e.getDB(tx).WithContext(ctx).
		Model(&models.Exam{}).
		Where("exam_id = ?", exam.ExamID).
		Updates(map[string]interface{}{
			"exam_name":      exam.ExamName,
			"description":    exam.Description,
			"total_question": exam.TotalQuestion,
			"total_minutes":  exam.TotalMinutes,
			"is_published":   exam.IsPublished,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update exam: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete soft deletes the exam row. Child rows are removed by the caller
// through the child delete methods before the exam row goes away.
func (e *ExamPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := e.getDB(tx).WithContext(ctx).Delete(&models.Exam{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete exam: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// InvalidateCache drops the cached exam row, its graphs and the class exam
// listings. The write methods do not invalidate themselves: they run inside a
// transaction, and invalidating before commit would let a concurrent reader
// re-cache the pre-commit state. Callers invalidate after the commit.
func (e *ExamPostgreSQL) InvalidateCache(ctx context.Context, examID, classID uint) {
	cache.InvalidateExamCache(ctx, e.cacheManager, examID, classID)
}

// ===== BULK CHILD WRITES =====

// InsertQuestions bulk inserts question rows, backfilling generated ids
func (e *ExamPostgreSQL) InsertQuestions(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	result := e.getDB(tx).WithContext(ctx).Create(&questions)
	if result.Error != nil {
		return fmt.Errorf("failed to insert questions: %w", result.Error)
	}
	if result.RowsAffected != int64(len(questions)) {
		return repositories.NewRowCountError("questions", int64(len(questions)), result.RowsAffected)
	}

	return nil
}

// InsertResults bulk inserts answer-option rows
func (e *ExamPostgreSQL) InsertResults(ctx context.Context, tx *gorm.DB, results []*models.Result) error {
	if len(results) == 0 {
		return nil
	}

	result := e.getDB(tx).WithContext(ctx).Create(&results)
	if result.Error != nil {
		return fmt.Errorf("failed to insert results: %w", result.Error)
	}
	if result.RowsAffected != int64(len(results)) {
		return repositories.NewRowCountError("results", int64(len(results)), result.RowsAffected)
	}

	return nil
}

// InsertTestCases bulk inserts test-case rows
func (e *ExamPostgreSQL) InsertTestCases(ctx context.Context, tx *gorm.DB, testCases []*models.TestCase) error {
	if len(testCases) == 0 {
		return nil
	}

	result := e.getDB(tx).WithContext(ctx).Create(&testCases)
	if result.Error != nil {
		return fmt.Errorf("failed to insert test cases: %w", result.Error)
	}
	if result.RowsAffected != int64(len(testCases)) {
		return repositories.NewRowCountError("test_cases", int64(len(testCases)), result.RowsAffected)
	}

	return nil
}

// ===== CHILD DELETES =====
//
// Replaced child rows are hard deleted: they are rewritten wholesale on every
// update, so flagging them would only accumulate dead rows. The exam row
// itself keeps the soft-delete flag.

// DeleteQuestions removes every question of an exam
func (e *ExamPostgreSQL) DeleteQuestions(ctx context.Context, tx *gorm.DB, examID uint) error {
	err := e.getDB(tx).WithContext(ctx).Unscoped().
		Where("exam_id = ?", examID).
		Delete(&models.Question{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete questions: %w", err)
	}
	return nil
}

// DeleteResults removes every answer option belonging to an exam's questions
func (e *ExamPostgreSQL) DeleteResults(ctx context.Context, tx *gorm.DB, examID uint) error {
	err := e.getDB(tx).WithContext(ctx).Unscoped().
		Where("question_id IN (?)", e.questionIDsSubquery(tx, examID)).
		Delete(&models.Result{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete results: %w", err)
	}
	return nil
}

// DeleteTestCases removes every test case belonging to an exam's questions
func (e *ExamPostgreSQL) DeleteTestCases(ctx context.Context, tx *gorm.DB, examID uint) error {
	err := e.getDB(tx).WithContext(ctx).Unscoped().
		Where("question_id IN (?)", e.questionIDsSubquery(tx, examID)).
		Delete(&models.TestCase{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete test cases: %w", err)
	}
	return nil
}

func (e *ExamPostgreSQL) questionIDsSubquery(tx *gorm.DB, examID uint) *gorm.DB {
	return e.getDB(tx).
		Model(&models.Question{}).
		Select("question_id").
		Where("exam_id = ?", examID)
}

// ===== GRAPH READS =====

// GetQuestions returns the questions of an exam ordered by question_number
func (e *ExamPostgreSQL) GetQuestions(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.Question, error) {
	var questions []*models.Question
	err := e.getDB(tx).WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("question_number ASC, question_id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return questions, nil
}

// GetResults returns every answer option of an exam ordered by result_key
func (e *ExamPostgreSQL) GetResults(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.Result, error) {
	var results []*models.Result
	err := e.getDB(tx).WithContext(ctx).
		Where("question_id IN (?)", e.questionIDsSubquery(tx, examID)).
		Order("question_id ASC, result_key ASC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	return results, nil
}

// GetTestCases returns the test cases of an exam, optionally sample cases only
func (e *ExamPostgreSQL) GetTestCases(ctx context.Context, tx *gorm.DB, examID uint, sampleOnly bool) ([]*models.TestCase, error) {
	query := e.getDB(tx).WithContext(ctx).
		Where("question_id IN (?)", e.questionIDsSubquery(tx, examID))
	if sampleOnly {
		query = query.Where("is_sample_case = ?", true)
	}

	var testCases []*models.TestCase
	if err := query.Order("test_case_id ASC").Find(&testCases).Error; err != nil {
		return nil, fmt.Errorf("failed to get test cases: %w", err)
	}
	return testCases, nil
}

// GetGraph loads the exam row and all three child sets concurrently, with the
// whole graph cached as one unit. It always reads the base connection: a gorm
// transaction handle is not safe for concurrent use.
func (e *ExamPostgreSQL) GetGraph(ctx context.Context, examID uint, sampleOnly bool) (*repositories.ExamGraph, error) {
	cacheKey := fmt.Sprintf("graph:%d", examID)
	if sampleOnly {
		cacheKey = fmt.Sprintf("graph:sample:%d", examID)
	}

	var graph repositories.ExamGraph
	err := e.cacheManager.Exam.CacheOrExecute(ctx, cacheKey, &graph, cache.ExamCacheConfig.TTL, func() (interface{}, error) {
		return e.loadGraph(ctx, examID, sampleOnly)
	})
	if err != nil {
		return nil, err
	}

	return &graph, nil
}

func (e *ExamPostgreSQL) loadGraph(ctx context.Context, examID uint, sampleOnly bool) (*repositories.ExamGraph, error) {
	graph := &repositories.ExamGraph{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var exam models.Exam
		if err := e.db.WithContext(gctx).First(&exam, examID).Error; err != nil {
			return err
		}
		graph.Exam = &exam
		return nil
	})
	g.Go(func() error {
		questions, err := e.GetQuestions(gctx, nil, examID)
		if err != nil {
			return err
		}
		graph.Questions = questions
		return nil
	})
	g.Go(func() error {
		results, err := e.GetResults(gctx, nil, examID)
		if err != nil {
			return err
		}
		graph.Results = results
		return nil
	})
	g.Go(func() error {
		testCases, err := e.GetTestCases(gctx, nil, examID, sampleOnly)
		if err != nil {
			return err
		}
		graph.TestCases = testCases
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return graph, nil
}
