package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"

	"github.com/OEP-2025/online-exam-service/internal/repositories"
)

// newDryRunDB builds a gorm handle that renders SQL without executing it and
// records every delete statement it would run.
func newDryRunDB(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()

	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	var statements []string
	err = db.Callback().Delete().After("gorm:delete").Register("record_delete_sql", func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	})
	require.NoError(t, err)

	return db, &statements
}

func newDryRunExamRepo(t *testing.T) (repositories.ExamRepository, *gorm.DB, *[]string) {
	t.Helper()

	db, statements := newDryRunDB(t)
	return NewExamPostgreSQL(db, nil), db, statements
}

// Replaced child rows must be removed for real: flagging them would pile up a
// dead copy of the whole question graph on every update.
func TestChildDeletesAreHardDeletes(t *testing.T) {
	repo, db, statements := newDryRunExamRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.DeleteTestCases(ctx, db, 1))
	require.NoError(t, repo.DeleteResults(ctx, db, 1))
	require.NoError(t, repo.DeleteQuestions(ctx, db, 1))

	require.Len(t, *statements, 3)
	for _, sql := range *statements {
		assert.True(t, strings.HasPrefix(sql, "DELETE"), "expected a hard delete, got: %s", sql)
		assert.NotContains(t, sql, "is_deleted")
	}
}

func TestExamDeleteOnlyFlagsTheRow(t *testing.T) {
	repo, db, statements := newDryRunExamRepo(t)

	// a dry run affects no rows, which reads as not-found
	err := repo.Delete(context.Background(), db, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.Len(t, *statements, 1)
	sql := (*statements)[0]
	assert.True(t, strings.HasPrefix(sql, "UPDATE"), "expected a soft delete, got: %s", sql)
	assert.Contains(t, sql, "is_deleted")
}
