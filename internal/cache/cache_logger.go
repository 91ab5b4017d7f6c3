package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateExamCache drops the exam row, its question graph and every class
// listing that might include the exam.
func InvalidateExamCache(ctx context.Context, cm *CacheManager, examID, classID uint) {
	SafeDelete(ctx, cm.Exam,
		fmt.Sprintf("id:%d", examID),
		fmt.Sprintf("graph:%d", examID),
		fmt.Sprintf("graph:sample:%d", examID))

	SafeInvalidatePattern(ctx, cm.Class, fmt.Sprintf("exams:%d:*", classID))
}

// InvalidateClassCache drops the class row and the per-user class listings.
func InvalidateClassCache(ctx context.Context, cm *CacheManager, classID uint) {
	SafeDelete(ctx, cm.Class,
		fmt.Sprintf("id:%d", classID),
		fmt.Sprintf("details:%d", classID))

	SafeInvalidatePattern(ctx, cm.Class, "list:*")
	SafeInvalidatePattern(ctx, cm.Exists, fmt.Sprintf("member:%d:*", classID))
}
