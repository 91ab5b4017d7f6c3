package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OEP-2025/online-exam-service/internal/events"
	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/repositories"
	"github.com/OEP-2025/online-exam-service/internal/validator"
)

func TestClassServiceCreate(t *testing.T) {
	repo := newFakeRepository()
	publisher := testPublisher()
	svc := newClassServiceForTest(repo, publisher)

	req := &validator.CreateClassRequest{
		ClassCode: "GO-2025",
		ClassName: "Lập trình Go",
		SubjectID: 1,
	}

	classID, err := svc.Create(context.Background(), req, testTeacher())
	require.NoError(t, err)
	require.NotZero(t, classID)

	class := repo.class.classes[classID]
	require.NotNil(t, class)
	assert.Equal(t, testTeacher().UserID, class.TeacherID, "the creator becomes the owning teacher")

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.ClassCreated, published[0].Type)
}

func TestClassServiceCreateDuplicateCode(t *testing.T) {
	repo := newFakeRepository()
	seedClass(repo)
	svc := newClassServiceForTest(repo, testPublisher())

	req := &validator.CreateClassRequest{
		ClassCode: "GO-2025",
		ClassName: "Lớp trùng mã",
		SubjectID: 1,
	}

	_, err := svc.Create(context.Background(), req, testTeacher())
	assert.ErrorIs(t, err, ErrClassCodeExists)
}

func TestClassServiceCreateInvalidCode(t *testing.T) {
	repo := newFakeRepository()
	svc := newClassServiceForTest(repo, testPublisher())

	req := &validator.CreateClassRequest{
		ClassCode: "x!",
		ClassName: "Lớp học",
		SubjectID: 1,
	}

	_, err := svc.Create(context.Background(), req, testTeacher())
	serviceErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, serviceErr.Code)
}

func TestClassServiceJoin(t *testing.T) {
	repo := newFakeRepository()
	class := seedClass(repo)
	publisher := testPublisher()
	svc := newClassServiceForTest(repo, publisher)

	student := testStudent()
	err := svc.Join(context.Background(), &validator.JoinClassRequest{ClassID: class.ClassID}, student)
	require.NoError(t, err)

	require.Len(t, repo.membership.added, 1)
	membership := repo.membership.added[0]
	assert.Equal(t, student.UserID, membership.UserID)
	assert.Equal(t, models.LearningToDo, membership.Status, "new members start in to-do status")

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.ClassMemberJoined, published[0].Type)
}

func TestClassServiceJoinTwice(t *testing.T) {
	repo := newFakeRepository()
	class := seedClass(repo)
	svc := newClassServiceForTest(repo, testPublisher())

	student := testStudent()
	req := &validator.JoinClassRequest{ClassID: class.ClassID}
	require.NoError(t, svc.Join(context.Background(), req, student))

	err := svc.Join(context.Background(), req, student)
	assert.ErrorIs(t, err, ErrAlreadyJoined)
	assert.Len(t, repo.membership.added, 1)
}

func TestClassServiceJoinMissingClass(t *testing.T) {
	repo := newFakeRepository()
	svc := newClassServiceForTest(repo, testPublisher())

	err := svc.Join(context.Background(), &validator.JoinClassRequest{ClassID: 99}, testStudent())
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestClassServiceGetDetail(t *testing.T) {
	repo := newFakeRepository()
	class := seedClass(repo)
	class.Teacher = &models.User{UserID: 10, UserName: "teacher1", FullName: "Giáo viên A"}
	class.Subject = &models.Subject{SubjectID: 1, SubjectCode: "GO", SubjectName: "Golang"}
	repo.membership.students = []*repositories.StudentRow{
		{UserID: 20, UserName: "student1", FullName: "Học viên B", Status: models.LearningToDo},
	}
	svc := newClassServiceForTest(repo, testPublisher())

	detail, err := svc.GetDetail(context.Background(), class.ClassID, testTeacher())
	require.NoError(t, err)

	assert.Equal(t, "GO-2025", detail.ClassCode)
	assert.Equal(t, "Giáo viên A (teacher1)", detail.TeacherName)
	assert.Equal(t, "GO", detail.SubjectCode)
	require.Len(t, detail.Students, 1)
}

func TestClassServiceGetDetailRequiresMembershipForStudents(t *testing.T) {
	repo := newFakeRepository()
	class := seedClass(repo)
	svc := newClassServiceForTest(repo, testPublisher())

	student := testStudent()
	_, err := svc.GetDetail(context.Background(), class.ClassID, student)
	assert.ErrorIs(t, err, ErrNotClassMember)

	// joining removes the restriction
	repo.membership.members[membershipKey{class.ClassID, student.UserID}] = true
	_, err = svc.GetDetail(context.Background(), class.ClassID, student)
	assert.NoError(t, err)
}

func TestClassServiceListExamsToDoPaging(t *testing.T) {
	repo := newFakeRepository()
	class := seedClass(repo)
	repo.class.examsToDo = []*repositories.ExamToDoRow{
		{ExamID: 1, ExamName: "Bài 1", Status: 1},
		{ExamID: 2, ExamName: "Bài 2", Status: 0},
	}
	svc := newClassServiceForTest(repo, testPublisher())

	result, err := svc.ListExamsToDo(context.Background(), class.ClassID, 2, 25, testTeacher())
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Total)
	assert.Equal(t, repositories.PageFilters{Limit: 25, Offset: 50}, repo.class.lastFilters)
}

func TestClassServiceListExamsToDoDefaultsPaging(t *testing.T) {
	repo := newFakeRepository()
	class := seedClass(repo)
	svc := newClassServiceForTest(repo, testPublisher())

	_, err := svc.ListExamsToDo(context.Background(), class.ClassID, -1, 0, testTeacher())
	require.NoError(t, err)
	assert.Equal(t, repositories.PageFilters{Limit: 10, Offset: 0}, repo.class.lastFilters)
}

func TestClassServiceAddDocument(t *testing.T) {
	repo := newFakeRepository()
	class := seedClass(repo)
	svc := newClassServiceForTest(repo, testPublisher())

	req := &validator.AddDocumentRequest{FileName: "syllabus.pdf", FilePath: "/files/syllabus.pdf"}
	require.NoError(t, svc.AddDocument(context.Background(), class.ClassID, req, testTeacher()))
	require.Len(t, repo.document.documents, 1)
	assert.Equal(t, class.ClassID, repo.document.documents[0].ClassID)
}

func TestClassServiceAddDocumentForbidden(t *testing.T) {
	repo := newFakeRepository()
	class := seedClass(repo)
	svc := newClassServiceForTest(repo, testPublisher())

	req := &validator.AddDocumentRequest{FileName: "notes.pdf", FilePath: "/files/notes.pdf"}
	err := svc.AddDocument(context.Background(), class.ClassID, req, testStudent())
	require.True(t, IsForbidden(err))
	assert.Empty(t, repo.document.documents)
}

func TestClassServiceListSubjects(t *testing.T) {
	repo := newFakeRepository()
	repo.subject.subjects = []*models.Subject{
		{SubjectID: 1, SubjectCode: "GO", SubjectName: "Golang"},
		{SubjectID: 2, SubjectCode: "DB", SubjectName: "Cơ sở dữ liệu"},
	}
	svc := newClassServiceForTest(repo, testPublisher())

	subjects, err := svc.ListSubjects(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Golang", subjects[0].SubjectName)
}

func TestClassServiceListClasses(t *testing.T) {
	repo := newFakeRepository()
	repo.class.joined = []*repositories.JoinedClassRow{{ClassID: 1, ClassName: "Lớp đã tham gia"}}
	repo.class.available = []*repositories.AvailableClassRow{{ClassID: 2, ClassName: "Lớp mở"}}
	svc := newClassServiceForTest(repo, testPublisher())

	joined, err := svc.ListClasses(context.Background(), true, testStudent())
	require.NoError(t, err)
	assert.Len(t, joined.([]*repositories.JoinedClassRow), 1)

	available, err := svc.ListClasses(context.Background(), false, testStudent())
	require.NoError(t, err)
	assert.Len(t, available.([]*repositories.AvailableClassRow), 1)
}
