package services

import (
	"context"
	"io"
	"log/slog"

	"gorm.io/gorm"

	"github.com/OEP-2025/online-exam-service/internal/events"
	"github.com/OEP-2025/online-exam-service/internal/models"
	"github.com/OEP-2025/online-exam-service/internal/repositories"
	"github.com/OEP-2025/online-exam-service/internal/validator"
)

// fakeRepository is an in-memory repositories.Repository for service tests.
// Transactions run the callback directly against the same state.
type fakeRepository struct {
	class      *fakeClassRepo
	membership *fakeMembershipRepo
	exam       *fakeExamRepo
	attempt    *fakeAttemptRepo
	subject    *fakeSubjectRepo
	document   *fakeDocumentRepo
	user       *fakeUserRepo
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		class:      &fakeClassRepo{classes: map[uint]*models.Class{}},
		membership: &fakeMembershipRepo{members: map[membershipKey]bool{}},
		exam: &fakeExamRepo{
			exams:     map[uint]*models.Exam{},
			questions: map[uint][]*models.Question{},
		},
		attempt:  &fakeAttemptRepo{answers: map[uint][]*models.AttemptAnswer{}},
		subject:  &fakeSubjectRepo{},
		document: &fakeDocumentRepo{},
		user:     &fakeUserRepo{users: map[uint]*models.User{}},
	}
}

func (f *fakeRepository) Class() repositories.ClassRepository           { return f.class }
func (f *fakeRepository) Membership() repositories.MembershipRepository { return f.membership }
func (f *fakeRepository) Subject() repositories.SubjectRepository       { return f.subject }
func (f *fakeRepository) Document() repositories.DocumentRepository     { return f.document }
func (f *fakeRepository) Exam() repositories.ExamRepository             { return f.exam }
func (f *fakeRepository) Attempt() repositories.AttemptRepository       { return f.attempt }
func (f *fakeRepository) User() repositories.UserRepository             { return f.user }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// ===== CLASS =====

type fakeClassRepo struct {
	classes      map[uint]*models.Class
	nextID       uint
	joined       []*repositories.JoinedClassRow
	available    []*repositories.AvailableClassRow
	examsToDo    []*repositories.ExamToDoRow
	examsCreated []*repositories.ExamCreatedRow

	lastFilters repositories.PageFilters
}

func (f *fakeClassRepo) Create(ctx context.Context, tx *gorm.DB, class *models.Class) error {
	f.nextID++
	class.ClassID = f.nextID
	f.classes[class.ClassID] = class
	return nil
}

func (f *fakeClassRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error) {
	class, ok := f.classes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return class, nil
}

func (f *fakeClassRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Class, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeClassRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Class, error) {
	for _, class := range f.classes {
		if class.ClassCode == code {
			return class, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeClassRepo) ListJoined(ctx context.Context, tx *gorm.DB, userID uint) ([]*repositories.JoinedClassRow, error) {
	return f.joined, nil
}

func (f *fakeClassRepo) ListNotJoined(ctx context.Context, tx *gorm.DB, userID uint) ([]*repositories.AvailableClassRow, error) {
	return f.available, nil
}

func (f *fakeClassRepo) ListExamsToDo(ctx context.Context, tx *gorm.DB, classID, userID uint, filters repositories.PageFilters) ([]*repositories.ExamToDoRow, int64, error) {
	f.lastFilters = filters
	return f.examsToDo, int64(len(f.examsToDo)), nil
}

func (f *fakeClassRepo) ListExamsCreated(ctx context.Context, tx *gorm.DB, classID uint, filters repositories.PageFilters) ([]*repositories.ExamCreatedRow, int64, error) {
	f.lastFilters = filters
	return f.examsCreated, int64(len(f.examsCreated)), nil
}

// ===== MEMBERSHIP =====

type membershipKey struct {
	classID uint
	userID  uint
}

type fakeMembershipRepo struct {
	members  map[membershipKey]bool
	added    []*models.UserClass
	students []*repositories.StudentRow
}

func (f *fakeMembershipRepo) Add(ctx context.Context, tx *gorm.DB, membership *models.UserClass) error {
	f.members[membershipKey{membership.ClassID, membership.UserID}] = true
	f.added = append(f.added, membership)
	return nil
}

func (f *fakeMembershipRepo) IsMember(ctx context.Context, tx *gorm.DB, classID, userID uint) (bool, error) {
	return f.members[membershipKey{classID, userID}], nil
}

func (f *fakeMembershipRepo) GetStudents(ctx context.Context, tx *gorm.DB, classID uint) ([]*repositories.StudentRow, error) {
	return f.students, nil
}

// ===== EXAM =====

type fakeExamRepo struct {
	exams     map[uint]*models.Exam
	questions map[uint][]*models.Question
	results   []*models.Result
	testCases []*models.TestCase

	nextExamID     uint
	nextQuestionID uint

	// ops records every write in call order, e.g. "delete_results".
	ops []string

	// invalidated records InvalidateCache calls as {examID, classID} pairs.
	invalidated [][2]uint

	insertQuestionsErr error
	insertResultsErr   error
	insertTestCasesErr error
}

func (f *fakeExamRepo) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	f.nextExamID++
	exam.ExamID = f.nextExamID
	f.exams[exam.ExamID] = exam
	f.ops = append(f.ops, "create_exam")
	return nil
}

func (f *fakeExamRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	exam, ok := f.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return exam, nil
}

func (f *fakeExamRepo) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	if _, ok := f.exams[exam.ExamID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.exams[exam.ExamID] = exam
	f.ops = append(f.ops, "update_exam")
	return nil
}

func (f *fakeExamRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := f.exams[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.exams, id)
	f.ops = append(f.ops, "delete_exam")
	return nil
}

func (f *fakeExamRepo) InsertQuestions(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if f.insertQuestionsErr != nil {
		return f.insertQuestionsErr
	}
	for _, q := range questions {
		f.nextQuestionID++
		q.QuestionID = f.nextQuestionID
		f.questions[q.ExamID] = append(f.questions[q.ExamID], q)
	}
	f.ops = append(f.ops, "insert_questions")
	return nil
}

func (f *fakeExamRepo) InsertResults(ctx context.Context, tx *gorm.DB, results []*models.Result) error {
	if f.insertResultsErr != nil {
		return f.insertResultsErr
	}
	f.results = append(f.results, results...)
	f.ops = append(f.ops, "insert_results")
	return nil
}

func (f *fakeExamRepo) InsertTestCases(ctx context.Context, tx *gorm.DB, testCases []*models.TestCase) error {
	if f.insertTestCasesErr != nil {
		return f.insertTestCasesErr
	}
	f.testCases = append(f.testCases, testCases...)
	f.ops = append(f.ops, "insert_test_cases")
	return nil
}

func (f *fakeExamRepo) DeleteQuestions(ctx context.Context, tx *gorm.DB, examID uint) error {
	delete(f.questions, examID)
	f.ops = append(f.ops, "delete_questions")
	return nil
}

func (f *fakeExamRepo) DeleteResults(ctx context.Context, tx *gorm.DB, examID uint) error {
	f.results = nil
	f.ops = append(f.ops, "delete_results")
	return nil
}

func (f *fakeExamRepo) DeleteTestCases(ctx context.Context, tx *gorm.DB, examID uint) error {
	f.testCases = nil
	f.ops = append(f.ops, "delete_test_cases")
	return nil
}

func (f *fakeExamRepo) GetQuestions(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.Question, error) {
	return f.questions[examID], nil
}

func (f *fakeExamRepo) GetResults(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.Result, error) {
	return f.results, nil
}

func (f *fakeExamRepo) GetTestCases(ctx context.Context, tx *gorm.DB, examID uint, sampleOnly bool) ([]*models.TestCase, error) {
	if !sampleOnly {
		return f.testCases, nil
	}
	var out []*models.TestCase
	for _, tc := range f.testCases {
		if tc.IsSampleCase {
			out = append(out, tc)
		}
	}
	return out, nil
}

func (f *fakeExamRepo) InvalidateCache(ctx context.Context, examID, classID uint) {
	f.invalidated = append(f.invalidated, [2]uint{examID, classID})
}

func (f *fakeExamRepo) GetGraph(ctx context.Context, examID uint, sampleOnly bool) (*repositories.ExamGraph, error) {
	exam, ok := f.exams[examID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	testCases, _ := f.GetTestCases(ctx, nil, examID, sampleOnly)
	return &repositories.ExamGraph{
		Exam:      exam,
		Questions: f.questions[examID],
		Results:   f.results,
		TestCases: testCases,
	}, nil
}

// ===== ATTEMPT =====

type fakeAttemptRepo struct {
	attempts []*models.Attempt
	answers  map[uint][]*models.AttemptAnswer
	nextID   uint

	insertAnswersErr error
}

func (f *fakeAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	f.nextID++
	attempt.AttemptID = f.nextID
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeAttemptRepo) GetByTriple(ctx context.Context, tx *gorm.DB, userID, classID, examID uint) (*models.Attempt, error) {
	for i := len(f.attempts) - 1; i >= 0; i-- {
		a := f.attempts[i]
		if a.UserID == userID && a.ClassID == classID && a.ExamID == examID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAttemptRepo) ListByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.Attempt, error) {
	var out []*models.Attempt
	for _, a := range f.attempts {
		if a.ExamID == examID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttemptRepo) InsertAnswers(ctx context.Context, tx *gorm.DB, answers []*models.AttemptAnswer) error {
	if f.insertAnswersErr != nil {
		return f.insertAnswersErr
	}
	for _, a := range answers {
		f.answers[a.AttemptID] = append(f.answers[a.AttemptID], a)
	}
	return nil
}

func (f *fakeAttemptRepo) GetAnswers(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error) {
	return f.answers[attemptID], nil
}

// ===== SUBJECT / DOCUMENT / USER =====

type fakeSubjectRepo struct {
	subjects []*models.Subject
}

func (f *fakeSubjectRepo) List(ctx context.Context, tx *gorm.DB) ([]*models.Subject, error) {
	return f.subjects, nil
}

type fakeDocumentRepo struct {
	documents []*models.ClassDocument
	nextID    uint
}

func (f *fakeDocumentRepo) Create(ctx context.Context, tx *gorm.DB, document *models.ClassDocument) error {
	f.nextID++
	document.DocumentID = f.nextID
	f.documents = append(f.documents, document)
	return nil
}

func (f *fakeDocumentRepo) ListByClass(ctx context.Context, tx *gorm.DB, classID uint, filters repositories.PageFilters) ([]*models.ClassDocument, int64, error) {
	var out []*models.ClassDocument
	for _, d := range f.documents {
		if d.ClassID == classID {
			out = append(out, d)
		}
	}
	return out, int64(len(out)), nil
}

type fakeUserRepo struct {
	users map[uint]*models.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	for _, user := range f.users {
		if user.UserName == userName {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) ExistsByID(ctx context.Context, id uint) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

// ===== TEST FIXTURES =====

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPublisher() *events.MockEventPublisher {
	return events.NewMockEventPublisher(testLogger())
}

func testTeacher() *models.User {
	return &models.User{UserID: 10, UserName: "teacher1", FullName: "Giáo viên A", RoleID: models.RoleTeacher}
}

func testAdmin() *models.User {
	return &models.User{UserID: 1, UserName: "admin", FullName: "Quản trị viên", RoleID: models.RoleAdmin}
}

func testStudent() *models.User {
	return &models.User{UserID: 20, UserName: "student1", FullName: "Học viên B", RoleID: models.RoleStudent}
}

// seedClass registers a class owned by testTeacher.
func seedClass(repo *fakeRepository) *models.Class {
	class := &models.Class{
		ClassID:   1,
		TeacherID: testTeacher().UserID,
		ClassCode: "GO-2025",
		ClassName: "Lập trình Go",
		SubjectID: 1,
	}
	repo.class.classes[class.ClassID] = class
	if repo.class.nextID < class.ClassID {
		repo.class.nextID = class.ClassID
	}
	return class
}

func newExamServiceForTest(repo *fakeRepository, publisher events.EventPublisher) ExamService {
	return NewExamService(repo, nil, testLogger(), validator.New(), publisher)
}

func newClassServiceForTest(repo *fakeRepository, publisher events.EventPublisher) ClassService {
	return NewClassService(repo, nil, testLogger(), validator.New(), publisher)
}

func newAttemptServiceForTest(repo *fakeRepository, publisher events.EventPublisher) AttemptService {
	return NewAttemptService(repo, nil, testLogger(), validator.New(), publisher)
}
