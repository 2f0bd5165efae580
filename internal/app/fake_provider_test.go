package app

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"classroom_sync/internal/domain/classroom"
	"classroom_sync/internal/domain/store"
	"classroom_sync/internal/infra/memstore"
)

type fakeProvider struct {
	mu          sync.Mutex
	courses     []classroom.Course
	teachers    map[string][]classroom.Profile
	students    map[string][]classroom.Profile
	courseWork  map[string][]classroom.CourseWork
	submissions map[string][]classroom.StudentSubmission
	errs        map[string]error
	calls       []string
	onCall      func(call string)
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		teachers:    make(map[string][]classroom.Profile),
		students:    make(map[string][]classroom.Profile),
		courseWork:  make(map[string][]classroom.CourseWork),
		submissions: make(map[string][]classroom.StudentSubmission),
		errs:        make(map[string]error),
	}
}

func (p *fakeProvider) record(call string) error {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	hook := p.onCall
	err := p.errs[call]
	p.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	return err
}

func (p *fakeProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakeProvider) ListCourses(context.Context) ([]classroom.Course, error) {
	if err := p.record("courses"); err != nil {
		return nil, err
	}
	return p.courses, nil
}

func (p *fakeProvider) ListTeachers(_ context.Context, courseID string) ([]classroom.Profile, error) {
	if err := p.record("teachers:" + courseID); err != nil {
		return nil, err
	}
	return p.teachers[courseID], nil
}

func (p *fakeProvider) ListStudents(_ context.Context, courseID string) ([]classroom.Profile, error) {
	if err := p.record("students:" + courseID); err != nil {
		return nil, err
	}
	return p.students[courseID], nil
}

func (p *fakeProvider) ListCourseWork(_ context.Context, courseID string) ([]classroom.CourseWork, error) {
	if err := p.record("coursework:" + courseID); err != nil {
		return nil, err
	}
	return p.courseWork[courseID], nil
}

func (p *fakeProvider) ListSubmissions(_ context.Context, courseID, courseWorkID string) ([]classroom.StudentSubmission, error) {
	if err := p.record("submissions:" + courseID + "/" + courseWorkID); err != nil {
		return nil, err
	}
	return p.submissions[courseID+"/"+courseWorkID], nil
}

func (p *fakeProvider) factory() classroom.ProviderFactory {
	return func(context.Context, classroom.Credential) (classroom.Provider, error) {
		return p, nil
	}
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type testStack struct {
	db         *memstore.DB
	resolver   *IdentityResolver
	reconciler *Reconciler
	repos      store.Repositories
}

func newTestStack() *testStack {
	db := memstore.NewDB()
	repos := memstore.NewRepositories(db)
	resolver := NewIdentityResolver(repos.Students)
	return &testStack{
		db:         db,
		repos:      repos,
		resolver:   resolver,
		reconciler: NewReconciler(repos.Courses, repos.Students, repos.Assignments, repos.Submissions, resolver, testLogger()),
	}
}

func (ts *testStack) syncService(p *fakeProvider, workers int) *SyncService {
	return NewSyncService(p.factory(), ts.reconciler, ts.resolver, SyncOptions{
		Workers:        workers,
		RequestTimeout: time.Second,
	}, testLogger())
}

var testCred = classroom.Credential{AccessToken: "token"}

// webDevFixture is one course with two students, two pieces of coursework and
// a submission from a user missing from the roster.
func webDevFixture() *fakeProvider {
	p := newFakeProvider()
	p.courses = []classroom.Course{{ID: "c-web", Name: "Web Development"}}
	p.teachers["c-web"] = []classroom.Profile{{UserID: "t-1", Email: "Teacher@Edu.com", FullName: "Teacher"}}
	p.students["c-web"] = []classroom.Profile{
		{UserID: "u-alice", Email: "alice@student.com", FullName: "Alice"},
		{UserID: "u-bob", Email: "bob@student.com", FullName: "Bob"},
	}
	p.courseWork["c-web"] = []classroom.CourseWork{
		{ID: "cw-html", CourseID: "c-web", Title: "HTML", DueDate: &classroom.Date{Year: 2024, Month: 3, Day: 10}},
		{ID: "cw-css", CourseID: "c-web", Title: "CSS", Description: "Flexbox"},
	}
	p.submissions["c-web/cw-html"] = []classroom.StudentSubmission{
		{ID: "s-1", UserID: "u-alice", State: "TURNED_IN", UpdateTime: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)},
		{ID: "s-2", UserID: "u-bob", State: "NEW"},
		{ID: "s-3", UserID: "u-ghost", State: "TURNED_IN", UpdateTime: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)},
	}
	p.submissions["c-web/cw-css"] = []classroom.StudentSubmission{
		{ID: "s-4", UserID: "u-alice", State: "RETURNED", UpdateTime: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	return p
}
