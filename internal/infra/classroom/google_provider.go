// Package classroom adapts the Google Classroom API to the provider
// interface the sync job consumes.
package classroom

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gclassroom "google.golang.org/api/classroom/v1"
	"google.golang.org/api/googleapi"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	domain "classroom_sync/internal/domain/classroom"
)

// Scopes requested from Google for a sync credential.
var Scopes = []string{
	gclassroom.ClassroomCoursesReadonlyScope,
	gclassroom.ClassroomRostersReadonlyScope,
	gclassroom.ClassroomCourseworkStudentsReadonlyScope,
	gclassroom.ClassroomProfileEmailsScope,
}

// OAuthClient holds the application's OAuth client. It only refreshes
// credentials handed to it; it never runs the consent flow.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
}

// TokenSource returns a token source for cred. A refresh token is only usable
// when the client id and secret are configured.
func (c OAuthClient) TokenSource(ctx context.Context, cred domain.Credential) (oauth2.TokenSource, error) {
	if cred.Empty() {
		return nil, errors.New("credential is empty")
	}
	tok := &oauth2.Token{AccessToken: cred.AccessToken, RefreshToken: cred.RefreshToken}
	if cred.RefreshToken == "" {
		return oauth2.StaticTokenSource(tok), nil
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		if cred.AccessToken == "" {
			return nil, errors.New("refresh token given but GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET are not set")
		}
		return oauth2.StaticTokenSource(tok), nil
	}
	cfg := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       Scopes,
	}
	return cfg.TokenSource(ctx, tok), nil
}

// RetryPolicy bounds retries of rate limited or failed API calls.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second}

// NewProviderFactory returns a factory that builds a Google Classroom
// provider bound to each credential. courseStates narrows the course listing;
// empty means every state, archived courses included.
func NewProviderFactory(client OAuthClient, retry RetryPolicy, courseStates []string, logger *logrus.Entry) domain.ProviderFactory {
	return func(ctx context.Context, cred domain.Credential) (domain.Provider, error) {
		ts, err := client.TokenSource(ctx, cred)
		if err != nil {
			return nil, err
		}
		// The service outlives the request context of a single call.
		srv, err := gclassroom.NewService(context.WithoutCancel(ctx), option.WithTokenSource(ts))
		if err != nil {
			return nil, fmt.Errorf("failed to create classroom service: %w", err)
		}
		return &googleProvider{
			srv:          srv,
			retry:        retry,
			courseStates: courseStates,
			logger:       logger.WithField("component", "classroom"),
		}, nil
	}
}

type googleProvider struct {
	srv          *gclassroom.Service
	retry        RetryPolicy
	courseStates []string
	logger       *logrus.Entry
}

func (p *googleProvider) ListCourses(ctx context.Context) ([]domain.Course, error) {
	var out []domain.Course
	err := p.withRetry(ctx, "courses.list", func() error {
		out = out[:0]
		call := p.srv.Courses.List()
		if len(p.courseStates) > 0 {
			call = call.CourseStates(p.courseStates...)
		}
		return call.Pages(ctx, func(resp *gclassroom.ListCoursesResponse) error {
			for _, c := range resp.Courses {
				out = append(out, domain.Course{ID: c.Id, Name: c.Name})
			}
			return nil
		})
	})
	return out, err
}

func (p *googleProvider) ListTeachers(ctx context.Context, courseID string) ([]domain.Profile, error) {
	var out []domain.Profile
	err := p.withRetry(ctx, "courses.teachers.list", func() error {
		out = out[:0]
		return p.srv.Courses.Teachers.List(courseID).Pages(ctx, func(resp *gclassroom.ListTeachersResponse) error {
			for _, t := range resp.Teachers {
				out = append(out, toProfile(t.UserId, t.Profile))
			}
			return nil
		})
	})
	return out, err
}

func (p *googleProvider) ListStudents(ctx context.Context, courseID string) ([]domain.Profile, error) {
	var out []domain.Profile
	err := p.withRetry(ctx, "courses.students.list", func() error {
		out = out[:0]
		return p.srv.Courses.Students.List(courseID).Pages(ctx, func(resp *gclassroom.ListStudentsResponse) error {
			for _, s := range resp.Students {
				out = append(out, toProfile(s.UserId, s.Profile))
			}
			return nil
		})
	})
	return out, err
}

func (p *googleProvider) ListCourseWork(ctx context.Context, courseID string) ([]domain.CourseWork, error) {
	var out []domain.CourseWork
	err := p.withRetry(ctx, "courses.courseWork.list", func() error {
		out = out[:0]
		return p.srv.Courses.CourseWork.List(courseID).Pages(ctx, func(resp *gclassroom.ListCourseWorkResponse) error {
			for _, w := range resp.CourseWork {
				out = append(out, toCourseWork(w))
			}
			return nil
		})
	})
	return out, err
}

func (p *googleProvider) ListSubmissions(ctx context.Context, courseID, courseWorkID string) ([]domain.StudentSubmission, error) {
	var out []domain.StudentSubmission
	err := p.withRetry(ctx, "courses.courseWork.studentSubmissions.list", func() error {
		out = out[:0]
		return p.srv.Courses.CourseWork.StudentSubmissions.List(courseID, courseWorkID).Pages(ctx, func(resp *gclassroom.ListStudentSubmissionsResponse) error {
			for _, s := range resp.StudentSubmissions {
				out = append(out, toSubmission(s, p.logger))
			}
			return nil
		})
	})
	return out, err
}

// withRetry reruns call while the API answers 429 or 5xx.
func (p *googleProvider) withRetry(ctx context.Context, op string, call func() error) error {
	for attempt := 0; ; attempt++ {
		err := call()
		if err == nil || attempt >= p.retry.MaxRetries || !retryable(err) {
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			return nil
		}
		delay := p.retry.delay(attempt + 1)
		p.logger.WithError(err).WithFields(logrus.Fields{"op": op, "attempt": attempt + 1, "delay": delay}).Warn("retrying classroom call")
		if waitErr := sleepContext(ctx, delay); waitErr != nil {
			return fmt.Errorf("%s: %w", op, waitErr)
		}
	}
}

func retryable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return false
}

func (r RetryPolicy) delay(attempt int) time.Duration {
	delay := r.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= r.MaxDelay {
			return r.MaxDelay
		}
	}
	if delay > r.MaxDelay {
		return r.MaxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Identity is the verified Google account behind an access token.
type Identity struct {
	Email string
	Name  string
}

// LookupIdentity resolves the account that owns accessToken through the
// userinfo endpoint. Unverified emails are rejected.
func LookupIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	srv, err := googleoauth2.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}
	info, err := srv.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("userinfo.get: %w", err)
	}
	if info.Email == "" || (info.VerifiedEmail != nil && !*info.VerifiedEmail) {
		return nil, errors.New("google account has no verified email")
	}
	return &Identity{Email: info.Email, Name: info.Name}, nil
}
