package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"classroom_sync/internal/app"
	"classroom_sync/internal/domain/classroom"
	"classroom_sync/internal/domain/user"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

// login exchanges a Google access token obtained by the frontend for a
// session token.
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "access_token is required"})
		return
	}
	if s.deps.Identity == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Login is not configured"})
		return
	}
	email, name, err := s.deps.Identity(c.Request.Context(), req.AccessToken)
	if err != nil {
		s.logger.WithError(err).Warn("identity lookup failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
		return
	}
	u, err := s.deps.Accounts.Login(c.Request.Context(), email, name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.respondSession(c, u, false)
}

func (s *Server) respondSession(c *gin.Context, u *user.User, dev bool) {
	token, err := s.tokens.issue(u)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Token: token, User: toUserResponse(u), Dev: dev})
}

func (s *Server) me(c *gin.Context) {
	u, err := s.deps.Accounts.Get(c.Request.Context(), currentViewer(c).Email)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (s *Server) sync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	ctx := c.Request.Context()
	if s.opts.SyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SyncTimeout)
		defer cancel()
	}

	result, err := s.deps.Sync.Sync(ctx, classroom.Credential{
		AccessToken:  strings.TrimSpace(req.AccessToken),
		RefreshToken: strings.TrimSpace(req.RefreshToken),
	})
	switch {
	case errors.Is(err, app.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No access token"})
	case errors.Is(err, app.ErrProviderUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Classroom provider unavailable", "result": result})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Sync interrupted", "result": result})
	case err != nil:
		s.writeError(c, err)
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Sync completed", "result": result})
	}
}

func (s *Server) listCourses(c *gin.Context) {
	courses, err := s.deps.Progress.ListCourses(c.Request.Context(), currentViewer(c), app.Query{Teacher: c.Query("teacher")})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCourseResponses(courses))
}

func (s *Server) listStudents(c *gin.Context) {
	q := app.Query{Cohort: c.Query("cohort"), Teacher: c.Query("teacher")}
	list, err := s.deps.Progress.ListStudents(c.Request.Context(), currentViewer(c), q)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStudentResponses(list))
}

func (s *Server) studentProgress(c *gin.Context) {
	viewer := currentViewer(c)
	email := strings.ToLower(c.Param("email"))
	if viewer.Role == user.RoleStudent && email != viewer.Email {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}
	sp, err := s.deps.Progress.StudentSummary(c.Request.Context(), email)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStudentResponses([]app.StudentProgress{*sp})[0])
}

func (s *Server) listInvitations(c *gin.Context) {
	list, err := s.deps.Invitations.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]invitationResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, toInvitationResponse(inv))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createInvitation(c *gin.Context) {
	var req app.NewInvitation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	inv, err := s.deps.Invitations.Create(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInvitationResponse(inv))
}

func (s *Server) deleteInvitation(c *gin.Context) {
	if err := s.deps.Invitations.Delete(c.Request.Context(), c.Param("email")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) devLogin(c *gin.Context) {
	var req app.DevLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	u, err := s.deps.Accounts.DevLogin(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.respondSession(c, u, true)
}

func (s *Server) devRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	role := user.Role(req.Role)
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	u, err := s.deps.Accounts.SetRole(c.Request.Context(), currentViewer(c).Email, role)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.respondSession(c, u, true)
}

func (s *Server) devMe(c *gin.Context) {
	viewer := currentViewer(c)
	c.JSON(http.StatusOK, gin.H{"user": gin.H{"email": viewer.Email, "role": viewer.Role}, "dev": true})
}
