package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/koverhq/kover/internal/audit/domain"
	"github.com/koverhq/kover/internal/authorization"
	"github.com/koverhq/kover/pkg/db/pagination"
)

type listAuditLogsQuery struct {
	pagination.Pagination
	UserID  string `form:"user_id"`
	Event   string `form:"event"`
	StartAt string `form:"start_at"`
	EndAt   string `form:"end_at"`
}

// ListAuditLogs returns the authenticated user's own audit trail. Reading
// another team member's trail requires the audit-view permission within the
// caller's team.
func (s *Server) ListAuditLogs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var query listAuditLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	subjectID := user.ID
	if query.UserID != "" {
		parsed, err := snowflake.ParseString(query.UserID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		if parsed != user.ID {
			if user.TeamID == nil {
				AbortWithError(c, authorization.ErrForbidden)
				return
			}
			err := s.authzSvc.Authorize(c.Request.Context(), user.ID, *user.TeamID, authorization.PermissionViewAuditLog)
			if err != nil {
				AbortWithError(c, err)
				return
			}
		}
		subjectID = parsed
	}

	req := auditdomain.ListAuditLogRequest{
		Pagination: query.Pagination,
		UserID:     subjectID,
		Event:      query.Event,
	}
	if query.StartAt != "" {
		start, err := time.Parse(time.RFC3339, query.StartAt)
		if err != nil {
			AbortWithError(c, auditdomain.ErrInvalidTimeRange)
			return
		}
		req.StartAt = &start
	}
	if query.EndAt != "" {
		end, err := time.Parse(time.RFC3339, query.EndAt)
		if err != nil {
			AbortWithError(c, auditdomain.ErrInvalidTimeRange)
			return
		}
		req.EndAt = &end
	}

	resp, err := s.auditSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
