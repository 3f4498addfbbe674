package controller

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/internal/app/service"
	apperrors "github.com/ikkim/neighborly-backend/internal/errors"
	"github.com/ikkim/neighborly-backend/internal/middleware"
)

// parseIDParam reads a positive numeric path parameter, writing a 400 on failure.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// requireActor returns the authenticated caller, writing a 401 when absent.
func requireActor(c *gin.Context) (service.Actor, bool) {
	actor, ok := optionalActor(c)
	if !ok {
		apperrors.Unauthorized(c, "login required")
		return service.Actor{}, false
	}
	return *actor, true
}

func optionalActor(c *gin.Context) (*service.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return nil, false
	}
	role, _ := middleware.GetUserRole(c)
	return &service.Actor{UserID: userID, Role: role}, true
}

func listOptionsFromQuery(c *gin.Context) service.ListOptions {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return service.ListOptions{
		Page:      page,
		PageSize:  pageSize,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
}

// statusesFromQuery accepts repeated or comma separated status values.
func statusesFromQuery(c *gin.Context) []model.ReviewStatus {
	var statuses []model.ReviewStatus
	for _, raw := range c.QueryArray("status") {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, model.ReviewStatus(strings.ToLower(s)))
			}
		}
	}
	return statuses
}

func badJSON(c *gin.Context, err error) {
	middleware.GetLoggerFromContext(c).Warn("Malformed request body", map[string]interface{}{
		"error": err.Error(),
	})
	apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "request body must be valid JSON")
}

func pageResponse(data interface{}, total int64, opts service.ListOptions) gin.H {
	return gin.H{
		"data":      data,
		"total":     total,
		"page":      opts.Page,
		"page_size": opts.PageSize,
	}
}
