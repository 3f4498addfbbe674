package controller

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/internal/app/service"
	apperrors "github.com/ikkim/neighborly-backend/internal/errors"
	"github.com/ikkim/neighborly-backend/internal/middleware"
	"github.com/ikkim/neighborly-backend/internal/websocket"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ModerationController struct {
	reviewService  service.ReviewService
	summaryService service.SummaryService
	exportService  service.ExportService
	hub            *websocket.Hub
	upgrader       gorillaws.Upgrader
}

func NewModerationController(
	reviewService service.ReviewService,
	summaryService service.SummaryService,
	exportService service.ExportService,
	hub *websocket.Hub,
	allowedOrigins []string,
) *ModerationController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &ModerationController{
		reviewService:  reviewService,
		summaryService: summaryService,
		exportService:  exportService,
		hub:            hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins[origin]
			},
		},
	}
}

// ListQueue lists reviews awaiting moderation
// GET /api/v1/admin/reviews?status=pending,flagged&business_id=
func (ctrl *ModerationController) ListQueue(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var businessID uint
	if raw := c.Query("business_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid business_id")
			return
		}
		businessID = uint(id)
	}
	opts := listOptionsFromQuery(c)

	reviews, total, err := ctrl.reviewService.ListModerationQueue(actor, service.QueueFilter{
		BusinessID:  businessID,
		Statuses:    statusesFromQuery(c),
		ListOptions: opts,
	})
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, pageResponse(newModerationReviews(reviews), total, opts))
}

// Moderate applies approve, reject or flag
// POST /api/v1/admin/reviews/:id/moderate
func (ctrl *ModerationController) Moderate(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.ModerateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badJSON(c, err)
		return
	}

	review, err := ctrl.reviewService.ModerateReview(actor, id, input)
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": newModerationReview(review)})
}

// History lists the status changes of a review
// GET /api/v1/admin/reviews/:id/history
func (ctrl *ModerationController) History(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	history, err := ctrl.reviewService.GetReviewHistory(actor, id)
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// Summary returns a summary with a selectable rating basis
// GET /api/v1/admin/businesses/:id/reviews/summary?status=&rating_basis=
func (ctrl *ModerationController) Summary(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := ctrl.summaryService.SummaryFor(c.Request.Context(), id, service.SummaryQuery{
		Statuses:    statusesFromQuery(c),
		RatingBasis: model.RatingBasis(c.Query("rating_basis")),
	})
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// Export downloads every review of a business as a workbook
// GET /api/v1/admin/businesses/:id/reviews/export
func (ctrl *ModerationController) Export(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	export, err := ctrl.exportService.ExportBusinessReviews(c.Request.Context(), actor, id)
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, xlsxContentType, export.Data)
}

// Feed upgrades to a WebSocket that streams moderation events
// GET /api/v1/admin/moderation/ws
func (ctrl *ModerationController) Feed(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the error response
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"user_id": actor.UserID,
			"error":   err.Error(),
		})
		return
	}

	client := websocket.NewClient(ctrl.hub, &websocket.Conn{Conn: conn}, actor.UserID)
	ctrl.hub.Register(client)

	log.Info("Moderation feed subscribed", map[string]interface{}{
		"user_id": actor.UserID,
	})

	go client.WritePump()
	go client.ReadPump()
}
