package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/internal/app/service"
	apperrors "github.com/ikkim/neighborly-backend/internal/errors"
)

type BusinessController struct {
	businessService service.BusinessService
}

func NewBusinessController(businessService service.BusinessService) *BusinessController {
	return &BusinessController{businessService: businessService}
}

// ListBusinesses lists the directory
// GET /api/v1/businesses?district=&category=&search=&page=&page_size=
func (ctrl *BusinessController) ListBusinesses(c *gin.Context) {
	opts := listOptionsFromQuery(c)

	businesses, total, err := ctrl.businessService.ListBusinesses(service.BusinessListOptions{
		District: c.Query("district"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     opts.Page,
		PageSize: opts.PageSize,
	})
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, pageResponse(businesses, total, opts))
}

// GetBusiness accepts a numeric id or a slug
// GET /api/v1/businesses/:id
func (ctrl *BusinessController) GetBusiness(c *gin.Context) {
	param := c.Param("id")

	var err error
	var business *model.Business
	if id, parseErr := strconv.ParseUint(param, 10, 32); parseErr == nil {
		business, err = ctrl.businessService.GetBusiness(uint(id))
	} else {
		business, err = ctrl.businessService.GetBusinessBySlug(param)
	}
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"business": business})
}

// CreateBusiness lists a new business
// POST /api/v1/businesses
func (ctrl *BusinessController) CreateBusiness(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var input service.CreateBusinessInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badJSON(c, err)
		return
	}

	business, err := ctrl.businessService.CreateBusiness(actor, input)
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"business": business})
}

// UpdateBusiness applies a partial update
// PUT /api/v1/businesses/:id
func (ctrl *BusinessController) UpdateBusiness(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.BusinessMutation
	if err := c.ShouldBindJSON(&input); err != nil {
		badJSON(c, err)
		return
	}

	business, err := ctrl.businessService.UpdateBusiness(actor, id, input)
	if err != nil {
		apperrors.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"business": business})
}
