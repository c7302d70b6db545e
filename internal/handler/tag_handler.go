package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErr "github.com/xxxsen/pinboard/internal/pkg/errors"
	"github.com/xxxsen/pinboard/internal/pkg/response"
	"github.com/xxxsen/pinboard/internal/service"
)

type TagHandler struct {
	tags *service.TagService
}

func NewTagHandler(tags *service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

type tagRequest struct {
	Name *string `json:"name" binding:"required"`
}

func (h *TagHandler) Create(c *gin.Context) {
	var req tagRequest
	if !bindJSON(c, &req) {
		return
	}
	tag, err := h.tags.Create(c.Request.Context(), getUserID(c), *req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, newTagView(*tag))
}

// List supports ?assigned_only=<int>; any non-zero value keeps only tags
// attached to at least one pin.
func (h *TagHandler) List(c *gin.Context) {
	assignedOnly := false
	if value := strings.TrimSpace(c.Query("assigned_only")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			handleError(c, appErr.NewValidationError("assigned_only", "A valid integer is required."))
			return
		}
		assignedOnly = parsed != 0
	}
	tags, err := h.tags.List(c.Request.Context(), getUserID(c), assignedOnly)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, newTagViews(tags))
}
