package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/pinboard/internal/model"
	appErr "github.com/xxxsen/pinboard/internal/pkg/errors"
	"github.com/xxxsen/pinboard/internal/pkg/response"
	"github.com/xxxsen/pinboard/internal/service"
)

type PinHandler struct {
	pins           *service.PinService
	maxUploadBytes int64
	basePath       string
}

func NewPinHandler(pins *service.PinService, maxUploadBytes int64, basePath string) *PinHandler {
	return &PinHandler{pins: pins, maxUploadBytes: maxUploadBytes, basePath: strings.TrimSuffix(basePath, "/")}
}

// pinRequest distinguishes omitted (nil) from supplied fields. A JSON null
// counts as omitted.
type pinRequest struct {
	Title *string  `json:"title"`
	Link  *string  `json:"link"`
	Tags  *[]int64 `json:"tags"`
	Date  *pinDate `json:"date"`
}

func (r pinRequest) input() service.PinInput {
	return service.PinInput{Title: r.Title, Link: r.Link, TagIDs: r.Tags, Date: r.Date.value()}
}

func (h *PinHandler) List(c *gin.Context) {
	tagIDs, err := parseTagFilter(c.Query("tags"))
	if err != nil {
		handleError(c, err)
		return
	}
	pins, err := h.pins.List(c.Request.Context(), getUserID(c), tagIDs)
	if err != nil {
		handleError(c, err)
		return
	}
	items := make([]pinSummary, 0, len(pins))
	for i := range pins {
		items = append(items, newPinSummary(&pins[i]))
	}
	response.Success(c, items)
}

func (h *PinHandler) Create(c *gin.Context) {
	var req pinRequest
	if !bindJSON(c, &req) {
		return
	}
	pin, err := h.pins.Create(c.Request.Context(), getUserID(c), req.input())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, newPinSummary(pin))
}

func (h *PinHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	detail, err := h.pins.Get(c.Request.Context(), getUserID(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, newPinDetail(detail))
}

// Update handles PUT; omitted link and tags are reset.
func (h *PinHandler) Update(c *gin.Context) {
	h.update(c, false)
}

// PartialUpdate handles PATCH; omitted fields keep their values.
func (h *PinHandler) PartialUpdate(c *gin.Context) {
	h.update(c, true)
}

func (h *PinHandler) update(c *gin.Context, partial bool) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req pinRequest
	if !bindJSON(c, &req) {
		return
	}
	pin, err := h.pins.Update(c.Request.Context(), getUserID(c), id, req.input(), partial)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, newPinSummary(pin))
}

func (h *PinHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.pins.Delete(c.Request.Context(), getUserID(c), id); err != nil {
		handleError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *PinHandler) UploadImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.pins.Find(c.Request.Context(), getUserID(c), id); err != nil {
		handleError(c, err)
		return
	}
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}
	file, err := c.FormFile("image")
	if err != nil {
		if isBodyTooLarge(err) {
			handleError(c, service.ImageTooLargeError(formatUploadLimit(h.maxUploadBytes)))
			return
		}
		handleError(c, service.NoImageError())
		return
	}
	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		handleError(c, service.ImageTooLargeError(formatUploadLimit(h.maxUploadBytes)))
		return
	}
	opened, err := file.Open()
	if err != nil {
		handleError(c, service.NoImageError())
		return
	}
	defer func() { _ = opened.Close() }()

	pin, err := h.pins.UploadImage(c.Request.Context(), getUserID(c), id, opened, file.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, h.imageView(c, pin))
}

func (h *PinHandler) imageView(c *gin.Context, pin *model.Pin) pinImage {
	view := pinImage{ID: pin.ID}
	if url := h.pins.ImageURL(pin, requestBaseURL(c)+h.basePath); url != "" {
		view.Image = &url
	}
	return view
}

// parseTagFilter reads "id1,id2"; blank entries are skipped.
func parseTagFilter(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v := &appErr.ValidationError{}
	ids := make([]int64, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			v.Add("tags", "\""+part+"\" is not a valid tag id.")
			continue
		}
		ids = append(ids, id)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return ids, nil
}
