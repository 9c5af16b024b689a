package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docproc/internal/port"
	"docproc/internal/service"
)

// PipelineHandler exposes the extraction and matching round trips. Each call
// is independent; the client decides when to move to the next step.
type PipelineHandler struct {
	ingestionService service.IngestionService
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(ingestionService service.IngestionService) *PipelineHandler {
	return &PipelineHandler{ingestionService: ingestionService}
}

// Extract handles POST /api/v1/extract
// @Summary Extract line items
// @Description Send a document to the extraction service and return normalized line items.
// @Description Nothing is persisted.
// @Tags pipeline
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document (PDF, JPG, or PNG)"
// @Success 200 {object} Response{data=[]domain.LineItem} "Extracted line items"
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported type"
// @Failure 502 {object} ErrorResponseBody "Extraction service rejected the document"
// @Failure 503 {object} ErrorResponseBody "Extraction service unavailable"
// @Router /api/v1/extract [post]
func (h *PipelineHandler) Extract(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	items, err := h.ingestionService.Extract(c.Request.Context(), port.ExtractInput{
		Filename: header.Filename,
		Body:     file,
		Size:     header.Size,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, items)
}

// Match handles POST /api/v1/match
// @Summary Match line items
// @Description Resolve line items against the product catalog. Returns the same items, in the
// @Description same order, with matched_product_id set (NO_MATCH when the catalog declined).
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body LineItemsRequest true "Line items to match"
// @Success 200 {object} Response{data=[]domain.LineItem} "Matched line items"
// @Failure 400 {object} ErrorResponseBody "No items to match"
// @Failure 502 {object} ErrorResponseBody "Matching service error or inconsistent response"
// @Failure 503 {object} ErrorResponseBody "Matching service unavailable"
// @Router /api/v1/match [post]
func (h *PipelineHandler) Match(c *gin.Context) {
	var req LineItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "items array is required")
		return
	}

	items, err := h.ingestionService.Match(c.Request.Context(), req.Items)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, items)
}
