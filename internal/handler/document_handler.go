package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docproc/internal/export"
	"docproc/internal/service"
)

// DocumentHandler handles document and line item endpoints.
type DocumentHandler struct {
	ingestionService service.IngestionService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(ingestionService service.IngestionService) *DocumentHandler {
	return &DocumentHandler{ingestionService: ingestionService}
}

// Upload handles POST /api/v1/documents
// @Summary Upload a document
// @Description Upload a source document (PDF, JPG, PNG). The document starts in status uploaded.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document to upload (PDF, JPG, or PNG)"
// @Success 201 {object} Response{data=domain.Document} "Document uploaded"
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported type"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 500 {object} ErrorResponseBody "Upload failed"
// @Router /api/v1/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	doc, err := h.ingestionService.Upload(c.Request.Context(), service.UploadInput{File: file, Header: header})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, doc)
}

// List handles GET /api/v1/documents
// @Summary List documents
// @Description List documents, newest upload first
// @Tags documents
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.Document,meta=PagMeta} "List of documents"
// @Router /api/v1/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	docs, total, err := h.ingestionService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, docs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/documents/:id
// @Summary Get document by ID
// @Description Get document metadata and, when the original is stored, a presigned download URL
// @Tags documents
// @Produce json
// @Param id path string true "Document ID (UUID)"
// @Success 200 {object} Response{data=DocumentWithDownloadURL} "Document with download URL"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Router /api/v1/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *gin.Context) {
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	doc, err := h.ingestionService.GetByID(c.Request.Context(), docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	downloadURL, err := h.ingestionService.DownloadURL(c.Request.Context(), docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, DocumentWithDownloadURL{Document: *doc, DownloadURL: downloadURL})
}

// ListItems handles GET /api/v1/documents/:id/items
// @Summary List saved line items
// @Description List the saved line items of a document ordered by line number
// @Tags documents
// @Produce json
// @Param id path string true "Document ID (UUID)"
// @Success 200 {object} Response{data=[]domain.LineItem} "Line items"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Router /api/v1/documents/{id}/items [get]
func (h *DocumentHandler) ListItems(c *gin.Context) {
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	items, err := h.ingestionService.ListItems(c.Request.Context(), docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, items)
}

// SaveItems handles POST /api/v1/documents/:id/items
// @Summary Save line items
// @Description Atomically store the reconciled line items and mark the document processed.
// @Description Either every item is stored and the status changes, or nothing changes.
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID (UUID)"
// @Param request body LineItemsRequest true "Line items to save"
// @Success 200 {object} Response{data=domain.Document} "Document marked processed"
// @Failure 400 {object} ErrorResponseBody "Invalid request or line item"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Failure 409 {object} ErrorResponseBody "Rejected by storage or already processed"
// @Failure 503 {object} ErrorResponseBody "Storage temporarily unavailable"
// @Router /api/v1/documents/{id}/items [post]
func (h *DocumentHandler) SaveItems(c *gin.Context) {
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	var req LineItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "items array is required")
		return
	}

	doc, err := h.ingestionService.Finalize(c.Request.Context(), docID, req.Items)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, doc)
}

// ExportItems handles GET /api/v1/documents/:id/items/export
// @Summary Export saved line items
// @Description Download the saved line items as CSV (default) or XLSX
// @Tags documents
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Document ID (UUID)"
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file "Export file"
// @Failure 400 {object} ErrorResponseBody "Invalid ID or format"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Router /api/v1/documents/{id}/items/export [get]
func (h *DocumentHandler) ExportItems(c *gin.Context) {
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}

	file, err := h.ingestionService.Export(c.Request.Context(), docID, format)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// parseDocumentID reads the :id path parameter. Returns false if it is not a
// UUID (error response already written).
func parseDocumentID(c *gin.Context) (uuid.UUID, bool) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document ID")
		return uuid.Nil, false
	}
	return docID, true
}
