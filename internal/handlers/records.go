package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cardioscan-server/internal/middleware"
	"cardioscan-server/internal/service"
	"cardioscan-server/internal/utils"
)

// RecordHandler handles analysis record related requests.
type RecordHandler struct {
	Service *service.RecordService
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(svc *service.RecordService) *RecordHandler {
	return &RecordHandler{Service: svc}
}

// Upload handles the multipart upload of a heart-sound recording. The file is
// stored, classified, and a new analysis record is created.
func (h *RecordHandler) Upload(c *gin.Context) {
	p, ok := middleware.GetPrincipalFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User information not found in token")
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "No file data provided")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		utils.InternalServerError(c, "Error reading file content")
		return
	}

	patientName := c.PostForm("patient_name")

	result, err := h.Service.UploadAs(c.Request.Context(), p, patientName, audio)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Created(c, "Recording analyzed successfully", result)
}

// ListHistory returns the caller's own records, newest first.
func (h *RecordHandler) ListHistory(c *gin.Context) {
	p, ok := middleware.GetPrincipalFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User information not found in token")
		return
	}

	entries, err := h.Service.ListHistoryAs(c.Request.Context(), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Success(c, "History fetched successfully", entries)
}

// GetRecord returns the details of a single record.
func (h *RecordHandler) GetRecord(c *gin.Context) {
	p, ok := middleware.GetPrincipalFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User information not found in token")
		return
	}
	id, ok := recordID(c)
	if !ok {
		return
	}

	rec, err := h.Service.ViewDetailsAs(c.Request.Context(), p, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Success(c, "Record fetched successfully", rec)
}

// UpdateNotesRequest represents the request body for updating clinician notes.
type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

// UpdateNotes sets the clinician notes on a record.
func (h *RecordHandler) UpdateNotes(c *gin.Context) {
	p, ok := middleware.GetPrincipalFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User information not found in token")
		return
	}
	id, ok := recordID(c)
	if !ok {
		return
	}

	var req UpdateNotesRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.Service.UpdateNotesAs(c.Request.Context(), p, id, req.Notes); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Success(c, "Notes updated successfully", nil)
}

// DeleteRecord deletes a record and its artifacts.
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	p, ok := middleware.GetPrincipalFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User information not found in token")
		return
	}
	id, ok := recordID(c)
	if !ok {
		return
	}

	if err := h.Service.DeleteRecordAs(c.Request.Context(), p, id); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Success(c, "Record deleted successfully", nil)
}

// GetAudio streams the stored recording.
func (h *RecordHandler) GetAudio(c *gin.Context) {
	h.streamArtifact(c, service.ArtifactPrimary, "audio/wav")
}

// GetImage streams the spectrogram image derived from the recording.
func (h *RecordHandler) GetImage(c *gin.Context) {
	h.streamArtifact(c, service.ArtifactDerived, "image/png")
}

func (h *RecordHandler) streamArtifact(c *gin.Context, kind service.ArtifactKind, contentType string) {
	p, ok := middleware.GetPrincipalFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User information not found in token")
		return
	}
	id, ok := recordID(c)
	if !ok {
		return
	}

	r, err := h.Service.FetchArtifactAs(c.Request.Context(), p, id, kind)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer r.Close()

	c.DataFromReader(http.StatusOK, -1, contentType, r, nil)
}

func recordID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "Invalid record ID format")
		return 0, false
	}
	return uint(id), true
}
