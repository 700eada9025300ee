package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"bailreckoner-backend/models"
	"bailreckoner-backend/repository"
	"bailreckoner-backend/service"
	"bailreckoner-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CaseFileRepository persists case document metadata. Satisfied by
// repository.FileRepository.
type CaseFileRepository interface {
	Create(ctx context.Context, file *models.CaseFile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CaseFile, error)
	ListByCaseID(ctx context.Context, caseID uuid.UUID) ([]*models.CaseFile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AssistHandler handles HTTP requests for the assistive features and
// the case documents they work on: chat, document summarization,
// bail-application drafting, and document upload/download
type AssistHandler struct {
	assistService    *service.AssistService
	caseStore        repository.CaseStore
	fileRepo         CaseFileRepository
	storage          storage.Storage
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

// NewAssistHandler creates a new assist handler
func NewAssistHandler(assistService *service.AssistService, caseStore repository.CaseStore, fileRepo CaseFileRepository, storage storage.Storage) *AssistHandler {
	return &AssistHandler{
		assistService: assistService,
		caseStore:     caseStore,
		fileRepo:      fileRepo,
		storage:       storage,
		maxFileSize:   10 * 1024 * 1024, // 10MB
		allowedMimeTypes: map[string]bool{
			"application/pdf": true,
			"text/plain":      true,
		},
	}
}

// requireCase resolves the case existence check, writing the error
// response itself when the case is missing
func (h *AssistHandler) requireCase(c *gin.Context, caseID uuid.UUID) bool {
	if _, err := h.caseStore.GetByID(c.Request.Context(), caseID); err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			respondError(c, service.ErrCaseNotFound)
		} else {
			respondError(c, err)
		}
		return false
	}
	return true
}

// ChatRequest represents one chat turn against a case
type ChatRequest struct {
	CaseID uuid.UUID `json:"case_id" binding:"required"`
	Query  string    `json:"query" binding:"required"`
}

// Chat handles POST /api/chat
func (h *AssistHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.assistService.Converse(c.Request.Context(), service.ConverseRequest{
		CaseID: req.CaseID,
		Query:  req.Query,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"response": result.Response,
		},
	})
}

// SummarizePDF handles POST /api/summarize-pdf. The uploaded document
// is stored and recorded before summarization so it survives a failed
// generation call. The case is checked first so a bad case_id surfaces
// as not-found, never as a storage failure.
func (h *AssistHandler) SummarizePDF(c *gin.Context) {
	caseID, err := uuid.Parse(c.PostForm("case_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid case_id format",
			},
		})
		return
	}

	if !h.requireCase(c, caseID) {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize),
			},
		})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		// Clients that don't sniff types send octet-stream; fall back
		// to the extension.
		switch {
		case strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf"):
			mimeType = "application/pdf"
		case strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".txt"):
			mimeType = "text/plain"
		default:
			mimeType = "application/octet-stream"
		}
	}
	if !h.allowedMimeTypes[mimeType] {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "File type not allowed. Allowed types: PDF, TXT",
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_OPEN_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_READ_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	fileID := uuid.New()
	storagePath, err := h.storage.Upload(c.Request.Context(), fileID, fileHeader.Filename, bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": fmt.Sprintf("Failed to upload file: %v", err),
			},
		})
		return
	}

	record := &models.CaseFile{
		ID:          fileID,
		CaseID:      caseID,
		Filename:    fileHeader.Filename,
		MimeType:    mimeType,
		Size:        fileHeader.Size,
		StoragePath: storagePath,
	}
	if err := h.fileRepo.Create(c.Request.Context(), record); err != nil {
		h.storage.Delete(c.Request.Context(), storagePath)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": fmt.Sprintf("Failed to save file record: %v", err),
			},
		})
		return
	}

	result, err := h.assistService.SummarizeDocument(c.Request.Context(), service.SummarizeDocumentRequest{
		CaseID:   caseID,
		Filename: fileHeader.Filename,
		MimeType: mimeType,
		Data:     data,
	})
	if err != nil {
		respondErrorWith(c, err, gin.H{"file_id": record.ID})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"summary": result.Summary,
			"file_id": record.ID,
		},
	})
}

// GenerateDocumentRequest represents a legal-aid drafting request
type GenerateDocumentRequest struct {
	CaseID         *uuid.UUID `json:"case_id"`
	ClientName     string     `json:"client_name" binding:"required"`
	LawyerName     string     `json:"lawyer_name" binding:"required"`
	OffenseDetails string     `json:"offense_details" binding:"required"`
	DocType        string     `json:"doc_type"`
}

// GenerateDocument handles POST /api/generate-document
func (h *AssistHandler) GenerateDocument(c *gin.Context) {
	var req GenerateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.assistService.DraftDocument(c.Request.Context(), service.DraftDocumentRequest{
		CaseID:         req.CaseID,
		ClientName:     req.ClientName,
		LawyerName:     req.LawyerName,
		OffenseDetails: req.OffenseDetails,
		DocType:        req.DocType,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"document": result.Document,
		},
	})
}

// ListCaseFiles handles GET /api/cases/:id/files
func (h *AssistHandler) ListCaseFiles(c *gin.Context) {
	caseID, ok := parseCaseID(c)
	if !ok {
		return
	}
	if !h.requireCase(c, caseID) {
		return
	}

	files, err := h.fileRepo.ListByCaseID(c.Request.Context(), caseID)
	if err != nil {
		respondError(c, err)
		return
	}
	if files == nil {
		files = []*models.CaseFile{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"files": files,
		},
	})
}

// GetFile handles GET /api/files/:id
func (h *AssistHandler) GetFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid file ID format",
			},
		})
		return
	}

	file, err := h.fileRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "File not found",
			},
		})
		return
	}

	reader, err := h.storage.Download(c.Request.Context(), file.StoragePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOWNLOAD_FAILED",
				"message": fmt.Sprintf("Failed to download file: %v", err),
			},
		})
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.DataFromReader(http.StatusOK, file.Size, file.MimeType, reader, nil)
}

// DeleteFile handles DELETE /api/files/:id, removing both the stored
// document and its record
func (h *AssistHandler) DeleteFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid file ID format",
			},
		})
		return
	}

	file, err := h.fileRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "File not found",
			},
		})
		return
	}

	if err := h.storage.Delete(c.Request.Context(), file.StoragePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DELETE_FAILED",
				"message": fmt.Sprintf("Failed to delete file: %v", err),
			},
		})
		return
	}

	if err := h.fileRepo.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": fmt.Sprintf("Failed to delete file record: %v", err),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id": id,
		},
	})
}
