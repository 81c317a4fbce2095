package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docuchat/docuchat-backend/internal/services"
)

type DocumentHandler struct {
	documentService services.DocumentService
}

func NewDocumentHandler(documentService services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

func (dh *DocumentHandler) List(c *gin.Context) {
	scope, err := scopeFromRequest(c)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	docs, err := dh.documentService.List(c.Request.Context(), scope)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	RespondOK(c, gin.H{"documents": docs})
}

// Upload accepts one multipart PDF under the "file" field. The stored title
// is the uploaded filename.
func (dh *DocumentHandler) Upload(c *gin.Context) {
	scope, err := scopeFromRequest(c)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer file.Close()

	doc, err := dh.documentService.Upload(c.Request.Context(), scope, fileHeader.Filename, file)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	RespondOK(c, gin.H{"document": doc, "url": dh.documentService.PublicURL(doc)})
}

func (dh *DocumentHandler) Delete(c *gin.Context) {
	scope, err := scopeFromRequest(c)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	docID, err := uuid.Parse(c.Param("docID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	docs, err := dh.documentService.List(c.Request.Context(), scope)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	for _, doc := range docs {
		if doc.ID == docID {
			if err := dh.documentService.Delete(c.Request.Context(), scope, doc); err != nil {
				RespondError(c, statusFor(err), codeFor(err), err)
				return
			}
			RespondOK(c, gin.H{"success": true})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
}
