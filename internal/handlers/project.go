package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/requestdata"
	"github.com/docuchat/docuchat-backend/internal/services"
)

type ProjectHandler struct {
	projectService services.ProjectService
}

func NewProjectHandler(projectService services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// scopeFromRequest pairs the authenticated owner with the project id in the
// path. Every project-scoped route goes through here.
func scopeFromRequest(c *gin.Context) (domain.Scope, error) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		return domain.Scope{}, fmt.Errorf("%w: not signed in", domain.ErrValidation)
	}
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.Scope{}, fmt.Errorf("%w: invalid project id", domain.ErrValidation)
	}
	return domain.Scope{UserID: rd.UserID, ProjectID: projectID}, nil
}

func ownerFromRequest(c *gin.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: not signed in", domain.ErrValidation)
	}
	return rd.UserID, nil
}

func (ph *ProjectHandler) Create(c *gin.Context) {
	ownerID, err := ownerFromRequest(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	var req struct {
		Name  string `json:"name"`
		Emoji string `json:"emoji"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	project, err := ph.projectService.CreateProject(c.Request.Context(), ownerID, req.Name, req.Emoji)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	RespondOK(c, gin.H{"project": project})
}

func (ph *ProjectHandler) List(c *gin.Context) {
	ownerID, err := ownerFromRequest(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	projects, err := ph.projectService.ListProjects(c.Request.Context(), ownerID)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	RespondOK(c, gin.H{"projects": projects})
}

func (ph *ProjectHandler) Get(c *gin.Context) {
	scope, err := scopeFromRequest(c)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	project, err := ph.projectService.Get(c.Request.Context(), scope)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	RespondOK(c, gin.H{"project": project})
}

func (ph *ProjectHandler) Rename(c *gin.Context) {
	scope, err := scopeFromRequest(c)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := ph.projectService.Rename(c.Request.Context(), scope, req.Name); err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (ph *ProjectHandler) Delete(c *gin.Context) {
	scope, err := scopeFromRequest(c)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	if err := ph.projectService.DeleteProject(c.Request.Context(), scope); err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
