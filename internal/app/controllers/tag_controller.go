package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redbird/connect/internal/app/models"
	"github.com/redbird/connect/internal/app/models/dto"
	"github.com/redbird/connect/internal/app/repositories"
	"github.com/redbird/connect/internal/app/services"
	"github.com/redbird/connect/internal/middleware"
)

// TagController handles interest tags and student-tag assignments
type TagController struct {
	tags      *repositories.TagRepository
	tagging   *services.TaggingService
	directory *services.DirectoryService
}

// NewTagController creates a new TagController
func NewTagController(tags *repositories.TagRepository, tagging *services.TaggingService, directory *services.DirectoryService) *TagController {
	return &TagController{
		tags:      tags,
		tagging:   tagging,
		directory: directory,
	}
}

// CreateTag creates a new interest tag
func (c *TagController) CreateTag(ctx *gin.Context) {
	var req dto.CreateTagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid tag data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	tag := &models.Tag{Name: req.Name, Description: req.Description}
	if !c.tags.Add(ctx, tag) {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeOperationFailed, "Tag creation failed")
		errorDetail = errorDetail.WithDetails("Tag name may already be taken")
		ctx.JSON(http.StatusConflict, dto.NewErrorResponse(errorDetail))
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(tag))
}

// GetTag retrieves a tag by ID
func (c *TagController) GetTag(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	tag, ok := c.tags.GetByID(id)
	if !ok {
		notFound(ctx, "Tag")
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(tag))
}

// ListTags lists all tags
func (c *TagController) ListTags(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.tags.ListAll()))
}

// UpdateTag edits a tag's name and description
func (c *TagController) UpdateTag(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateTagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid tag data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	tag, ok := c.tags.GetByID(id)
	if !ok {
		notFound(ctx, "Tag")
		return
	}

	tag.Name = req.Name
	tag.Description = req.Description
	if !c.tags.Update(ctx, tag) {
		operationFailed(ctx, "Tag update failed")
		return
	}

	updated, _ := c.tags.GetByID(id)
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(updated))
}

// DeleteTag removes a tag and unassigns it from every student
func (c *TagController) DeleteTag(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if _, exists := c.tags.GetByID(id); !exists {
		notFound(ctx, "Tag")
		return
	}

	if !c.tags.Remove(ctx, id) {
		operationFailed(ctx, "Tag removal failed")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// AssignTag assigns a tag to the authenticated student
func (c *TagController) AssignTag(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if !c.tagging.Assign(ctx, studentID, id) {
		operationFailed(ctx, "Assignment failed; tag may already be assigned")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Tag assigned", Timestamp: time.Now()})
}

// UnassignTag removes a tag from the authenticated student
func (c *TagController) UnassignTag(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if !c.tagging.Unassign(ctx, studentID, id) {
		operationFailed(ctx, "Unassignment failed; tag is not assigned")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Tag unassigned", Timestamp: time.Now()})
}

// GetTaggedStudents lists the students carrying a tag
func (c *TagController) GetTaggedStudents(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if _, exists := c.tags.GetByID(id); !exists {
		notFound(ctx, "Tag")
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.directory.StudentsByTag(id)))
}
