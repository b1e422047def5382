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

// GroupController handles group and membership operations
type GroupController struct {
	groups      *repositories.GroupRepository
	memberships *services.MembershipService
	directory   *services.DirectoryService
}

// NewGroupController creates a new GroupController
func NewGroupController(groups *repositories.GroupRepository, memberships *services.MembershipService, directory *services.DirectoryService) *GroupController {
	return &GroupController{
		groups:      groups,
		memberships: memberships,
		directory:   directory,
	}
}

// CreateGroup creates a group and joins the creator as its first member
func (c *GroupController) CreateGroup(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)

	var req dto.CreateGroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid group data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	group := &models.Group{Name: req.Name, Description: req.Description}
	if !c.groups.Add(ctx, group) {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeOperationFailed, "Group creation failed")
		errorDetail = errorDetail.WithDetails("Group name may already be taken")
		ctx.JSON(http.StatusConflict, dto.NewErrorResponse(errorDetail))
		return
	}

	// Creator joins immediately; a failed join leaves an empty group behind
	c.memberships.Join(ctx, studentID, group.ID)

	created, _ := c.groups.GetByID(group.ID)
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(created))
}

// GetGroup retrieves a group by ID
func (c *GroupController) GetGroup(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	group, ok := c.groups.GetByID(id)
	if !ok {
		notFound(ctx, "Group")
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(group))
}

// ListGroups lists all groups
func (c *GroupController) ListGroups(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.groups.ListAll()))
}

// UpdateGroup edits a group's name and description
func (c *GroupController) UpdateGroup(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateGroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid group data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	group, ok := c.groups.GetByID(id)
	if !ok {
		notFound(ctx, "Group")
		return
	}

	group.Name = req.Name
	group.Description = req.Description
	if !c.groups.Update(ctx, group) {
		operationFailed(ctx, "Group update failed")
		return
	}

	updated, _ := c.groups.GetByID(id)
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(updated))
}

// DeleteGroup removes a group; rejected while it still has active members
func (c *GroupController) DeleteGroup(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if _, exists := c.groups.GetByID(id); !exists {
		notFound(ctx, "Group")
		return
	}

	if !c.groups.Remove(ctx, id) {
		operationFailed(ctx, "Group removal failed; it may still have active members")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// JoinGroup makes the authenticated student an active member
func (c *GroupController) JoinGroup(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if !c.memberships.Join(ctx, studentID, id) {
		operationFailed(ctx, "Join failed; student may already be an active member")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Joined group", Timestamp: time.Now()})
}

// LeaveGroup ends the authenticated student's active membership
func (c *GroupController) LeaveGroup(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if !c.memberships.Leave(ctx, studentID, id) {
		operationFailed(ctx, "Leave failed; student is not an active member")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Left group", Timestamp: time.Now()})
}

// SetMembershipEnd stamps an end date on a student's membership rows
func (c *GroupController) SetMembershipEnd(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.MembershipEndDateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid end date data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if !c.memberships.SetEndDate(ctx, req.StudentID, id, req.EndDate) {
		operationFailed(ctx, "No membership rows to stamp")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "End date set", Timestamp: time.Now()})
}

// GetGroupMembers lists a group's active members
func (c *GroupController) GetGroupMembers(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if _, exists := c.groups.GetByID(id); !exists {
		notFound(ctx, "Group")
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.directory.GroupMembers(id)))
}

// GetGroupPosts lists the posts shared into a group
func (c *GroupController) GetGroupPosts(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	posts := c.directory.PostsInGroup(id)
	if posts == nil {
		notFound(ctx, "Group")
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(posts))
}
