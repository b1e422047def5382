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

// PostController handles posts, group sharing and bookmarks
type PostController struct {
	posts  *repositories.PostRepository
	social *services.SocialService
}

// NewPostController creates a new PostController
func NewPostController(posts *repositories.PostRepository, social *services.SocialService) *PostController {
	return &PostController{posts: posts, social: social}
}

// CreatePost authors a post owned by the authenticated student
func (c *PostController) CreatePost(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)

	var req dto.CreatePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid post data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	post := &models.Post{OwnerID: studentID, Content: req.Content}
	if !c.posts.Add(ctx, post) {
		operationFailed(ctx, "Post creation failed")
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(post))
}

// GetPost retrieves a post by ID
func (c *PostController) GetPost(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	post, ok := c.posts.GetByID(id)
	if !ok {
		notFound(ctx, "Post")
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(post))
}

// UpdatePost edits a post's content; only the owner may edit
func (c *PostController) UpdatePost(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdatePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid post data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	post, ok := c.posts.GetByID(id)
	if !ok {
		notFound(ctx, "Post")
		return
	}
	if post.OwnerID != studentID {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Post belongs to another student")
		ctx.JSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
		return
	}

	post.Content = req.Content
	if !c.posts.Update(ctx, post) {
		operationFailed(ctx, "Post update failed")
		return
	}

	updated, _ := c.posts.GetByID(id)
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(updated))
}

// DeletePost removes a post; only the owner may delete
func (c *PostController) DeletePost(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	post, ok := c.posts.GetByID(id)
	if !ok {
		notFound(ctx, "Post")
		return
	}
	if post.OwnerID != studentID {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Post belongs to another student")
		ctx.JSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
		return
	}

	if !c.posts.Remove(ctx, id) {
		operationFailed(ctx, "Post removal failed")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// SharePost shares a post into a group
func (c *PostController) SharePost(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.SharePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid share data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if !c.posts.AddToGroup(ctx, id, req.GroupID) {
		operationFailed(ctx, "Share failed; post may already be in the group")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Post shared", Timestamp: time.Now()})
}

// WithdrawPost removes a post from a group
func (c *PostController) WithdrawPost(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	groupID, ok := pathID(ctx, "groupId")
	if !ok {
		return
	}

	if !c.posts.RemoveFromGroup(ctx, id, groupID) {
		operationFailed(ctx, "Withdraw failed; post is not in the group")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Post withdrawn", Timestamp: time.Now()})
}

// BookmarkPost bookmarks a post for the authenticated student
func (c *PostController) BookmarkPost(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if !c.social.AddBookmark(ctx, studentID, id) {
		operationFailed(ctx, "Bookmark failed; post may already be bookmarked")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Post bookmarked", Timestamp: time.Now()})
}

// UnbookmarkPost removes a bookmark
func (c *PostController) UnbookmarkPost(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if !c.social.RemoveBookmark(ctx, studentID, id) {
		operationFailed(ctx, "Bookmark removal failed")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Bookmark removed", Timestamp: time.Now()})
}
