package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redbird/connect/internal/app/models/dto"
	"github.com/redbird/connect/internal/app/services"
	"github.com/redbird/connect/internal/middleware"
)

// SocialController handles friendships, requests, blocks and bookmarks
type SocialController struct {
	social *services.SocialService
}

// NewSocialController creates a new SocialController
func NewSocialController(social *services.SocialService) *SocialController {
	return &SocialController{social: social}
}

// SendRequest sends a friend request to another student
func (c *SocialController) SendRequest(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	otherID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if !c.social.SendFriendRequest(ctx, studentID, otherID) {
		operationFailed(ctx, "Request failed; students may be blocked or already friends")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Friend request sent", Timestamp: time.Now()})
}

// AcceptRequest accepts a pending friend request
func (c *SocialController) AcceptRequest(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	fromID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if !c.social.AcceptFriendRequest(ctx, studentID, fromID) {
		operationFailed(ctx, "No pending request from that student")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Friend request accepted", Timestamp: time.Now()})
}

// DeclineRequest declines a pending friend request
func (c *SocialController) DeclineRequest(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	fromID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if !c.social.DeclineFriendRequest(ctx, studentID, fromID) {
		operationFailed(ctx, "No pending request from that student")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Friend request declined", Timestamp: time.Now()})
}

// Unfriend removes an existing friendship
func (c *SocialController) Unfriend(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	otherID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if !c.social.Unfriend(ctx, studentID, otherID) {
		operationFailed(ctx, "Students are not friends")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Friendship removed", Timestamp: time.Now()})
}

// Block blocks another student, removing any friendship and pending requests
func (c *SocialController) Block(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	otherID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if !c.social.Block(ctx, studentID, otherID) {
		operationFailed(ctx, "Block failed; student may already be blocked")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Student blocked", Timestamp: time.Now()})
}

// Unblock removes a block placed by the authenticated student
func (c *SocialController) Unblock(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	otherID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if !c.social.Unblock(ctx, studentID, otherID) {
		operationFailed(ctx, "Student is not blocked")
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Student unblocked", Timestamp: time.Now()})
}

// ListFriends lists the authenticated student's friends
func (c *SocialController) ListFriends(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.social.Friends(studentID)))
}

// ListBlocked lists the students blocked by the authenticated student
func (c *SocialController) ListBlocked(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.social.Blocked(studentID)))
}

// ListRequests lists pending incoming friend requests
func (c *SocialController) ListRequests(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.social.PendingRequests(studentID)))
}

// ListBookmarks lists the authenticated student's bookmarked posts
func (c *SocialController) ListBookmarks(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.social.Bookmarks(studentID)))
}
