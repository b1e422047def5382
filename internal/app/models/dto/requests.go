package dto

import "time"

// RegisterRequest is the payload for account registration
type RegisterRequest struct {
	Username string  `json:"username" binding:"required,min=3,max=64"`
	Name     string  `json:"name" binding:"required,max=128"`
	Password string  `json:"password" binding:"required,min=8"`
	Year     string  `json:"year" binding:"required"`
	Email    *string `json:"email,omitempty" binding:"omitempty,email"`
}

// LoginRequest is the payload for credential login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// UpdateProfileRequest edits a student's own profile
type UpdateProfileRequest struct {
	Name      string  `json:"name" binding:"required,max=128"`
	Year      string  `json:"year" binding:"required"`
	Email     *string `json:"email,omitempty" binding:"omitempty,email"`
	Anonymous bool    `json:"anonymous"`
}

// CreateGroupRequest creates a group; the creator joins as first member
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,max=128"`
	Description string `json:"description" binding:"max=1024"`
}

// UpdateGroupRequest edits a group's descriptive fields
type UpdateGroupRequest struct {
	Name        string `json:"name" binding:"required,max=128"`
	Description string `json:"description" binding:"max=1024"`
}

// MembershipEndDateRequest is the administrative end-date override
type MembershipEndDateRequest struct {
	StudentID int64     `json:"studentId" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
}

// CreateTagRequest creates an interest tag
type CreateTagRequest struct {
	Name        string `json:"name" binding:"required,max=64"`
	Description string `json:"description" binding:"max=512"`
}

// UpdateTagRequest edits a tag
type UpdateTagRequest struct {
	Name        string `json:"name" binding:"required,max=64"`
	Description string `json:"description" binding:"max=512"`
}

// CreatePostRequest authors a post
type CreatePostRequest struct {
	Content string `json:"content" binding:"required,max=4096"`
}

// UpdatePostRequest edits a post's content
type UpdatePostRequest struct {
	Content string `json:"content" binding:"required,max=4096"`
}

// SharePostRequest shares a post into a group
type SharePostRequest struct {
	GroupID int64 `json:"groupId" binding:"required"`
}
