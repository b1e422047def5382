package apperrors

import "errors"

// Common errors
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrInvalidFormat      = errors.New("invalid token format")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
)

// Student errors
var (
	ErrStudentNotFound       = errors.New("student not found")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrInvalidClassYear      = errors.New("invalid class year")
)

// Group errors
var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrGroupNameExists = errors.New("group with this name already exists")
	ErrGroupHasMembers = errors.New("group still has active members")
)

// Tag errors
var (
	ErrTagNotFound   = errors.New("tag not found")
	ErrTagNameExists = errors.New("tag with this name already exists")
)

// Post errors
var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotPostOwner = errors.New("post belongs to another student")
)

// Social errors
var (
	ErrStudentBlocked  = errors.New("student is blocked")
	ErrAlreadyFriends  = errors.New("students are already friends")
	ErrRequestNotFound = errors.New("friend request not found")
)
