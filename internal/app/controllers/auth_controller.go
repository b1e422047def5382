package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redbird/connect/internal/app/models"
	"github.com/redbird/connect/internal/app/models/dto"
	"github.com/redbird/connect/internal/app/services"
	"github.com/redbird/connect/internal/middleware"
)

// AuthController handles registration, login and token refresh
type AuthController struct {
	authService *services.AuthService
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Register creates a new student account
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid registration data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	year := models.ClassYear(req.Year)
	if !year.Valid() {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid class year")
		errorDetail = errorDetail.WithDetails("Year must be FRESHMAN, SOPHOMORE, JUNIOR or SENIOR")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	student, ok := c.authService.Register(ctx, req.Username, req.Name, req.Password, year, req.Email)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeOperationFailed, "Registration failed")
		errorDetail = errorDetail.WithDetails("Username may already be taken")
		ctx.JSON(http.StatusConflict, dto.NewErrorResponse(errorDetail))
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(student))
}

// Login authenticates a student and issues a token pair
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid login data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	pair, err := c.authService.Login(req.Username, req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(pair))
}

// Refresh exchanges a refresh token for a new token pair
func (c *AuthController) Refresh(ctx *gin.Context) {
	var req dto.RefreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid refresh data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	pair, err := c.authService.Refresh(req.RefreshToken)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(pair))
}

// Logout revokes all refresh tokens for the authenticated student
func (c *AuthController) Logout(ctx *gin.Context) {
	studentID, ok := middleware.StudentIDFromContext(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	c.authService.RevokeAllFor(studentID)
	ctx.JSON(http.StatusOK, dto.APIResponse{Message: "Logged out", Timestamp: time.Now()})
}
