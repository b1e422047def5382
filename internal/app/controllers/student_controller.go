package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redbird/connect/internal/app/models"
	"github.com/redbird/connect/internal/app/models/dto"
	"github.com/redbird/connect/internal/app/repositories"
	"github.com/redbird/connect/internal/app/services"
	"github.com/redbird/connect/internal/middleware"
)

// StudentController handles student profile and directory operations
type StudentController struct {
	students  *repositories.StudentRepository
	directory *services.DirectoryService
	tagging   *services.TaggingService
}

// NewStudentController creates a new StudentController
func NewStudentController(students *repositories.StudentRepository, directory *services.DirectoryService, tagging *services.TaggingService) *StudentController {
	return &StudentController{
		students:  students,
		directory: directory,
		tagging:   tagging,
	}
}

// pathID parses an int64 path parameter, writing a 400 response on failure
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name)
		errorDetail = errorDetail.WithDetails(name + " must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// notFound writes the standard 404 response
func notFound(ctx *gin.Context, what string) {
	ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, what+" not found")))
}

// operationFailed writes the standard 422 response for rejected mutations
func operationFailed(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeOperationFailed, message)))
}

// GetStudent retrieves a student by ID
func (c *StudentController) GetStudent(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	student, ok := c.students.GetByID(id)
	if !ok {
		notFound(ctx, "Student")
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(student))
}

// SearchStudents searches students by name substring (?name=) or lists all
func (c *StudentController) SearchStudents(ctx *gin.Context) {
	if name := ctx.Query("name"); name != "" {
		ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.directory.SearchStudents(name)))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.students.ListAll()))
}

// UpdateProfile edits the authenticated student's own profile
func (c *StudentController) UpdateProfile(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)

	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid profile data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	year := models.ClassYear(req.Year)
	if !year.Valid() {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid class year")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	current, ok := c.students.GetByID(studentID)
	if !ok {
		notFound(ctx, "Student")
		return
	}

	current.Name = req.Name
	current.Year = year
	current.Email = req.Email
	current.Anonymous = req.Anonymous
	if !c.students.Update(ctx, current) {
		operationFailed(ctx, "Profile update failed")
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(current))
}

// DeleteAccount removes the authenticated student and all dependent data
func (c *StudentController) DeleteAccount(ctx *gin.Context) {
	studentID, _ := middleware.StudentIDFromContext(ctx)

	if !c.students.Remove(ctx, studentID) {
		operationFailed(ctx, "Account removal failed")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// GetStudentTags lists the tags assigned to a student
func (c *StudentController) GetStudentTags(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if _, exists := c.students.GetByID(id); !exists {
		notFound(ctx, "Student")
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.tagging.TagsFor(id)))
}

// GetStudentGroups lists the groups a student is an active member of
func (c *StudentController) GetStudentGroups(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if _, exists := c.students.GetByID(id); !exists {
		notFound(ctx, "Student")
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.directory.GroupsOfStudent(id)))
}

// GetStudentPosts lists a student's posts
func (c *StudentController) GetStudentPosts(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if _, exists := c.students.GetByID(id); !exists {
		notFound(ctx, "Student")
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.directory.PostsByStudent(id)))
}
