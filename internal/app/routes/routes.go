package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redbird/connect/internal/app/controllers"
	"github.com/redbird/connect/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	studentController *controllers.StudentController,
	groupController *controllers.GroupController,
	tagController *controllers.TagController,
	postController *controllers.PostController,
	socialController *controllers.SocialController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.Refresh)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", authController.Logout)

		// Student directory and own profile
		students := authenticated.Group("/students")
		{
			students.GET("", studentController.SearchStudents)
			students.GET("/:id", studentController.GetStudent)
			students.GET("/:id/tags", studentController.GetStudentTags)
			students.GET("/:id/groups", studentController.GetStudentGroups)
			students.GET("/:id/posts", studentController.GetStudentPosts)
			students.PUT("/me", studentController.UpdateProfile)
			students.DELETE("/me", studentController.DeleteAccount)
		}

		// Groups and memberships
		groups := authenticated.Group("/groups")
		{
			groups.GET("", groupController.ListGroups)
			groups.GET("/:id", groupController.GetGroup)
			groups.POST("", groupController.CreateGroup)
			groups.PUT("/:id", groupController.UpdateGroup)
			groups.DELETE("/:id", groupController.DeleteGroup)
			groups.POST("/:id/join", groupController.JoinGroup)
			groups.POST("/:id/leave", groupController.LeaveGroup)
			groups.PUT("/:id/membership-end", groupController.SetMembershipEnd)
			groups.GET("/:id/members", groupController.GetGroupMembers)
			groups.GET("/:id/posts", groupController.GetGroupPosts)
		}

		// Interest tags
		tags := authenticated.Group("/tags")
		{
			tags.GET("", tagController.ListTags)
			tags.GET("/:id", tagController.GetTag)
			tags.POST("", tagController.CreateTag)
			tags.PUT("/:id", tagController.UpdateTag)
			tags.DELETE("/:id", tagController.DeleteTag)
			tags.POST("/:id/assign", tagController.AssignTag)
			tags.POST("/:id/unassign", tagController.UnassignTag)
			tags.GET("/:id/students", tagController.GetTaggedStudents)
		}

		// Posts, sharing and bookmarks
		posts := authenticated.Group("/posts")
		{
			posts.GET("/:id", postController.GetPost)
			posts.POST("", postController.CreatePost)
			posts.PUT("/:id", postController.UpdatePost)
			posts.DELETE("/:id", postController.DeletePost)
			posts.POST("/:id/share", postController.SharePost)
			posts.DELETE("/:id/share/:groupId", postController.WithdrawPost)
			posts.POST("/:id/bookmark", postController.BookmarkPost)
			posts.DELETE("/:id/bookmark", postController.UnbookmarkPost)
		}

		// Social graph
		social := authenticated.Group("/social")
		{
			social.POST("/requests/:id", socialController.SendRequest)
			social.POST("/requests/:id/accept", socialController.AcceptRequest)
			social.POST("/requests/:id/decline", socialController.DeclineRequest)
			social.GET("/requests", socialController.ListRequests)
			social.DELETE("/friends/:id", socialController.Unfriend)
			social.GET("/friends", socialController.ListFriends)
			social.POST("/blocks/:id", socialController.Block)
			social.DELETE("/blocks/:id", socialController.Unblock)
			social.GET("/blocks", socialController.ListBlocked)
			social.GET("/bookmarks", socialController.ListBookmarks)
		}
	}
}
