package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/redbird/connect/internal/app/controllers"
	appMigrations "github.com/redbird/connect/internal/app/migrations"
	appRepos "github.com/redbird/connect/internal/app/repositories"
	appRoutes "github.com/redbird/connect/internal/app/routes"
	appServices "github.com/redbird/connect/internal/app/services"
	"github.com/redbird/connect/internal/config"
	appMiddleware "github.com/redbird/connect/internal/middleware"
	pkgAuth "github.com/redbird/connect/internal/pkg/auth"
	"github.com/redbird/connect/internal/pkg/logger"
	"github.com/redbird/connect/internal/store"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store             *store.PgStore
	Repos             *appRepos.Repositories
	Services          *appServices.Services
	JWTService        *pkgAuth.JWTService
	AuthController    *appControllers.AuthController
	StudentController *appControllers.StudentController
	GroupController   *appControllers.GroupController
	TagController     *appControllers.TagController
	PostController    *appControllers.PostController
	SocialController  *appControllers.SocialController
	AuthMiddleware    *appMiddleware.AuthMiddleware
	Logger            zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// RunMigrations applies schema migrations over a short-lived connection,
// separate from the store's shared one.
func RunMigrations(cfg *config.Config, lgr zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, cfg.GetPostgresConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect for migrations: %w", err)
	}
	defer conn.Close(ctx)

	migrator := appMigrations.NewMigrator(conn, lgr)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

// SetupStore creates the store adapter and opens its shared connection.
func SetupStore(cfg *config.Config, lgr zerolog.Logger) (*store.PgStore, error) {
	st := store.NewPgStore(cfg, lgr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !st.Connect(ctx) {
		return nil, fmt.Errorf("failed to connect to database")
	}

	lgr.Info().Msg("Database connection successfully established.")
	return st, nil
}

// BuildDependencies initializes repositories, services and controllers.
// Repositories warm their caches from the store here.
func BuildDependencies(cfg *config.Config, st *store.PgStore, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Store: st, Logger: lgr}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  parseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: parseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.Repos = appRepos.NewRepositories(st, lgr)
	deps.Services = appServices.NewServices(st, deps.Repos, deps.JWTService, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.Services.Auth)
	deps.StudentController = appControllers.NewStudentController(deps.Repos.Students, deps.Services.Directory, deps.Services.Tagging)
	deps.GroupController = appControllers.NewGroupController(deps.Repos.Groups, deps.Services.Memberships, deps.Services.Directory)
	deps.TagController = appControllers.NewTagController(deps.Repos.Tags, deps.Services.Tagging, deps.Services.Directory)
	deps.PostController = appControllers.NewPostController(deps.Repos.Posts, deps.Services.Social)
	deps.SocialController = appControllers.NewSocialController(deps.Services.Social)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.Default()

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.StudentController,
		deps.GroupController,
		deps.TagController,
		deps.PostController,
		deps.SocialController,
		deps.AuthMiddleware,
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
