package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskmanager/internal/auth"
	"taskmanager/internal/config"
	"taskmanager/internal/handler"
	"taskmanager/internal/logger"
	"taskmanager/internal/middleware"
	"taskmanager/internal/repository"
	"taskmanager/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

const limiterSweepInterval = time.Minute

type Server struct {
	Engine  *gin.Engine
	DB      *gorm.DB
	Config  *config.Config
	limiter *middleware.RateLimiter
}

// Init connects to the database, migrates and seeds it, and builds the router.
func Init(cfg *config.Config) (*Server, error) {
	db, err := repository.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	logger.Info().Str("driver", cfg.DBDriver).Msg("connected to database")

	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	if err := repository.Seed(context.Background(), db); err != nil {
		return nil, fmt.Errorf("failed to seed DB: %w", err)
	}

	return New(cfg, db), nil
}

// New wires repositories, services and handlers over db.
func New(cfg *config.Config, db *gorm.DB) *Server {
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	r.Use(limiter.Middleware())

	store := repository.NewStore(db)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	userHandler := handler.NewUserHandler(store.Users, tokens)
	groupHandler := handler.NewWorkGroupHandler(service.NewWorkGroupService(store), service.NewMembershipService(store))
	projectHandler := handler.NewProjectHandler(service.NewProjectService(store))
	taskHandler := handler.NewTaskHandler(service.NewTaskService(store), service.NewCommentService(store))
	refHandler := handler.NewReferenceHandler(service.NewStatusService(store), service.NewPriorityService(store))

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(tokens))
	{
		groups := api.Group("/work-groups")
		groups.POST("", groupHandler.Create)
		groups.GET("", groupHandler.List)
		groups.GET("/mine", groupHandler.Mine)
		groups.GET("/:id", groupHandler.Get)
		groups.PUT("/:id", groupHandler.Update)
		groups.DELETE("/:id", groupHandler.Delete)

		groups.GET("/:id/members", groupHandler.ListMembers)
		groups.POST("/:id/members", groupHandler.AddMember)
		groups.DELETE("/:id/members/:username", groupHandler.RemoveMember)
		groups.POST("/:id/leave", groupHandler.Leave)
		groups.POST("/:id/moderators/:username", groupHandler.Promote)
		groups.DELETE("/:id/moderators/:username", groupHandler.Demote)
		groups.POST("/:id/transfer-ownership", groupHandler.TransferOwnership)

		groups.POST("/:id/projects", projectHandler.Create)
		groups.GET("/:id/projects", projectHandler.ListByGroup)
		groups.POST("/:id/projects/:projectId/tasks", taskHandler.Create)
		groups.POST("/:id/projects/:projectId/tasks/:taskId/subtasks", taskHandler.CreateSubTask)
		groups.GET("/:id/tasks", taskHandler.ListByGroup)

		groups.GET("/:id/statuses", refHandler.ListStatuses)
		groups.POST("/:id/statuses", refHandler.CreateStatus)
		groups.PUT("/:id/statuses/:statusId", refHandler.UpdateStatus)
		groups.DELETE("/:id/statuses/:statusId", refHandler.DeleteStatus)

		projects := api.Group("/projects")
		projects.GET("/assigned", projectHandler.Assigned)
		projects.GET("/mine", projectHandler.Mine)
		projects.GET("/:id", projectHandler.Get)
		projects.PUT("/:id", projectHandler.Update)
		projects.DELETE("/:id", projectHandler.Delete)
		projects.POST("/:id/assign-users", projectHandler.AssignUsers)
		projects.GET("/:id/members", projectHandler.ListMembers)
		projects.DELETE("/:id/members/:userId", projectHandler.UnassignUser)
		projects.GET("/:id/tasks", taskHandler.ListByProject)
		projects.GET("/:id/tasks/archived", taskHandler.ListArchivedByProject)

		tasks := api.Group("/tasks")
		tasks.GET("/assigned", taskHandler.Assigned)
		tasks.GET("/created", taskHandler.Created)
		tasks.GET("/:id", taskHandler.Get)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.DELETE("/:id", taskHandler.Delete)
		tasks.POST("/:id/archive", taskHandler.Archive)
		tasks.POST("/:id/unarchive", taskHandler.Unarchive)
		tasks.GET("/:id/assignees", taskHandler.ListAssignees)
		tasks.POST("/:id/assignees", taskHandler.Assign)
		tasks.DELETE("/:id/assignees", taskHandler.Unassign)
		tasks.GET("/:id/subtasks", taskHandler.ListSubTasks)
		tasks.GET("/:id/comments", taskHandler.ListComments)
		tasks.POST("/:id/comments", taskHandler.AddComment)

		priorities := api.Group("/priorities")
		priorities.GET("", refHandler.ListPriorities)
		priorities.POST("", refHandler.CreatePriority)
		priorities.PUT("/:id", refHandler.UpdatePriority)
		priorities.DELETE("/:id", refHandler.DeletePriority)
		priorities.POST("/:id/hide", refHandler.HidePriority)
		priorities.POST("/:id/unhide", refHandler.UnhidePriority)
	}

	return &Server{
		Engine:  r,
		DB:      db,
		Config:  cfg,
		limiter: limiter,
	}
}

func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)
	go s.limiter.Run(limiterSweepInterval, done)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", s.Config.ServerPort).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("failed to listen: %w", err)
	case <-quit:
	}
	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info().Msg("server exited properly")
	return nil
}
