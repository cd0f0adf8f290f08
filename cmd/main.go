package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/planora/planora-backend/internal/handlers"
	"github.com/planora/planora-backend/internal/repository"
	"github.com/planora/planora-backend/internal/service/access"
	"github.com/planora/planora-backend/internal/service/activity"
	"github.com/planora/planora-backend/internal/service/comment"
	"github.com/planora/planora-backend/internal/service/invite"
	"github.com/planora/planora-backend/internal/service/issue"
	"github.com/planora/planora-backend/internal/service/notification"
	"github.com/planora/planora-backend/internal/service/project"
	"github.com/planora/planora-backend/internal/service/status"
	"github.com/planora/planora-backend/internal/service/subtask"
	"github.com/planora/planora-backend/internal/service/team"
	"github.com/planora/planora-backend/pkg/database"
	"github.com/planora/planora-backend/pkg/mailer"
	"github.com/planora/planora-backend/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: .env file not found: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	db, err := database.NewPostgresDB(database.Config{
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     os.Getenv("POSTGRES_PORT"),
		Username: os.Getenv("POSTGRES_USERNAME"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  os.Getenv("DB_SSL"),
	}, logger)
	if err != nil {
		logger.Error("failed to initialize db", "error", err.Error())
		os.Exit(1)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		logger.Error("migration driver error", slog.Any("error", err))
		os.Exit(1)
	}
	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("migrate init error", slog.Any("error", err))
		os.Exit(1)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Error("migration error", slog.Any("error", err))
		os.Exit(1)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed gracefully")
		}
	}()

	dbInstance := database.NewDB(db)
	txManager, err := database.NewTransactionManager(db)
	if err != nil {
		logger.Error("error creating transaction manager", slog.Any("error", err))
		os.Exit(1)
	}

	teamRepo := repository.NewTeamRepository(dbInstance)
	memberRepo := repository.NewMemberRepository(dbInstance)
	userRepo := repository.NewUserRepository(dbInstance)
	inviteRepo := repository.NewInviteRepository(dbInstance)
	projectRepo := repository.NewProjectRepository(dbInstance)
	favoriteRepo := repository.NewFavoriteRepository(dbInstance)
	statusRepo := repository.NewStatusRepository(dbInstance)
	issueRepo := repository.NewIssueRepository(dbInstance)
	labelRepo := repository.NewLabelRepository(dbInstance)
	subtaskRepo := repository.NewSubtaskRepository(dbInstance)
	historyRepo := repository.NewHistoryRepository(dbInstance)
	commentRepo := repository.NewCommentRepository(dbInstance)
	activityRepo := repository.NewActivityRepository(dbInstance)
	notificationRepo := repository.NewNotificationRepository(dbInstance)

	resolver := access.NewResolver(memberRepo, projectRepo, issueRepo)
	inviteMailer := mailer.NewLogMailer(logger)

	services := &handlers.Services{
		Teams:         team.NewTeamService(teamRepo, memberRepo, activityRepo, notificationRepo, resolver, txManager, logger),
		Invites:       invite.NewInviteService(inviteRepo, memberRepo, userRepo, teamRepo, activityRepo, notificationRepo, resolver, inviteMailer, txManager, logger),
		Projects:      project.NewProjectService(projectRepo, statusRepo, favoriteRepo, activityRepo, resolver, txManager, logger),
		Statuses:      status.NewStatusService(statusRepo, issueRepo, projectRepo, resolver, txManager, logger),
		Issues:        issue.NewIssueService(issueRepo, statusRepo, labelRepo, subtaskRepo, historyRepo, projectRepo, notificationRepo, resolver, txManager, logger),
		Subtasks:      subtask.NewSubtaskService(subtaskRepo, issueRepo, projectRepo, resolver, txManager, logger),
		Comments:      comment.NewCommentService(commentRepo, issueRepo, projectRepo, notificationRepo, resolver, txManager, logger),
		Activity:      activity.NewActivityService(activityRepo, resolver, logger),
		Notifications: notification.NewNotificationService(notificationRepo, logger),
	}

	handler := handlers.NewHandler(services, logger)

	srv := new(server.Server)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.Run(os.Getenv("SERVER_PORT"), handler.InitRoutes()); err != nil {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-quit:
		logger.Info("gracefully shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("error occured on server shutting down", slog.Any("error", err))
		}
		logger.Info("server stopped gracefully")
	case err := <-serverErrors:
		logger.Error("error occured while running server", slog.Any("error", err))
		os.Exit(1)
	}
}
