package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/database"
	"github.com/stemsi/schoolhub-backend/internal/logger"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	var roleFlag, studentsFlag string
	flag.StringVar(&roleFlag, "role", string(model.RoleAdmin), "Role of the new user")
	flag.StringVar(&studentsFlag, "students", "", "Comma-separated student IDs (parent and student roles only)")
	flag.Parse()

	role := model.Role(roleFlag)
	if !role.Valid() {
		fmt.Printf("Error: unknown role %q\n", roleFlag)
		os.Exit(2)
	}
	studentIDs, err := parseIDs(studentsFlag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(2)
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	authService := service.NewAuthService(cfg, nil, userRepo)
	userService := service.NewUserService(userRepo, authService, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("=== Create New %s User ===\n", role)

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		fmt.Println("Error: Name must be at least 2 characters")
		return
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	password := string(bytePassword)
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	user, err := userService.Create(ctx, model.CreateUserRequest{
		Email:      email,
		Name:       name,
		Password:   password,
		Role:       role,
		StudentIDs: studentIDs,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! %s '%s' (%s) created with ID: %d\n", user.Role, user.Name, user.Email, user.ID)
}

func parseIDs(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id < 1 {
			return nil, fmt.Errorf("invalid student ID %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
