package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/database"
	"github.com/stemsi/schoolhub-backend/internal/logger"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stemsi/schoolhub-backend/internal/service"
)

const seedPassword = "schoolhub123"

// seed fills a freshly migrated database with a classroom, its subjects,
// students, one account per role and an exam.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	subjectRepo := repository.NewSubjectRepository(pool)
	classroomRepo := repository.NewClassroomRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	examRepo := repository.NewExamRepository(pool)

	authService := service.NewAuthService(cfg, nil, userRepo)
	userService := service.NewUserService(userRepo, authService, log)
	classroomService := service.NewClassroomService(classroomRepo, userRepo)

	fmt.Println("=== Seeding SchoolHub ===")

	// ─── Subjects ──────────────────────────────────────────────────────
	subjects := []model.Subject{
		{Code: "MTK", Name: "Matematika"},
		{Code: "FIS", Name: "Fisika"},
		{Code: "BIND", Name: "Bahasa Indonesia"},
		{Code: "BING", Name: "Bahasa Inggris"},
	}
	var subjectIDs []int
	for i := range subjects {
		if err := subjectRepo.Create(ctx, &subjects[i]); err != nil {
			log.Fatal().Err(err).Str("code", subjects[i].Code).Msg("Failed to create subject")
		}
		subjectIDs = append(subjectIDs, subjects[i].ID)
	}
	fmt.Printf("Created %d subjects\n", len(subjects))

	// ─── Classroom ─────────────────────────────────────────────────────
	classroom := &model.Classroom{
		Name:         "XII IPA 1",
		GradeLevel:   12,
		AcademicYear: "2025/2026",
		SubjectIDs:   subjectIDs,
	}
	if err := classroomService.Create(ctx, classroom); err != nil {
		log.Fatal().Err(err).Msg("Failed to create classroom")
	}
	fmt.Printf("Created classroom %s with ID: %d\n", classroom.Name, classroom.ID)

	// ─── Students ──────────────────────────────────────────────────────
	names := []string{
		"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
		"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
	}
	var studentIDs []int
	for i, name := range names {
		student := &model.Student{
			AdmissionNo: fmt.Sprintf("2025%04d", i+1),
			Name:        name,
			Gender:      model.GenderMale,
			ClassroomID: classroom.ID,
		}
		if i%2 != 0 {
			student.Gender = model.GenderFemale
		}
		if err := studentRepo.Create(ctx, student); err != nil {
			fmt.Printf("Error creating student %s: %v\n", student.Name, err)
			continue
		}
		studentIDs = append(studentIDs, student.ID)
	}
	fmt.Printf("Created %d/%d students\n", len(studentIDs), len(names))

	// ─── Accounts ──────────────────────────────────────────────────────
	accounts := []model.CreateUserRequest{
		{Email: "kepsek@schoolhub.local", Name: "Kepala Sekolah", Role: model.RoleHeadTeacher},
		{Email: "guru@schoolhub.local", Name: "Guru Matematika", Role: model.RoleTeacher},
		{Email: "keuangan@schoolhub.local", Name: "Staf Keuangan", Role: model.RoleAccounts},
	}
	if len(studentIDs) > 0 {
		accounts = append(accounts,
			model.CreateUserRequest{Email: "ortu@schoolhub.local", Name: "Orang Tua Budi", Role: model.RoleParent, StudentIDs: studentIDs[:1]},
			model.CreateUserRequest{Email: "budi@schoolhub.local", Name: "Budi Santoso", Role: model.RoleStudent, StudentIDs: studentIDs[:1]},
		)
	}

	ids := make(map[model.Role]int)
	for _, req := range accounts {
		req.Password = seedPassword
		user, err := userService.Create(ctx, req)
		if errors.Is(err, repository.ErrDuplicate) {
			fmt.Printf("User %s already exists, skipping\n", req.Email)
			if user, err = userRepo.GetByEmail(ctx, req.Email); err != nil {
				log.Fatal().Err(err).Str("email", req.Email).Msg("Failed to load existing user")
			}
			ids[user.Role] = user.ID
			continue
		}
		if err != nil {
			log.Fatal().Err(err).Str("email", req.Email).Msg("Failed to create user")
		}
		ids[user.Role] = user.ID
		fmt.Printf("Created %s %s (ID: %d)\n", user.Role, user.Email, user.ID)
	}

	if teacherID := ids[model.RoleTeacher]; teacherID != 0 {
		err := classroomService.AssignTeacher(ctx, model.TeacherAssignment{
			TeacherID:   teacherID,
			ClassroomID: classroom.ID,
			SubjectID:   subjectIDs[0],
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to assign teacher")
		}
		fmt.Println("Assigned teacher to Matematika")
	}

	// ─── Exam ──────────────────────────────────────────────────────────
	exam := &model.Exam{
		Title:        "Ujian Tengah Semester 1",
		Term:         1,
		AcademicYear: classroom.AcademicYear,
		CreatedBy:    ids[model.RoleHeadTeacher],
	}
	if err := examRepo.Create(ctx, exam); err != nil {
		log.Fatal().Err(err).Msg("Failed to create exam")
	}
	fmt.Printf("Created exam %q with ID: %s\n", exam.Title, exam.ID)

	fmt.Printf("\nSeed completed! Every account uses the password %q.\n", seedPassword)
}
