package repository

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// UserRepository handles user account data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userSelect = `SELECT u.id, u.email, u.name, u.password_hash, u.role,
	COALESCE(ARRAY(SELECT us.student_id FROM user_students us WHERE us.user_id = u.id ORDER BY us.student_id), '{}'),
	u.created_at, u.updated_at
	FROM users u`

func scanUser(row pgx.Row, u *model.User) error {
	var studentIDs []int32
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &studentIDs, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	u.StudentIDs = make([]int, len(studentIDs))
	for i, id := range studentIDs {
		u.StudentIDs[i] = int(id)
	}
	return nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	if err := scanUser(r.pool.QueryRow(ctx, userSelect+` WHERE LOWER(u.email) = LOWER($1)`, email), u); err != nil {
		return nil, translatePgError(err)
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	u := &model.User{}
	if err := scanUser(r.pool.QueryRow(ctx, userSelect+` WHERE u.id = $1`, id), u); err != nil {
		return nil, translatePgError(err)
	}
	return u, nil
}

// Create inserts a user and links it to its students in one transaction.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, role) VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		u.Email, u.Name, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return translatePgError(err)
	}

	for _, sid := range u.StudentIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_students (user_id, student_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			u.ID, sid); err != nil {
			return translatePgError(err)
		}
	}
	return tx.Commit(ctx)
}

// ListPaginated retrieves users, optionally filtered by role.
func (r *UserRepository) ListPaginated(ctx context.Context, role *model.Role, limit, offset int) ([]model.User, int, error) {
	where := ``
	var args []interface{}
	if role != nil {
		where = ` WHERE u.role = $1`
		args = append(args, *role)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users u`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limitIdx := len(args) + 1
	query := userSelect + where + ` ORDER BY u.name LIMIT $` + strconv.Itoa(limitIdx) + ` OFFSET $` + strconv.Itoa(limitIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// ContactsForStudent returns the email recipients of a student's result
// notifications: the student (if it has an email) and every linked account.
func (r *UserRepository) ContactsForStudent(ctx context.Context, studentID int) ([]model.Contact, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.name, s.email, 'student' FROM students s
		 WHERE s.id = $1 AND s.email IS NOT NULL AND s.email <> ''
		 UNION
		 SELECT u.name, u.email, u.role FROM users u
		 JOIN user_students us ON us.user_id = u.id
		 WHERE us.student_id = $1`,
		studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.Name, &c.Email, &c.Role); err != nil {
			return nil, err
		}
		if seen[c.Email] {
			continue
		}
		seen[c.Email] = true
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
