package postgres

import (
	"database/sql"
	"fmt"

	"github.com/BrightonDube/bizpilot-session/internal/domain"
)

type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// CreateUser inserts a new user and returns its ID
func (r *UserRepo) CreateUser(username, name, email, passwordHash string) (int64, error) {
	query := `
	INSERT INTO users (username, name, email, password_hash)
	VALUES ($1, $2, $3, $4)
	RETURNING id;
	`
	var id int64
	err := r.DB.QueryRow(query, username, name, email, passwordHash).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %v", err)
	}
	return id, nil
}

// GetUserByIdentifier looks a user up by username or email
func (r *UserRepo) GetUserByIdentifier(identifier string) (*domain.User, error) {
	query := `
	SELECT id, username, name, email, password_hash, google_id, created_at
	FROM users
	WHERE username = $1 OR email = $1;
	`
	return r.scanUser(r.DB.QueryRow(query, identifier))
}

// GetUserByID looks a user up by primary key
func (r *UserRepo) GetUserByID(id int64) (*domain.User, error) {
	query := `
	SELECT id, username, name, email, password_hash, google_id, created_at
	FROM users
	WHERE id = $1;
	`
	return r.scanUser(r.DB.QueryRow(query, id))
}

// GetUserByEmail looks a user up by email
func (r *UserRepo) GetUserByEmail(email string) (*domain.User, error) {
	query := `
	SELECT id, username, name, email, password_hash, google_id, created_at
	FROM users
	WHERE email = $1;
	`
	return r.scanUser(r.DB.QueryRow(query, email))
}

// UpdateUserGoogleID links a Google account to an existing user
func (r *UserRepo) UpdateUserGoogleID(email, googleID string) error {
	query := `
	UPDATE users
	SET google_id = $2
	WHERE email = $1;
	`
	_, err := r.DB.Exec(query, email, googleID)
	if err != nil {
		return fmt.Errorf("failed to link google id: %v", err)
	}
	return nil
}

func (r *UserRepo) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.GoogleID,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	return &user, nil
}
