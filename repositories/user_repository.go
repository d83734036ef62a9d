package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bekzat-dev/tournament-app/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int) error
	ListWithProfiles(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_email_key" {
				return ErrUserEmailConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

func (r *postgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			email = $1,
			password_hash = $2,
			role = $3
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_email_key" {
				return ErrUserEmailConflict
			}
		}
		return err
	}

	return checkAffectedRows(result, ErrUserNotFound)
}

// Delete удаляет пользователя; профили и их билеты уходят каскадом по FK.
func (r *postgresUserRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

// ListWithProfiles возвращает всех пользователей вместе с их профилями.
func (r *postgresUserRepository) ListWithProfiles(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT
			u.id, u.email, u.password_hash, u.role, u.created_at,
			p.id, p.user_id, p.name, p.bio, p.avatar_key, p.created_at, p.updated_at
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		ORDER BY u.id ASC, p.id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	index := make(map[int]int) // user id -> позиция в users

	for rows.Next() {
		var user models.User
		var profileID, profileUserID sql.NullInt64
		var profileName, profileBio, profileAvatarKey sql.NullString
		var profileCreatedAt, profileUpdatedAt sql.NullTime

		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.CreatedAt,
			&profileID,
			&profileUserID,
			&profileName,
			&profileBio,
			&profileAvatarKey,
			&profileCreatedAt,
			&profileUpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user with profiles: %w", err)
		}

		pos, seen := index[user.ID]
		if !seen {
			users = append(users, user)
			pos = len(users) - 1
			index[user.ID] = pos
		}

		if profileID.Valid {
			profile := models.Profile{
				ID:        int(profileID.Int64),
				UserID:    int(profileUserID.Int64),
				Name:      profileName.String,
				CreatedAt: profileCreatedAt.Time,
				UpdatedAt: profileUpdatedAt.Time,
			}
			if profileBio.Valid {
				bio := profileBio.String
				profile.Bio = &bio
			}
			if profileAvatarKey.Valid {
				key := profileAvatarKey.String
				profile.AvatarKey = &key
			}
			users[pos].Profiles = append(users[pos].Profiles, profile)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *postgresUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresUserRepository) scanUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
