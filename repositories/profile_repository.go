package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bekzat-dev/tournament-app/models"
	"github.com/lib/pq"
)

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrProfileUserInvalid = errors.New("profile user conflict or invalid")
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id int) (*models.Profile, error)
	// GetByIDForUser возвращает профиль только если он принадлежит userID.
	GetByIDForUser(ctx context.Context, id, userID int) (*models.Profile, error)
	ListByUser(ctx context.Context, userID int) ([]models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error
	Delete(ctx context.Context, id, userID int) error
}

type postgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

func (r *postgresProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, name, bio, avatar_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		profile.UserID,
		profile.Name,
		profile.Bio,
		profile.AvatarKey,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "profiles_user_id_fkey" {
				return ErrProfileUserInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresProfileRepository) GetByID(ctx context.Context, id int) (*models.Profile, error) {
	query := `
		SELECT id, user_id, name, bio, avatar_key, created_at, updated_at
		FROM profiles
		WHERE id = $1`
	return r.scanProfile(ctx, query, id)
}

func (r *postgresProfileRepository) GetByIDForUser(ctx context.Context, id, userID int) (*models.Profile, error) {
	query := `
		SELECT id, user_id, name, bio, avatar_key, created_at, updated_at
		FROM profiles
		WHERE id = $1 AND user_id = $2`
	return r.scanProfile(ctx, query, id, userID)
}

func (r *postgresProfileRepository) ListByUser(ctx context.Context, userID int) ([]models.Profile, error) {
	query := `
		SELECT id, user_id, name, bio, avatar_key, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
		ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		var profile models.Profile
		scanErr := rows.Scan(
			&profile.ID,
			&profile.UserID,
			&profile.Name,
			&profile.Bio,
			&profile.AvatarKey,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		profiles = append(profiles, profile)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

func (r *postgresProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	query := `
		UPDATE profiles SET
			name = $1,
			bio = $2,
			updated_at = now()
		WHERE id = $3 AND user_id = $4`

	result, err := r.db.ExecContext(ctx, query,
		profile.Name,
		profile.Bio,
		profile.ID,
		profile.UserID,
	)
	if err != nil {
		return err
	}

	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error {
	query := `
		UPDATE profiles SET
			avatar_key = $1,
			updated_at = now()
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, avatarKey, id)
	if err != nil {
		return err
	}

	return checkAffectedRows(result, ErrProfileNotFound)
}

// Delete удаляет профиль владельца; билеты профиля уходят каскадом по FK.
func (r *postgresProfileRepository) Delete(ctx context.Context, id, userID int) error {
	query := `DELETE FROM profiles WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) scanProfile(ctx context.Context, query string, args ...interface{}) (*models.Profile, error) {
	profile := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Name,
		&profile.Bio,
		&profile.AvatarKey,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}
