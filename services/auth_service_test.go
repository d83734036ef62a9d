package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bekzat-dev/tournament-app/models"
	"github.com/bekzat-dev/tournament-app/repositories"
)

func newAuthService(t *testing.T) (AuthService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewAuthService(repositories.NewPostgresUserRepository(db)), mock
}

func TestAuthService_Register(t *testing.T) {
	t.Run("creates user with hashed password and user role", func(t *testing.T) {
		service, mock := newAuthService(t)

		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("alice@example.com", sqlmock.AnyArg(), string(models.RoleUser)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))

		user, err := service.Register(context.Background(), RegisterInput{
			Email:    " Alice@Example.com ",
			Password: "secret123",
		})
		require.NoError(t, err)
		require.Equal(t, 1, user.ID)
		require.Equal(t, "alice@example.com", user.Email)
		require.Equal(t, models.RoleUser, user.Role)
		require.Empty(t, user.PasswordHash)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		service, mock := newAuthService(t)

		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("alice@example.com", sqlmock.AnyArg(), string(models.RoleUser)).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		_, err := service.Register(context.Background(), RegisterInput{
			Email:    "alice@example.com",
			Password: "secret123",
		})
		require.ErrorIs(t, err, ErrUserEmailConflict)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("validates input before touching the database", func(t *testing.T) {
		tests := []struct {
			name    string
			input   RegisterInput
			wantErr error
		}{
			{"missing email", RegisterInput{Password: "secret123"}, ErrValidationFailed},
			{"email without at sign", RegisterInput{Email: "alice.example.com", Password: "secret123"}, ErrValidationFailed},
			{"short password", RegisterInput{Email: "alice@example.com", Password: "12345"}, ErrPasswordTooShort},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				service, mock := newAuthService(t)

				_, err := service.Register(context.Background(), tc.input)
				require.ErrorIs(t, err, tc.wantErr)

				require.NoError(t, mock.ExpectationsWereMet())
			})
		}
	})
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	userRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at"}).
			AddRow(1, "alice@example.com", string(hash), string(models.RoleUser), time.Now())
	}

	t.Run("successful login clears password hash", func(t *testing.T) {
		service, mock := newAuthService(t)

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("alice@example.com").
			WillReturnRows(userRow())

		user, err := service.Login(context.Background(), LoginInput{
			Email:    "Alice@Example.com",
			Password: "secret123",
		})
		require.NoError(t, err)
		require.Equal(t, 1, user.ID)
		require.Empty(t, user.PasswordHash)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password", func(t *testing.T) {
		service, mock := newAuthService(t)

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("alice@example.com").
			WillReturnRows(userRow())

		_, err := service.Login(context.Background(), LoginInput{
			Email:    "alice@example.com",
			Password: "wrong-password",
		})
		require.ErrorIs(t, err, ErrInvalidCredentials)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown email", func(t *testing.T) {
		service, mock := newAuthService(t)

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at"}))

		_, err := service.Login(context.Background(), LoginInput{
			Email:    "nobody@example.com",
			Password: "secret123",
		})
		require.ErrorIs(t, err, ErrInvalidCredentials)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}
