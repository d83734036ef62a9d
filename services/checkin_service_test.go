package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/bekzat-dev/tournament-app/models"
	"github.com/bekzat-dev/tournament-app/qr"
	"github.com/bekzat-dev/tournament-app/repositories"
)

const checkinTestSecret = "checkin-test-secret"

func newCheckinService(t *testing.T) (CheckinService, sqlmock.Sqlmock, *qr.Signer) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	signer := qr.NewSigner(checkinTestSecret)
	ticketRepo := repositories.NewPostgresTicketRepository(db)
	service := NewCheckinService(db, ticketRepo, signer, nil)

	return service, mock, signer
}

func ticketRow(id, profileID, tournamentID int, qrCode string, status models.TicketStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "profile_id", "tournament_id", "qr_code", "status", "purchase_date", "payment_intent_id",
	}).AddRow(id, profileID, tournamentID, qrCode, string(status), time.Now(), "pi_test")
}

func TestCheckinService_CheckIn(t *testing.T) {
	t.Run("successful check-in", func(t *testing.T) {
		service, mock, signer := newCheckinService(t)

		qrData, err := signer.Encode(10, 5, 3)
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WithArgs(10, 5, 3).
			WillReturnRows(ticketRow(10, 5, 3, qrData, models.TicketStatusPurchased))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE tickets SET status`).
			WithArgs(string(models.TicketStatusCheckedIn), 10, string(models.TicketStatusPurchased)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		result, err := service.CheckIn(context.Background(), qrData)
		require.NoError(t, err)
		require.Equal(t, 10, result.TicketID)
		require.Equal(t, 5, result.ProfileID)
		require.Equal(t, 3, result.TournamentID)
		require.Equal(t, models.TicketStatusCheckedIn, result.Status)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ticket already checked in", func(t *testing.T) {
		service, mock, signer := newCheckinService(t)

		qrData, err := signer.Encode(10, 5, 3)
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WithArgs(10, 5, 3).
			WillReturnRows(ticketRow(10, 5, 3, qrData, models.TicketStatusCheckedIn))

		_, err = service.CheckIn(context.Background(), qrData)
		require.ErrorIs(t, err, ErrTicketAlreadyCheckedIn)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ticket canceled", func(t *testing.T) {
		service, mock, signer := newCheckinService(t)

		qrData, err := signer.Encode(10, 5, 3)
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WithArgs(10, 5, 3).
			WillReturnRows(ticketRow(10, 5, 3, qrData, models.TicketStatusCanceled))

		_, err = service.CheckIn(context.Background(), qrData)
		require.ErrorIs(t, err, ErrTicketCanceled)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ticket not found", func(t *testing.T) {
		service, mock, signer := newCheckinService(t)

		qrData, err := signer.Encode(10, 5, 3)
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WithArgs(10, 5, 3).
			WillReturnError(sql.ErrNoRows)

		_, err = service.CheckIn(context.Background(), qrData)
		require.ErrorIs(t, err, ErrTicketNotFound)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent scan loses the race", func(t *testing.T) {
		service, mock, signer := newCheckinService(t)

		qrData, err := signer.Encode(10, 5, 3)
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WithArgs(10, 5, 3).
			WillReturnRows(ticketRow(10, 5, 3, qrData, models.TicketStatusPurchased))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE tickets SET status`).
			WithArgs(string(models.TicketStatusCheckedIn), 10, string(models.TicketStatusPurchased)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err = service.CheckIn(context.Background(), qrData)
		require.ErrorIs(t, err, ErrTicketAlreadyCheckedIn)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	// Невалидные payload'ы не должны приводить к запросам в базу.
	t.Run("malformed payload rejected before lookup", func(t *testing.T) {
		service, mock, _ := newCheckinService(t)

		_, err := service.CheckIn(context.Background(), "definitely-not-base64!!!")
		require.ErrorIs(t, err, ErrMalformedQRPayload)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid signature rejected before lookup", func(t *testing.T) {
		service, mock, _ := newCheckinService(t)

		otherSigner := qr.NewSigner("some-other-secret")
		qrData, err := otherSigner.Encode(10, 5, 3)
		require.NoError(t, err)

		_, err = service.CheckIn(context.Background(), qrData)
		require.ErrorIs(t, err, ErrInvalidQRSignature)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}
