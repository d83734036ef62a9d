package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/bekzat-dev/tournament-app/models"
	"github.com/bekzat-dev/tournament-app/qr"
	"github.com/bekzat-dev/tournament-app/repositories"
	"github.com/bekzat-dev/tournament-app/services"
)

func newCheckinHandler(t *testing.T) (*CheckinHandler, sqlmock.Sqlmock, *qr.Signer) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	signer := qr.NewSigner("handler-test-secret")
	ticketRepo := repositories.NewPostgresTicketRepository(db)
	service := services.NewCheckinService(db, ticketRepo, signer, nil)

	return NewCheckinHandler(service), mock, signer
}

func TestCheckinHandler_ScanQR(t *testing.T) {
	ticketRow := func(status models.TicketStatus) *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "profile_id", "tournament_id", "qr_code", "status", "purchase_date", "payment_intent_id",
		}).AddRow(10, 5, 3, "qr", string(status), time.Now(), "pi_test")
	}

	t.Run("valid scan returns 200 with ticket reference", func(t *testing.T) {
		handler, mock, signer := newCheckinHandler(t)

		qrData, err := signer.Encode(10, 5, 3)
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WithArgs(10, 5, 3).
			WillReturnRows(ticketRow(models.TicketStatusPurchased))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE tickets SET status`).
			WithArgs(string(models.TicketStatusCheckedIn), 10, string(models.TicketStatusPurchased)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		req := httptest.NewRequest(http.MethodPost, "/checkin/scan-qr", strings.NewReader(`{"qr_data":"`+qrData+`"}`))
		rec := httptest.NewRecorder()
		handler.ScanQR(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"ticket_id": 10`)
		require.Contains(t, rec.Body.String(), `"profile_id": 5`)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tampered payload returns 400 without db access", func(t *testing.T) {
		handler, mock, _ := newCheckinHandler(t)

		otherSigner := qr.NewSigner("some-other-secret")
		qrData, err := otherSigner.Encode(10, 5, 3)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/checkin/scan-qr", strings.NewReader(`{"qr_data":"`+qrData+`"}`))
		rec := httptest.NewRecorder()
		handler.ScanQR(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown ticket returns 404", func(t *testing.T) {
		handler, mock, signer := newCheckinHandler(t)

		qrData, err := signer.Encode(10, 5, 3)
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WithArgs(10, 5, 3).
			WillReturnError(sql.ErrNoRows)

		req := httptest.NewRequest(http.MethodPost, "/checkin/scan-qr", strings.NewReader(`{"qr_data":"`+qrData+`"}`))
		rec := httptest.NewRecorder()
		handler.ScanQR(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second scan returns 409", func(t *testing.T) {
		handler, mock, signer := newCheckinHandler(t)

		qrData, err := signer.Encode(10, 5, 3)
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WithArgs(10, 5, 3).
			WillReturnRows(ticketRow(models.TicketStatusCheckedIn))

		req := httptest.NewRequest(http.MethodPost, "/checkin/scan-qr", strings.NewReader(`{"qr_data":"`+qrData+`"}`))
		rec := httptest.NewRecorder()
		handler.ScanQR(rec, req)

		require.Equal(t, http.StatusConflict, rec.Code)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing qr_data returns 400", func(t *testing.T) {
		handler, mock, _ := newCheckinHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/checkin/scan-qr", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		handler.ScanQR(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
