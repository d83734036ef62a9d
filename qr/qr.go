package qr

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedPayload - данные QR не декодируются или неполные.
	ErrMalformedPayload = errors.New("malformed qr payload")
	// ErrInvalidSignature - подпись не совпадает с HMAC по полям payload.
	ErrInvalidSignature = errors.New("invalid qr signature")
)

// Payload - содержимое QR-кода билета: base64 от JSON этой структуры.
type Payload struct {
	TicketID     int    `json:"ticket_id"`
	ProfileID    int    `json:"profile_id"`
	TournamentID int    `json:"tournament_id"`
	Signature    string `json:"signature"`
}

// Signer подписывает и проверяет QR payload'ы билетов.
// Секрет передаётся явно при создании, глобального состояния нет.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// sign считает HMAC-SHA256 по конкатенации трёх идентификаторов.
func (s *Signer) sign(ticketID, profileID, tournamentID int) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%d%d%d", ticketID, profileID, tournamentID)
	return hex.EncodeToString(mac.Sum(nil))
}

// Encode формирует подписанный QR payload для билета.
func (s *Signer) Encode(ticketID, profileID, tournamentID int) (string, error) {
	payload := Payload{
		TicketID:     ticketID,
		ProfileID:    profileID,
		TournamentID: tournamentID,
		Signature:    s.sign(ticketID, profileID, tournamentID),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal qr payload: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode разбирает QR payload и проверяет подпись.
// Ошибки декодирования и неполные данные дают ErrMalformedPayload,
// несовпадение подписи - ErrInvalidSignature. Проверка идёт по полям
// самого payload, до каких-либо обращений к базе.
func (s *Signer) Decode(data string) (*Payload, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, ErrMalformedPayload
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrMalformedPayload
	}

	if payload.TicketID == 0 || payload.ProfileID == 0 || payload.TournamentID == 0 || payload.Signature == "" {
		return nil, ErrMalformedPayload
	}

	expected := s.sign(payload.TicketID, payload.ProfileID, payload.TournamentID)
	if !hmac.Equal([]byte(payload.Signature), []byte(expected)) {
		return nil, ErrInvalidSignature
	}

	return &payload, nil
}
