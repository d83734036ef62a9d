package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ошибки валидации и бизнес-правил
	ErrValidationFailed          = errors.New("validation failed")
	ErrPasswordTooShort          = errors.New("password must be at least 6 characters long")
	ErrProfileNameRequired       = errors.New("profile name is required")
	ErrTournamentNameRequired    = errors.New("tournament name is required")
	ErrTournamentInvalidCapacity = errors.New("tournament max tickets must be positive")
	ErrTournamentInvalidPrice    = errors.New("tournament price must not be negative")
	ErrInvalidRole               = errors.New("invalid role")
	ErrUnsupportedAvatarType     = errors.New("avatar must be an image")
	ErrPaymentReferenceRequired  = errors.New("payment reference is required")
	ErrInsufficientParticipants  = errors.New("not enough checked-in players to generate a bracket")

	// Ошибки конфликтов
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrTicketAlreadyActive    = errors.New("profile already has an active ticket for this tournament")
	ErrTournamentSoldOut      = errors.New("tournament is sold out")
	ErrTicketAlreadyCheckedIn = errors.New("ticket already checked in")
	ErrTicketCanceled         = errors.New("ticket has been canceled")
	ErrTicketNotCancelable    = errors.New("only purchased tickets can be canceled")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Ошибки "не найдено" по сущностям
	ErrUserNotFound       = errors.New("user not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrBracketNotFound    = errors.New("bracket not found")

	// Ошибки проверки QR при чекине
	ErrMalformedQRPayload = errors.New("malformed qr payload")
	ErrInvalidQRSignature = errors.New("invalid qr signature")
)
