package handlers

import (
	"errors"
	"net/http"

	"github.com/bekzat-dev/tournament-app/services"
)

type CheckinHandler struct {
	checkinService services.CheckinService
}

func NewCheckinHandler(checkinService services.CheckinService) *CheckinHandler {
	return &CheckinHandler{checkinService: checkinService}
}

// ScanQR принимает отсканированный QR payload и отмечает билет.
func (h *CheckinHandler) ScanQR(w http.ResponseWriter, r *http.Request) {
	var input struct {
		QRData string `json:"qr_data"`
	}

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.QRData == "" {
		badRequestResponse(w, r, errors.New("qr_data is required"))
		return
	}

	result, err := h.checkinService.CheckIn(r.Context(), input.QRData)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"checkin": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
