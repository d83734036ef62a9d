package handlers

import (
	"net/http"

	"github.com/bekzat-dev/tournament-app/middleware"
	"github.com/bekzat-dev/tournament-app/services"
)

type TicketHandler struct {
	ticketService services.TicketService
}

func NewTicketHandler(ticketService services.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

func (h *TicketHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	profileID, err := idParam(r, "profileID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.PurchaseTicketInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ticket, err := h.ticketService.PurchaseTicket(r.Context(), profileID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"ticket": ticket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	profileID, err := idParam(r, "profileID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tickets, err := h.ticketService.ListTickets(r.Context(), profileID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tickets": tickets}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TicketHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	ticketID, err := idParam(r, "ticketID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ticket, err := h.ticketService.CancelTicket(r.Context(), ticketID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ticket": ticket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
