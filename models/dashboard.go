package models

type DashboardStats struct {
	UsersTotal        int `json:"users_total"`
	TournamentsTotal  int `json:"tournaments_total"`
	TicketsSold       int `json:"tickets_sold"`
	TicketsCheckedIn  int `json:"tickets_checked_in"`
	BracketsGenerated int `json:"brackets_generated"`
}
