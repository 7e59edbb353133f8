package dto

// ── application module DTOs ──

// ApplyRequest apply to a posting
type ApplyRequest struct {
	Message string `json:"message" binding:"max=1000"`
}

// ApplicationResponse application read model
type ApplicationResponse struct {
	ID               string   `json:"id"`
	PostingID        string   `json:"posting_id"`
	ProfessionalID   string   `json:"professional_id"`
	ProfessionalName string   `json:"professional_name,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	AttendanceRate   *float64 `json:"attendance_rate,omitempty"`
	Message          string   `json:"message,omitempty"`
	Status           string   `json:"status"`
	ResultNotified   bool     `json:"result_notified"`
	CreatedAt        string   `json:"created_at"`
}
