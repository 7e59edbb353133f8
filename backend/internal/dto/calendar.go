package dto

// ── calendar module DTOs ──

// CreateBlockRequest manual unavailability block
type CreateBlockRequest struct {
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date"   binding:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" binding:"omitempty,datetime=15:04"`
	EndTime   string `json:"end_time"   binding:"omitempty,datetime=15:04"`
	Note      string `json:"note"       binding:"max=500"`
}

// BlockResponse schedule block read model
type BlockResponse struct {
	ID        string `json:"id"`
	PostingID string `json:"posting_id,omitempty"`
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Note      string `json:"note,omitempty"`
}

// ImportBlocksResponse ICS import result
type ImportBlocksResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
