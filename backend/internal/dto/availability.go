package dto

// ── availability module DTOs ──

// DeactivateRequest go offline
type DeactivateRequest struct {
	Justification string `json:"justification" binding:"required,max=500"`
}

// AvailabilityStatusResponse current availability and guard counters
type AvailabilityStatusResponse struct {
	ProfessionalID    string `json:"professional_id"`
	Available         bool   `json:"available"`
	Status            string `json:"status"`
	ActivationsLeft   int    `json:"activations_left"`
	DeactivationsLeft int    `json:"deactivations_left"`
	PenaltyTier       int    `json:"penalty_tier"`
	LockedUntil       string `json:"locked_until,omitempty"`
	SupportContact    string `json:"support_contact,omitempty"`
	Suspended         bool   `json:"suspended"`
	SuspendedUntil    string `json:"suspended_until,omitempty"`
}

// LockoutDetails payload returned with a lockout error
type LockoutDetails struct {
	LockedUntil    string `json:"locked_until"`
	SupportContact string `json:"support_contact"`
}
