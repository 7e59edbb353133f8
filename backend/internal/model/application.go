package model

// ApplicationStatus state of a candidacy
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationChosen   ApplicationStatus = "CHOSEN"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// Application a professional's candidacy to a posting (table applications)
type Application struct {
	ApplicationID  string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"  json:"application_id"`
	PostingID      string            `gorm:"type:uuid;not null"                              json:"posting_id"`
	ProfessionalID string            `gorm:"type:varchar(64);not null"                       json:"professional_id"`
	Message        string            `gorm:"type:varchar(1000)"                              json:"message,omitempty"`
	Status         ApplicationStatus `gorm:"type:varchar(20);not null;default:'PENDING'"     json:"status"`
	ResultNotified bool              `gorm:"not null;default:false"                          json:"result_notified"`
	BaseModel

	Professional *Professional `gorm:"foreignKey:ProfessionalID;references:ProfessionalID" json:"professional,omitempty"`
}

// TableName maps the table
func (Application) TableName() string { return "applications" }
