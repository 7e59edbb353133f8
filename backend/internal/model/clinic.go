package model

import "strings"

// Clinic the clinic side of a posting (table clinics)
type Clinic struct {
	ClinicID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"clinic_id"`
	OwnerID          string `gorm:"type:varchar(64);not null"                      json:"owner_id"`
	Name             string `gorm:"type:varchar(200);not null"                     json:"name"`
	Street           string `gorm:"type:varchar(200)"                              json:"street,omitempty"`
	Number           string `gorm:"type:varchar(20)"                               json:"number,omitempty"`
	Complement       string `gorm:"type:varchar(100)"                              json:"complement,omitempty"`
	District         string `gorm:"type:varchar(100)"                              json:"district,omitempty"`
	City             string `gorm:"type:varchar(100)"                              json:"city,omitempty"`
	State            string `gorm:"type:varchar(2)"                                json:"state,omitempty"`
	ZipCode          string `gorm:"type:varchar(10)"                               json:"zip_code,omitempty"`
	ResponsibleName  string `gorm:"type:varchar(200)"                              json:"responsible_name,omitempty"`
	ResponsiblePhone string `gorm:"type:varchar(20)"                               json:"responsible_phone,omitempty"` // WhatsApp, E.164
	BaseModel
}

// TableName maps the table
func (Clinic) TableName() string { return "clinics" }

// FullAddress formats the address as "Rua X, 10 - Sala 2, Bairro, Cidade/UF, CEP 00000-000".
// Empty parts are skipped.
func (c *Clinic) FullAddress() string {
	street := c.Street
	if c.Number != "" {
		street = strings.TrimSpace(street + ", " + c.Number)
	}
	if c.Complement != "" {
		street += " - " + c.Complement
	}

	city := c.City
	if c.State != "" {
		city += "/" + c.State
	}

	var parts []string
	for _, p := range []string{street, c.District, city} {
		if p = strings.Trim(p, " ,/"); p != "" {
			parts = append(parts, p)
		}
	}
	if c.ZipCode != "" {
		parts = append(parts, "CEP "+c.ZipCode)
	}
	return strings.Join(parts, ", ")
}
