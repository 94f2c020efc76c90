package model

import "gorm.io/datatypes"

// Program levels
const (
	LevelCertificate = "certificate"
	LevelDiploma     = "diploma"
	LevelBachelor    = "bachelor"
	LevelMaster      = "master"
	LevelPhD         = "phd"
	LevelPostdoc     = "postdoc"
)

// Program statuses
const (
	ProgramStatusActive   = "active"
	ProgramStatusInactive = "inactive"
	ProgramStatusArchived = "archived"
)

// FeeStructure per-program fee lines in KES, stored as JSONB
type FeeStructure struct {
	Tuition      float64 `json:"tuition"`
	Registration float64 `json:"registration"`
	Examination  float64 `json:"examination"`
	Library      float64 `json:"library"`
	Laboratory   float64 `json:"laboratory"`
}

// FeeLine a named fee amount
type FeeLine struct {
	Item   string
	Amount float64
}

// Lines non-zero fee lines in a stable order
func (f FeeStructure) Lines() []FeeLine {
	all := []FeeLine{
		{"Tuition", f.Tuition},
		{"Registration", f.Registration},
		{"Examination", f.Examination},
		{"Library", f.Library},
		{"Laboratory", f.Laboratory},
	}
	out := make([]FeeLine, 0, len(all))
	for _, l := range all {
		if l.Amount > 0 {
			out = append(out, l)
		}
	}
	return out
}

// Total sum of all fee lines
func (f FeeStructure) Total() float64 {
	return RoundKES(f.Tuition + f.Registration + f.Examination + f.Library + f.Laboratory)
}

// Program academic program, table programs
type Program struct {
	ID             string                           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name           string                           `gorm:"type:varchar(200);not null"                     json:"name"`
	Code           string                           `gorm:"type:varchar(20);not null"                      json:"code"`
	Level          string                           `gorm:"type:varchar(20);not null"                      json:"level"`
	DurationMonths int                              `gorm:"not null"                                       json:"duration_months"`
	TotalCredits   int                              `gorm:"not null;default:0"                             json:"total_credits"`
	Fees           datatypes.JSONType[FeeStructure] `gorm:"type:jsonb;not null"                            json:"fees"`
	Status         string                           `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	Department     *string                          `gorm:"type:varchar(150)"                              json:"department,omitempty"`
	Faculty        *string                          `gorm:"type:varchar(150)"                              json:"faculty,omitempty"`
	CoordinatorID  *string                          `gorm:"type:uuid"                                      json:"coordinator_id,omitempty"`
	VersionedModel
}

// TableName table name
func (Program) TableName() string { return "programs" }
