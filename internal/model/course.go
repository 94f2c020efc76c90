package model

import "gorm.io/datatypes"

// Course types
const (
	CourseTypeCore         = "core"
	CourseTypeElective     = "elective"
	CourseTypePrerequisite = "prerequisite"
	CourseTypeGeneral      = "general"
)

// Course statuses
const (
	CourseStatusActive   = "active"
	CourseStatusInactive = "inactive"
)

// CourseHours weekly contact hours
type CourseHours struct {
	Lecture   int `json:"lecture"`
	Tutorial  int `json:"tutorial"`
	Practical int `json:"practical"`
	FieldWork int `json:"field_work"`
}

// GradingSystem assessment weights in percent
type GradingSystem struct {
	Assignments int `json:"assignments"`
	Midterm     int `json:"midterm"`
	FinalExam   int `json:"final_exam"`
}

// Sum total weight; a valid grading system sums to 100
func (g GradingSystem) Sum() int {
	return g.Assignments + g.Midterm + g.FinalExam
}

// Course unit of study within a program, table courses
type Course struct {
	ID            string                            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProgramID     string                            `gorm:"type:uuid;not null"                             json:"program_id"`
	Code          string                            `gorm:"type:varchar(20);not null"                      json:"code"`
	Title         string                            `gorm:"type:varchar(200);not null"                     json:"title"`
	Credits       int                               `gorm:"not null"                                       json:"credits"`
	Year          int                               `gorm:"not null"                                       json:"year"`
	Semester      int                               `gorm:"not null"                                       json:"semester"`
	CourseType    string                            `gorm:"type:varchar(20);not null"                      json:"course_type"`
	Status        string                            `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	IsOffered     bool                              `gorm:"not null;default:true"                          json:"is_offered"`
	Hours         datatypes.JSONType[CourseHours]   `gorm:"type:jsonb;not null"                            json:"hours"`
	GradingSystem datatypes.JSONType[GradingSystem] `gorm:"type:jsonb;not null"                            json:"grading_system"`
	VersionedModel

	Program *Program `gorm:"foreignKey:ProgramID;references:ID" json:"program,omitempty"`
}

// TableName table name
func (Course) TableName() string { return "courses" }
