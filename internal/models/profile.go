package models

import (
	"time"

	"gorm.io/datatypes"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOthers Gender = "others"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOthers:
		return true
	}
	return false
}

type WorkAvailability string

const (
	AvailabilityFullTime  WorkAvailability = "fulltime"
	AvailabilityPartTime  WorkAvailability = "parttime"
	AvailabilityFreelance WorkAvailability = "freelance"
)

func (w WorkAvailability) Valid() bool {
	switch w {
	case AvailabilityFullTime, AvailabilityPartTime, AvailabilityFreelance:
		return true
	}
	return false
}

// UserProfile holds worker attributes. The role lives in group membership, not here.
type UserProfile struct {
	ID                     uint64                      `gorm:"primarykey" json:"id"`
	UserID                 uint64                      `gorm:"uniqueIndex;not null" json:"user_id"`
	PhoneNumber            string                      `gorm:"type:varchar(15)" json:"phone_number"`
	Gender                 Gender                      `gorm:"type:varchar(10)" json:"gender"`
	CurrentAddress         string                      `gorm:"type:text" json:"current_address"`
	PermanentAddress       string                      `gorm:"type:text" json:"permanent_address"`
	CityTown               string                      `gorm:"type:varchar(100)" json:"city_town"`
	StateProvince          string                      `gorm:"type:varchar(100)" json:"state_province"`
	EducationLevel         string                      `gorm:"type:varchar(100)" json:"education_level"`
	Certifications         string                      `gorm:"type:text" json:"certifications"`
	Skills                 datatypes.JSONSlice[string] `json:"skills"`
	LanguagesSpoken        datatypes.JSONSlice[string] `json:"languages_spoken"`
	WorkAvailability       WorkAvailability            `gorm:"type:varchar(20)" json:"work_availability"`
	WorkSchedulePreference string                      `gorm:"type:varchar(255)" json:"work_schedule_preference"`
	CreatedAt              time.Time                   `json:"created_at"`
	UpdatedAt              time.Time                   `json:"updated_at"`
}

type ManagerProfile struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	UserID       uint64    `gorm:"uniqueIndex;not null" json:"user_id"`
	CompanyName  string    `gorm:"type:varchar(255)" json:"company_name"`
	WorkLocation string    `gorm:"type:varchar(255)" json:"work_location"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
