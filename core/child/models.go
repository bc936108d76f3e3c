package child

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/milestone/core"
)

// Genders
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

type Child struct {
	ID                    int       `json:"id" db:"id"`
	Surname               string    `json:"surname" db:"surname"`
	FirstName             string    `json:"first_name" db:"first_name"`
	MiddleName            string    `json:"middle_name" db:"middle_name"`
	EducationalPlacement  string    `json:"educational_placement" db:"educational_placement"`
	IsInitialAssessment   bool      `json:"is_initial_assessment" db:"is_initial_assessment"`
	IsFollowUp            bool      `json:"is_follow_up" db:"is_follow_up"`
	Address               string    `json:"address" db:"address"`
	Email                 string    `json:"email" db:"email"`
	DateOfBirth           core.Date `json:"date_of_birth" db:"date_of_birth"`
	DateOfAssessment      core.Date `json:"date_of_assessment" db:"date_of_assessment"`
	AgeAtConsult          string    `json:"age_at_consult" db:"age_at_consult"`
	Gender                string    `json:"gender" db:"gender"`
	Siblings              string    `json:"siblings" db:"siblings"`
	MotherName            string    `json:"mother_name" db:"mother_name"`
	MotherOccupation      string    `json:"mother_occupation" db:"mother_occupation"`
	MotherContact         string    `json:"mother_contact" db:"mother_contact"`
	FatherName            string    `json:"father_name" db:"father_name"`
	FatherOccupation      string    `json:"father_occupation" db:"father_occupation"`
	FatherContact         string    `json:"father_contact" db:"father_contact"`
	MedicalDiagnosis      string    `json:"medical_diagnosis" db:"medical_diagnosis"`
	ReferringDoctor       string    `json:"referring_doctor" db:"referring_doctor"`
	LastAssessmentDate    core.Date `json:"last_assessment_date" db:"last_assessment_date"`
	FollowUpDate          core.Date `json:"follow_up_date" db:"follow_up_date"`
	OccupationalTherapy   bool      `json:"occupational_therapy" db:"occupational_therapy"`
	PhysicalTherapy       bool      `json:"physical_therapy" db:"physical_therapy"`
	BehavioralTherapy     bool      `json:"behavioral_therapy" db:"behavioral_therapy"`
	SpeechTherapy         bool      `json:"speech_therapy" db:"speech_therapy"`
	School                string    `json:"school" db:"school"`
	Grade                 string    `json:"grade" db:"grade"`
	Placement             string    `json:"placement" db:"placement"`
	Year                  *int      `json:"year" db:"year"`
	ReasonForConsultation string    `json:"reason_for_consultation" db:"reason_for_consultation"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
	Therapies             []Therapy `json:"therapies" db:"-"`
}

func (c Child) FullName() string {
	if c.MiddleName != "" {
		return fmt.Sprintf("%s %s %s", c.FirstName, c.MiddleName, c.Surname)
	}
	return fmt.Sprintf("%s %s", c.FirstName, c.Surname)
}

type Therapy struct {
	ID                     int    `json:"id" db:"id"`
	ChildID                int    `json:"child_id" db:"child_id"`
	Type                   string `json:"type" db:"type"`
	IsReceived             bool   `json:"is_received" db:"is_received"`
	TherapyCenter          string `json:"therapy_center" db:"therapy_center"`
	TherapistName          string `json:"therapist_name" db:"therapist_name"`
	TherapistEmail         string `json:"therapist_email" db:"therapist_email"`
	TherapistContactNumber string `json:"therapist_contact_number" db:"therapist_contact_number"`
}

// ChildData contains the information needed to create or fully update a Child.
type ChildData struct {
	Surname               string        `json:"surname" validate:"required,max=255"`
	FirstName             string        `json:"first_name" validate:"required,max=255"`
	MiddleName            string        `json:"middle_name" validate:"max=255"`
	EducationalPlacement  string        `json:"educational_placement" validate:"max=255"`
	IsInitialAssessment   bool          `json:"is_initial_assessment"`
	IsFollowUp            bool          `json:"is_follow_up"`
	Address               string        `json:"address"`
	Email                 string        `json:"email" validate:"omitempty,email"`
	DateOfBirth           core.Date     `json:"date_of_birth" validate:"required"`
	DateOfAssessment      core.Date     `json:"date_of_assessment" validate:"required"`
	AgeAtConsult          string        `json:"age_at_consult" validate:"required,max=50"`
	Gender                string        `json:"gender" validate:"required,oneof=male female other"`
	Siblings              string        `json:"siblings"`
	MotherName            string        `json:"mother_name" validate:"required,max=255"`
	MotherOccupation      string        `json:"mother_occupation" validate:"max=255"`
	MotherContact         string        `json:"mother_contact" validate:"required,max=255"`
	FatherName            string        `json:"father_name" validate:"required,max=255"`
	FatherOccupation      string        `json:"father_occupation" validate:"max=255"`
	FatherContact         string        `json:"father_contact" validate:"required,max=255"`
	MedicalDiagnosis      string        `json:"medical_diagnosis"`
	ReferringDoctor       string        `json:"referring_doctor" validate:"max=255"`
	LastAssessmentDate    core.Date     `json:"last_assessment_date"`
	FollowUpDate          core.Date     `json:"follow_up_date"`
	OccupationalTherapy   bool          `json:"occupational_therapy"`
	PhysicalTherapy       bool          `json:"physical_therapy"`
	BehavioralTherapy     bool          `json:"behavioral_therapy"`
	SpeechTherapy         bool          `json:"speech_therapy"`
	School                string        `json:"school" validate:"max=255"`
	Grade                 string        `json:"grade" validate:"max=50"`
	Placement             string        `json:"placement" validate:"max=255"`
	Year                  *int          `json:"year" validate:"omitempty,min=1900,max=2200"`
	ReasonForConsultation string        `json:"reason_for_consultation"`
	Therapies             []TherapyData `json:"therapies" validate:"omitempty,dive"`
}

type TherapyData struct {
	Type                   string `json:"type" validate:"required,max=100"`
	IsReceived             bool   `json:"is_received"`
	TherapyCenter          string `json:"therapy_center" validate:"max=255"`
	TherapistName          string `json:"therapist_name" validate:"max=255"`
	TherapistEmail         string `json:"therapist_email" validate:"omitempty,email"`
	TherapistContactNumber string `json:"therapist_contact_number" validate:"max=100"`
}

func (cd *ChildData) Validate(validate *validator.Validate) error {
	cd.Surname = core.CleanString(cd.Surname)
	cd.FirstName = core.CleanString(cd.FirstName)
	cd.MiddleName = core.CleanString(cd.MiddleName)
	cd.Email = core.CleanString(cd.Email, true /* lower */)
	cd.Gender = core.CleanString(cd.Gender, true /* lower */)
	cd.MotherName = core.CleanString(cd.MotherName)
	cd.FatherName = core.CleanString(cd.FatherName)
	for i := range cd.Therapies {
		cd.Therapies[i].Type = core.CleanString(cd.Therapies[i].Type)
		cd.Therapies[i].TherapistEmail = core.CleanString(cd.Therapies[i].TherapistEmail, true /* lower */)
	}
	return validate.Struct(cd)
}

// apply copies the data onto `c`, leaving identity & timestamps untouched.
func (cd ChildData) apply(c *Child) {
	c.Surname = cd.Surname
	c.FirstName = cd.FirstName
	c.MiddleName = cd.MiddleName
	c.EducationalPlacement = cd.EducationalPlacement
	c.IsInitialAssessment = cd.IsInitialAssessment
	c.IsFollowUp = cd.IsFollowUp
	c.Address = cd.Address
	c.Email = cd.Email
	c.DateOfBirth = cd.DateOfBirth
	c.DateOfAssessment = cd.DateOfAssessment
	c.AgeAtConsult = cd.AgeAtConsult
	c.Gender = cd.Gender
	c.Siblings = cd.Siblings
	c.MotherName = cd.MotherName
	c.MotherOccupation = cd.MotherOccupation
	c.MotherContact = cd.MotherContact
	c.FatherName = cd.FatherName
	c.FatherOccupation = cd.FatherOccupation
	c.FatherContact = cd.FatherContact
	c.MedicalDiagnosis = cd.MedicalDiagnosis
	c.ReferringDoctor = cd.ReferringDoctor
	c.LastAssessmentDate = cd.LastAssessmentDate
	c.FollowUpDate = cd.FollowUpDate
	c.OccupationalTherapy = cd.OccupationalTherapy
	c.PhysicalTherapy = cd.PhysicalTherapy
	c.BehavioralTherapy = cd.BehavioralTherapy
	c.SpeechTherapy = cd.SpeechTherapy
	c.School = cd.School
	c.Grade = cd.Grade
	c.Placement = cd.Placement
	c.Year = cd.Year
	c.ReasonForConsultation = cd.ReasonForConsultation

	c.Therapies = make([]Therapy, 0, len(cd.Therapies))
	for _, td := range cd.Therapies {
		c.Therapies = append(c.Therapies, Therapy{
			ChildID:                c.ID,
			Type:                   td.Type,
			IsReceived:             td.IsReceived,
			TherapyCenter:          td.TherapyCenter,
			TherapistName:          td.TherapistName,
			TherapistEmail:         td.TherapistEmail,
			TherapistContactNumber: td.TherapistContactNumber,
		})
	}
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
