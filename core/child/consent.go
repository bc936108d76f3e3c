package child

import (
	"fmt"

	"github.com/trezcool/milestone/core"
)

const (
	consentDateLayout = "01/02/2006"
	notAvailable      = "N/A"
	defaultReason     = "[Reason for consultation goes here]"
)

// ConsentForm holds the printable values of a child's consent form.
type ConsentForm struct {
	Filename string
	Fields   []ConsentField
	Therapy  []ConsentField
	Reason   string
}

type ConsentField struct {
	Label string
	Value string
}

// NewConsentForm formats `c` for the consent document: dates as 01/02/2006, flags as Yes/No.
func NewConsentForm(c Child) ConsentForm {
	optDate := func(d core.Date) string {
		if d.IsZero() {
			return notAvailable
		}
		return d.Format(consentDateLayout)
	}
	yesNo := func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	}
	year := ""
	if c.Year != nil {
		year = fmt.Sprint(*c.Year)
	}
	reason := c.ReasonForConsultation
	if reason == "" {
		reason = defaultReason
	}

	return ConsentForm{
		Filename: fmt.Sprintf("consent-form-%s.pdf", c.Surname),
		Fields: []ConsentField{
			{"Surname", c.Surname},
			{"First Name", c.FirstName},
			{"Middle Name", c.MiddleName},
			{"Date of Birth", optDate(c.DateOfBirth)},
			{"Date of Assessment", optDate(c.DateOfAssessment)},
			{"Age at Consult", c.AgeAtConsult},
			{"Gender", c.Gender},
			{"Address", c.Address},
			{"Email", c.Email},
			{"Siblings", c.Siblings},
			{"Mother's Name", c.MotherName},
			{"Mother's Occupation", c.MotherOccupation},
			{"Mother's Contact", c.MotherContact},
			{"Father's Name", c.FatherName},
			{"Father's Occupation", c.FatherOccupation},
			{"Father's Contact", c.FatherContact},
			{"Medical Diagnosis", c.MedicalDiagnosis},
			{"Referring Doctor", c.ReferringDoctor},
			{"Last Assessment Date", optDate(c.LastAssessmentDate)},
			{"Follow-up Date", optDate(c.FollowUpDate)},
			{"School", c.School},
			{"Grade", c.Grade},
			{"Placement", c.Placement},
			{"Year", year},
		},
		Therapy: []ConsentField{
			{"Occupational Therapy", yesNo(c.OccupationalTherapy)},
			{"Physical Therapy", yesNo(c.PhysicalTherapy)},
			{"Behavioral Therapy", yesNo(c.BehavioralTherapy)},
			{"Speech Therapy", yesNo(c.SpeechTherapy)},
		},
		Reason: reason,
	}
}
