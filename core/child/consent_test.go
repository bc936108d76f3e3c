package child

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/milestone/core"
)

func TestNewConsentForm(t *testing.T) {
	year := 2024
	c := Child{
		Surname:           "Dela Cruz",
		FirstName:         "Juan",
		DateOfBirth:       core.NewDate(2019, time.March, 4),
		DateOfAssessment:  core.NewDate(2024, time.June, 11),
		FollowUpDate:      core.NewDate(2024, time.December, 1),
		SpeechTherapy:     true,
		BehavioralTherapy: false,
		Year:              &year,
	}

	form := NewConsentForm(c)

	value := func(fields []ConsentField, label string) string {
		for _, f := range fields {
			if f.Label == label {
				return f.Value
			}
		}
		t.Fatalf("field %q not found", label)
		return ""
	}

	assert.Equal(t, "consent-form-Dela Cruz.pdf", form.Filename)
	assert.Equal(t, "03/04/2019", value(form.Fields, "Date of Birth"))
	assert.Equal(t, "06/11/2024", value(form.Fields, "Date of Assessment"))
	assert.Equal(t, "12/01/2024", value(form.Fields, "Follow-up Date"))
	assert.Equal(t, notAvailable, value(form.Fields, "Last Assessment Date"))
	assert.Equal(t, "2024", value(form.Fields, "Year"))
	assert.Equal(t, "Yes", value(form.Therapy, "Speech Therapy"))
	assert.Equal(t, "No", value(form.Therapy, "Behavioral Therapy"))
	assert.Equal(t, defaultReason, form.Reason)
}

func TestChild_FullName(t *testing.T) {
	assert.Equal(t, "Juan Dela Cruz", Child{FirstName: "Juan", Surname: "Dela Cruz"}.FullName())
	assert.Equal(t, "Juan Pablo Dela Cruz", Child{FirstName: "Juan", MiddleName: "Pablo", Surname: "Dela Cruz"}.FullName())
}
