package career

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmploymentValidate(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(2, 0, 0)
	before := start.AddDate(-1, 0, 0)

	tests := []struct {
		name    string
		e       Employment
		wantErr bool
	}{
		{"valid closed", Employment{Company: "Acme", Title: "SRE", StartDate: start, EndDate: &end}, false},
		{"valid current", Employment{Company: "Acme", Title: "SRE", StartDate: start, Current: true}, false},
		{"missing title", Employment{Company: "Acme", StartDate: start}, true},
		{"missing start", Employment{Company: "Acme", Title: "SRE"}, true},
		{"current with end", Employment{Company: "Acme", Title: "SRE", StartDate: start, EndDate: &end, Current: true}, true},
		{"end before start", Employment{Company: "Acme", Title: "SRE", StartDate: start, EndDate: &before}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.e.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCertification(t *testing.T) {
	issued := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	expires := issued.AddDate(3, 0, 0)

	c := Certification{Name: "CKA", IssuedOn: &issued, ExpiresOn: &expires}
	assert.NoError(t, c.Validate())
	assert.False(t, c.Expired(issued.AddDate(1, 0, 0)))
	assert.True(t, c.Expired(expires.AddDate(0, 0, 1)))

	c.ExpiresOn = &issued
	assert.Error(t, c.Validate())
	assert.Error(t, (&Certification{}).Validate())
}

func TestPlanCareerValidate(t *testing.T) {
	assert.Error(t, (&PlanCareer{}).Validate())
	assert.NoError(t, (&PlanCareer{LongTermGoals: "staff engineer"}).Validate())
}
