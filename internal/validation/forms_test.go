package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompanyForm(t *testing.T) {
	f := CompanyForm{Name: "  Acme Realty ", Email: " OWNER@Acme.test ", Password: "secret1"}
	fields, ok := f.Ok()
	assert.True(t, ok, fields)
	assert.Equal(t, "Acme Realty", f.Name)
	assert.Equal(t, "owner@acme.test", f.Email)

	bad := CompanyForm{Name: "", Email: "not-an-email", Password: "123"}
	fields, ok = bad.Ok()
	assert.False(t, ok)
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 6 characters", fields["password"])
}

func TestLeadFormDefaultsAndRules(t *testing.T) {
	f := LeadForm{Name: "Jane Buyer"}
	_, ok := f.Ok()
	assert.True(t, ok)
	assert.Equal(t, "New", f.Status)
	assert.Equal(t, "medium", f.Priority)

	bad := LeadForm{
		Name:         "x",
		Phone:        "12",
		Priority:     "urgent",
		AssignedTo:   "nope",
		CustomFields: json.RawMessage(`{broken`),
	}
	fields, ok := bad.Ok()
	assert.False(t, ok)
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "priority")
	assert.Contains(t, fields, "assigned_to")
	assert.Contains(t, fields, "custom_fields")
}

func TestLeadStatusIsFreeForm(t *testing.T) {
	f := LeadForm{Name: "Jane", Status: "Follow up next week"}
	_, ok := f.Ok()
	assert.True(t, ok)
}

func TestPropertyForm(t *testing.T) {
	f := PropertyForm{Name: "Sea View 2BHK", Type: "Apartment", Price: 125000}
	_, ok := f.Ok()
	assert.True(t, ok)
	assert.Equal(t, "available", f.Status)

	bad := PropertyForm{Name: "x", Type: "Villa", Price: -1, Status: "demolished"}
	fields, ok := bad.Ok()
	assert.False(t, ok)
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields, "status")
}

func TestSettingForm(t *testing.T) {
	f := SettingForm{Type: "source", Name: "Billboard", Color: "#ff0000"}
	_, ok := f.Ok()
	assert.True(t, ok)

	bad := SettingForm{Type: "flavour", Name: "", Color: "red"}
	fields, ok := bad.Ok()
	assert.False(t, ok)
	assert.Len(t, fields, 3)
}

func TestProfileUpdateFormRole(t *testing.T) {
	good := "manager"
	f := ProfileUpdateForm{Role: &good}
	_, ok := f.Ok()
	assert.True(t, ok)

	bad := "overlord"
	f = ProfileUpdateForm{Role: &bad}
	fields, ok := f.Ok()
	assert.False(t, ok)
	assert.Equal(t, "must be a known role", fields["role"])
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Fields: map[string]string{"name": "is required"}}
	assert.Equal(t, "validation failed: name is required", err.Error())
}
