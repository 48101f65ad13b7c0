package validation

import (
	"encoding/json"
	"strings"
)

type CompanyForm struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (f *CompanyForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
}

func (f *CompanyForm) Ok() (map[string]string, bool) {
	f.Normalize()
	return check(f)
}

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (f *LoginForm) Ok() (map[string]string, bool) {
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	return check(f)
}

type LeadForm struct {
	Name           string          `json:"name" validate:"required,max=200"`
	Email          string          `json:"email" validate:"omitempty,email"`
	Phone          string          `json:"phone" validate:"omitempty,min=7,max=20"`
	AlternatePhone string          `json:"alternate_phone" validate:"omitempty,min=7,max=20"`
	Status         string          `json:"status" validate:"max=60"`
	Source         string          `json:"source" validate:"max=60"`
	Priority       string          `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedTo     string          `json:"assigned_to" validate:"omitempty,uuid"`
	CustomFields   json.RawMessage `json:"custom_fields" validate:"omitempty,json"`
	Notes          string          `json:"notes" validate:"max=5000"`
}

func (f *LeadForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Phone = strings.TrimSpace(f.Phone)
	f.AlternatePhone = strings.TrimSpace(f.AlternatePhone)
	f.Status = strings.TrimSpace(f.Status)
	f.Source = strings.TrimSpace(f.Source)
	if f.Status == "" {
		f.Status = "New"
	}
	if f.Priority == "" {
		f.Priority = "medium"
	}
}

func (f *LeadForm) Ok() (map[string]string, bool) {
	f.Normalize()
	return check(f)
}

type PropertyForm struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Address       string          `json:"address" validate:"max=300"`
	City          string          `json:"city" validate:"max=100"`
	State         string          `json:"state" validate:"max=100"`
	ZipCode       string          `json:"zip_code" validate:"max=20"`
	Type          string          `json:"type" validate:"required,max=60"`
	Status        string          `json:"status" validate:"omitempty,oneof=available reserved sold rented"`
	Price         float64         `json:"price" validate:"gte=0"`
	Bedrooms      int             `json:"bedrooms" validate:"gte=0"`
	Bathrooms     int             `json:"bathrooms" validate:"gte=0"`
	AreaSqft      float64         `json:"area_sqft" validate:"gte=0"`
	Configuration json.RawMessage `json:"configuration" validate:"omitempty,json"`
}

func (f *PropertyForm) Ok() (map[string]string, bool) {
	f.Name = strings.TrimSpace(f.Name)
	f.Type = strings.TrimSpace(f.Type)
	if f.Status == "" {
		f.Status = "available"
	}
	return check(f)
}

type SettingForm struct {
	Type     string `json:"type" validate:"required,oneof=category source status team"`
	Name     string `json:"name" validate:"required,max=60"`
	Color    string `json:"color" validate:"omitempty,hexcolor"`
	Order    int    `json:"order" validate:"gte=0"`
	IsActive *bool  `json:"is_active"`
}

func (f *SettingForm) Ok() (map[string]string, bool) {
	f.Name = strings.TrimSpace(f.Name)
	return check(f)
}

// ProfileUpdateForm changes another user's profile. Nil fields are left alone.
type ProfileUpdateForm struct {
	FullName *string `json:"full_name" validate:"omitempty,max=120"`
	Role     *string `json:"role" validate:"omitempty,crmrole"`
	IsActive *bool   `json:"is_active"`
}

func (f *ProfileUpdateForm) Ok() (map[string]string, bool) {
	if f.FullName != nil {
		trimmed := strings.TrimSpace(*f.FullName)
		f.FullName = &trimmed
	}
	return check(f)
}
