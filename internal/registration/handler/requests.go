package handler

import (
	"confsite/internal/registration/models"
	s "confsite/pkg/string"
	"confsite/pkg/validation"
)

// WorkshopPreferencesRequest ranks the four workshops. Uniqueness of the
// ranks is a business rule checked by the service.
type WorkshopPreferencesRequest struct {
	Workshop1 int `json:"workshop_1" validate:"min=1,max=4"`
	Workshop2 int `json:"workshop_2" validate:"min=1,max=4"`
	Workshop3 int `json:"workshop_3" validate:"min=1,max=4"`
	Workshop4 int `json:"workshop_4" validate:"min=1,max=4"`
}

// RegisterRequest is the registration form payload.
type RegisterRequest struct {
	FirstName           string                     `json:"first_name" validate:"required,notblank,max=100"`
	LastName            string                     `json:"last_name" validate:"required,notblank,max=100"`
	Email               string                     `json:"email" validate:"required,email,max=255"`
	Affiliation         string                     `json:"affiliation" validate:"required,notblank,max=200"`
	Country             string                     `json:"country" validate:"required,notblank,max=100"`
	Position            string                     `json:"position" validate:"required,oneof=student phd_student postdoc faculty industry other"`
	Website             string                     `json:"website" validate:"omitempty,url,max=500"`
	Attendance          string                     `json:"attendance" validate:"required,oneof=in_person online"`
	Dietary             string                     `json:"dietary" validate:"required,oneof=none vegetarian vegan gluten_free other"`
	DietaryNotes        string                     `json:"dietary_notes" validate:"max=500"`
	WorkshopPreferences WorkshopPreferencesRequest `json:"workshop_preferences"`
	AcceptPrivacyPolicy bool                       `json:"accept_privacy_policy" validate:"eq=true"`
	PhotoConsent        bool                       `json:"photo_consent"`
	Motivation          string                     `json:"motivation" validate:"max=2000"`
	Comments            string                     `json:"comments" validate:"max=2000"`
}

// Normalize trims every free-text field.
func (r *RegisterRequest) Normalize() {
	if r == nil {
		return
	}
	s.TrimStrings(
		&r.FirstName, &r.LastName, &r.Email, &r.Affiliation, &r.Country,
		&r.Position, &r.Website, &r.Attendance, &r.Dietary, &r.DietaryNotes,
		&r.Motivation, &r.Comments,
	)
}

// Validate checks the form against the field rules.
func (r *RegisterRequest) Validate() error {
	return validation.Validate(r)
}

// ToSubmission converts a validated request into the domain model.
func (r *RegisterRequest) ToSubmission() *models.Submission {
	return &models.Submission{
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		Affiliation:  r.Affiliation,
		Country:      r.Country,
		Position:     models.Position(r.Position),
		Website:      r.Website,
		Attendance:   models.Attendance(r.Attendance),
		Dietary:      models.Dietary(r.Dietary),
		DietaryNotes: r.DietaryNotes,
		WorkshopPreferences: models.WorkshopPreferences{
			Workshop1: r.WorkshopPreferences.Workshop1,
			Workshop2: r.WorkshopPreferences.Workshop2,
			Workshop3: r.WorkshopPreferences.Workshop3,
			Workshop4: r.WorkshopPreferences.Workshop4,
		},
		AcceptPrivacyPolicy: r.AcceptPrivacyPolicy,
		PhotoConsent:        r.PhotoConsent,
		Motivation:          r.Motivation,
		Comments:            r.Comments,
	}
}

// RegisterResponse acknowledges a stored registration.
type RegisterResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}
