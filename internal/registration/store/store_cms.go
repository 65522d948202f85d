package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"confsite/internal/cms"
	"confsite/internal/registration/models"
)

// Mutator applies CMS mutations. *cms.Client satisfies it.
type Mutator interface {
	Mutate(ctx context.Context, mutations ...cms.Mutation) (*cms.MutateResult, error)
}

// CMSStore persists registrations as "registration" documents.
type CMSStore struct {
	client Mutator
}

func NewCMSStore(client Mutator) *CMSStore {
	return &CMSStore{client: client}
}

type workshopPreferencesDocument struct {
	Workshop1 int `json:"workshop1"`
	Workshop2 int `json:"workshop2"`
	Workshop3 int `json:"workshop3"`
	Workshop4 int `json:"workshop4"`
}

type registrationDocument struct {
	ID                  string                      `json:"_id"`
	Type                string                      `json:"_type"`
	FirstName           string                      `json:"firstName"`
	LastName            string                      `json:"lastName"`
	Email               string                      `json:"email"`
	Affiliation         string                      `json:"affiliation"`
	Country             string                      `json:"country"`
	Position            string                      `json:"position"`
	Website             string                      `json:"website,omitempty"`
	Attendance          string                      `json:"attendance"`
	Dietary             string                      `json:"dietary"`
	DietaryNotes        string                      `json:"dietaryNotes,omitempty"`
	WorkshopPreferences workshopPreferencesDocument `json:"workshopPreferences"`
	AcceptPrivacyPolicy bool                        `json:"acceptPrivacyPolicy"`
	PhotoConsent        bool                        `json:"photoConsent"`
	Motivation          string                      `json:"motivation,omitempty"`
	Comments            string                      `json:"comments,omitempty"`
	SubmittedAt         string                      `json:"submittedAt"`
}

func toDocument(sub *models.Submission) registrationDocument {
	prefs := sub.WorkshopPreferences
	return registrationDocument{
		ID:           sub.ID,
		Type:         "registration",
		FirstName:    sub.FirstName,
		LastName:     sub.LastName,
		Email:        sub.Email,
		Affiliation:  sub.Affiliation,
		Country:      sub.Country,
		Position:     string(sub.Position),
		Website:      sub.Website,
		Attendance:   string(sub.Attendance),
		Dietary:      string(sub.Dietary),
		DietaryNotes: sub.DietaryNotes,
		WorkshopPreferences: workshopPreferencesDocument{
			Workshop1: prefs.Workshop1,
			Workshop2: prefs.Workshop2,
			Workshop3: prefs.Workshop3,
			Workshop4: prefs.Workshop4,
		},
		AcceptPrivacyPolicy: sub.AcceptPrivacyPolicy,
		PhotoConsent:        sub.PhotoConsent,
		Motivation:          sub.Motivation,
		Comments:            sub.Comments,
		SubmittedAt:         sub.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

// Create writes sub as a new document. A document ID conflict means the
// email is already registered.
func (s *CMSStore) Create(ctx context.Context, sub *models.Submission) error {
	if _, err := s.client.Mutate(ctx, cms.Create(toDocument(sub))); err != nil {
		if errors.Is(err, cms.ErrConflict) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create registration document: %w", err)
	}
	return nil
}
