package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Position is the registrant's career stage.
type Position string

const (
	PositionStudent    Position = "student"
	PositionPhDStudent Position = "phd_student"
	PositionPostdoc    Position = "postdoc"
	PositionFaculty    Position = "faculty"
	PositionIndustry   Position = "industry"
	PositionOther      Position = "other"
)

// Attendance is how the registrant will attend.
type Attendance string

const (
	AttendanceInPerson Attendance = "in_person"
	AttendanceOnline   Attendance = "online"
)

// Dietary is the registrant's catering requirement.
type Dietary string

const (
	DietaryNone       Dietary = "none"
	DietaryVegetarian Dietary = "vegetarian"
	DietaryVegan      Dietary = "vegan"
	DietaryGlutenFree Dietary = "gluten_free"
	DietaryOther      Dietary = "other"
)

// WorkshopPreferences ranks the four workshops from 1 (first choice) to 4.
type WorkshopPreferences struct {
	Workshop1 int `json:"workshop_1"`
	Workshop2 int `json:"workshop_2"`
	Workshop3 int `json:"workshop_3"`
	Workshop4 int `json:"workshop_4"`
}

// Ranks returns the four ranks in workshop order.
func (p WorkshopPreferences) Ranks() [4]int {
	return [4]int{p.Workshop1, p.Workshop2, p.Workshop3, p.Workshop4}
}

// Distinct reports whether no rank is used twice. Together with the 1..4
// range check this makes the ranks a permutation of {1,2,3,4}.
func (p WorkshopPreferences) Distinct() bool {
	seen := make(map[int]struct{}, 4)
	for _, rank := range p.Ranks() {
		seen[rank] = struct{}{}
	}
	return len(seen) == 4
}

// Submission is one registration attempt. It is created once and never
// updated.
type Submission struct {
	ID                  string
	FirstName           string
	LastName            string
	Email               string
	Affiliation         string
	Country             string
	Position            Position
	Website             string
	Attendance          Attendance
	Dietary             Dietary
	DietaryNotes        string
	WorkshopPreferences WorkshopPreferences
	AcceptPrivacyPolicy bool
	PhotoConsent        bool
	Motivation          string
	Comments            string
	SubmittedAt         time.Time
}

// FullName joins first and last name.
func (s *Submission) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// registrationNamespace scopes registration IDs derived from email addresses.
var registrationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("confsite:registration"))

// IDForEmail derives the document ID for a registration. The same address
// (case-insensitive) always maps to the same ID, so the content store
// rejects a second registration for it.
func IDForEmail(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return "registration." + uuid.NewSHA1(registrationNamespace, []byte(normalized)).String()
}
