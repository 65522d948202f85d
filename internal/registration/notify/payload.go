package notify

import (
	"strconv"
	"strings"
	"time"

	"confsite/internal/registration/models"
)

// Provider is the chat service a webhook URL belongs to.
type Provider string

const (
	ProviderAuto    Provider = "auto"
	ProviderTeams   Provider = "teams"
	ProviderDiscord Provider = "discord"
)

// DetectProvider picks the payload format from the webhook URL: Microsoft
// hosts get a Teams card, anything else a Discord embed.
func DetectProvider(webhookURL string) Provider {
	lower := strings.ToLower(webhookURL)
	if strings.Contains(lower, "office.com") || strings.Contains(lower, "outlook.com") {
		return ProviderTeams
	}
	return ProviderDiscord
}

// ResolveProvider honours an explicit teams/discord setting and falls back
// to URL detection otherwise.
func ResolveProvider(webhookURL, configured string) Provider {
	switch Provider(strings.ToLower(strings.TrimSpace(configured))) {
	case ProviderTeams:
		return ProviderTeams
	case ProviderDiscord:
		return ProviderDiscord
	}
	return DetectProvider(webhookURL)
}

const cardTitle = "New Conference Registration"

// MessageCard is the Teams connector card format.
type MessageCard struct {
	Type       string        `json:"@type"`
	Context    string        `json:"@context"`
	ThemeColor string        `json:"themeColor"`
	Summary    string        `json:"summary"`
	Sections   []CardSection `json:"sections"`
}

type CardSection struct {
	ActivityTitle    string     `json:"activityTitle"`
	ActivitySubtitle string     `json:"activitySubtitle,omitempty"`
	Facts            []CardFact `json:"facts"`
	Markdown         bool       `json:"markdown"`
}

type CardFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DiscordMessage is the Discord webhook body.
type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []DiscordField `json:"fields"`
	Timestamp   string         `json:"timestamp,omitempty"`
}

type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type fact struct {
	name  string
	value string
}

// facts is the subset of a submission shared with the organisers' chat.
func facts(sub *models.Submission) []fact {
	return []fact{
		{"Name", sub.FullName()},
		{"Email", sub.Email},
		{"Affiliation", sub.Affiliation},
		{"Country", sub.Country},
		{"Position", string(sub.Position)},
		{"Attendance", string(sub.Attendance)},
		{"Workshop ranking", rankingSummary(sub.WorkshopPreferences)},
	}
}

// rankingSummary lists workshop numbers in order of preference, e.g. "2, 1, 4, 3".
func rankingSummary(p models.WorkshopPreferences) string {
	byRank := make([]string, 4)
	for workshop, rank := range p.Ranks() {
		if rank >= 1 && rank <= 4 {
			byRank[rank-1] = strconv.Itoa(workshop + 1)
		}
	}
	return strings.Join(byRank, ", ")
}

// TeamsPayload builds the Teams card for sub.
func TeamsPayload(sub *models.Submission) MessageCard {
	fs := facts(sub)
	cardFacts := make([]CardFact, 0, len(fs))
	for _, f := range fs {
		cardFacts = append(cardFacts, CardFact{Name: f.name, Value: orDash(f.value)})
	}
	return MessageCard{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: "0076D7",
		Summary:    "New registration: " + sub.FullName(),
		Sections: []CardSection{{
			ActivityTitle:    cardTitle,
			ActivitySubtitle: sub.FullName(),
			Facts:            cardFacts,
			Markdown:         true,
		}},
	}
}

// DiscordPayload builds the Discord embed for sub. Discord rejects empty
// field values, so blanks are sent as "-".
func DiscordPayload(sub *models.Submission) DiscordMessage {
	fs := facts(sub)
	fields := make([]DiscordField, 0, len(fs))
	for _, f := range fs {
		fields = append(fields, DiscordField{Name: f.name, Value: orDash(f.value), Inline: f.name != "Workshop ranking"})
	}
	var ts string
	if !sub.SubmittedAt.IsZero() {
		ts = sub.SubmittedAt.UTC().Format(time.RFC3339)
	}
	return DiscordMessage{Embeds: []DiscordEmbed{{
		Title:     cardTitle,
		Color:     0x3498DB,
		Fields:    fields,
		Timestamp: ts,
	}}}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
