package model

import "time"

// EntityCategory classifies a named record.
type EntityCategory string

const (
	EntityPerson       EntityCategory = "Person"
	EntityOrganization EntityCategory = "Organization"
	EntityCountry      EntityCategory = "Country"
)

// NamedRecord is a deduplicated named row (location or entity).
type NamedRecord struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Category  EntityCategory `json:"category,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Briefing is a persisted intelligence briefing.
type Briefing struct {
	ID          string        `json:"id"`
	Topic       string        `json:"topic"`
	Content     string        `json:"content"`
	ScoutData   string        `json:"scout_data,omitempty"`
	ScholarData string        `json:"scholar_data,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Locations   []NamedRecord `json:"locations,omitempty"`
	Entities    []NamedRecord `json:"entities,omitempty"`
}

// BriefingDraft is the pre-persistence form of a briefing produced
// by a workflow run.
type BriefingDraft struct {
	Topic       string
	Content     string
	ScoutData   string
	ScholarData string
	Locations   []any
	Entities    map[EntityCategory][]string
}

// EntityMention is an entity with its briefing mention count.
type EntityMention struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Category EntityCategory `json:"category"`
	Mentions int            `json:"mentions"`
}
