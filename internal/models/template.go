package models

import "time"

// Component type codes as used on the Discord wire. Rows are implicit in the
// stored shape; only the inner components carry a type code.
const (
	ComponentTypeButton     = 2
	ComponentTypeSelectMenu = 3
)

// EmbedField is one name/value entry inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter is the footer line of an embed.
type EmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

// EmbedSpec describes one renderable embed of a template.
type EmbedSpec struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Thumbnail   string       `json:"thumbnail,omitempty"`
	Image       string       `json:"image,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   bool         `json:"timestamp,omitempty"`
}

// SelectOption is one choice of a select menu component.
type SelectOption struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// Component is a single interactive component (button or select menu).
type Component struct {
	Type        int            `json:"type"`
	Style       int            `json:"style,omitempty"`
	Label       string         `json:"label,omitempty"`
	CustomID    string         `json:"custom_id,omitempty"`
	URL         string         `json:"url,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
	MinValues   int            `json:"min_values,omitempty"`
	MaxValues   int            `json:"max_values,omitempty"`
	Options     []SelectOption `json:"options,omitempty"`
}

// ComponentRow is one action row of interactive components.
type ComponentRow struct {
	Components []Component `json:"components"`
}

// Template is a stored, reusable message definition deliverable to a channel.
// "Deleted" templates stay in the store with IsActive=false.
type Template struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	GuildID      string         `gorm:"index;not null" json:"guildId"`
	Name         string         `gorm:"not null" json:"name"`
	Content      string         `gorm:"not null" json:"content"`
	Embeds       []EmbedSpec    `gorm:"serializer:json" json:"embeds,omitempty"`
	Components   []ComponentRow `gorm:"serializer:json" json:"components,omitempty"`
	ScheduledFor *time.Time     `json:"scheduledFor,omitempty"`
	CreatedBy    string         `gorm:"index;not null" json:"createdBy"`
	IsActive     bool           `gorm:"index;default:true" json:"isActive"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// UsesPremiumFeatures reports whether the template needs a premium guild:
// more than one embed, or any interactive components.
func (t *Template) UsesPremiumFeatures() bool {
	return len(t.Embeds) > 1 || len(t.Components) > 0
}
