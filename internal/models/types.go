package models

import (
	"time"
)

// Conversation roles. Only RoleUser entries count toward statistics.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is one entry of the bot chat log. The table is shared with the
// Telegram bot, which appends entries; this service only reads them.
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:100;index;not null" json:"user_id"`
	Role      string    `gorm:"size:20;index;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Event is a party record managed by the promoter.
type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Date        time.Time `gorm:"index;not null" json:"date"`
	Venue       string    `gorm:"size:300;not null" json:"venue"`
	Theme       string    `gorm:"size:100;default:Normal" json:"theme"`
	Description string    `gorm:"type:text" json:"description"`
	DJInfo      string    `gorm:"size:300" json:"dj_info"`
	Capacity    int       `json:"capacity"`
	EntryPrice  string    `gorm:"size:100" json:"entry_price"`
	EntryLink   string    `gorm:"size:500" json:"entry_link"`
	ImageURL    string    `gorm:"size:500" json:"image_url"`
	Active      bool      `gorm:"index;default:true" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Message is a chat message in OpenAI wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// InsightReport is the 4-field AI summary of recent user activity.
type InsightReport struct {
	FrequentQuestions string `json:"frequent_questions"`
	PopularVenues     string `json:"popular_venues"`
	Sentiment         string `json:"sentiment"`
	Suggestions       string `json:"suggestions"`
}
