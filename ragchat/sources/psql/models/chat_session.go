package models

import (
	"time"
)

type TranscriptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatSession is one caller's transcript plus the current document reference.
type ChatSession struct {
	SessionID       string              `json:"session_id" gorm:"type:varchar(64);primaryKey"`
	Transcript      []TranscriptMessage `json:"transcript" gorm:"type:jsonb;serializer:json;not null"`
	DocumentBackend string              `json:"document_backend" gorm:"type:varchar(16)"`
	DocumentKey     string              `json:"document_key" gorm:"type:text"`
	DocumentName    string              `json:"document_name" gorm:"type:varchar(255)"`
	DocumentSize    int64               `json:"document_size"`
	DocumentType    string              `json:"document_type" gorm:"type:varchar(64)"`
	ExpiresAt       time.Time           `json:"expires_at" gorm:"index;not null"`
	CreatedAt       time.Time           `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
