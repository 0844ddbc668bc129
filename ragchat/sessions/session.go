// Package sessions keeps per-caller chat transcripts and document references.
package sessions

import (
	"context"
	"slices"

	"ragchat/ragchat/sources/storage"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is what a Store persists for one caller.
type State struct {
	Transcript []ChatMessage      `json:"transcript"`
	Document   *storage.Reference `json:"document,omitempty"`
}

// Store persists State keyed by session id. Get returns (nil, nil) when absent.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Set(ctx context.Context, id string, state *State) error
	Clear(ctx context.Context, id string) error
}

// Session is a loaded State; mutations stay local until Manager.Save.
type Session struct {
	ID    string
	state State
}

// Transcript returns a copy of the message history.
func (s *Session) Transcript() []ChatMessage {
	return slices.Clone(s.state.Transcript)
}

// Document returns the current document reference, or nil.
func (s *Session) Document() *storage.Reference {
	if s.state.Document == nil {
		return nil
	}
	ref := *s.state.Document
	return &ref
}

func (s *Session) AppendUser(content string) {
	s.state.Transcript = append(s.state.Transcript, ChatMessage{Role: RoleUser, Content: content})
}

func (s *Session) AppendAssistant(content string) {
	s.state.Transcript = append(s.state.Transcript, ChatMessage{Role: RoleAssistant, Content: content})
}

// SetDocument replaces any previous reference.
func (s *Session) SetDocument(ref storage.Reference) {
	s.state.Document = &ref
}
