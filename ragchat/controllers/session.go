package controllers

import (
	"context"

	"ragchat/ragchat/sessions"
	"ragchat/ragchat/sources/storage"
)

const SessionCleared = "Session cleared successfully."

type SessionController struct {
	sessions *sessions.Manager
}

func NewSessionController(mgr *sessions.Manager) *SessionController {
	return &SessionController{sessions: mgr}
}

// Clear forgets the transcript and document reference in one step.
func (c *SessionController) Clear(ctx context.Context, sessionID string) error {
	if err := c.sessions.Clear(ctx, sessionID); err != nil {
		return upstreamError(sessionID, "clear session", err)
	}
	return nil
}

// History returns the visible transcript (no system message) and document.
func (c *SessionController) History(ctx context.Context, sessionID string) ([]sessions.ChatMessage, *storage.Reference, error) {
	sess, err := c.sessions.GetOrInit(ctx, sessionID)
	if err != nil {
		return nil, nil, upstreamError(sessionID, "load session", err)
	}
	visible := []sessions.ChatMessage{}
	for _, m := range sess.Transcript() {
		if m.Role != sessions.RoleSystem {
			visible = append(visible, m)
		}
	}
	return visible, sess.Document(), nil
}
