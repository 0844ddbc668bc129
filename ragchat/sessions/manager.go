package sessions

import (
	"context"
	"fmt"

	"ragchat/ragchat/sources/storage"
)

type Manager struct {
	store        Store
	systemPrompt string
}

func NewManager(store Store, systemPrompt string) *Manager {
	return &Manager{store: store, systemPrompt: systemPrompt}
}

// GetOrInit loads the session, seeding the system message when the
// transcript is empty.
func (m *Manager) GetOrInit(ctx context.Context, id string) (*Session, error) {
	st, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	sess := &Session{ID: id}
	if st != nil {
		sess.state = State{Transcript: st.Transcript, Document: st.Document}
	}
	if len(sess.state.Transcript) == 0 || sess.state.Transcript[0].Role != RoleSystem {
		seeded := []ChatMessage{{Role: RoleSystem, Content: m.systemPrompt}}
		sess.state.Transcript = append(seeded, sess.state.Transcript...)
	}
	return sess, nil
}

func (m *Manager) Save(ctx context.Context, sess *Session) error {
	st := &State{Transcript: sess.Transcript(), Document: sess.Document()}
	if err := m.store.Set(ctx, sess.ID, st); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// AttachDocument points the session at ref, replacing any earlier upload.
func (m *Manager) AttachDocument(ctx context.Context, id string, ref storage.Reference) error {
	sess, err := m.GetOrInit(ctx, id)
	if err != nil {
		return err
	}
	sess.SetDocument(ref)
	return m.Save(ctx, sess)
}

// Clear drops transcript and document reference together. Clearing an
// absent session succeeds.
func (m *Manager) Clear(ctx context.Context, id string) error {
	if err := m.store.Clear(ctx, id); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
