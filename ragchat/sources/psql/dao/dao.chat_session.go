package dao

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ragchat/ragchat/sessions"
	"ragchat/ragchat/sources/psql/models"
	"ragchat/ragchat/sources/storage"
	"ragchat/ragchat/utils/logging"
)

// ChatSessionDAO is the postgres-backed sessions.Store. Set also deletes
// expired rows, at most once per ttl.
type ChatSessionDAO struct {
	DB  *gorm.DB
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	lastSweep time.Time
}

func NewChatSessionDAO(db *gorm.DB, ttl time.Duration) *ChatSessionDAO {
	return &ChatSessionDAO{DB: db, ttl: ttl, now: time.Now}
}

func (dao *ChatSessionDAO) Get(ctx context.Context, id string) (*sessions.State, error) {
	var row models.ChatSession
	err := dao.DB.WithContext(ctx).
		Where("session_id = ? AND expires_at > ?", id, dao.now()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ToState(&row), nil
}

// Set upserts the whole row; a session is never partially updated.
func (dao *ChatSessionDAO) Set(ctx context.Context, id string, state *sessions.State) error {
	now := dao.now()
	if dao.sweepDue(now) {
		if n, err := dao.DeleteExpired(ctx); err != nil {
			logging.ErrorLogger.Error("delete expired sessions", zap.Error(err))
		} else if n > 0 {
			logging.AppLogger.Info("expired sessions deleted", zap.Int64("count", n))
		}
	}

	row := FromState(id, state)
	row.ExpiresAt = now.Add(dao.ttl)
	return dao.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"transcript", "document_backend", "document_key", "document_name",
				"document_size", "document_type", "expires_at", "updated_at",
			}),
		}).
		Create(row).Error
}

func (dao *ChatSessionDAO) Clear(ctx context.Context, id string) error {
	return dao.DB.WithContext(ctx).
		Where("session_id = ?", id).
		Delete(&models.ChatSession{}).Error
}

// DeleteExpired removes rows past their expiry and reports how many went.
func (dao *ChatSessionDAO) DeleteExpired(ctx context.Context) (int64, error) {
	res := dao.DB.WithContext(ctx).
		Where("expires_at <= ?", dao.now()).
		Delete(&models.ChatSession{})
	return res.RowsAffected, res.Error
}

func (dao *ChatSessionDAO) sweepDue(now time.Time) bool {
	dao.mu.Lock()
	defer dao.mu.Unlock()
	if dao.ttl <= 0 || now.Sub(dao.lastSweep) < dao.ttl {
		return false
	}
	dao.lastSweep = now
	return true
}

func FromState(id string, state *sessions.State) *models.ChatSession {
	row := &models.ChatSession{SessionID: id}
	row.Transcript = make([]models.TranscriptMessage, 0, len(state.Transcript))
	for _, m := range state.Transcript {
		row.Transcript = append(row.Transcript, models.TranscriptMessage{Role: string(m.Role), Content: m.Content})
	}
	if ref := state.Document; ref != nil {
		row.DocumentBackend = ref.Backend
		row.DocumentKey = ref.Key
		row.DocumentName = ref.Name
		row.DocumentSize = ref.Size
		row.DocumentType = ref.ContentType
	}
	return row
}

func ToState(row *models.ChatSession) *sessions.State {
	st := &sessions.State{Transcript: make([]sessions.ChatMessage, 0, len(row.Transcript))}
	for _, m := range row.Transcript {
		st.Transcript = append(st.Transcript, sessions.ChatMessage{Role: sessions.Role(m.Role), Content: m.Content})
	}
	if row.DocumentKey != "" {
		st.Document = &storage.Reference{
			Backend:     row.DocumentBackend,
			Key:         row.DocumentKey,
			Name:        row.DocumentName,
			Size:        row.DocumentSize,
			ContentType: row.DocumentType,
		}
	}
	return st
}
