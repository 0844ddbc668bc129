package controllers

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"ragchat/ragchat/sessions"
	"ragchat/ragchat/sources/storage"
	"ragchat/ragchat/utils/logging"
)

const UploadOK = "File uploaded and parsed successfully."

// Upload is one file taken off a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	// Size is the declared length, or -1 when unknown.
	Size int64
	Body io.Reader
}

type DocumentController struct {
	sessions *sessions.Manager
	docs     storage.DocumentStore
}

func NewDocumentController(mgr *sessions.Manager, docs storage.DocumentStore) *DocumentController {
	return &DocumentController{sessions: mgr, docs: docs}
}

// Upload validates, stores and attaches the document. Every validation
// failure happens before the store is touched.
func (c *DocumentController) Upload(ctx context.Context, sessionID string, up Upload) (*storage.Reference, error) {
	defer logging.LogDuration(ctx, "document_upload")()

	name := storage.CleanName(up.Filename)
	if name == "" {
		return nil, ErrEmptyFilename
	}
	contentType := storage.ContentType(up.ContentType, name)
	if !storage.Allowed(contentType) {
		return nil, ErrUnsupportedType
	}
	if up.Size > storage.MaxDocumentBytes {
		return nil, ErrTooLarge
	}
	content, err := io.ReadAll(io.LimitReader(up.Body, storage.MaxDocumentBytes+1))
	if err != nil {
		return nil, &ClientError{Status: http.StatusBadRequest, Message: "Could not read uploaded file"}
	}
	if len(content) > storage.MaxDocumentBytes {
		return nil, ErrTooLarge
	}

	ref, err := c.docs.Put(ctx, name, content, contentType)
	if err != nil {
		return nil, upstreamError(sessionID, "store document", err)
	}
	if err := c.sessions.AttachDocument(ctx, sessionID, ref); err != nil {
		return nil, upstreamError(sessionID, "attach document", err)
	}
	logging.AppLogger.Info("document uploaded",
		zap.String("session_id", sessionID),
		zap.String("backend", ref.Backend),
		zap.String("key", ref.Key),
		zap.Int64("size", ref.Size),
	)
	return &ref, nil
}
