package controllers

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"ragchat/ragchat/retrieval"
	"ragchat/ragchat/services/llm"
	"ragchat/ragchat/sessions"
	"ragchat/ragchat/sources/storage"
	"ragchat/ragchat/utils/logging"
)

// NoDocumentNote stands in for snippets when the session has no upload.
const NoDocumentNote = "No document uploaded."

type TurnResult struct {
	Reply    string
	Snippets []string
	// Response is Reply plus the information-source trailer.
	Response string
}

type ChatController struct {
	sessions *sessions.Manager
	docs     storage.DocumentStore
	llm      llm.Completer
	model    string
}

func NewChatController(mgr *sessions.Manager, docs storage.DocumentStore, completer llm.Completer, model string) *ChatController {
	return &ChatController{sessions: mgr, docs: docs, llm: completer, model: model}
}

// HandleTurn grounds message in the session's document, asks the model and
// records the turn. The transcript is only saved when the model replied.
// Any string is a valid message, blank included; callers reject an absent one.
func (c *ChatController) HandleTurn(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	defer logging.LogDuration(ctx, "chat_handle_turn")()

	sess, err := c.sessions.GetOrInit(ctx, sessionID)
	if err != nil {
		return nil, upstreamError(sessionID, "load session", err)
	}

	snippets, contextText, err := c.lookup(ctx, sess.Document(), message)
	if err != nil {
		return nil, upstreamError(sessionID, "read document", err)
	}

	augmented := AugmentMessage(message, contextText)
	transcript := append(sess.Transcript(), sessions.ChatMessage{Role: sessions.RoleUser, Content: augmented})

	reply, err := c.llm.Complete(ctx, c.model, toLLM(transcript))
	if err != nil {
		return nil, upstreamError(sessionID, "chat completion", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, upstreamError(sessionID, "chat completion", llm.ErrEmptyCompletion)
	}

	sess.AppendUser(augmented)
	sess.AppendAssistant(reply)
	if err := c.sessions.Save(ctx, sess); err != nil {
		return nil, upstreamError(sessionID, "save session", err)
	}

	logging.AppLogger.Info("chat turn handled",
		zap.String("session_id", sessionID),
		zap.Int("snippets", len(snippets)),
		zap.Int("transcript_len", len(transcript)+1),
	)
	return &TurnResult{
		Reply:    reply,
		Snippets: snippets,
		Response: FormatResponse(reply, contextText),
	}, nil
}

func (c *ChatController) lookup(ctx context.Context, ref *storage.Reference, message string) ([]string, string, error) {
	if ref == nil {
		return nil, NoDocumentNote, nil
	}
	rc, err := c.docs.Open(ctx, *ref)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()
	snippets, err := retrieval.Search(rc, message)
	if err != nil {
		return nil, "", err
	}
	return snippets, strings.Join(snippets, "\n"), nil
}

// AugmentMessage wraps the user's text with the document context sent to the model.
func AugmentMessage(message, contextText string) string {
	return "User's message:\n" + message + "\n\n" +
		"Additional context provided from the uploaded document:\n" +
		contextText + "\n"
}

// FormatResponse appends the information-source trailer shown to the caller.
func FormatResponse(reply, contextText string) string {
	return reply + "\n\nInformation source:\n" + contextText
}

func toLLM(transcript []sessions.ChatMessage) []llm.Message {
	out := make([]llm.Message, len(transcript))
	for i, m := range transcript {
		out[i] = llm.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}
