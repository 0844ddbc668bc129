package controllers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/ragchat/retrieval"
	"ragchat/ragchat/services/llm"
	"ragchat/ragchat/sessions"
	"ragchat/ragchat/sources/storage"
)

const systemPrompt = "You are a helpful assistant."

type fakeCompleter struct {
	reply string
	err   error
	calls [][]llm.Message
}

func (f *fakeCompleter) Complete(_ context.Context, model string, messages []llm.Message) (string, error) {
	f.calls = append(f.calls, messages)
	return f.reply, f.err
}

type countingStore struct {
	storage.DocumentStore
	puts int
}

func (s *countingStore) Put(ctx context.Context, name string, content []byte, contentType string) (storage.Reference, error) {
	s.puts++
	return s.DocumentStore.Put(ctx, name, content, contentType)
}

type fixture struct {
	mgr     *sessions.Manager
	docs    *countingStore
	llm     *fakeCompleter
	chat    *ChatController
	uploads *DocumentController
	session *SessionController
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	local, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	f := &fixture{
		mgr:  sessions.NewManager(sessions.NewMemoryStore(time.Hour), systemPrompt),
		docs: &countingStore{DocumentStore: local},
		llm:  &fakeCompleter{reply: "  Alice approved it.  "},
	}
	f.chat = NewChatController(f.mgr, f.docs, f.llm, "gpt-4o-mini")
	f.uploads = NewDocumentController(f.mgr, f.docs)
	f.session = NewSessionController(f.mgr)
	return f
}

func textUpload(name, body string) Upload {
	return Upload{Filename: name, ContentType: "text/plain", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestHandleTurnWithDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.uploads.Upload(ctx, "s1", textUpload("minutes.txt", "Agenda\nBudget X was approved by Alice.\nLunch\n"))
	require.NoError(t, err)

	res, err := f.chat.HandleTurn(ctx, "s1", "Who approved budget X?")
	require.NoError(t, err)
	assert.Equal(t, "Alice approved it.", res.Reply)
	assert.Equal(t, []string{"Budget X was approved by Alice."}, res.Snippets)
	assert.Equal(t, "Alice approved it.\n\nInformation source:\nBudget X was approved by Alice.", res.Response)

	require.Len(t, f.llm.calls, 1)
	sent := f.llm.calls[0]
	require.Len(t, sent, 2)
	assert.Equal(t, "system", sent[0].Role)
	assert.Equal(t, AugmentMessage("Who approved budget X?", "Budget X was approved by Alice."), sent[1].Content)

	sess, err := f.mgr.GetOrInit(ctx, "s1")
	require.NoError(t, err)
	tr := sess.Transcript()
	require.Len(t, tr, 3)
	assert.Equal(t, sent[1].Content, tr[1].Content)
	assert.Equal(t, sessions.ChatMessage{Role: sessions.RoleAssistant, Content: "Alice approved it."}, tr[2])
}

func TestHandleTurnNoMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.uploads.Upload(ctx, "s1", textUpload("a.txt", "alpha\nbeta\n"))
	require.NoError(t, err)

	res, err := f.chat.HandleTurn(ctx, "s1", "gamma?")
	require.NoError(t, err)
	assert.Equal(t, []string{retrieval.NoMatch}, res.Snippets)
	assert.True(t, strings.HasSuffix(res.Response, "Information source:\n"+retrieval.NoMatch))
}

func TestHandleTurnWithoutDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.chat.HandleTurn(ctx, "s1", "hello")
	require.NoError(t, err)
	assert.Empty(t, res.Snippets)
	assert.True(t, strings.HasSuffix(res.Response, "Information source:\n"+NoDocumentNote))
	assert.Contains(t, f.llm.calls[0][1].Content, NoDocumentNote)
}

func TestHandleTurnReplaysTranscript(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.chat.HandleTurn(ctx, "s1", "first")
	require.NoError(t, err)
	_, err = f.chat.HandleTurn(ctx, "s1", "second")
	require.NoError(t, err)

	require.Len(t, f.llm.calls, 2)
	second := f.llm.calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, []string{"system", "user", "assistant", "user"},
		[]string{second[0].Role, second[1].Role, second[2].Role, second[3].Role})
	// The trailer is cosmetic and never reaches the model.
	assert.NotContains(t, second[2].Content, "Information source:")
}

func TestHandleTurnFailureLeavesTranscript(t *testing.T) {
	ctx := context.Background()
	for name, fc := range map[string]*fakeCompleter{
		"error": {err: errors.New("boom")},
		"empty": {reply: "   "},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.chat = NewChatController(f.mgr, f.docs, fc, "gpt-4o-mini")

			_, err := f.chat.HandleTurn(ctx, "s1", "hello")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUpstream))

			sess, err := f.mgr.GetOrInit(ctx, "s1")
			require.NoError(t, err)
			assert.Len(t, sess.Transcript(), 1)
		})
	}
}

func TestHandleTurnMissingDocumentIsUpstream(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.mgr.AttachDocument(ctx, "s1", storage.Reference{Backend: storage.BackendLocal, Key: "/nonexistent/doc.txt"}))

	_, err := f.chat.HandleTurn(ctx, "s1", "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Empty(t, f.llm.calls)
}

func TestHandleTurnBlankMessageIsForwarded(t *testing.T) {
	f := newFixture(t)
	res, err := f.chat.HandleTurn(context.Background(), "s1", "  ")
	require.NoError(t, err)
	assert.Len(t, f.llm.calls, 1)
	assert.Equal(t, "Alice approved it.", res.Reply)

	sess, err := f.mgr.GetOrInit(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, sess.Transcript(), 3)
}

func TestUploadValidation(t *testing.T) {
	ctx := context.Background()
	big := bytes.Repeat([]byte("a"), storage.MaxDocumentBytes+1)
	cases := []struct {
		name string
		up   Upload
		want *ClientError
	}{
		{"empty filename", Upload{Filename: "", ContentType: "text/plain", Body: strings.NewReader("x")}, ErrEmptyFilename},
		{"pdf", Upload{Filename: "a.pdf", ContentType: "application/pdf", Body: strings.NewReader("x")}, ErrUnsupportedType},
		{"unknown extension", Upload{Filename: "a.docx", ContentType: "application/octet-stream", Body: strings.NewReader("x")}, ErrUnsupportedType},
		{"declared too large", Upload{Filename: "a.txt", ContentType: "text/plain", Size: int64(len(big)), Body: bytes.NewReader(big)}, ErrTooLarge},
		{"undeclared too large", Upload{Filename: "a.txt", ContentType: "text/plain", Size: -1, Body: bytes.NewReader(big)}, ErrTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.uploads.Upload(ctx, "s1", tc.up)
			assert.Equal(t, tc.want, err)
			assert.Zero(t, f.docs.puts)

			sess, err := f.mgr.GetOrInit(ctx, "s1")
			require.NoError(t, err)
			assert.Nil(t, sess.Document())
		})
	}
}

func TestUploadExactlyAtLimit(t *testing.T) {
	f := newFixture(t)
	body := bytes.Repeat([]byte("a"), storage.MaxDocumentBytes)
	ref, err := f.uploads.Upload(context.Background(), "s1", Upload{Filename: "max.csv", ContentType: "", Size: -1, Body: bytes.NewReader(body)})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", ref.ContentType)
	assert.EqualValues(t, storage.MaxDocumentBytes, ref.Size)
}

func TestUploadThenQueryRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.uploads.Upload(ctx, "s1", textUpload("staff.csv", "name,role\nbob,janitor\ncarol,admin\n"))
	require.NoError(t, err)

	res, err := f.chat.HandleTurn(ctx, "s1", "Who is the admin?")
	require.NoError(t, err)
	assert.Contains(t, res.Snippets, "carol,admin")
}

type failingDocs struct{ storage.DocumentStore }

func (failingDocs) Put(context.Context, string, []byte, string) (storage.Reference, error) {
	return storage.Reference{}, errors.New("bucket unreachable")
}

func (failingDocs) Open(context.Context, storage.Reference) (io.ReadCloser, error) {
	return nil, errors.New("bucket unreachable")
}

func TestUploadStorageFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uploads := NewDocumentController(f.mgr, failingDocs{})

	_, err := uploads.Upload(ctx, "s1", textUpload("a.txt", "x"))
	assert.True(t, errors.Is(err, ErrUpstream))

	sess, err := f.mgr.GetOrInit(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, sess.Document())
}

func TestClearSessionTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.uploads.Upload(ctx, "s1", textUpload("a.txt", "x"))
	require.NoError(t, err)
	_, err = f.chat.HandleTurn(ctx, "s1", "x?")
	require.NoError(t, err)

	require.NoError(t, f.session.Clear(ctx, "s1"))
	require.NoError(t, f.session.Clear(ctx, "s1"))

	msgs, doc, err := f.session.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Nil(t, doc)
}

func TestHistoryHidesSystemMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.chat.HandleTurn(ctx, "s1", "hello")
	require.NoError(t, err)

	msgs, _, err := f.session.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, sessions.RoleUser, msgs[0].Role)
	assert.Equal(t, sessions.RoleAssistant, msgs[1].Role)
}
