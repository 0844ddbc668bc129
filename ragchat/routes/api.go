package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ragchat/ragchat/config"
	"ragchat/ragchat/controllers"
	"ragchat/ragchat/middlewares"
	"ragchat/ragchat/sessions"
	"ragchat/ragchat/sources/storage"
	"ragchat/ragchat/utils/logging"
)

const (
	requestTimeout = 60 * time.Second
	// multipart framing on top of the document itself
	uploadOverhead = 64 << 10
	maxJSONBody    = 1 << 20
	maxWSMessage   = 64 << 10
)

type messageRequest struct {
	Message *string `json:"message"`
}

type messageResponse struct {
	Response string   `json:"response"`
	Snippets []string `json:"snippets"`
}

type historyResponse struct {
	Messages []sessions.ChatMessage `json:"messages"`
	Document *documentInfo          `json:"document"`
}

type documentInfo struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// API groups the controllers behind /api.
type API struct {
	Chat     *controllers.ChatController
	Docs     *controllers.DocumentController
	Sessions *controllers.SessionController
	Limiter  *middlewares.RateLimiter
}

func APIRoutes(api API, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.SessionMiddleware([]byte(cfg.SessionSecretKey), cfg.SessionTTL))

	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(requestTimeout))

		gr.With(api.Limiter.Middleware).Post("/message", handleJSON(func(r *http.Request) (any, int, error) {
			var req messageRequest
			if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
				return nil, 0, &controllers.ClientError{Status: http.StatusBadRequest, Message: "Invalid JSON body"}
			}
			if req.Message == nil {
				return nil, 0, controllers.ErrMissingMessage
			}
			res, err := api.Chat.HandleTurn(r.Context(), middlewares.SessionID(r.Context()), *req.Message)
			if err != nil {
				return nil, 0, err
			}
			return newMessageResponse(res), http.StatusOK, nil
		}))

		gr.With(api.Limiter.Middleware).Post("/upload", func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, storage.MaxDocumentBytes+uploadOverhead)
			handleJSON(func(r *http.Request) (any, int, error) {
				up, cleanup, err := readUpload(r)
				defer cleanup()
				if err != nil {
					return nil, 0, err
				}
				if _, err := api.Docs.Upload(r.Context(), middlewares.SessionID(r.Context()), up); err != nil {
					return nil, 0, err
				}
				return map[string]string{"message": controllers.UploadOK}, http.StatusOK, nil
			})(w, r)
		})

		gr.Post("/clear_session", handleJSON(func(r *http.Request) (any, int, error) {
			if err := api.Sessions.Clear(r.Context(), middlewares.SessionID(r.Context())); err != nil {
				return nil, 0, err
			}
			return map[string]string{"message": controllers.SessionCleared}, http.StatusOK, nil
		}))

		gr.Get("/session", handleJSON(func(r *http.Request) (any, int, error) {
			msgs, ref, err := api.Sessions.History(r.Context(), middlewares.SessionID(r.Context()))
			if err != nil {
				return nil, 0, err
			}
			resp := historyResponse{Messages: msgs}
			if ref != nil {
				resp.Document = &documentInfo{Name: ref.Name, Size: ref.Size, ContentType: ref.ContentType}
			}
			return resp, http.StatusOK, nil
		}))
	})

	// The websocket outlives the request timeout; each turn gets its own.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			logging.ErrorLogger.Error("websocket accept error", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")
		conn.SetReadLimit(maxWSMessage)
		serveChatSocket(r.Context(), conn, api, middlewares.CallerKey(r), middlewares.SessionID(r.Context()))
	})
	return r
}

func serveChatSocket(ctx context.Context, conn *websocket.Conn, api API, callerKey, sessionID string) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && ctx.Err() == nil {
				logging.AppLogger.Info("websocket closed", zap.String("session_id", sessionID), zap.Error(err))
			}
			return
		}
		var reply any
		var req messageRequest
		switch {
		case typ != websocket.MessageText:
			reply = errorBody("unsupported data")
		case json.Unmarshal(data, &req) != nil:
			reply = errorBody("Invalid JSON body")
		case req.Message == nil:
			reply = errorBody(controllers.ErrMissingMessage.Message)
		case !api.Limiter.Allow(callerKey):
			reply = errorBody("rate limit exceeded")
		default:
			turnCtx, cancel := context.WithTimeout(ctx, requestTimeout)
			res, err := api.Chat.HandleTurn(turnCtx, sessionID, *req.Message)
			cancel()
			if err != nil {
				_, msg := errorStatus(err)
				reply = errorBody(msg)
			} else {
				reply = newMessageResponse(res)
			}
		}
		if err := wsjson.Write(ctx, conn, reply); err != nil {
			logging.ErrorLogger.Error("websocket write error", zap.Error(err))
			return
		}
	}
}

// readUpload pulls the "file" part; cleanup is always safe to call.
func readUpload(r *http.Request) (controllers.Upload, func(), error) {
	noop := func() {}
	if err := r.ParseMultipartForm(storage.MaxDocumentBytes + uploadOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return controllers.Upload{}, noop, controllers.ErrTooLarge
		}
		return controllers.Upload{}, noop, controllers.ErrNoFilePart
	}
	form := r.MultipartForm
	file, header, err := r.FormFile("file")
	if err != nil {
		// A part sent with filename="" is parsed as a plain value.
		if _, ok := form.Value["file"]; ok {
			return controllers.Upload{}, func() { form.RemoveAll() }, controllers.ErrEmptyFilename
		}
		return controllers.Upload{}, func() { form.RemoveAll() }, controllers.ErrNoFilePart
	}
	up := controllers.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	return up, func() {
		file.Close()
		form.RemoveAll()
	}, nil
}

func newMessageResponse(res *controllers.TurnResult) messageResponse {
	snippets := res.Snippets
	if snippets == nil {
		snippets = []string{}
	}
	return messageResponse{Response: res.Response, Snippets: snippets}
}
