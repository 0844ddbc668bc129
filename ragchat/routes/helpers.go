package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ragchat/ragchat/controllers"
	"ragchat/ragchat/utils/logging"
)

// generic wrapper to reduce boilerplate
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			status, msg := errorStatus(err)
			if status == http.StatusInternalServerError {
				logging.ErrorLogger.Error("request failed",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
			}
			writeJSON(w, status, errorBody(msg))
			return
		}
		writeJSON(w, status, res)
	}
}

// errorStatus maps client errors to their status and hides everything else.
func errorStatus(err error) (int, string) {
	var ce *controllers.ClientError
	if errors.As(err, &ce) {
		return ce.Status, ce.Message
	}
	return http.StatusInternalServerError, "internal server error"
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
