package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ragchat/ragchat/web"
)

// WebRoutes serves the embedded chat page at / and its assets under /static.
func WebRoutes() chi.Router {
	r := chi.NewRouter()
	files := http.FileServer(http.FS(web.Static()))
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFileFS(w, req, web.Static(), "index.html")
	})
	r.Handle("/static/*", http.StripPrefix("/static/", files))
	return r
}
