package httpapi

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/TemirB/bankid-sign/internal/domain"
)

//go:embed web/templates/*.html web/static/*
var webFS embed.FS

var badgeClasses = map[string]string{
	domain.StatusFailed:   "badge badge-failed",
	domain.StatusComplete: "badge badge-complete",
}

type pages struct {
	index *template.Template
}

type dashboardView struct {
	Search string
	Total  int
	Signs  []domain.Sign
	Error  string
}

func mustParsePages() *pages {
	funcs := template.FuncMap{
		"ago": func(t time.Time) string {
			if t.IsZero() {
				return "just now"
			}
			return humanize.Time(t)
		},
		"badge": func(status string) string {
			if c, ok := badgeClasses[status]; ok {
				return c
			}
			return "badge"
		},
		"comma": func(n int) string {
			return humanize.Comma(int64(n))
		},
	}
	return &pages{
		index: template.Must(template.New("index.html").Funcs(funcs).ParseFS(webFS, "web/templates/index.html")),
	}
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	view := dashboardView{Search: r.URL.Query().Get("search")}

	// the header counts every sign; only the list is filtered
	signs, err := s.signs.List(r.Context(), "")
	if err != nil {
		s.logger.Error("Can't load signs for dashboard", zap.Error(err))
		view.Error = "Signs are unavailable right now."
	}
	view.Total = len(signs)
	view.Signs = domain.FilterSigns(signs, view.Search)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.index.Execute(w, view); err != nil {
		s.logger.Error("Can't render dashboard", zap.Error(err))
	}
}
