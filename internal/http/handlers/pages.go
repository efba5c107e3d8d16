package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Tiliavir/timesheet/internal/timecalc"
	"github.com/Tiliavir/timesheet/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("pages").Funcs(template.FuncMap{
	"hours":   timecalc.FormatHours,
	"percent": view.RoundPercent,
}).ParseFS(templateFS, "templates/*.html"))

type errorPage struct {
	Title   string
	Message string
}

// render executes the named page into a buffer first so template errors
// become a clean 500.
func render(w http.ResponseWriter, log zerolog.Logger, code int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("render page")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

func renderError(w http.ResponseWriter, log zerolog.Logger, code int, message string) {
	render(w, log, code, "error.html", errorPage{Title: http.StatusText(code), Message: message})
}
