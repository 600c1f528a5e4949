package api

import (
	"html/template"
	"net/http"
	"strings"
)

const homeFailure = "Sorry behn, kuch masla ho gaya. Please try again."

var homeTemplate = template.Must(template.New("home").Parse(`<!doctype html>
<title>HerHaq</title>
<h1>Ask HerHaq</h1>
<form method=post>
  <input name=query size=60 value="{{.Query}}">
  <input type=submit value=Ask>
</form>
{{if .Response}}
  <h2>Answer:</h2>
  <div style="white-space: pre-wrap; border:1px solid #ccc; padding:10px;">{{.Response}}</div>
{{end}}
`))

type homePage struct {
	Query    string
	Response string
}

// handleHome serves the demo form and answers posted questions in plain text.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	var page homePage
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.requestLogger(r).Warn().Err(err).Msg("parse form")
		}
		page.Query = r.PostFormValue("query")
		if strings.TrimSpace(page.Query) != "" {
			answer, err := s.ask(r, page.Query)
			if err != nil {
				s.requestLogger(r).Error().Err(err).Msg("query failed")
				page.Response = homeFailure
			} else {
				page.Response = answer
			}
		}
	default:
		s.methodNotAllowed(w, r, "GET, POST")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, page); err != nil {
		s.requestLogger(r).Warn().Err(err).Msg("render home page")
	}
}
