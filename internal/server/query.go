package server

import (
	"net/http"
	"strings"
)

func (s *Server) queryForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "query.html", http.StatusOK, &pageData{Title: "Search", Columns: listColumns})
}

// query runs a case-insensitive substring search over every field. An empty
// keyword shows the form without results; a failed load is reported on the
// page and aborts only this search.
func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.PostForm.Get("keyword"))
	data := &pageData{Title: "Search", Columns: listColumns, Keyword: keyword}
	if keyword == "" {
		s.render(w, r, "query.html", http.StatusOK, data)
		return
	}

	t, err := s.records.Load(r.Context())
	s.metrics.RecordSearch(err)
	if err != nil {
		Error("search", requestFields(r, nil), err)
		s.render(w, r, "query.html", http.StatusOK, data,
			Flash{Category: "danger", Message: "Error searching: " + err.Error()})
		return
	}

	data.Searched = true
	data.Rows = s.rowViews(t.Search(keyword))
	s.render(w, r, "query.html", http.StatusOK, data)
}
