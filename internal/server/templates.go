package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"personnel-records/internal/records"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"login.html", "form.html", "records.html", "query.html"}

// listColumns are shown in the records and search result tables.
var listColumns = []records.Field{
	records.ArmyNo,
	records.Rank,
	records.Name,
	records.Unit,
	records.MobileNumber,
	records.CreatedOn,
	records.LastModified,
}

// pageData is the root value of every template.
type pageData struct {
	Title    string
	Flashes  []Flash
	Subject  string
	CSRF     string
	Username string

	Form *formView

	Columns []records.Field
	Rows    []rowView
	Page    int
	Pages   int

	Keyword  string
	Searched bool
}

type formView struct {
	Heading   string
	Action    string
	Submit    string
	Sections  []sectionView
	Documents []documentView
}

type sectionView struct {
	Title  string
	Inputs []inputView
}

type inputView struct {
	Name  string
	Value string
	Multi bool
}

type documentView struct {
	Label string
	Input string
	Link  string
}

type rowView struct {
	Index     int
	Cells     []string
	Documents []documentView
}

func loadTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		pages[name] = t
	}
	return pages, nil
}

var templateFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
}

// render executes a page inside the layout. Pending flashes are consumed and
// shown before extra.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, data *pageData, extra ...Flash) {
	data.Flashes = append(s.popFlashes(w, r), extra...)
	if sess, ok := sessionFromContext(r.Context()); ok {
		data.Subject = sess.Subject
		tok, err := s.csrf.GetToken(sess.ID)
		if err != nil {
			Error("csrf token", requestFields(r, nil), err)
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		data.CSRF = tok
	}

	var buf bytes.Buffer
	if err := s.pages[name].ExecuteTemplate(&buf, "layout.html", data); err != nil {
		Error("render template", requestFields(r, map[string]interface{}{"template": name}), err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// newFormView lays out rec as the entry form. Multi-entry values are shown
// one item per line.
func (s *Server) newFormView(heading, action, submit string, rec records.Record) *formView {
	fv := &formView{Heading: heading, Action: action, Submit: submit}
	for _, sec := range records.Sections {
		sv := sectionView{Title: sec.Title}
		for _, f := range sec.Fields {
			in := inputView{Name: f.String(), Value: rec.Get(f), Multi: f.IsMultiEntry()}
			if in.Multi {
				in.Value = strings.Join(records.SplitEntries(in.Value), "\n")
			}
			sv.Inputs = append(sv.Inputs, in)
		}
		fv.Sections = append(fv.Sections, sv)
	}
	fv.Documents = s.documentViews(rec)
	return fv
}

func (s *Server) documentViews(rec records.Record) []documentView {
	out := make([]documentView, 0, len(documents))
	for _, d := range documents {
		dv := documentView{Label: d.label, Input: d.input}
		if rel, ok := s.uploads.Rel(rec.Get(d.field)); ok {
			dv.Link = "/uploads/" + rel
		}
		out = append(out, dv)
	}
	return out
}

func (s *Server) rowViews(rows []records.IndexedRecord) []rowView {
	out := make([]rowView, 0, len(rows))
	for _, row := range rows {
		rv := rowView{Index: row.Index, Documents: s.documentViews(row.Record)}
		for _, f := range listColumns {
			rv.Cells = append(rv.Cells, row.Get(f))
		}
		out = append(out, rv)
	}
	return out
}
