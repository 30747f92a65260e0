package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"personnel-records/internal/records"
	"personnel-records/internal/uploads"
)

// documents maps the upload inputs of the form to their path columns.
var documents = []struct {
	field records.Field
	input string
	label string
}{
	{records.PANUploadPath, "pan_file", "PAN"},
	{records.AadharUploadPath, "aadhar_file", "Aadhar"},
	{records.PhotoUploadPath, "photo_file", "Photo"},
}

var notFoundFlash = Flash{Category: "danger", Message: "Record not found."}

func (s *Server) newRecordForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "form.html", http.StatusOK, &pageData{
		Title: "New Record",
		Form:  s.newFormView("New Personnel Record", "/", "Save", records.Record{}),
	})
}

// createRecord appends a record built from the submitted form. Documents are
// filed under the Army No, or the creation timestamp when that is empty.
func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	var rec records.Record
	collectFields(r, &rec)

	dir := uploads.SubjectDir(rec.Get(records.ArmyNo), now.Format(uploads.NameLayout))
	msgs := s.attachDocuments(r, &rec, dir)

	rec.Set(records.CreatedOn, now.Format(records.TimeLayout))
	rec.Set(records.LastModified, "")

	idx, err := s.records.Append(r.Context(), rec)
	s.metrics.RecordOp("create", err)
	if err != nil {
		Error("create record", requestFields(r, nil), err)
		s.redirect(w, r, "/", append(msgs, Flash{Category: "danger", Message: "Could not save record: " + err.Error()})...)
		return
	}
	Info("record created", requestFields(r, map[string]interface{}{"index": idx}))
	s.redirect(w, r, "/records", append(msgs, Flash{Category: "success", Message: "Entry saved successfully!"})...)
}

// listRecords shows one page of the table. Unparseable page numbers mean
// page 1; pages past the end are empty.
func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}

	data := &pageData{Title: "Records", Columns: listColumns, Page: page, Pages: 1}
	t, err := s.records.Load(r.Context())
	if err != nil {
		Error("list records", requestFields(r, nil), err)
		s.render(w, r, "records.html", http.StatusOK, data,
			Flash{Category: "danger", Message: "Could not load records: " + err.Error()})
		return
	}
	data.Pages = t.PageCount(s.perPage)
	data.Rows = s.rowViews(t.Page(page, s.perPage))
	s.render(w, r, "records.html", http.StatusOK, data)
}

func (s *Server) editRecordForm(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(r)
	if !ok {
		s.redirect(w, r, "/records", notFoundFlash)
		return
	}
	rec, err := s.records.Get(r.Context(), idx)
	if err != nil {
		s.storeFailure(w, r, "load record", err)
		return
	}
	s.render(w, r, "form.html", http.StatusOK, &pageData{
		Title: "Edit Record",
		Form:  s.newFormView(fmt.Sprintf("Edit Record #%d", idx), fmt.Sprintf("/edit/%d", idx), "Update", rec),
	})
}

// updateRecord rewrites the form fields of one record. Created On and any
// document without a new upload keep their stored values.
func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(r)
	if !ok {
		s.redirect(w, r, "/records", notFoundFlash)
		return
	}
	rec, err := s.records.Get(r.Context(), idx)
	if err != nil {
		s.storeFailure(w, r, "load record", err)
		return
	}

	collectFields(r, &rec)
	dir := uploads.SubjectDir(rec.Get(records.ArmyNo), "rec"+strconv.Itoa(idx))
	msgs := s.attachDocuments(r, &rec, dir)
	rec.Set(records.LastModified, s.now().Format(records.TimeLayout))

	err = s.records.Update(r.Context(), idx, rec)
	s.metrics.RecordOp("update", err)
	if err != nil {
		s.storeFailure(w, r, "update record", err, msgs...)
		return
	}
	Info("record updated", requestFields(r, map[string]interface{}{"index": idx}))
	s.redirect(w, r, "/records", append(msgs, Flash{Category: "success", Message: "Record updated."})...)
}

// deleteRecord removes one record; later records move up one position.
// Documents stay on disk unless DeleteUploads is set.
func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(r)
	if !ok {
		s.redirect(w, r, "/records", notFoundFlash)
		return
	}
	removed, err := s.records.Delete(r.Context(), idx)
	s.metrics.RecordOp("delete", err)
	if err != nil {
		s.storeFailure(w, r, "delete record", err)
		return
	}

	if s.deleteUploads {
		for _, d := range documents {
			if err := s.uploads.Remove(r.Context(), removed.Get(d.field)); err != nil {
				Warn("remove document", requestFields(r, map[string]interface{}{
					"index": idx,
					"path":  removed.Get(d.field),
					"error": err.Error(),
				}))
			}
		}
	}
	Info("record deleted", requestFields(r, map[string]interface{}{"index": idx}))
	s.redirect(w, r, "/records", Flash{Category: "warning", Message: "Record deleted."})
}

// storeFailure answers a failed Get, Update or Delete: an unknown index is
// "Record not found.", anything else is reported with its error.
func (s *Server) storeFailure(w http.ResponseWriter, r *http.Request, what string, err error, msgs ...Flash) {
	if errors.Is(err, records.ErrIndexOutOfRange) {
		s.redirect(w, r, "/records", append(msgs, notFoundFlash)...)
		return
	}
	Error(what, requestFields(r, nil), err)
	s.redirect(w, r, "/records", append(msgs, Flash{Category: "danger", Message: "Could not " + what + ": " + err.Error()})...)
}

func indexParam(r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// collectFields copies every form field from the submitted form into rec.
// Absent inputs are stored as "".
func collectFields(r *http.Request, rec *records.Record) {
	for _, f := range records.FormFields {
		v := r.PostForm.Get(f.String())
		if f.IsMultiEntry() {
			v = records.JoinEntries(v)
		}
		rec.Set(f, v)
	}
}

// attachDocuments stores each uploaded document and records its path. A
// rejected or failed upload leaves the path as it was and yields a flash.
func (s *Server) attachDocuments(r *http.Request, rec *records.Record, dir string) []Flash {
	var msgs []Flash
	for _, d := range documents {
		fh := formFile(r, d.input)
		if fh == nil || fh.Filename == "" {
			continue
		}
		stored, err := s.uploads.Accept(r.Context(), dir, fh)
		switch {
		case errors.Is(err, uploads.ErrRejected):
			s.metrics.RecordUpload("rejected")
			msgs = append(msgs, Flash{
				Category: "warning",
				Message:  fmt.Sprintf("%s document %q was not saved: only png, jpg, jpeg and pdf files are accepted.", d.label, shortName(fh.Filename)),
			})
		case err != nil:
			s.metrics.RecordUpload("failed")
			Error("store document", requestFields(r, map[string]interface{}{"input": d.input}), err)
			msgs = append(msgs, Flash{
				Category: "danger",
				Message:  fmt.Sprintf("%s document %q could not be stored.", d.label, shortName(fh.Filename)),
			})
		default:
			s.metrics.RecordUpload("stored")
			rec.Set(d.field, stored)
		}
	}
	return msgs
}

// maxNameRunes bounds client file names quoted in flashes, which travel in a
// cookie.
const maxNameRunes = 80

func shortName(name string) string {
	runes := []rune(name)
	if len(runes) <= maxNameRunes {
		return name
	}
	return string(runes[:maxNameRunes]) + "..."
}

func formFile(r *http.Request, name string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[name]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}
