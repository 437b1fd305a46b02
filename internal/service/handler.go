// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/wneessen/geosnap/internal/export"
	"github.com/wneessen/geosnap/internal/form"
	"github.com/wneessen/geosnap/internal/location"
	"github.com/wneessen/geosnap/internal/logger"
	"github.com/wneessen/geosnap/internal/presenter"
	"github.com/wneessen/geosnap/internal/session"
)

// multipartMemory is the part of a multipart upload kept in memory before spilling to disk.
const multipartMemory = 8 << 20

type sessionResponse struct {
	ID       string           `json:"id"`
	Created  time.Time        `json:"created"`
	Unlocked bool             `json:"unlocked"`
	Location locationResponse `json:"location"`
	Fields   []string         `json:"fields"`
}

type locationResponse struct {
	Label     string    `json:"label"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Source    string    `json:"source"`
	Seq       uint64    `json:"seq"`
	UpdatedAt time.Time `json:"updated_at"`
}

type unlockRequest struct {
	Secret string `json:"secret"`
}

type unlockResponse struct {
	Message    string `json:"message"`
	Refreshing bool   `json:"refreshing"`
}

type coordinateRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type deviceReportRequest struct {
	Seq       *uint64  `json:"seq"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type refreshResponse struct {
	Ticket     uint64            `json:"ticket"`
	Refreshing bool              `json:"refreshing"`
	Applied    bool              `json:"applied"`
	Error      string            `json:"error,omitempty"`
	Location   *locationResponse `json:"location,omitempty"`
}

type addressResponse struct {
	Address  string           `json:"address"`
	Status   string           `json:"status"`
	Provider string           `json:"provider,omitempty"`
	Location locationResponse `json:"location"`
}

type fieldsRequest struct {
	Fields []string `json:"fields"`
	Raw    *string  `json:"raw"`
}

type fieldsResponse struct {
	Fields []string `json:"fields"`
	Text   string   `json:"text"`
}

type formResponse struct {
	State     string `json:"state"`
	EditIndex *int   `json:"edit_index"`
}

type draftResponse struct {
	Index     int               `json:"index"`
	UserID    string            `json:"user_id"`
	Fields    map[string]string `json:"fields"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Address   string            `json:"address"`
}

type submitRequest struct {
	UserID string            `json:"user_id"`
	Fields map[string]string `json:"fields"`
	Photo  []byte            `json:"photo"`
}

type submitResponse struct {
	Action  form.Action            `json:"action"`
	Index   int                    `json:"index"`
	Message string                 `json:"message"`
	Record  presenter.RecordDetail `json:"record"`
}

// Handler returns the routes of the JSON API.
func (s *Service) Handler() stdhttp.Handler {
	mux := stdhttp.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.createSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.closeSession)
	mux.HandleFunc("POST /api/sessions/{id}/unlock", s.unlock)
	mux.HandleFunc("GET /api/sessions/{id}/location", s.getLocation)
	mux.HandleFunc("PUT /api/sessions/{id}/location", s.setLocation)
	mux.HandleFunc("POST /api/sessions/{id}/location/refresh", s.refreshLocation)
	mux.HandleFunc("PUT /api/sessions/{id}/location/device", s.reportDevice)
	mux.HandleFunc("GET /api/sessions/{id}/address", s.previewAddress)
	mux.HandleFunc("GET /api/sessions/{id}/fields", s.getFields)
	mux.HandleFunc("PUT /api/sessions/{id}/fields", s.setFields)
	mux.HandleFunc("GET /api/sessions/{id}/form", s.getForm)
	mux.HandleFunc("POST /api/sessions/{id}/form/edit/{index}", s.startEdit)
	mux.HandleFunc("DELETE /api/sessions/{id}/form/edit", s.cancelEdit)
	mux.HandleFunc("POST /api/sessions/{id}/records", s.submitRecord)
	mux.HandleFunc("GET /api/sessions/{id}/records", s.listRecords)
	mux.HandleFunc("GET /api/sessions/{id}/records/{index}", s.getRecord)
	mux.HandleFunc("GET /api/sessions/{id}/records/{index}/photo", s.getPhoto)
	mux.HandleFunc("DELETE /api/sessions/{id}/records/{index}", s.deleteRecord)
	mux.HandleFunc("GET /api/sessions/{id}/export.csv", s.exportCSV)
	return mux
}

func (s *Service) session(r *stdhttp.Request) (*session.Session, error) {
	return s.manager.Get(r.PathValue("id"))
}

func (s *Service) createSession(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, err := s.manager.Create()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, stdhttp.StatusCreated, sessionResponse{
		ID:       sess.ID,
		Created:  sess.Created,
		Unlocked: sess.Unlocked(),
		Location: s.locationView(sess.Location.Current()),
		Fields:   sess.Form.Fields().Names(),
	})
}

func (s *Service) closeSession(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if err := s.manager.Close(r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(stdhttp.StatusNoContent)
}

func (s *Service) unlock(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	var req unlockRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	outcome, err := s.manager.Unlock(r.PathValue("id"), req.Secret)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, stdhttp.StatusOK, unlockResponse{
		Message:    s.translate(session.MsgAuthenticated),
		Refreshing: outcome != nil,
	})
}

func (s *Service) getLocation(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, stdhttp.StatusOK, s.locationView(sess.Location.Current()))
}

func (s *Service) setLocation(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req coordinateRequest
	if err = decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		s.writeError(w, r, fmt.Errorf("%w: latitude and longitude are required", errBadRequest))
		return
	}
	coord := location.Coordinate{Lat: *req.Latitude, Lon: *req.Longitude}
	if !coord.Valid() {
		s.writeError(w, r, fmt.Errorf("%w: %f, %f", errInvalidCoordinates, coord.Lat, coord.Lon))
		return
	}
	s.writeJSON(w, stdhttp.StatusOK, s.locationView(sess.Location.SetFromMapTap(coord)))
}

// refreshLocation hands out a ticket for a client side device measurement and starts the
// configured server side lookup, if any. It answers 202 right away. With ?wait=true the
// handler blocks until the server lookup finished, which is bounded by the lookup timeout.
func (s *Service) refreshLocation(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ticket := sess.Location.Current().Seq
	outcome, err := s.manager.RefreshLocation(sess.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if outcome == nil || r.URL.Query().Get("wait") != "true" {
		s.writeJSON(w, stdhttp.StatusAccepted, refreshResponse{Ticket: ticket, Refreshing: outcome != nil})
		return
	}

	select {
	case <-r.Context().Done():
		return
	case res, ok := <-outcome:
		resp := refreshResponse{Ticket: ticket}
		if ok {
			view := s.locationView(res.Fix)
			resp.Applied, resp.Location = res.Applied, &view
			if res.Err != nil {
				resp.Error = res.Err.Error()
			}
		}
		s.writeJSON(w, stdhttp.StatusOK, resp)
	}
}

// reportDevice applies a position measured by the client. The report carries the ticket from
// refreshLocation and is discarded if the location changed since.
func (s *Service) reportDevice(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req deviceReportRequest
	if err = decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Seq == nil || req.Latitude == nil || req.Longitude == nil {
		s.writeError(w, r, fmt.Errorf("%w: seq, latitude and longitude are required", errBadRequest))
		return
	}
	coord := location.Coordinate{Lat: *req.Latitude, Lon: *req.Longitude}
	if !coord.Valid() {
		s.writeError(w, r, fmt.Errorf("%w: %f, %f", errInvalidCoordinates, coord.Lat, coord.Lon))
		return
	}

	fix, err := sess.Location.ReportDevice(*req.Seq, coord)
	view := s.locationView(fix)
	resp := refreshResponse{Ticket: *req.Seq, Applied: err == nil, Location: &view}
	if err != nil {
		resp.Error = err.Error()
	}
	s.writeJSON(w, stdhttp.StatusOK, resp)
}

func (s *Service) previewAddress(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	preview := sess.Form.Preview(r.Context())
	s.writeJSON(w, stdhttp.StatusOK, addressResponse{
		Address:  preview.Address,
		Status:   preview.Resolution.Status.String(),
		Provider: preview.Resolution.Provider,
		Location: s.locationView(preview.Location),
	})
}

func (s *Service) getFields(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, stdhttp.StatusOK, fieldsView(sess.Form.Fields()))
}

func (s *Service) setFields(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req fieldsRequest
	if err = decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	fields := sess.Form.Fields()
	switch {
	case req.Raw != nil:
		err = fields.SetFromString(*req.Raw)
	default:
		err = fields.Set(req.Fields)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, stdhttp.StatusOK, fieldsView(fields))
}

func (s *Service) getForm(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, stdhttp.StatusOK, formView(sess.Form))
}

func (s *Service) startEdit(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, index, err := s.sessionAndIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	draft, err := sess.Form.StartEdit(r.Context(), index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	fields := make(map[string]string, len(draft.Fields))
	for _, f := range draft.Fields {
		fields[f.Name] = f.Value
	}
	s.writeJSON(w, stdhttp.StatusOK, draftResponse{
		Index:     draft.Index,
		UserID:    draft.UserID,
		Fields:    fields,
		Latitude:  draft.Coordinates.Lat,
		Longitude: draft.Coordinates.Lon,
		Address:   draft.Address,
	})
}

func (s *Service) cancelEdit(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.Form.Cancel(r.Context())
	s.writeJSON(w, stdhttp.StatusOK, formView(sess.Form))
}

func (s *Service) submitRecord(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	r.Body = stdhttp.MaxBytesReader(w, r.Body, s.config.Server.MaxUploadSize)
	input, err := readSubmission(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	outcome, err := sess.Form.Submit(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := stdhttp.StatusCreated
	if outcome.Action == form.ActionUpdated {
		status = stdhttp.StatusOK
	}
	s.writeJSON(w, status, submitResponse{
		Action:  outcome.Action,
		Index:   outcome.Index,
		Message: s.translate(outcome.Message()),
		Record:  s.presenter.Detail(outcome.Index, outcome.Record),
	})
}

func (s *Service) listRecords(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err = presenter.WriteText(w, sess.Store.Table()); err != nil {
			s.writeError(w, r, err)
		}
		return
	}
	s.writeJSON(w, stdhttp.StatusOK, s.presenter.Rows(sess.Store.All()))
}

func (s *Service) getRecord(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, index, err := s.sessionAndIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := sess.Store.Get(index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, stdhttp.StatusOK, s.presenter.Detail(index, rec))
}

// getPhoto serves the raw photo. Bytes that do not decode as an image are answered with the
// localized inline message instead.
func (s *Service) getPhoto(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, index, err := s.sessionAndIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := sess.Store.Get(index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !rec.HasPhoto() {
		s.writeError(w, r, errNoPhoto)
		return
	}
	info := s.presenter.Photo(rec.Photo)
	if info.Error != "" {
		s.writeJSON(w, stdhttp.StatusUnsupportedMediaType, errorResponse{Error: info.Error})
		return
	}
	w.Header().Set("Content-Type", mime.TypeByExtension("."+info.Format))
	w.Header().Set("Content-Length", strconv.Itoa(len(rec.Photo)))
	w.WriteHeader(stdhttp.StatusOK)
	if _, err = w.Write(rec.Photo); err != nil {
		s.logger.Debug("failed to write photo", logger.Err(err))
	}
}

func (s *Service) deleteRecord(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, index, err := s.sessionAndIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err = sess.Form.Delete(r.Context(), index); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, stdhttp.StatusOK, messageResponse{Message: s.translate(form.MsgRecordDeleted)})
}

func (s *Service) exportCSV(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := export.FileName(s.config.Export.FilePrefix, s.clock.Now())
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment",
		map[string]string{"filename": name}))
	if err = export.WriteCSV(w, sess.Store.Table()); err != nil {
		s.logger.Error("failed to write csv export", logger.Err(err))
	}
}

func (s *Service) sessionAndIndex(r *stdhttp.Request) (*session.Session, int, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, 0, err
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: invalid record index: %w", errBadRequest, err)
	}
	return sess, index, nil
}

func (s *Service) locationView(fix location.Fix) locationResponse {
	return locationResponse{
		Label:     s.translate(MsgCurrentLocation),
		Latitude:  fix.Lat,
		Longitude: fix.Lon,
		Accuracy:  fix.Acc,
		Source:    fix.Source,
		Seq:       fix.Seq,
		UpdatedAt: fix.UpdatedAt,
	}
}

func fieldsView(fields *form.FieldNames) fieldsResponse {
	return fieldsResponse{Fields: fields.Names(), Text: fields.String()}
}

func formView(ctrl *form.Controller) formResponse {
	return formResponse{State: ctrl.State(), EditIndex: ctrl.EditIndexPtr()}
}

func decodeJSON(r *stdhttp.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		var maxBytesErr *stdhttp.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

// photoParts lists the multipart file parts carrying a photo. A chosen file wins over a camera
// capture.
var photoParts = []string{"photo", "camera"}

// readSubmission accepts either a JSON body or a multipart form with an optional "photo" or
// "camera" file. Every multipart value except user_id is taken as a custom field.
func readSubmission(r *stdhttp.Request) (form.Input, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req submitRequest
		if err := decodeJSON(r, &req); err != nil {
			return form.Input{}, err
		}
		return form.Input{UserID: req.UserID, Fields: req.Fields, Photo: req.Photo}, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *stdhttp.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return form.Input{}, err
		}
		return form.Input{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	input := form.Input{Fields: make(map[string]string)}
	for key, values := range r.MultipartForm.Value {
		if len(values) == 0 {
			continue
		}
		if key == "user_id" {
			input.UserID = values[0]
			continue
		}
		input.Fields[key] = values[0]
	}

	for _, part := range photoParts {
		file, _, err := r.FormFile(part)
		switch {
		case errors.Is(err, stdhttp.ErrMissingFile):
			continue
		case err != nil:
			return form.Input{}, fmt.Errorf("%w: %w", errBadRequest, err)
		}
		input.Photo, err = io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return form.Input{}, fmt.Errorf("failed to read photo: %w", err)
		}
		break
	}
	return input, nil
}
