// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"dormdesk/internal/app"
	"dormdesk/internal/domain"
)

type Handlers struct {
	Catalog  *app.Catalog
	Avail    *app.Availability
	Grid     *app.Grid
	Lanes    *app.Lanes
	Bookings *app.Bookings
	Sync     *app.Sync
	Export   *app.Export
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/v1/rooms", h.listRooms)
	s.mux.Get("/v1/rooms/{id}", h.getRoom)
	s.mux.Get("/v1/rooms/{id}/availability", h.availability)
	s.mux.Get("/v1/rooms/{id}/grid", h.grid)
	s.mux.Get("/v1/rooms/{id}/lanes", h.lanes)
	s.mux.Post("/v1/rooms/{id}/sync", h.syncRoom)
	s.mux.Post("/v1/rooms/{id}/block", h.blockUnit)
	s.mux.Post("/v1/rooms/{id}/unblock", h.unblockUnit)

	s.mux.Post("/v1/bookings", h.createBooking)
	s.mux.Get("/v1/bookings/{id}", h.getBooking)
	s.mux.Post("/v1/bookings/{id}/extend", h.extendBooking)
	s.mux.Post("/v1/bookings/{id}/status", h.updateStatus)
	s.mux.Post("/v1/bookings/{id}/cancel", h.cancelBooking)
	s.mux.Post("/v1/bookings/{id}/unit", h.reassignUnit)

	s.mux.Get("/ical/{token}", h.exportCalendar)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeErr maps the error taxonomy onto HTTP statuses.
func writeErr(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	var ce *domain.ConflictError
	var fe *domain.FeedFetchError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &ve):
		writeProblem(w, http.StatusBadRequest, "Validation Failed", ve.Error())
	case errors.As(err, &ce):
		writeProblem(w, http.StatusConflict, "Conflict", ce.Error())
	case errors.As(err, &fe):
		writeProblem(w, http.StatusBadGateway, "Feed Unreachable", fe.Error())
	default:
		log.Error().Err(err).Msg("internal error")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func queryDate(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, domain.Invalid(key, "required, format 2006-01-02")
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
	if err != nil {
		return time.Time{}, domain.Invalid(key, "format 2006-01-02")
	}
	return t, nil
}

// ---- rooms ----

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	out, err := h.Catalog.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	out, err := h.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) availability(w http.ResponseWriter, r *http.Request) {
	checkIn, err := queryDate(r, "check_in")
	if err != nil {
		writeErr(w, err)
		return
	}
	checkOut, err := queryDate(r, "check_out")
	if err != nil {
		writeErr(w, err)
		return
	}
	units := 1
	if v := r.URL.Query().Get("units"); v != "" {
		if units, err = strconv.Atoi(v); err != nil || units < 1 {
			writeErr(w, domain.Invalid("units", "must be a positive integer"))
			return
		}
	}
	ok, err := h.Avail.IsAvailable(r.Context(), r.URL.Query().Get("location"), chi.URLParam(r, "id"), checkIn, checkOut, units)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": ok})
}

func (h *Handlers) grid(w http.ResponseWriter, r *http.Request) {
	day, err := queryDate(r, "date")
	if err != nil {
		writeErr(w, err)
		return
	}
	out, err := h.Grid.GetOccupancyGrid(r.Context(), chi.URLParam(r, "id"), day)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) lanes(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		writeErr(w, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		writeErr(w, err)
		return
	}
	out, err := h.Lanes.ListLanes(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) syncRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rt, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	feedURL := r.URL.Query().Get("feed_url")
	if feedURL == "" {
		if rt.FeedURL == nil {
			writeErr(w, domain.Invalid("feed_url", "room type has no feed configured"))
			return
		}
		feedURL = *rt.FeedURL
	}
	res, err := h.Sync.SyncRoom(r.Context(), id, feedURL)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) blockUnit(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UnitID int    `json:"unit_id"`
		From   string `json:"from"`
		To     string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, domain.Invalid("body", "malformed JSON"))
		return
	}
	from, err := time.ParseInLocation("2006-01-02", in.From, time.UTC)
	if err != nil {
		writeErr(w, domain.Invalid("from", "format 2006-01-02"))
		return
	}
	to, err := time.ParseInLocation("2006-01-02", in.To, time.UTC)
	if err != nil {
		writeErr(w, domain.Invalid("to", "format 2006-01-02"))
		return
	}
	out, err := h.Bookings.BlockUnit(r.Context(), chi.URLParam(r, "id"), in.UnitID, from, to)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) unblockUnit(w http.ResponseWriter, r *http.Request) {
	var in struct {
		BookingID string `json:"booking_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, domain.Invalid("body", "malformed JSON"))
		return
	}
	out, err := h.Bookings.UnblockUnit(r.Context(), in.BookingID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- bookings ----

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var in app.CreateBookingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, domain.Invalid("body", "malformed JSON"))
		return
	}
	out, err := h.Bookings.Create(r.Context(), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	out, err := h.Bookings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) extendBooking(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CheckOut string `json:"check_out"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, domain.Invalid("body", "malformed JSON"))
		return
	}
	newOut, err := time.ParseInLocation("2006-01-02", in.CheckOut, time.UTC)
	if err != nil {
		writeErr(w, domain.Invalid("check_out", "format 2006-01-02"))
		return
	}
	out, err := h.Bookings.Extend(r.Context(), chi.URLParam(r, "id"), newOut)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, domain.Invalid("body", "malformed JSON"))
		return
	}
	out, err := h.Bookings.UpdateStatus(r.Context(), chi.URLParam(r, "id"), domain.Status(in.Status))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	var in app.CancelInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, domain.Invalid("body", "malformed JSON"))
		return
	}
	out, err := h.Bookings.Cancel(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) reassignUnit(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UnitID int `json:"unit_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, domain.Invalid("body", "malformed JSON"))
		return
	}
	out, err := h.Bookings.ReassignUnit(r.Context(), chi.URLParam(r, "id"), in.UnitID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- calendar export ----

func (h *Handlers) exportCalendar(w http.ResponseWriter, r *http.Request) {
	out, err := h.Export.Calendar(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(out)); err != nil {
		log.Error().Err(err).Msg("failed to write calendar body")
	}
}
