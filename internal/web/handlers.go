package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"eventboard/internal/calendar"
	"eventboard/internal/ics"
	appLog "eventboard/internal/log"
	"eventboard/internal/model"
	"eventboard/internal/query"
	"eventboard/internal/store"
	"eventboard/internal/submit"
)

// archiveResponse is the JSON shape of GET /api/events. Events is
// always present, so an empty result is an explicit empty array and
// renderers can show a "no results" state.
type archiveResponse struct {
	Count  int                 `json:"count"`
	Events []model.EventRecord `json:"events"`
}

// dayCellDTO is a JSON-friendly view of one calendar cell.
type dayCellDTO struct {
	Day     int                 `json:"day"`
	IsToday bool                `json:"is_today"`
	Events  []model.EventRecord `json:"events"`
}

// calendarResponse is the JSON shape of GET /api/calendar/:year/:month.
type calendarResponse struct {
	Year    int          `json:"year"`
	Month   int          `json:"month"` // 1-based
	Label   string       `json:"label"`
	Leading int          `json:"leading"`
	Cells   []dayCellDTO `json:"cells"`
}

// handleArchive serves the filtered archive list.
//
// GET /api/events?search=&category=&date_mode=&start=&end=
func (s *Server) handleArchive(c *gin.Context) {
	criteria := query.Criteria{
		Search:    c.Query("search"),
		Category:  c.Query("category"),
		DateMode:  c.Query("date_mode"),
		StartDate: c.Query("start"),
		EndDate:   c.Query("end"),
	}

	events := s.loadEvents(c.Request.Context())
	filtered := query.Filter(events, criteria)

	c.JSON(http.StatusOK, archiveResponse{
		Count:  len(filtered),
		Events: filtered,
	})
}

// handleSubmit accepts a multipart form submission, builds a record
// and appends it to the store. The optional image file is fully read
// and encoded before anything is persisted.
func (s *Server) handleSubmit(c *gin.Context) {
	in := submit.Input{
		Title:       c.PostForm("title"),
		DateTime:    c.PostForm("date"),
		Type:        c.PostForm("type"),
		Description: c.PostForm("description"),
		Location:    c.PostForm("location"),
		OtherInfo:   c.PostForm("other"),
	}

	if header, err := c.FormFile("image"); err == nil {
		in.ImageName = header.Filename
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not read image"})
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not read image"})
			return
		}
		in.Image = data
	}

	rec, err := submit.Build(in)
	if err != nil {
		var vErr *submit.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field", "field": vErr.Field})
			return
		}
		var imgErr *submit.ImageError
		if errors.As(err, &imgErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not encode image"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := s.store.Append(c.Request.Context(), rec)
	if err != nil {
		appLog.Warn("failed to persist submitted event", "err", err, "title", rec.Title)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event could not be saved"})
		return
	}
	s.invalidate()

	// Successful submission hands clients over to the archive view.
	// The response carries the record as stored, post-normalization.
	c.Header("Location", "/api/events")
	c.JSON(http.StatusCreated, gin.H{
		"message": "event submitted",
		"event":   stored,
	})
}

// handleCalendar serves a month grid. The URL uses a human 1-based
// month; the grid builder is 0-based.
func (s *Server) handleCalendar(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}

	events := s.loadEvents(c.Request.Context())
	today := time.Now().In(s.cfg.Location())
	m := calendar.BuildMonth(year, month-1, events, today)

	cells := make([]dayCellDTO, 0, len(m.Cells))
	for _, cell := range m.Cells {
		events := cell.Events
		if events == nil {
			events = []model.EventRecord{}
		}
		cells = append(cells, dayCellDTO{Day: cell.Day, IsToday: cell.IsToday, Events: events})
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	c.JSON(http.StatusOK, calendarResponse{
		Year:    m.Year,
		Month:   month,
		Label:   first.Format("January 2006"),
		Leading: m.Leading,
		Cells:   cells,
	})
}

// handleReset restores the default event set.
func (s *Server) handleReset(c *gin.Context) {
	if err := s.store.Reset(c.Request.Context()); err != nil {
		appLog.Warn("reset failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		return
	}
	s.invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "events reset to defaults", "count": len(store.DefaultEvents())})
}

// handleExport serves the catalog as an iCalendar feed.
func (s *Server) handleExport(c *gin.Context) {
	events := s.loadEvents(c.Request.Context())
	data, err := ics.Export(events, s.cfg.CalendarName)
	if err != nil {
		appLog.Error("ics export failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}
