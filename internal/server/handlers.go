package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/researcher/engine"
	"github.com/mohammad-safakhou/researcher/internal/summarizer"
	"github.com/mohammad-safakhou/researcher/models"
)

// User-facing flash texts.
const (
	MsgEmptyQuery     = "Please enter a query."
	MsgSearchFailed   = "Search failed. Please try again later."
	MsgReportNotFound = "Report not found."
	MsgSaveFailed     = "Something went wrong while saving your report. Please try again."
	MsgLoadFailed     = "Something went wrong while loading reports. Please try again."
)

const (
	recentOnIndex   = 5
	historyPageSize = 100
)

// ResearchEngine is the part of engine.Engine the handlers use.
type ResearchEngine interface {
	Research(ctx context.Context, query string) (int64, error)
	Report(ctx context.Context, id int64) (models.Report, error)
	Recent(ctx context.Context, limit int) ([]models.ReportSummary, error)
	Find(ctx context.Context, q string, limit int) ([]models.ReportSummary, error)
}

type ReportsHandler struct {
	Engine ResearchEngine
	Flash  FlashStore
	Logger *log.Logger
}

func (h *ReportsHandler) Register(e *echo.Echo) {
	e.GET("/", h.index)
	e.POST("/submit", h.submit)
	e.GET("/reports", h.history)
	e.GET("/report/:id", h.view)

	api := e.Group("/api")
	api.GET("/reports", h.listJSON)
	api.POST("/reports", h.createJSON)
	api.GET("/reports/:id", h.getJSON)
}

func (h *ReportsHandler) logf(format string, args ...any) {
	if h.Logger != nil {
		h.Logger.Printf(format, args...)
	}
}

// flash queues a message; failing to store one is logged, never fatal.
func (h *ReportsHandler) flash(c echo.Context, category, msg string) {
	if err := h.Flash.Add(c, Flash{Category: category, Message: msg}); err != nil {
		h.logf("flash: %v", err)
	}
}

func (h *ReportsHandler) popFlashes(c echo.Context) []Flash {
	flashes, err := h.Flash.Pop(c)
	if err != nil {
		h.logf("flash: %v", err)
	}
	return flashes
}

type indexPage struct {
	Title   string
	Flashes []Flash
	Recent  []models.ReportSummary
}

func (h *ReportsHandler) index(c echo.Context) error {
	recent, err := h.Engine.Recent(c.Request().Context(), recentOnIndex)
	if err != nil {
		h.logf("recent reports: %v", err)
	}
	return c.Render(http.StatusOK, "index", indexPage{Flashes: h.popFlashes(c), Recent: recent})
}

func (h *ReportsHandler) submit(c echo.Context) error {
	id, err := h.Engine.Research(c.Request().Context(), c.FormValue("query"))
	switch {
	case err == nil:
		return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/report/%d", id))
	case errors.Is(err, engine.ErrEmptyQuery):
		h.flash(c, FlashWarning, MsgEmptyQuery)
	case errors.Is(err, engine.ErrSearchFailed):
		h.logf("search error: %v", err)
		h.flash(c, FlashError, MsgSearchFailed)
	default:
		h.logf("research failed: %v", err)
		h.flash(c, FlashError, MsgSaveFailed)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

type historyPage struct {
	Title   string
	Flashes []Flash
	Query   string
	Reports []models.ReportSummary
}

func (h *ReportsHandler) history(c echo.Context) error {
	q := c.QueryParam("q")
	reports, err := h.Engine.Find(c.Request().Context(), q, historyPageSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Render(http.StatusOK, "history", historyPage{Title: "History", Flashes: h.popFlashes(c), Query: q, Reports: reports})
}

type reportPage struct {
	Title      string
	Flashes    []Flash
	Report     models.Report
	Summary    *summarizer.Summary
	Sources    []models.Source
	RawSummary string
}

func (h *ReportsHandler) view(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.flash(c, FlashError, MsgReportNotFound)
		return c.Redirect(http.StatusSeeOther, "/")
	}
	r, err := h.Engine.Report(c.Request().Context(), id)
	if errors.Is(err, models.ErrReportNotFound) {
		h.flash(c, FlashError, MsgReportNotFound)
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	page := reportPage{
		Title:      r.Title,
		Flashes:    h.popFlashes(c),
		Report:     r,
		RawSummary: string(r.Summary),
	}
	if msg, ok := r.SummaryError(); ok {
		page.Flashes = append(page.Flashes, Flash{Category: FlashError, Message: msg})
	} else if e, hasErr := r.SummaryMap()["error"]; hasErr && e != nil && e != "" {
		// a model's own error object carries no display message
		page.Flashes = append(page.Flashes, Flash{Category: FlashError, Message: summarizer.UserMessage(summarizer.KindModelError)})
	} else if s, ok := summarizer.DecodeSummary(r.Summary); ok {
		page.Summary = s
	}
	if sources, err := r.SourceList(); err == nil {
		page.Sources = sources
	}
	return c.Render(http.StatusOK, "report", page)
}

func (h *ReportsHandler) listJSON(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > historyPageSize {
		limit = historyPageSize
	}
	reports, err := h.Engine.Find(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		h.logf("list reports: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, MsgLoadFailed)
	}
	if reports == nil {
		reports = []models.ReportSummary{}
	}
	return c.JSON(http.StatusOK, ReportListResponse{Reports: reports})
}

func (h *ReportsHandler) createJSON(c echo.Context) error {
	var req ResearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := h.Engine.Research(c.Request().Context(), req.Query)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, IDResponse{ID: id, URL: fmt.Sprintf("/report/%d", id)})
	case errors.Is(err, engine.ErrEmptyQuery):
		return echo.NewHTTPError(http.StatusBadRequest, MsgEmptyQuery)
	case errors.Is(err, engine.ErrSearchFailed):
		h.logf("search error: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, MsgSearchFailed)
	default:
		h.logf("research failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, MsgSaveFailed)
	}
}

func (h *ReportsHandler) getJSON(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, MsgReportNotFound)
	}
	r, err := h.Engine.Report(c.Request().Context(), id)
	if errors.Is(err, models.ErrReportNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, MsgReportNotFound)
	}
	if err != nil {
		h.logf("load report %d: %v", id, err)
		return echo.NewHTTPError(http.StatusInternalServerError, MsgLoadFailed)
	}
	return c.JSON(http.StatusOK, r)
}
