package http

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"zeendr/internal/core"
	applog "zeendr/internal/log"
	"zeendr/internal/report"
)

var templateFuncs = template.FuncMap{
	"cop": core.FormatCOP,
}

type dashboardData struct {
	User     core.User
	Today    string
	KPIs     report.KPIComparison
	Dispatch []report.DispatchLine
	Board    report.Board
}

type loginData struct {
	Error string
}

// handleDashboard renders the overview page, or the login form when the
// request carries no live session.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	session, err := s.svc.Auth.Authenticate(r.Context(), requestToken(r))
	if err != nil {
		s.renderLogin(w, r, http.StatusOK, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 7*time.Second)
	defer cancel()

	now := s.now().UTC()
	data := dashboardData{User: session.User, Today: now.Format("2006-01-02")}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.KPIs, err = s.svc.Reports.KPIs(gctx, now.Year(), now.Month())
		return err
	})
	g.Go(func() error {
		var err error
		data.Dispatch, err = s.svc.Reports.Dispatch(gctx, data.Today)
		return err
	})
	g.Go(func() error {
		var err error
		data.Board, err = s.svc.Reports.Board(gctx, report.OrderFilter{Date: data.Today})
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard.html", data)
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.render(w, r, status, "login.html", loginData{Error: msg})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded")
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed", "template", name, applog.FieldError, err)
	}
}
