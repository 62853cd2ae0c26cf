package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/tabi/internal/presentation/graph"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Choice is one option of a select or checkbox group.
type Choice struct {
	Value string
	Label string
}

// BudgetChoices are the budget presets of the form, in yen.
var BudgetChoices = []Choice{
	{"0", "Not specified"},
	{"50000", "Up to ¥50,000"},
	{"100000", "¥50,000 – ¥100,000"},
	{"150000", "¥100,000 – ¥150,000"},
	{"200000", "¥150,000 – ¥200,000"},
	{"300000", "¥200,000 or more"},
}

// DurationChoices are the stay presets of the form, in days.
var DurationChoices = []Choice{
	{"1", "Day trip"},
	{"2", "1 night / 2 days"},
	{"3", "2 nights / 3 days"},
	{"4", "3 nights / 4 days"},
	{"5", "4 nights / 5 days"},
	{"6", "5 nights or more"},
}

// PurposeChoices are the trip purposes offered as checkboxes.
var PurposeChoices = []Choice{
	{"sightseeing", "Sightseeing"},
	{"food", "Food"},
	{"hot springs", "Hot springs"},
	{"nature", "Nature"},
	{"history and culture", "History and culture"},
	{"shopping", "Shopping"},
	{"other", "Other"},
}

// pages renders the HTML views.
type pages struct {
	form   *template.Template
	result *template.Template
	md     goldmark.Markdown
}

func newPages(fsys fs.FS) (*pages, error) {
	funcs := template.FuncMap{"add": func(a, b int) int { return a + b }}
	form, err := template.New("form").Funcs(funcs).ParseFS(fsys, "templates/layout.html", "templates/form.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse form template: %w", err)
	}
	result, err := template.New("result").Funcs(funcs).ParseFS(fsys, "templates/layout.html", "templates/result.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse result template: %w", err)
	}
	return &pages{
		form:   form,
		result: result,
		// Raw HTML from the model is dropped: goldmark escapes it unless WithUnsafe is set.
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

// markdown renders model output to HTML.
func (p *pages) markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(buf.String())
}

// formView feeds templates/form.html.
type formView struct {
	Title        string
	Error        string
	Request      domain.TripRequest
	Purposes     map[string]bool
	Destinations []string
	Budgets      []Choice
	Durations    []Choice
	PurposeOpts  []Choice
}

// resultView feeds templates/result.html.
type resultView struct {
	Title      string
	Request    domain.TripRequest
	State      *domain.State
	Candidates []template.HTML
	Advice     template.HTML
	Disclaimer string
}

func (s *Server) newFormView(r *http.Request, req domain.TripRequest, purposes []string, errMsg string) formView {
	v := formView{
		Title:       "Plan a trip",
		Error:       errMsg,
		Request:     req,
		Purposes:    map[string]bool{},
		Budgets:     BudgetChoices,
		Durations:   DurationChoices,
		PurposeOpts: PurposeChoices,
	}
	for _, p := range purposes {
		v.Purposes[p] = true
	}
	if dests, err := s.svc.Destinations(r.Context()); err == nil {
		for _, d := range dests {
			v.Destinations = append(v.Destinations, d.Title())
		}
	} else {
		s.logger.Warn("cannot list destinations for the form", "err", err)
	}
	return v
}

// GetForm serves the trip form.
func (s *Server) GetForm(w http.ResponseWriter, r *http.Request) {
	s.session(w, r)
	req := domain.TripRequest{Origin: "Tokyo", Destination: "Kyoto", Duration: 3}
	s.render(w, s.pages.form, http.StatusOK, s.newFormView(r, req, []string{domain.DefaultPurpose}, ""))
}

// PostPlan runs the workflow for the submitted form and shows the result.
func (s *Server) PostPlan(w http.ResponseWriter, r *http.Request) {
	sessionID := s.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	req, purposes, err := parseTripForm(r)
	if err == nil {
		var state *domain.State
		state, err = s.svc.Plan(r.Context(), sessionID, req)
		if err == nil {
			s.render(w, s.pages.result, http.StatusOK, s.newResultView(state))
			return
		}
	}

	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrInvalidRequest) {
		status = http.StatusBadRequest
	} else {
		s.logger.Error("PostPlan failed", "err", err)
	}
	s.render(w, s.pages.form, status, s.newFormView(r, req, purposes, err.Error()))
}

// PostNew clears the session context and returns to the form.
func (s *Server) PostNew(w http.ResponseWriter, r *http.Request) {
	sessionID := s.session(w, r)
	if err := s.svc.Reset(r.Context(), sessionID); err != nil {
		s.logger.Warn("session reset failed", "session_id", sessionID, "err", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// GetWorkflow serves the workflow as a mermaid diagram.
func (s *Server) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(nil))
}

func (s *Server) newResultView(state *domain.State) resultView {
	v := resultView{
		Title:      "Your trip to " + state.Request.Destination,
		Request:    state.Request,
		State:      state,
		Disclaimer: domain.Disclaimer,
	}
	if state.Failure == nil && state.Plan != nil {
		for _, c := range state.Plan.Candidates {
			v.Candidates = append(v.Candidates, s.pages.markdown(c))
		}
		if state.Plan.HasAdvice() {
			v.Advice = s.pages.markdown(*state.Plan.Advice)
		}
	}
	return v
}

func (s *Server) render(w http.ResponseWriter, t *template.Template, status int, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("template render failed", "err", err)
		http.Error(w, "Render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// parseTripForm reads the form fields. Several purposes are joined with ", ".
func parseTripForm(r *http.Request) (domain.TripRequest, []string, error) {
	purposes := r.Form["purpose"]
	req := domain.TripRequest{
		Origin:      r.FormValue("origin"),
		Destination: r.FormValue("destination"),
		Purpose:     strings.Join(purposes, ", "),
		Notes:       r.FormValue("notes"),
	}

	if v := strings.TrimSpace(r.FormValue("budget")); v != "" {
		budget, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, purposes, fmt.Errorf("%w: budget must be a number", domain.ErrInvalidRequest)
		}
		req.Budget = budget
	}
	duration, err := strconv.Atoi(strings.TrimSpace(r.FormValue("duration")))
	if err != nil {
		return req, purposes, fmt.Errorf("%w: duration must be a whole number of days", domain.ErrInvalidRequest)
	}
	req.Duration = duration
	return req, purposes, nil
}
