package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gauthierbraillon/creatorpulse/internal/aggregator"
	"github.com/gauthierbraillon/creatorpulse/internal/apperror"
	"github.com/gauthierbraillon/creatorpulse/internal/events"
	"github.com/gauthierbraillon/creatorpulse/internal/sentiment"
	"github.com/gauthierbraillon/creatorpulse/internal/session"
	"github.com/gauthierbraillon/creatorpulse/internal/source"
)

const (
	defaultAnalysisTitle = "Untitled Analysis"
	defaultCreatorName   = "Unknown Creator"
	demoTitle            = "Demo Analysis"

	msgNoComments       = "No comments provided"
	msgEmptyComments    = "Comments list is empty"
	msgNoURL            = "No URL provided"
	msgNoCommentsAtURL  = "No comments found at this URL"
	msgUnsupported      = "Unsupported platform. Currently supporting Reddit, YouTube, and Instagram."
	msgNoCreatorInput   = "Please provide at least one URL or Manual Text entry."
	msgNoCreatorData    = "Could not fetch any comments from the provided URLs. Check URLs and try again."
	msgSessionNotFound  = "Session not found"
	msgInvalidJSONInput = "Request body must be valid JSON"
)

var demoComments = []string{
	"This is amazing! I love it so much!",
	"Great work, keep it up!",
	"Absolutely fantastic content!",
	"This is terrible, I hate it.",
	"Worst thing I've ever seen.",
	"Not good at all, very disappointing.",
	"It's okay, nothing special.",
	"Meh, could be better.",
	"Average content.",
	"Incredible! Best video ever!",
	"So helpful, thank you!",
	"This changed my life!",
	"Boring and useless.",
	"Waste of time.",
	"Pretty good overall.",
	"Nice work!",
	"Awesome stuff!",
	"Terrible quality.",
	"Just okay.",
	"Excellent explanation!",
}

type analyzeRequest struct {
	Comments *[]string `json:"comments"`
	Title    string    `json:"title"`
}

type analyzeURLRequest struct {
	URL string `json:"url"`
}

type creatorRequest struct {
	Name   string                   `json:"name"`
	URLs   []string                 `json:"urls"`
	Manual []aggregator.ManualEntry `json:"manual_data"`
}

type analysisResponse struct {
	SessionID string            `json:"session_id"`
	Title     string            `json:"title"`
	Results   *sentiment.Result `json:"results"`
}

type creatorResponse struct {
	SessionID string             `json:"session_id"`
	Status    string             `json:"status"`
	Report    *aggregator.Report `json:"report"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Comments == nil {
		s.respondWithError(w, apperror.Validation(msgNoComments))
		return
	}
	if len(*req.Comments) == 0 {
		s.respondWithError(w, apperror.Validation(msgEmptyComments))
		return
	}
	title := req.Title
	if title == "" {
		title = defaultAnalysisTitle
	}

	results := s.classifier.Classify(r.Context(), *req.Comments)
	s.storeAnalysis(w, r, title, results)
}

func (s *Server) handleAnalyzeURL(w http.ResponseWriter, r *http.Request) {
	var req analyzeURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		s.respondWithError(w, apperror.Validation(msgNoURL))
		return
	}

	analysis, err := s.analyzer.AnalyzeSource(r.Context(), req.URL)
	if err != nil {
		s.respondWithError(w, sourceError(err))
		return
	}
	s.storeAnalysis(w, r, analysis.Title, analysis.Results)
}

// sourceError maps single-source failures to client messages. Every fetch
// failure is the caller's to fix or retry, so all of them are 400s.
func sourceError(err error) *apperror.Error {
	var fe *source.FetchError
	switch {
	case errors.Is(err, source.ErrUnsupportedPlatform):
		return apperror.ValidationCause(msgUnsupported, err)
	case errors.Is(err, aggregator.ErrNoComments):
		return apperror.ValidationCause(msgNoCommentsAtURL, err)
	case errors.As(err, &fe):
		return apperror.ValidationCause(fe.Message, err)
	default:
		return apperror.As(err)
	}
}

func (s *Server) handleCreatorAnalyze(w http.ResponseWriter, r *http.Request) {
	var req creatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, apperror.ValidationCause(msgInvalidJSONInput, err))
		return
	}
	if len(req.URLs) == 0 && len(req.Manual) == 0 {
		s.respondWithError(w, apperror.Validation(msgNoCreatorInput))
		return
	}
	name := req.Name
	if name == "" {
		name = defaultCreatorName
	}

	report := s.analyzer.AnalyzeCreator(r.Context(), name, req.URLs, req.Manual)
	if err := report.Err(); err != nil {
		s.respondWithError(w, apperror.ValidationCause(msgNoCreatorData, err))
		return
	}

	sess := session.NewCreator(s.clock, report)
	if err := s.store.Put(r.Context(), sess); err != nil {
		s.respondWithError(w, apperror.Internal("failed to store session", err))
		return
	}

	if err := s.publisher.Publish(r.Context(), events.NewReportCompleted(sess.ID.String(), report)); err != nil {
		s.logger.Warn("failed to publish report event", "session_id", sess.ID, "error", err)
	}

	s.respondWithJSON(w, http.StatusOK, creatorResponse{
		SessionID: sess.ID.String(),
		Status:    "success",
		Report:    report,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondWithError(w, apperror.NotFound(msgSessionNotFound))
		return
	}

	sess, err := s.store.Get(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		s.respondWithError(w, apperror.NotFound(msgSessionNotFound))
		return
	}
	if err != nil {
		s.respondWithError(w, apperror.Internal("failed to load session", err))
		return
	}

	s.respondWithJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	results := s.classifier.Classify(r.Context(), demoComments)
	s.storeAnalysis(w, r, demoTitle, results)
}

func (s *Server) storeAnalysis(w http.ResponseWriter, r *http.Request, title string, results *sentiment.Result) {
	sess := session.NewAnalysis(s.clock, title, results)
	if err := s.store.Put(r.Context(), sess); err != nil {
		s.respondWithError(w, apperror.Internal("failed to store session", err))
		return
	}
	s.respondWithJSON(w, http.StatusOK, analysisResponse{
		SessionID: sess.ID.String(),
		Title:     title,
		Results:   results,
	})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// respondWithError sends an apperror as JSON. Any other error is reported as
// an internal failure without leaking its text.
func (s *Server) respondWithError(w http.ResponseWriter, err error) {
	appErr := apperror.As(err)
	if appErr.Type == apperror.TypeInternal {
		s.logger.Error("request failed", "error", appErr)
	} else {
		s.logger.Debug("request rejected", "error", appErr)
	}
	s.respondWithJSON(w, appErr.HTTPStatus(), appErr.ToResponse())
}
