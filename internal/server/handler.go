package server

import (
	"context"
	"net/http"
	"strings"

	"resumetailor/internal/observability"
	"resumetailor/internal/tailoring"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "resumetailor.api"

// session resolves the {id} path value, writing a 404 when it is unknown
func (s *Server) session(w http.ResponseWriter, r *http.Request, span trace.Span) (*tailoring.Controller, bool) {
	id := r.PathValue("id")
	span.SetAttributes(attribute.String("session.id", id))

	controller, err := s.Sessions.Get(id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session not found")
		writeAppError(w, err)
		return nil, false
	}
	return controller, true
}

func (s *Server) createSessionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.sessions.create")
		defer span.End()

		controller, err := s.Sessions.Create(ctx)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}
		span.SetAttributes(attribute.String("session.id", controller.ID()))
		s.writeJSON(w, http.StatusCreated, CreateSessionResponse{ID: controller.ID()})
	}
}

func (s *Server) getSessionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(tracerName).Start(r.Context(), "api.sessions.get")
		defer span.End()

		controller, ok := s.session(w, r, span)
		if !ok {
			return
		}
		s.writeJSON(w, http.StatusOK, controller.State())
	}
}

func (s *Server) deleteSessionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.sessions.delete")
		defer span.End()

		id := r.PathValue("id")
		span.SetAttributes(attribute.String("session.id", id))
		if err := s.Sessions.Delete(ctx, id); err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// analyzeHandler starts the full workflow and returns before it completes;
// clients poll the session state for progress
func (s *Server) analyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(tracerName).Start(r.Context(), "api.sessions.analyze")
		defer span.End()

		controller, ok := s.session(w, r, span)
		if !ok {
			return
		}

		var req AnalyzeRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobDescription) == "" {
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.ResumeText) == "" {
			writeErrorResponse(w, "Missing resume", "resumeText field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("input.resume_length", len(req.ResumeText)),
			attribute.Int("input.job_description_length", len(req.JobDescription)),
		)

		job := tailoring.JobContext{JobTitle: req.JobTitle, CompanyName: req.CompanyName, Industry: req.Industry}
		s.background(func(ctx context.Context) {
			controller.AnalyzeJob(ctx, req.ResumeText, req.JobDescription, job)
		})

		s.writeJSON(w, http.StatusAccepted, AcceptedResponse{ID: controller.ID(), Status: "analyzing"})
	}
}

func (s *Server) updateResumeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(tracerName).Start(r.Context(), "api.sessions.resume")
		defer span.End()

		controller, ok := s.session(w, r, span)
		if !ok {
			return
		}

		var req ResumeRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		controller.UpdateResume(req.Text)
		s.writeJSON(w, http.StatusOK, controller.State())
	}
}

func (s *Server) applyGapHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(tracerName).Start(r.Context(), "api.sessions.apply_gap")
		defer span.End()

		controller, ok := s.session(w, r, span)
		if !ok {
			return
		}

		gapID := r.PathValue("gapId")
		span.SetAttributes(attribute.String("gap.id", gapID))

		state := controller.State()
		if state.GapChecklist == nil {
			writeErrorResponse(w, "No gap checklist", "Run an analysis before applying gap actions", http.StatusConflict)
			return
		}
		if _, found := state.GapChecklist.Find(gapID); !found {
			writeErrorResponse(w, "Gap not found", "No gap with id "+gapID+" in the current checklist", http.StatusNotFound)
			return
		}

		s.background(func(ctx context.Context) {
			controller.ApplyGapAction(ctx, gapID)
		})

		s.writeJSON(w, http.StatusAccepted, AcceptedResponse{ID: controller.ID(), Status: "scoring"})
	}
}

func (s *Server) exportHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.sessions.export")
		defer span.End()

		controller, ok := s.session(w, r, span)
		if !ok {
			return
		}

		result, err := controller.ExportResume(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "export failed")
			writeAppError(w, err)
			return
		}
		span.SetAttributes(attribute.String("export.filename", result.Filename))
		s.writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) resetHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(tracerName).Start(r.Context(), "api.sessions.reset")
		defer span.End()

		controller, ok := s.session(w, r, span)
		if !ok {
			return
		}
		controller.Reset()
		s.writeJSON(w, http.StatusOK, controller.State())
	}
}
