package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/pitchprep/internal/logger"
	"github.com/jonathan/pitchprep/internal/pipeline"
	"github.com/jonathan/pitchprep/internal/server/middleware"
	"github.com/jonathan/pitchprep/internal/types"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type generateRequest struct {
	CompanyName string `json:"companyName" validate:"required_without=CompanyID,max=200"`
	CompanyID   string `json:"companyId" validate:"max=100"`
}

type generateAllRequest struct {
	Companies []pipeline.CompanyRef `json:"companies" validate:"required_without=EventID,max=200"`
	EventID   string                `json:"eventId" validate:"required_without=Companies,max=100"`
}

type bulkResearchRequest struct {
	CompanyNames []string `json:"companyNames" validate:"required,min=1,max=25,dive,required,max=200"`
}

type researchResponse struct {
	CompanyName string                `json:"companyName"`
	Context     types.EmployerContext `json:"context"`
	FromCache   bool                  `json:"fromCache"`
	Warning     string                `json:"warning,omitempty"`
}

type bulkResearchResponse struct {
	Results  map[string]types.EmployerContext `json:"results"`
	Degraded []string                         `json:"degraded"`
}

// decodeBody decodes and validates a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("invalid request body: " + err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return badRequest("invalid field " + fe.Field() + ": failed " + fe.Tag())
		}
		return badRequest(err.Error())
	}
	return nil
}

// userID returns the authenticated user or writes a 401.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := middleware.GetUserID(r)
	if err != nil {
		s.jsonResponse(w, http.StatusUnauthorized, errorBody{Error: err.Error(), Kind: KindUnauthorized})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req generateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	res, err := s.pitches.GeneratePitch(r.Context(), pipeline.GenerateRequest{
		UserID:      userID,
		CompanyName: req.CompanyName,
		CompanyID:   req.CompanyID,
	})
	if err != nil {
		s.writeError(w, r, err, res)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

// handleGenerateAll runs a bulk generation. Clients sending
// Accept: text/event-stream receive one progress event per company and a
// final complete event.
func (s *Server) handleGenerateAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req generateAllRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	var progress pipeline.ProgressCallback
	var sse *SSEWriter
	if wantsEventStream(r) {
		var err error
		if sse, err = NewSSEWriter(w); err != nil {
			s.writeError(w, r, err, nil)
			return
		}
		progress = func(ev pipeline.ProgressEvent) {
			if err := sse.WriteEvent("progress", ev); err != nil {
				s.logger.Debug("progress event dropped", zap.Error(err))
			}
		}
	}

	var (
		result pipeline.BulkResult
		err    error
	)
	if strings.TrimSpace(req.EventID) != "" {
		result, err = s.pitches.GenerateAllForEvent(r.Context(), userID, req.EventID, progress)
	} else {
		result = s.pitches.GenerateAll(r.Context(), userID, req.Companies, progress)
	}

	if sse != nil {
		if err != nil {
			_ = sse.WriteEvent("error", errorBody{Error: err.Error(), Kind: pipeline.Kind(err)})
			return
		}
		_ = sse.WriteEvent("complete", result)
		return
	}
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleListPitches(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	records, err := s.pitches.ListPitches(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	if records == nil {
		records = []types.PitchRecord{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"pitches": records})
}

func (s *Server) handleClearPitches(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	res, err := s.pitches.ClearMatchData(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	s.logger.Info("match data cleared",
		zap.String(logger.FieldUserID, userID.String()),
		zap.Int64("cleared", res.ClearedCount))
	s.jsonResponse(w, http.StatusOK, res)
}

func (s *Server) handleGetResearch(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.userID(w, r); !ok {
		return
	}
	company := strings.TrimSpace(r.URL.Query().Get("company"))
	if company == "" {
		s.writeError(w, r, badRequest("query parameter company is required"), nil)
		return
	}

	lookup := s.employers.GetContext(r.Context(), company)
	resp := researchResponse{
		CompanyName: company,
		Context:     lookup.Context,
		FromCache:   lookup.FromCache,
	}
	if lookup.Degraded != nil {
		resp.Warning = lookup.Degraded.Error()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleBulkResearch(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.userID(w, r); !ok {
		return
	}
	var req bulkResearchRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	lookups := s.employers.GetContexts(r.Context(), req.CompanyNames, s.researchLimit)
	resp := bulkResearchResponse{
		Results:  make(map[string]types.EmployerContext, len(lookups)),
		Degraded: []string{},
	}
	for name, l := range lookups {
		resp.Results[name] = l.Context
		if l.Degraded != nil {
			resp.Degraded = append(resp.Degraded, name)
		}
	}
	slices.Sort(resp.Degraded)
	s.jsonResponse(w, http.StatusOK, resp)
}
