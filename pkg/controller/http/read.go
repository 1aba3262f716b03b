package http

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/domain/model"
	"github.com/secmon-lab/docqa/pkg/usecase"
	"github.com/secmon-lab/docqa/pkg/utils/async"
	"github.com/secmon-lab/docqa/pkg/utils/errutil"
	"github.com/secmon-lab/docqa/pkg/utils/logging"
	"github.com/secmon-lab/docqa/pkg/utils/safe"
)

const (
	maxQuestionBytes = 64 * 1024

	genericErrorMessage = "Sorry, something went wrong while answering. Please try again later."
	setupAcceptedMsg    = "Setup started"
)

type readResponse struct {
	Data  string       `json:"data"`
	Links []model.Link `json:"links"`
}

type setupResponse struct {
	Data  string `json:"data"`
	RunID string `json:"run_id"`
}

type questionRequest struct {
	Question string `json:"question"`
}

func (s *Server) readHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	question, err := parseQuestion(w, r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest, readResponse{Data: "Invalid request", Links: []model.Link{}})
		return
	}
	if question == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("empty question"), http.StatusBadRequest, readResponse{Data: "Question is required", Links: []model.Link{}})
		return
	}

	if s.rateLimiter != nil {
		key := ClientKey(r)
		allowed, err := s.rateLimiter.Allow(ctx, key)
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to check rate limit", goerr.V("client", key)),
				http.StatusInternalServerError, readResponse{Data: genericErrorMessage, Links: []model.Link{}})
			return
		}
		if !allowed {
			logging.From(ctx).Info("rate limited", "client", key)
			writeJSON(ctx, w, http.StatusOK, readResponse{Data: s.notice.Message, Links: nonNil(s.notice.Links)})
			return
		}
	}

	result, err := s.answerUC.Answer(ctx, question)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to answer question"),
			http.StatusInternalServerError, readResponse{Data: genericErrorMessage, Links: []model.Link{}})
		return
	}

	writeJSON(ctx, w, http.StatusOK, readResponse{
		Data:  result.Answer,
		Links: responseLinks(result.Links, s.maxLinks),
	})
}

func (s *Server) setupHandler(w http.ResponseWriter, r *http.Request) {
	runID := r.Header.Get("X-Run-Id")
	if runID == "" {
		runID = usecase.NewRunID()
	}

	s.dispatch(r.Context(), func(ctx context.Context) error {
		result, err := s.setupUC.Setup(ctx, runID)
		if err != nil {
			return goerr.Wrap(err, "setup failed", goerr.V("run_id", runID))
		}
		logging.From(ctx).Info("setup completed",
			"run_id", result.RunID,
			"documents", result.Documents,
			"chunks", result.Chunks,
			"batches", result.Batches,
		)
		return nil
	})

	writeJSON(r.Context(), w, http.StatusAccepted, setupResponse{Data: setupAcceptedMsg, RunID: runID})
}

// parseQuestion accepts a JSON string, a JSON object with a "question"
// field or a plain text body
func parseQuestion(w http.ResponseWriter, r *http.Request) (string, error) {
	body, err := safe.ReadAll(r.Context(), http.MaxBytesReader(w, r.Body, maxQuestionBytes))
	if err != nil {
		return "", goerr.Wrap(err, "failed to read request body")
	}

	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var q string
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return "", goerr.Wrap(err, "invalid JSON string body")
		}
		return strings.TrimSpace(q), nil
	case '{':
		var req questionRequest
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return "", goerr.Wrap(err, "invalid JSON object body")
		}
		return strings.TrimSpace(req.Question), nil
	}

	return raw, nil
}

// ClientKey identifies the caller for rate limiting. X-Real-IP wins, then
// the first X-Forwarded-For entry, then the host of the remote address.
func ClientKey(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func responseLinks(links []model.Link, limit int) []model.Link {
	out := make([]model.Link, 0, limit)
	for _, l := range links {
		if l.Link == "" || l.Title == "" {
			continue
		}
		out = append(out, l)
		if len(out) == limit {
			break
		}
	}
	return out
}

func nonNil(links []model.Link) []model.Link {
	if links == nil {
		return []model.Link{}
	}
	return links
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		_ = errutil.Handle(ctx, err, "failed to encode JSON response")
	}
}

var asyncDispatch = async.Dispatch
