package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	auth "github.com/mind-engage/exam-simulator/internal/auth/middleware"
	"github.com/mind-engage/exam-simulator/internal/exam"
	"github.com/mind-engage/exam-simulator/internal/rbac"
)

// GET /sets
func ListSetsHandler(svc *exam.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := svc.Sets(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, ids)
	}
}

// POST /sessions  { "set": "...", "mode": "training|timed", "limit": 10, "start_index": 0, "audio": true }
//
// The response carries a bearer token bound to the new session.
func StartSessionHandler(svc *exam.Service, a *auth.AuthService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exam.StartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Set == "" {
			http.Error(w, "set required", http.StatusBadRequest)
			return
		}
		st, err := svc.Start(r.Context(), req)
		if err != nil {
			writeError(w, log, err)
			return
		}
		tok, err := a.IssueJWT(st.SessionID, rbac.RoleCandidate)
		if err != nil {
			_ = svc.Abandon(r.Context(), st.SessionID)
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, struct {
			Token string `json:"token"`
			exam.Step
		}{tok, st})
	}
}

// GET /sessions/{id}
func CurrentHandler(svc *exam.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Current(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// POST /sessions/{id}/answer  { "choice": "..." }
func AnswerHandler(svc *exam.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Choice string `json:"choice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		res, err := svc.Answer(r.Context(), chi.URLParam(r, "id"), req.Choice)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /sessions/{id}/next and /previous
func NavigateHandler(svc *exam.Service, log *zap.Logger, forward bool) http.HandlerFunc {
	move := svc.Previous
	if forward {
		move = svc.Next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := move(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// GET /sessions/{id}/explanation
func ExplanationHandler(svc *exam.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.Explanation(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"explanation": e})
	}
}

// GET /sessions/{id}/elapsed
func ElapsedHandler(svc *exam.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Elapsed(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"seconds": int64(d.Seconds()),
			"display": exam.FormatElapsed(d),
		})
	}
}

// POST /sessions/{id}/finish
func FinishHandler(svc *exam.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := svc.Finish(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// DELETE /sessions/{id}
func AbandonHandler(svc *exam.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Abandon(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
