package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mind-engage/exam-simulator/internal/exam"
	"github.com/mind-engage/exam-simulator/internal/questionset"
	"github.com/mind-engage/exam-simulator/internal/report"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, exam.ErrSessionNotFound), errors.Is(err, questionset.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, exam.ErrInvalidMode), errors.Is(err, exam.ErrNoSelection),
		errors.Is(err, report.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, exam.ErrNoQuestions),
		errors.Is(err, questionset.ErrEmpty), errors.Is(err, questionset.ErrMalformed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, exam.ErrFinished), errors.Is(err, exam.ErrNotFinished),
		errors.Is(err, exam.ErrNotStarted):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	http.Error(w, msg, code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
