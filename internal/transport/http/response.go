package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"job-ledger/internal/entity"
	"job-ledger/internal/ledger"
	"job-ledger/internal/repository/postgresql"
)

type apiError struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

type attributesResp struct {
	Attributes []entity.Attribute `json:"attributes"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRawJSON sends an already encoded body without the encoder's trailing newline.
func writeRawJSON(w http.ResponseWriter, code int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, apiError{Message: msg})
}

// writeLedgerErr maps ledger and store errors onto HTTP statuses.
func writeLedgerErr(w http.ResponseWriter, r *http.Request, err error) {
	kind := ledger.ErrorKind(err)
	if errors.Is(err, postgresql.ErrNotFound) {
		kind = ledger.KindNotFound
	}

	var code int
	switch kind {
	case ledger.KindInvalidInput:
		code = http.StatusBadRequest
	case ledger.KindUnauthorized:
		code = http.StatusForbidden
	case ledger.KindNotFound:
		code = http.StatusNotFound
	case ledger.KindAlreadyInstantiated:
		code = http.StatusConflict
	default:
		code = http.StatusInternalServerError
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.WithError(err).WithField("path", r.URL.Path).Error("[http] internal error")
		msg = "internal error"
	}
	writeJSON(w, code, apiError{Message: msg, Kind: kind})
}
