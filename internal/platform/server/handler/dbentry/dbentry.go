package dbentry

import (
	"encoding/json"
	"net/http"
	"net/url"

	"LogDB/internal/application/service"
	"LogDB/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

type DbEntryHandler struct {
	saveService   *service.SaveEntryService
	deleteService *service.DeleteEntryService
	getService    *service.GetEntryService
	logger        log.Logger
}

type SaveEntryRequest struct {
	Value *string `json:"value"`
}

type EntryResponse struct {
	Key       string `json:"key,omitempty"`
	Value     string `json:"value"`
	Tombstone bool   `json:"tombstone,omitempty"`
}

type DeletedEntryResponse struct {
	Key       string `json:"key"`
	Tombstone bool   `json:"tombstone"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func MapToEntryResponse(e domain.DbEntry) EntryResponse {
	return EntryResponse{
		Key:       e.Key(),
		Value:     e.Value(),
		Tombstone: e.Tombstone(),
	}
}

func NewDbEntryHandler(saveService *service.SaveEntryService,
	deleteService *service.DeleteEntryService,
	getService *service.GetEntryService,
	logger log.Logger) *DbEntryHandler {
	return &DbEntryHandler{
		saveService:   saveService,
		deleteService: deleteService,
		getService:    getService,
		logger:        logger,
	}
}

func (h *DbEntryHandler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	key, ok := h.entryKey(w, r)
	if !ok {
		return
	}
	var request SaveEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Value == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "body must be a JSON object with a string \"value\""})
		return
	}
	result := h.saveService.Execute(service.SaveEntryCommand{
		Key:   key,
		Value: *request.Value,
	})
	if result.Err != nil {
		h.writeError(w, result.Err)
		return
	}
	writeJSON(w, http.StatusOK, MapToEntryResponse(result.Entry))
}

func (h *DbEntryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	key, ok := h.entryKey(w, r)
	if !ok {
		return
	}
	result := h.getService.Execute(service.GetEntryQuery{
		Key: key,
	})
	if result.Err != nil {
		h.writeError(w, result.Err)
		return
	}
	if !result.Found {
		h.writeError(w, domain.ErrKeyNotFound)
		return
	}
	writeJSON(w, http.StatusOK, MapToEntryResponse(result.Entry))
}

func (h *DbEntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	key, ok := h.entryKey(w, r)
	if !ok {
		return
	}
	result := h.deleteService.Execute(service.DeleteEntryCommand{
		Key: key,
	})
	if result.Err != nil {
		h.writeError(w, result.Err)
		return
	}
	writeJSON(w, http.StatusOK, DeletedEntryResponse{Key: result.Entry.Key(), Tombstone: true})
}

// entryKey returns the decoded {key} segment. chi matches on RawPath when the
// request path holds escaped slashes, and the segment is then still escaped.
func (h *DbEntryHandler) entryKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "key")
	if r.URL.RawPath == "" {
		return key, true
	}
	decoded, err := url.PathUnescape(key)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid key encoding: " + err.Error()})
		return "", false
	}
	return decoded, true
}

func (h *DbEntryHandler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		level.Error(h.logger).Log("msg", "request failed", "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
