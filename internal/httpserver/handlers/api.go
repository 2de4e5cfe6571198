package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/webmark/webmark/internal/broker"
	"github.com/webmark/webmark/internal/domain"
	"github.com/webmark/webmark/internal/httpserver/deps"
	"github.com/webmark/webmark/internal/logger"
)

// maxImportBytes bounds an import upload; records are capped at 1000
// of 500 chars each, so anything past a few MB is not a valid backup.
const maxImportBytes = 8 << 20

// Message accepts a raw sync-protocol envelope over HTTP. UI surfaces
// without a long-lived connection (popup, options page) use this.
func Message(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg broker.Message
		if err := json.NewDecoder(io.LimitReader(r.Body, maxImportBytes)).Decode(&msg); err != nil {
			writeResponse(w, d, broker.Response{
				Success:   false,
				Error:     "malformed message envelope: " + err.Error(),
				ErrorCode: domain.CodeValidation,
			})
			return
		}
		writeResponse(w, d, d.Broker.Dispatch(r.Context(), msg))
	}
}

// Highlights answers filtered queries from query parameters.
func Highlights(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if exact := q.Get("pageUrl"); exact != "" {
			writeJSON(w, d, http.StatusOK, d.Store.ListForURL(exact))
			return
		}

		filters := domain.SearchFilters{
			Color:   domain.Color(q.Get("color")),
			URL:     q.Get("url"),
			Keyword: q.Get("keyword"),
			Limit:   intParam(q.Get("limit")),
			Offset:  intParam(q.Get("offset")),
		}
		if start, end := q.Get("start"), q.Get("end"); start != "" && end != "" {
			filters.DateRange = &domain.DateRange{
				Start: int64(intParam(start)),
				End:   int64(intParam(end)),
			}
		}
		writeJSON(w, d, http.StatusOK, d.Store.Query(filters))
	}
}

// Export streams a serialized backup in the requested format.
func Export(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		if format == "" {
			format = "json"
		}
		resp := d.Broker.Dispatch(r.Context(), broker.Message{
			Type:   broker.OpExportData,
			Format: format,
		})
		writeResponse(w, d, resp)
	}
}

// Import ingests a backup payload. ?merge=true layers the imported
// records over existing ones instead of replacing them.
func Import(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
		if err != nil {
			writeResponse(w, d, broker.Response{
				Success:   false,
				Error:     "failed to read import payload",
				ErrorCode: domain.CodeValidation,
			})
			return
		}
		merge, _ := strconv.ParseBool(r.URL.Query().Get("merge"))
		resp := d.Broker.Dispatch(r.Context(), broker.Message{
			Type:  broker.OpImportData,
			Data:  payload,
			Merge: merge,
		})
		writeResponse(w, d, resp)
	}
}

// Settings reads or patches the user settings singleton.
func Settings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeResponse(w, d, d.Broker.Dispatch(r.Context(), broker.Message{
				Type: broker.OpGetSettings,
			}))
		case http.MethodPut, http.MethodPatch:
			var patch domain.SettingsPatch
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				writeResponse(w, d, broker.Response{
					Success:   false,
					Error:     "malformed settings payload: " + err.Error(),
					ErrorCode: domain.CodeValidation,
				})
				return
			}
			writeResponse(w, d, d.Broker.Dispatch(r.Context(), broker.Message{
				Type:     broker.OpUpdateSettings,
				Settings: &patch,
			}))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

// Stats reads the aggregate counters.
func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, d, d.Broker.Dispatch(r.Context(), broker.Message{
			Type: broker.OpGetStats,
		}))
	}
}

// Clear wipes every record. Requires an explicit confirmation token in
// the body; refused otherwise.
func Clear(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ConfirmToken string `json:"confirmToken"`
		}
		// An unreadable body falls through with an empty token and is
		// refused by the store.
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeResponse(w, d, d.Broker.Dispatch(r.Context(), broker.Message{
			Type:         broker.OpClearData,
			ConfirmToken: body.ConfirmToken,
		}))
	}
}

func writeResponse(w http.ResponseWriter, d deps.Deps, resp broker.Response) {
	status := http.StatusOK
	if !resp.Success {
		switch resp.ErrorCode {
		case domain.CodeNotFound:
			status = http.StatusNotFound
		case domain.CodeValidation, domain.CodeMissingConfirmation, domain.CodeUnsupportedFormat:
			status = http.StatusBadRequest
		case domain.CodeCapacityExceeded:
			status = http.StatusConflict
		default:
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, d, status, resp)
}

func writeJSON(w http.ResponseWriter, d deps.Deps, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}

func intParam(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
