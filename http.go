package locator

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/refugee-resources/resource-locator/internal/chat"
	"github.com/refugee-resources/resource-locator/internal/resource"
	"github.com/refugee-resources/resource-locator/internal/search"
)

func withApp(h func(*App, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a := currentApp()
		if a == nil {
			writeError(w, http.StatusServiceUnavailable, "Service is not configured")
			return
		}
		h(a, w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readData streams the raw dataset rows as a JSON array.
func (a *App) readData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rc, err := a.source.Open(r.Context())
	if err != nil {
		log.Printf("Error opening %s: %v", a.source, err)
		writeError(w, http.StatusInternalServerError, "Error reading CSV file")
		return
	}
	defer rc.Close()

	rows, err := resource.ReadRows(rc)
	if err != nil {
		log.Printf("Error reading CSV file: %v", err)
		writeError(w, http.StatusInternalServerError, "Error reading CSV file")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// converse answers a message (POST) or returns the conversation so far (GET).
func (a *App) converse(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		id := r.URL.Query().Get("sessionId")
		if id == "" {
			id = uuid.NewString()
		}
		sess, err := a.assistant.Session(r.Context(), id)
		if err != nil {
			log.Printf("Error loading session %s: %v", id, err)
			writeError(w, http.StatusInternalServerError, "Error loading session")
			return
		}
		writeJSON(w, http.StatusOK, sess)

	case http.MethodPost:
		var req chatRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.SessionID == "" {
			req.SessionID = uuid.NewString()
		}

		reply, err := a.assistant.Send(r.Context(), req.SessionID, req.Message)
		switch {
		case errors.Is(err, chat.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, chat.ErrBusy):
			writeError(w, http.StatusConflict, "A previous message is still being processed")
		case err != nil:
			log.Printf("Error handling chat message for session %s: %v", req.SessionID, err)
			writeError(w, http.StatusInternalServerError, "Error handling message")
		default:
			writeJSON(w, http.StatusOK, reply)
		}

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

type markersResponse struct {
	Markers []search.Marker `json:"markers"`
	Zoom    *int            `json:"zoom,omitempty"`
}

// markers applies the map filter: ?service=..&language=.. (repeatable) and an
// optional ?distance=..&unit=miles|kilometers for the zoom level.
func (a *App) markers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()

	var resp markersResponse
	if d := q.Get("distance"); d != "" {
		distance, err := strconv.ParseFloat(d, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid distance")
			return
		}
		zoom, err := search.ZoomForRadius(distance, q.Get("unit"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.Zoom = &zoom
	}

	idx, err := a.catalog.Index(r.Context())
	if err != nil {
		log.Printf("Error loading resources: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch addresses")
		return
	}

	filter := search.MarkerFilter{Services: q["service"], Languages: q["language"]}
	resp.Markers = search.Markers(filter, idx.Records())
	log.Printf("Plotting %d of %d resources", len(resp.Markers), idx.Len())
	writeJSON(w, http.StatusOK, resp)
}
