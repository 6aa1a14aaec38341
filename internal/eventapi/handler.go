package eventapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/clone"
	httperr "github.com/kinlog-lab/kinlog/internal/core/errors"
	"github.com/kinlog-lab/kinlog/internal/core/payload"
	"github.com/kinlog-lab/kinlog/internal/core/storage"
	"github.com/kinlog-lab/kinlog/internal/readmodel"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist event"
	msgDuplicateEvent = "Event already exists"
	msgQueryFailed    = "Failed to query events"

	// wherePrefix marks a query parameter as a payload filter: where.relationship.type=parent.
	wherePrefix = "where."

	// resolveTimeout bounds a shared resolution, which outlives any single caller's request.
	resolveTimeout = 10 * time.Second
)

// apiError carries the structured HTTP error shape from a helper back to the handler.
type apiError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *apiError) Error() string {
	return e.message
}

// appendRequest is the POST /v1/events body. id and occurred_at are assigned when omitted.
type appendRequest struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"type"`
	OccurredAt   *time.Time             `json:"occurred_at"`
	AggregateIDs []string               `json:"aggregate_ids"`
	Payload      map[string]interface{} `json:"payload"`
}

// AppendHandler handles POST /v1/events.
func (s *Service) AppendHandler(c *gin.Context) {
	evt, payloadSize, apiErr := s.parseEvent(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	if err := evt.Validate(); err != nil {
		slog.Warn("[EventAPI] Envelope validation failed", "error", err, "event_id", evt.ID)
		writeError(c, &apiError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    err.Error(),
		})
		return
	}

	slog.Info("[EventAPI] Received event",
		"event_id", evt.ID,
		"event_type", evt.Type,
		"payload_size", payloadSize)

	if apiErr := s.persistEvent(c, evt); apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "id": evt.ID})
}

// parseEvent reads the size-limited body and binds it into an Event.
func (s *Service) parseEvent(c *gin.Context) (*v1.Event, int, *apiError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1)

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[EventAPI] Failed to read request body", "error", err)
		return nil, 0, &apiError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[EventAPI] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &apiError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var req appendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("[EventAPI] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &apiError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	evt := &v1.Event{
		ID:           req.ID,
		Type:         req.Type,
		AggregateIDs: req.AggregateIDs,
		Payload:      req.Payload,
		OccurredAt:   s.nowFn().UTC(),
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if req.OccurredAt != nil {
		evt.OccurredAt = req.OccurredAt.UTC()
	}
	return evt, len(bodyBytes), nil
}

func (s *Service) persistEvent(c *gin.Context, evt *v1.Event) *apiError {
	if err := s.store.Append(c.Request.Context(), evt); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			slog.Info("[EventAPI] Duplicate event rejected", "event_id", evt.ID)
			return &apiError{
				statusCode: http.StatusConflict,
				errorType:  httperr.HttpDuplicateEventError,
				message:    msgDuplicateEvent,
			}
		}

		slog.Error("[EventAPI] Failed to persist event", "error", err, "event_id", evt.ID)
		return &apiError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}
	return nil
}

// ListHandler handles GET /v1/events?type=A&type=B&where.path=value.
func (s *Service) ListHandler(c *gin.Context) {
	types, filter, apiErr := parseQuery(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	events, err := s.store.GetEventList(c.Request.Context(), types, filter)
	if err != nil {
		writeError(c, queryError(err))
		return
	}
	if events == nil {
		events = []*v1.Event{}
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// LatestHandler handles GET /v1/events/latest with the same parameters as ListHandler.
func (s *Service) LatestHandler(c *gin.Context) {
	types, filter, apiErr := parseQuery(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	evt, err := s.store.GetSingleEvent(c.Request.Context(), types, filter)
	if err != nil {
		writeError(c, queryError(err))
		return
	}
	if evt == nil {
		writeError(c, &apiError{
			statusCode: http.StatusNotFound,
			errorType:  httperr.HttpNotFoundError,
			message:    "No matching event",
		})
		return
	}

	c.JSON(http.StatusOK, evt)
}

// parseQuery reads repeated type parameters and where.* filters. A filter value that parses as
// JSON is compared as JSON (3, true, {"a":1}); anything else is compared as a plain string.
func parseQuery(c *gin.Context) ([]string, payload.Filter, *apiError) {
	query := c.Request.URL.Query()

	var types []string
	for _, raw := range query["type"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
	}
	if len(types) == 0 {
		return nil, nil, &apiError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidQueryError,
			message:    storage.ErrNoTypes.Error(),
		}
	}

	filter := payload.Filter{}
	for key, values := range query {
		if !strings.HasPrefix(key, wherePrefix) || len(values) == 0 {
			continue
		}
		path := strings.TrimPrefix(key, wherePrefix)
		filter[path] = filterValue(values[len(values)-1])
	}

	if err := filter.Validate(); err != nil {
		return nil, nil, &apiError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidQueryError,
			message:    err.Error(),
		}
	}
	return types, filter, nil
}

func filterValue(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func queryError(err error) *apiError {
	if errors.Is(err, storage.ErrNoTypes) {
		return &apiError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidQueryError,
			message:    err.Error(),
		}
	}
	slog.Error("[EventAPI] Query failed", "error", err)
	return &apiError{
		statusCode: http.StatusInternalServerError,
		errorType:  httperr.HttpInternalError,
		message:    msgQueryFailed,
	}
}

// OriginalHandler handles GET /v1/clones/:kind/:id/original.
func (s *Service) OriginalHandler(c *gin.Context) {
	kind, apiErr := cloneKind(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	id := c.Param("id")

	// The walk is shared by every caller waiting on the same key, so it must not die with
	// the first caller's connection.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), resolveTimeout)
	defer cancel()
	result, err, _ := s.resolveGroup.Do(kind.Name+":"+id, func() (interface{}, error) {
		return s.resolver.ResolveOriginal(ctx, kind, id)
	})
	if err != nil {
		writeError(c, cloneError(err))
		return
	}
	original := result.(string)

	c.JSON(http.StatusOK, gin.H{
		"kind":     kind.Name,
		"id":       id,
		"original": original,
		"is_clone": original != id,
	})
}

// ClonesHandler handles GET /v1/clones/:kind/:id/clones.
func (s *Service) ClonesHandler(c *gin.Context) {
	kind, apiErr := cloneKind(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	id := c.Param("id")

	clones, err := s.resolver.FindAllClones(c.Request.Context(), kind, id)
	if err != nil {
		writeError(c, cloneError(err))
		return
	}
	if clones == nil {
		clones = []*v1.Event{}
	}

	c.JSON(http.StatusOK, gin.H{
		"kind":   kind.Name,
		"id":     id,
		"clones": clones,
		"count":  len(clones),
	})
}

func cloneKind(c *gin.Context) (clone.Kind, *apiError) {
	kind, ok := clone.KindByName(c.Param("kind"))
	if !ok {
		return clone.Kind{}, &apiError{
			statusCode: http.StatusNotFound,
			errorType:  httperr.HttpNotFoundError,
			message:    "Unknown clone kind",
			details:    map[string]interface{}{"kind": c.Param("kind")},
		}
	}
	return kind, nil
}

func cloneError(err error) *apiError {
	var cycle *clone.CycleError
	if errors.As(err, &cycle) {
		return &apiError{
			statusCode: http.StatusConflict,
			errorType:  httperr.HttpCycleDetectedError,
			message:    cycle.Error(),
			details:    map[string]interface{}{"kind": cycle.Kind, "chain": cycle.Chain},
		}
	}
	slog.Error("[EventAPI] Clone resolution failed", "error", err)
	return &apiError{
		statusCode: http.StatusInternalServerError,
		errorType:  httperr.HttpInternalError,
		message:    msgQueryFailed,
	}
}

// LineageHandler handles GET /v1/clones/:kind/:id/lineage from the materialised lineage table:
// the direct parent of id (null for an original) and its direct clones.
func (s *Service) LineageHandler(c *gin.Context) {
	kind, apiErr := cloneKind(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	id := c.Param("id")
	ctx := c.Request.Context()

	parent, err := s.lineage.Parent(ctx, kind, id)
	if err != nil {
		writeError(c, lineageError(kind, id, err))
		return
	}
	children, err := s.lineage.Children(ctx, kind, id)
	if err != nil {
		writeError(c, lineageError(kind, id, err))
		return
	}
	if children == nil {
		children = []readmodel.LineageRow{}
	}

	c.JSON(http.StatusOK, gin.H{
		"kind":     kind.Name,
		"id":       id,
		"parent":   parent,
		"children": children,
	})
}

func lineageError(kind clone.Kind, id string, err error) *apiError {
	slog.Error("[EventAPI] Failed to read clone lineage", "kind", kind.Name, "id", id, "error", err)
	return &apiError{
		statusCode: http.StatusInternalServerError,
		errorType:  httperr.HttpInternalError,
		message:    msgQueryFailed,
	}
}

// LocationHandler handles GET /v1/photos/:photo_id/location.
func (s *Service) LocationHandler(c *gin.Context) {
	photoID := c.Param("photo_id")

	loc, err := s.locations.Location(c.Request.Context(), photoID)
	if err != nil {
		slog.Error("[EventAPI] Failed to read photo location", "photo_id", photoID, "error", err)
		writeError(c, &apiError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgQueryFailed,
		})
		return
	}
	if loc == nil {
		writeError(c, &apiError{
			statusCode: http.StatusNotFound,
			errorType:  httperr.HttpNotFoundError,
			message:    "Photo has no location",
		})
		return
	}

	c.JSON(http.StatusOK, loc)
}

// MembersHandler handles GET /v1/families/:family_id/:kind (persons, photos or threads).
func (s *Service) MembersHandler(c *gin.Context) {
	familyID := c.Param("family_id")
	kind := c.Param("kind")

	members, err := s.sharing.Members(c.Request.Context(), familyID, kind)
	if err != nil {
		if errors.Is(err, readmodel.ErrUnknownSharedKind) {
			writeError(c, &apiError{
				statusCode: http.StatusNotFound,
				errorType:  httperr.HttpNotFoundError,
				message:    err.Error(),
			})
			return
		}
		slog.Error("[EventAPI] Failed to list family members", "family_id", familyID, "kind", kind, "error", err)
		writeError(c, &apiError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgQueryFailed,
		})
		return
	}
	if members == nil {
		members = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"family_id": familyID, "kind": kind, "members": members})
}

// writeError serializes an apiError as the JSON HTTP response.
func writeError(c *gin.Context, err *apiError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
