package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cedarhouse/menu-api/internal/platform/httpx"
	"github.com/cedarhouse/menu-api/internal/services"
)

// FeedbackHandlers exposes the add-to-cart feedback sequence state.
type FeedbackHandlers struct {
	service services.FeedbackService
}

// NewFeedbackHandlers builds the feedback endpoint handlers.
func NewFeedbackHandlers(service services.FeedbackService) *FeedbackHandlers {
	return &FeedbackHandlers{service: service}
}

// Routes registers the feedback endpoints on the provided router.
func (h *FeedbackHandlers) Routes(r chi.Router) {
	r.Get("/", h.snapshot)
}

type feedbackResponse struct {
	Phase   string `json:"phase"`
	Message string `json:"message,omitempty"`
}

func (h *FeedbackHandlers) snapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := requireSession(ctx, w)
	if !ok {
		return
	}
	if h.service == nil {
		writeFeedbackServiceUnavailable(ctx, w)
		return
	}

	snapshot := h.service.Snapshot(ctx, sid)
	writeJSONResponse(w, http.StatusOK, feedbackResponse{
		Phase:   string(snapshot.Phase),
		Message: snapshot.Message,
	})
}

func writeFeedbackServiceUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("feedback_service_unavailable", "feedback service is not configured", http.StatusServiceUnavailable))
}
