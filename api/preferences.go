package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"widget-dashboard/auth"
	"widget-dashboard/live"
	"widget-dashboard/preference"
	"widget-dashboard/render"
	"widget-dashboard/userstore"
)

const maxDocumentBytes = 1 << 20

func (h *handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	set, err := h.store.Components(r.Context(), email)
	if err != nil {
		h.storeError(w, err)
		return
	}
	metricLoads.Inc()
	writeJSON(w, http.StatusOK, preference.NewDocument(set))
}

func (h *handler) postPreferences(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())

	set, err := preference.DecodeDocument(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err == nil {
		err = set.Validate()
	}
	if err != nil {
		metricSaves.WithLabelValues("invalid").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	version, err := h.store.ReplaceComponents(r.Context(), email, set)
	if err != nil {
		metricSaves.WithLabelValues("error").Inc()
		h.storeError(w, err)
		return
	}
	metricSaves.WithLabelValues("ok").Inc()
	h.logger.Info("preferences replaced",
		zap.String("email", email),
		zap.Uint64("version", version),
		zap.Int("components", len(set)),
	)

	h.hub.Publish(email, live.Update{Version: version, Components: set, At: time.Now()})
	writeJSON(w, http.StatusOK, preference.NewDocument(set))
}

// getDashboard renders the caller's committed arrangement the same way a
// client does: load it through a preference store, then render only what
// that store committed.
func (h *handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	ps := preference.NewStore(localGateway{store: h.store, email: email}, preference.WithLogger(h.logger))
	if _, err := ps.Load(r.Context(), preference.Credential(email)); err != nil {
		h.storeError(w, err)
		return
	}
	cs, _ := ps.Committed()
	writeJSON(w, http.StatusOK, map[string]any{"items": render.Render(cs, h.registry)})
}

type widgetInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

func (h *handler) listWidgets(w http.ResponseWriter, r *http.Request) {
	entries := h.registry.Entries()
	out := make([]widgetInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, widgetInfo{ID: e.ID, Label: e.Label, Kind: string(e.Widget.Kind())})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userstore.ErrUserNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, preference.ErrMalformed):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		h.logger.Error("preference store", zap.Error(err))
		http.Error(w, "failed to access preferences", http.StatusInternalServerError)
	}
}

// localGateway serves a preference store straight from the user store.
type localGateway struct {
	store userstore.Store
	email string
}

func (g localGateway) Load(ctx context.Context, _ preference.Credential) (preference.Set, error) {
	return g.store.Components(ctx, g.email)
}

func (g localGateway) Save(ctx context.Context, set preference.Set, _ preference.Credential) error {
	_, err := g.store.ReplaceComponents(ctx, g.email, set)
	return err
}
