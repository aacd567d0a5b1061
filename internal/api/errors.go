package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/osmquality/osmquality/internal/engine"
	"github.com/osmquality/osmquality/internal/ohsome"
	"github.com/osmquality/osmquality/internal/registry"
)

// writeBuildError maps engine failures to HTTP status codes. Validation
// failures are the client's fault, upstream ohsome failures are a bad
// gateway, everything else is internal.
func (s *Server) writeBuildError(w http.ResponseWriter, err error) {
	var combErr *engine.CombinationError
	var sizeErr *engine.SizeRestrictionError
	var apiErr *ohsome.APIError

	switch {
	case errors.Is(err, registry.ErrUnknown),
		errors.Is(err, engine.ErrInvalidBoundary),
		errors.Is(err, engine.ErrUnsupportedLayerData),
		errors.As(err, &combErr),
		errors.As(err, &sizeErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())

	case errors.As(err, &apiErr):
		slog.Error("api: upstream ohsome failure", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())

	default:
		slog.Error("api: build failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
