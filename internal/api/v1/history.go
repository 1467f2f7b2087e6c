package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/callguard/internal/datastore"
	"github.com/tphakala/callguard/internal/errors"
)

// AnalysesResponse lists recent analyses, newest first.
type AnalysesResponse struct {
	Analyses []datastore.Analysis `json:"analyses"`
	Count    int                  `json:"count"`
}

// ListAnalyses handles GET /api/v1/analyses
func (c *Controller) ListAnalyses(ctx echo.Context) error {
	limit := datastore.DefaultListLimit
	if v := ctx.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.HandleError(ctx, err, "limit must be a positive integer", http.StatusBadRequest)
		}
		limit = n
	}

	records, err := c.store.List(ctx.Request().Context(), limit)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list analyses", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, AnalysesResponse{Analyses: records, Count: len(records)})
}

// GetAnalysis handles GET /api/v1/analyses/:id
func (c *Controller) GetAnalysis(ctx echo.Context) error {
	id := ctx.Param("id")
	record, err := c.store.Get(ctx.Request().Context(), id)
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Analysis not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to load analysis", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, record)
}
