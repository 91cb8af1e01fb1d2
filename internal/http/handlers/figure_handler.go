// Figure HTTP handlers.
//
// This file exposes read-only endpoints for the figure catalog:
//   - GET /figures        (list active figures, most popular first)
//   - GET /figures/{id}   (fetch one active figure)
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListFigures godoc
// @ID          listFigures
// @Summary     List active figures
// @Description Returns all active figures ordered by popularity.
// @Tags        Figures
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
//
// @Success     200  {object} handlers.Envelope{data=[]domain.Figure}
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /figures [get]
func (h *Handlers) ListFigures(c *gin.Context) {
	figures, err := h.figSvc.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, figures)
}

// GetFigure godoc
// @ID          getFigure
// @Summary     Fetch one figure
// @Tags        Figures
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
// @Param       id             path    int     true "Figure ID"
//
// @Success     200  {object} handlers.Envelope{data=domain.Figure}
// @Failure     400  {object} handlers.Envelope "Bad request"
// @Failure     404  {object} handlers.Envelope "Figure not found"
// @Router      /figures/{id} [get]
func (h *Handlers) GetFigure(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "figure id must be a positive integer")
		return
	}
	f, err := h.figSvc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "figure not found")
		return
	}
	ok(c, http.StatusOK, f)
}
