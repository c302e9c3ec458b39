package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	extradomain "github.com/printforge/printforge/internal/extra/domain"
	"github.com/shopspring/decimal"
)

type createCatalogEntryRequest struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Scope     string          `json:"scope"`
}

type updateCatalogEntryRequest struct {
	Name      *string          `json:"name"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Scope     *string          `json:"scope"`
}

type applyExtraRequest struct {
	JobID           string `json:"job_id"`
	PieceID         string `json:"piece_id"`
	CatalogEntryID  string `json:"catalog_entry_id"`
	Quantity        int64  `json:"quantity"`
	CountsAsRevenue *bool  `json:"counts_as_revenue"`
	CountsAsCost    *bool  `json:"counts_as_cost"`
}

type updateAppliedExtraRequest struct {
	Quantity        *int64 `json:"quantity"`
	CountsAsRevenue *bool  `json:"counts_as_revenue"`
	CountsAsCost    *bool  `json:"counts_as_cost"`
}

func (s *Server) CreateExtraCatalogEntry(c *gin.Context) {
	var req createCatalogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.extraSvc.CreateCatalogEntry(c.Request.Context(), extradomain.CreateCatalogEntryRequest{
		Name:      strings.TrimSpace(req.Name),
		UnitPrice: req.UnitPrice,
		Scope:     extradomain.Scope(strings.TrimSpace(req.Scope)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateExtraCatalogEntry(c *gin.Context) {
	var req updateCatalogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := extradomain.UpdateCatalogEntryRequest{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
	}
	if req.Scope != nil {
		scope := extradomain.Scope(strings.TrimSpace(*req.Scope))
		update.Scope = &scope
	}

	resp, err := s.extraSvc.UpdateCatalogEntry(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetExtraCatalogEntry(c *gin.Context) {
	resp, err := s.extraSvc.GetCatalogEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListExtraCatalog(c *gin.Context) {
	resp, err := s.extraSvc.ListCatalog(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteExtraCatalogEntry(c *gin.Context) {
	if err := s.extraSvc.DeleteCatalogEntry(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) ApplyExtra(c *gin.Context) {
	var req applyExtraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	apply := extradomain.ApplyExtraRequest{
		JobID:           strings.TrimSpace(req.JobID),
		PieceID:         strings.TrimSpace(req.PieceID),
		CatalogEntryID:  strings.TrimSpace(req.CatalogEntryID),
		Quantity:        req.Quantity,
		CountsAsRevenue: true,
	}
	if req.CountsAsRevenue != nil {
		apply.CountsAsRevenue = *req.CountsAsRevenue
	}
	if req.CountsAsCost != nil {
		apply.CountsAsCost = *req.CountsAsCost
	}

	resp, err := s.extraSvc.Apply(c.Request.Context(), apply)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateAppliedExtra(c *gin.Context) {
	var req updateAppliedExtraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.extraSvc.UpdateApplied(c.Request.Context(), c.Param("id"), extradomain.UpdateAppliedRequest{
		Quantity:        req.Quantity,
		CountsAsRevenue: req.CountsAsRevenue,
		CountsAsCost:    req.CountsAsCost,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveExtra(c *gin.Context) {
	if err := s.extraSvc.Remove(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func isExtraValidationError(err error) bool {
	switch err {
	case extradomain.ErrInvalidID,
		extradomain.ErrInvalidName,
		extradomain.ErrInvalidUnitPrice,
		extradomain.ErrInvalidScope,
		extradomain.ErrInvalidQuantity,
		extradomain.ErrInvalidJob,
		extradomain.ErrInvalidPiece,
		extradomain.ErrPieceScopeRequired:
		return true
	default:
		return false
	}
}
