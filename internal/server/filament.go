package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	filamentdomain "github.com/printforge/printforge/internal/filament/domain"
	"github.com/shopspring/decimal"
)

type createFilamentRequest struct {
	Material       string          `json:"material"`
	Color          string          `json:"color"`
	CoilPrice      decimal.Decimal `json:"coil_price"`
	CoilGrams      decimal.Decimal `json:"coil_grams"`
	AvailableGrams decimal.Decimal `json:"available_grams"`
	Metadata       map[string]any  `json:"metadata"`
}

type updateFilamentRequest struct {
	Material  *string          `json:"material"`
	Color     *string          `json:"color"`
	CoilPrice *decimal.Decimal `json:"coil_price"`
	CoilGrams *decimal.Decimal `json:"coil_grams"`
}

type restockFilamentRequest struct {
	Grams decimal.Decimal `json:"grams"`
}

func (s *Server) CreateFilament(c *gin.Context) {
	var req createFilamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.filamentSvc.Create(c.Request.Context(), filamentdomain.CreateFilamentRequest{
		Material:       strings.TrimSpace(req.Material),
		Color:          strings.TrimSpace(req.Color),
		CoilPrice:      req.CoilPrice,
		CoilGrams:      req.CoilGrams,
		AvailableGrams: req.AvailableGrams,
		Metadata:       req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateFilament(c *gin.Context) {
	var req updateFilamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.filamentSvc.Update(c.Request.Context(), c.Param("id"), filamentdomain.UpdateFilamentRequest{
		Material:  req.Material,
		Color:     req.Color,
		CoilPrice: req.CoilPrice,
		CoilGrams: req.CoilGrams,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetFilamentByID(c *gin.Context) {
	resp, err := s.filamentSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListFilaments(c *gin.Context) {
	var query struct {
		Material string `form:"material"`
		Color    string `form:"color"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.filamentSvc.List(c.Request.Context(), filamentdomain.ListFilamentRequest{
		Material: strings.TrimSpace(query.Material),
		Color:    strings.TrimSpace(query.Color),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RestockFilament(c *gin.Context) {
	var req restockFilamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.filamentSvc.Restock(c.Request.Context(), c.Param("id"), req.Grams)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteFilament(c *gin.Context) {
	if err := s.filamentSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func isFilamentValidationError(err error) bool {
	switch err {
	case filamentdomain.ErrInvalidID,
		filamentdomain.ErrInvalidMaterial,
		filamentdomain.ErrInvalidCoilPrice,
		filamentdomain.ErrInvalidCoilGrams,
		filamentdomain.ErrInvalidRestock:
		return true
	default:
		return false
	}
}
