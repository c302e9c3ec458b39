package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	piecedomain "github.com/printforge/printforge/internal/piece/domain"
	"github.com/shopspring/decimal"
)

type createPieceRequest struct {
	JobID             string           `json:"job_id"`
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	Quantity          int64            `json:"quantity"`
	FilamentID        string           `json:"filament_id"`
	GramsPerUnit      decimal.Decimal  `json:"grams_per_unit"`
	PrintHoursPerUnit decimal.Decimal  `json:"print_hours_per_unit"`
	PrintHourRate     *decimal.Decimal `json:"print_hour_rate"`
	ModelingHours     decimal.Decimal  `json:"modeling_hours"`
	ModelingHourRate  *decimal.Decimal `json:"modeling_hour_rate"`
	BasePricePerUnit  decimal.Decimal  `json:"base_price_per_unit"`
}

type updatePieceRequest struct {
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	Quantity          *int64           `json:"quantity"`
	FilamentID        *string          `json:"filament_id"`
	GramsPerUnit      *decimal.Decimal `json:"grams_per_unit"`
	PrintHoursPerUnit *decimal.Decimal `json:"print_hours_per_unit"`
	PrintHourRate     *decimal.Decimal `json:"print_hour_rate"`
	ModelingHours     *decimal.Decimal `json:"modeling_hours"`
	ModelingHourRate  *decimal.Decimal `json:"modeling_hour_rate"`
	BasePricePerUnit  *decimal.Decimal `json:"base_price_per_unit"`
}

type setProductionStateRequest struct {
	State string `json:"state"`
}

func (s *Server) CreatePiece(c *gin.Context) {
	var req createPieceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.pieceSvc.Create(c.Request.Context(), piecedomain.CreatePieceRequest{
		JobID:             strings.TrimSpace(req.JobID),
		Name:              strings.TrimSpace(req.Name),
		Description:       strings.TrimSpace(req.Description),
		Quantity:          req.Quantity,
		FilamentID:        strings.TrimSpace(req.FilamentID),
		GramsPerUnit:      req.GramsPerUnit,
		PrintHoursPerUnit: req.PrintHoursPerUnit,
		PrintHourRate:     req.PrintHourRate,
		ModelingHours:     req.ModelingHours,
		ModelingHourRate:  req.ModelingHourRate,
		BasePricePerUnit:  req.BasePricePerUnit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePiece(c *gin.Context) {
	var req updatePieceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.pieceSvc.Update(c.Request.Context(), c.Param("id"), piecedomain.UpdatePieceRequest{
		Name:              req.Name,
		Description:       req.Description,
		Quantity:          req.Quantity,
		FilamentID:        req.FilamentID,
		GramsPerUnit:      req.GramsPerUnit,
		PrintHoursPerUnit: req.PrintHoursPerUnit,
		PrintHourRate:     req.PrintHourRate,
		ModelingHours:     req.ModelingHours,
		ModelingHourRate:  req.ModelingHourRate,
		BasePricePerUnit:  req.BasePricePerUnit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPieceByID(c *gin.Context) {
	resp, err := s.pieceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePiece(c *gin.Context) {
	if err := s.pieceSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) SetPieceProductionState(c *gin.Context) {
	var req setProductionStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.pieceSvc.SetProductionState(c.Request.Context(), c.Param("id"), piecedomain.ProductionState(strings.TrimSpace(req.State)))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isPieceValidationError(err error) bool {
	switch err {
	case piecedomain.ErrInvalidID,
		piecedomain.ErrInvalidJob,
		piecedomain.ErrInvalidFilament,
		piecedomain.ErrInvalidName,
		piecedomain.ErrInvalidQuantity,
		piecedomain.ErrInvalidGrams,
		piecedomain.ErrInvalidBasePrice,
		piecedomain.ErrInvalidProduction:
		return true
	default:
		return false
	}
}
