package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jobdomain "github.com/printforge/printforge/internal/job/domain"
	"github.com/printforge/printforge/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

type createJobRequest struct {
	ClientName  string         `json:"client_name"`
	ClientEmail string         `json:"client_email"`
	Title       string         `json:"title"`
	RequestedAt string         `json:"requested_at"`
	DueAt       string         `json:"due_at"`
	Metadata    map[string]any `json:"metadata"`
}

type updateJobRequest struct {
	ClientName  *string `json:"client_name"`
	ClientEmail *string `json:"client_email"`
	Title       *string `json:"title"`
	RequestedAt *string `json:"requested_at"`
	DueAt       *string `json:"due_at"`
}

type cancelJobRequest struct {
	CollectedAmount decimal.Decimal `json:"collected_amount"`
	Partial         bool            `json:"partial"`
}

type setPaymentStateRequest struct {
	PaymentState string `json:"payment_state"`
}

func (s *Server) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	requestedAt, err := parseOptionalTime(req.RequestedAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("requested_at", "invalid_requested_at", "invalid requested_at"))
		return
	}
	dueAt, err := parseOptionalTime(req.DueAt, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_at", "invalid_due_at", "invalid due_at"))
		return
	}

	resp, err := s.jobSvc.Create(c.Request.Context(), jobdomain.CreateJobRequest{
		ClientName:  strings.TrimSpace(req.ClientName),
		ClientEmail: strings.TrimSpace(req.ClientEmail),
		Title:       strings.TrimSpace(req.Title),
		RequestedAt: requestedAt,
		DueAt:       dueAt,
		Metadata:    req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateJob(c *gin.Context) {
	var req updateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := jobdomain.UpdateJobRequest{
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		Title:       req.Title,
	}
	if req.RequestedAt != nil {
		requestedAt, err := parseOptionalTime(*req.RequestedAt, false)
		if err != nil {
			AbortWithError(c, newValidationError("requested_at", "invalid_requested_at", "invalid requested_at"))
			return
		}
		update.RequestedAt = requestedAt
	}
	if req.DueAt != nil {
		dueAt, err := parseOptionalTime(*req.DueAt, true)
		if err != nil {
			AbortWithError(c, newValidationError("due_at", "invalid_due_at", "invalid due_at"))
			return
		}
		update.DueAt = dueAt
	}

	resp, err := s.jobSvc.Update(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetJobByID(c *gin.Context) {
	resp, err := s.jobSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListJobs(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status      string `form:"status"`
		ClientName  string `form:"client_name"`
		CreatedFrom string `form:"created_from"`
		CreatedTo   string `form:"created_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}
	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}

	req := jobdomain.ListJobRequest{
		PageToken:   query.PageToken,
		PageSize:    query.PageSize,
		ClientName:  strings.TrimSpace(query.ClientName),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}
	if trimmed := strings.TrimSpace(query.Status); trimmed != "" {
		status := jobdomain.Status(trimmed)
		req.Status = &status
	}

	resp, err := s.jobSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteJob(c *gin.Context) {
	if err := s.jobSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) ApproveJob(c *gin.Context) {
	resp, err := s.jobSvc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeliverJob(c *gin.Context) {
	resp, err := s.jobSvc.MarkDelivered(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelJob(c *gin.Context) {
	var req cancelJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.jobSvc.Cancel(c.Request.Context(), c.Param("id"), jobdomain.CancelJobRequest{
		CollectedAmount: req.CollectedAmount,
		Partial:         req.Partial,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetJobPaymentState(c *gin.Context) {
	var req setPaymentStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.jobSvc.SetPaymentState(c.Request.Context(), c.Param("id"), jobdomain.PaymentState(strings.TrimSpace(req.PaymentState)))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListJobPieces(c *gin.Context) {
	resp, err := s.pieceSvc.ListByJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListJobExtras(c *gin.Context) {
	resp, err := s.extraSvc.ListByJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetJobTotals(c *gin.Context) {
	resp, err := s.reportingSvc.JobTotals(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenderJobQuote(c *gin.Context) {
	reader, err := s.quoteSvc.RenderQuote(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="quote.pdf"`)
	c.DataFromReader(http.StatusOK, -1, "application/pdf", reader, nil)
}

func (s *Server) GetPeriodTotals(c *gin.Context) {
	var query struct {
		From string `form:"from"`
		To   string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	from, err := parseOptionalTime(query.From, false)
	if err != nil || from == nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalTime(query.To, true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}
	var until time.Time
	if to != nil {
		until = *to
	} else {
		until = time.Now().UTC()
	}

	resp, err := s.reportingSvc.PeriodTotals(c.Request.Context(), *from, until)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isJobValidationError(err error) bool {
	switch err {
	case jobdomain.ErrInvalidID,
		jobdomain.ErrInvalidClient,
		jobdomain.ErrInvalidTitle,
		jobdomain.ErrInvalidPaymentState,
		jobdomain.ErrInvalidCollected:
		return true
	default:
		return false
	}
}
