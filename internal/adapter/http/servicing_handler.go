package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"loan-servicing-engine/internal/usecase/delinquency"
	"loan-servicing-engine/internal/usecase/interestpause"
)

// ServicingHandler covers the servicing side operations: interest pauses
// and delinquency classification runs.
type ServicingHandler struct {
	pauses       *interestpause.Usecase
	delinquencies *delinquency.Usecase
}

func NewServicingHandler(p *interestpause.Usecase, d *delinquency.Usecase) *ServicingHandler {
	return &ServicingHandler{pauses: p, delinquencies: d}
}

type createPauseReq struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date"   validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason"`
}

func (h *ServicingHandler) CreatePause(c echo.Context) error {
	loanID := c.Param("loan_id")
	var req createPauseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)
	dto, err := h.pauses.Create(c.Request().Context(), interestpause.CreatePauseInput{
		LoanID:    loanID,
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
	})
	if err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ServicingHandler) CancelPause(c echo.Context) error {
	if err := h.pauses.Cancel(c.Request().Context(), c.Param("pause_id")); err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ServicingHandler) InterestFreeDays(c echo.Context) error {
	loanID := c.Param("loan_id")
	days, err := h.pauses.InterestFreeDays(c.Request().Context(), loanID)
	if err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	adj, err := h.pauses.InterestAdjustment(c.Request().Context(), loanID)
	if err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"loan_id":             loanID,
		"interest_free_days":  days,
		"interest_adjustment": adj,
	})
}

type classifyReq struct {
	AsOf string `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

// ClassifyLoan runs delinquency classification for one loan, typically
// invoked by the nightly job runner.
func (h *ServicingHandler) ClassifyLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	var req classifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	asOf := time.Now().UTC()
	if req.AsOf != "" {
		asOf, _ = time.Parse("2006-01-02", req.AsOf)
	}
	dto, err := h.delinquencies.ProcessLoan(c.Request().Context(), loanID, asOf)
	if err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	return c.JSON(http.StatusOK, dto)
}
