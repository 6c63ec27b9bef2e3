package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	domain "loan-servicing-engine/internal/domain/loan"
	"loan-servicing-engine/internal/domain/payment"
	"loan-servicing-engine/internal/usecase/loan"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	ClientID                string           `json:"client_id"                validate:"required,hex32"`
	Terms                   domain.Terms     `json:"terms"`
	Charges                 []domain.Charge  `json:"charges"`
	AnnualInterestRate      decimal.Decimal  `json:"annual_interest_rate"`
	PaymentStrategy         string           `json:"payment_strategy"`
	EarlyPaymentPenaltyRate *decimal.Decimal `json:"early_payment_penalty_rate"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Create(c.Request().Context(), loan.CreateLoanInput{
		ClientID:                req.ClientID,
		Terms:                   req.Terms,
		Charges:                 req.Charges,
		AnnualInterestRate:      req.AnnualInterestRate,
		PaymentStrategy:         payment.Strategy(req.PaymentStrategy),
		EarlyPaymentPenaltyRate: req.EarlyPaymentPenaltyRate,
	})
	if err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) GetSchedule(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"loan_id":  dto.LoanID,
		"schedule": dto.Schedule,
	})
}

// PreviewSchedule prices terms without persisting anything. Useful for
// quote screens and for dry-running restructure inputs.
func (h *LoanHandler) PreviewSchedule(c echo.Context) error {
	var req struct {
		Terms   domain.Terms    `json:"terms"`
		Charges []domain.Charge `json:"charges"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	s, err := h.uc.Preview(req.Terms, req.Charges)
	if err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	return c.JSON(http.StatusOK, s)
}
