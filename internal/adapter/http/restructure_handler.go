package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	domain "loan-servicing-engine/internal/domain/restructure"
	"loan-servicing-engine/internal/usecase/restructure"
)

type RestructureHandler struct{ uc *restructure.Usecase }

func NewRestructureHandler(uc *restructure.Usecase) *RestructureHandler {
	return &RestructureHandler{uc: uc}
}

type createRestructureReq struct {
	Type               string `json:"type"                 validate:"required,oneof=reschedule refinance restructure"`
	RescheduleFromDate string `json:"reschedule_from_date" validate:"required,datetime=2006-01-02"`

	NewInterestRate   *decimal.Decimal `json:"new_interest_rate"`
	ExtraInstallments int              `json:"extra_installments" validate:"gte=0"`
	EMIOverride       *decimal.Decimal `json:"emi_override"`
	Reason            string           `json:"reason"             validate:"required"`
}

func (h *RestructureHandler) CreateRestructure(c echo.Context) error {
	loanID := c.Param("loan_id")
	var req createRestructureReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	from, _ := time.Parse("2006-01-02", req.RescheduleFromDate)
	dto, err := h.uc.Create(c.Request().Context(), restructure.CreateInput{
		LoanID:             loanID,
		Type:               domain.Type(req.Type),
		RescheduleFromDate: from,
		NewInterestRate:    req.NewInterestRate,
		ExtraInstallments:  req.ExtraInstallments,
		EMIOverride:        req.EMIOverride,
		Reason:             req.Reason,
	})
	if err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *RestructureHandler) ApproveRestructure(c echo.Context) error {
	dto, err := h.uc.Approve(c.Request().Context(), c.Param("restructure_id"))
	if err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	return c.JSON(http.StatusOK, dto)
}

type rejectRestructureReq struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *RestructureHandler) RejectRestructure(c echo.Context) error {
	var req rejectRestructureReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	if err := h.uc.Reject(c.Request().Context(), c.Param("restructure_id"), req.Reason); err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "rejected"})
}
