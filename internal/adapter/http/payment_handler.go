package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"loan-servicing-engine/internal/domain/payment"
	paymentuc "loan-servicing-engine/internal/usecase/payment"
	"loan-servicing-engine/internal/usecase/prepayment"
)

type PaymentHandler struct {
	payments    *paymentuc.Usecase
	prepayments *prepayment.Usecase
}

func NewPaymentHandler(p *paymentuc.Usecase, q *prepayment.Usecase) *PaymentHandler {
	return &PaymentHandler{payments: p, prepayments: q}
}

type applyPaymentReq struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"          validate:"required,currency_code"`
	Strategy string          `json:"strategy"`
	// Accept canonical date `YYYY-MM-DD`; defaults to today (UTC).
	TransactionDate string `json:"transaction_date"  validate:"omitempty,datetime=2006-01-02"`
	Method          string `json:"method"`
	AccountNumber   string `json:"account_number"`
	ReceiptNumber   string `json:"receipt_number"`
}

func (h *PaymentHandler) ApplyPayment(c echo.Context) error {
	loanID := c.Param("loan_id")
	var req applyPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	txDate := time.Now().UTC()
	if req.TransactionDate != "" {
		txDate, _ = time.Parse("2006-01-02", req.TransactionDate)
	}
	dto, err := h.payments.Apply(c.Request().Context(), paymentuc.ApplyPaymentInput{
		LoanID:          loanID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Strategy:        payment.Strategy(req.Strategy),
		TransactionDate: txDate,
		Method:          req.Method,
		AccountNumber:   req.AccountNumber,
		ReceiptNumber:   req.ReceiptNumber,
	})
	if err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	return c.JSON(http.StatusCreated, dto)
}

// PrepaymentQuote answers "what settles this loan today". Optional query
// params: as_of (YYYY-MM-DD), amount (proposed payment), include_penalty.
func (h *PaymentHandler) PrepaymentQuote(c echo.Context) error {
	loanID := c.Param("loan_id")

	asOf := time.Now().UTC()
	if raw := c.QueryParam("as_of"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "as_of must be YYYY-MM-DD"})
		}
		asOf = t
	}

	var proposed *decimal.Decimal
	if raw := c.QueryParam("amount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount must be a decimal"})
		}
		proposed = &d
	}

	includePenalty := true
	if raw := c.QueryParam("include_penalty"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "include_penalty must be a bool"})
		}
		includePenalty = b
	}

	quote, err := h.prepayments.Calculate(c.Request().Context(), loanID, asOf, proposed, includePenalty)
	if err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	return c.JSON(http.StatusOK, quote)
}

func (h *PaymentHandler) PrepaymentBenefit(c echo.Context) error {
	loanID := c.Param("loan_id")

	asOf := time.Now().UTC()
	if raw := c.QueryParam("as_of"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "as_of must be YYYY-MM-DD"})
		}
		asOf = t
	}

	benefit, err := h.prepayments.CalculateBenefit(c.Request().Context(), loanID, asOf)
	if err != nil {
		return c.JSON(statusFor(err), domainError(err))
	}
	return c.JSON(http.StatusOK, benefit)
}
