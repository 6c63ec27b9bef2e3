package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"

	httpadp "loan-servicing-engine/internal/adapter/http"
	appmw "loan-servicing-engine/internal/adapter/middleware"
	"loan-servicing-engine/internal/adapter/repository/mysql"
	"loan-servicing-engine/internal/config"
	delinquencyDomain "loan-servicing-engine/internal/domain/delinquency"
	loanDomain "loan-servicing-engine/internal/domain/loan"
	"loan-servicing-engine/internal/infrastructure/cache"
	"loan-servicing-engine/internal/infrastructure/db"
	delinquencyuc "loan-servicing-engine/internal/usecase/delinquency"
	pauseuc "loan-servicing-engine/internal/usecase/interestpause"
	loanuc "loan-servicing-engine/internal/usecase/loan"
	paymentuc "loan-servicing-engine/internal/usecase/payment"
	prepaymentuc "loan-servicing-engine/internal/usecase/prepayment"
	restructureuc "loan-servicing-engine/internal/usecase/restructure"
	"loan-servicing-engine/pkg/id"
)

// overduePenaltyMapping builds the charge inserted on delinquency band
// transitions from config. Returns nil when the amount is zero or unset.
func overduePenaltyMapping(cfg *config.Config) delinquencyuc.ChargeMapping {
	amt, err := decimal.NewFromString(cfg.OverduePenaltyAmount)
	if err != nil || !amt.IsPositive() {
		return nil
	}
	return func(cls delinquencyDomain.Classification) *loanDomain.Charge {
		return &loanDomain.Charge{
			ChargeID: id.NewID32(),
			Name:     "overdue penalty " + string(cls),
			Amount:   amt,
			TimeType: loanDomain.ChargeOverdueInstallment,
			CalcType: loanDomain.CalcFlat,
		}
	}
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	loanRepo := mysql.NewLoanRepository(gdb)
	pauseRepo := mysql.NewInterestPauseRepository(gdb)
	unitOfWork := mysql.NewGormUoW(gdb)

	loans := loanuc.NewUsecase(loanRepo, unitOfWork)
	payments := paymentuc.NewUsecase(unitOfWork)
	prepayments := prepaymentuc.NewUsecase(loanRepo)
	pauses := pauseuc.NewUsecase(loanRepo, pauseRepo, unitOfWork)
	restructures := restructureuc.NewUsecase(unitOfWork)
	delinquencies := delinquencyuc.NewUsecase(unitOfWork, overduePenaltyMapping(cfg))

	h := httpadp.NewHandler()
	loanH := httpadp.NewLoanHandler(loans)
	paymentH := httpadp.NewPaymentHandler(payments, prepayments)
	servicingH := httpadp.NewServicingHandler(pauses, delinquencies)
	restructureH := httpadp.NewRestructureHandler(restructures)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())

	idemp := appmw.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)

	// routes
	e.GET("/health", h.Health)

	e.POST("/loans", loanH.CreateLoan, idemp)
	e.POST("/loans/preview", loanH.PreviewSchedule)
	e.GET("/loans/:loan_id", loanH.GetLoan)
	e.GET("/loans/:loan_id/schedule", loanH.GetSchedule)

	e.POST("/loans/:loan_id/payments", paymentH.ApplyPayment, idemp)
	e.GET("/loans/:loan_id/prepayment", paymentH.PrepaymentQuote)
	e.GET("/loans/:loan_id/prepayment/benefit", paymentH.PrepaymentBenefit)

	e.POST("/loans/:loan_id/interest-pauses", servicingH.CreatePause, idemp)
	e.DELETE("/interest-pauses/:pause_id", servicingH.CancelPause)
	e.GET("/loans/:loan_id/interest-free-days", servicingH.InterestFreeDays)
	e.POST("/loans/:loan_id/delinquency", servicingH.ClassifyLoan, idemp)

	e.POST("/loans/:loan_id/restructures", restructureH.CreateRestructure, idemp)
	e.POST("/restructures/:restructure_id/approve", restructureH.ApproveRestructure, idemp)
	e.POST("/restructures/:restructure_id/reject", restructureH.RejectRestructure, idemp)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
