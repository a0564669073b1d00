package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"econsim/internal/config"
	"econsim/internal/handlers"
	"econsim/internal/lending"
	"econsim/internal/money"
	"econsim/internal/sim"
	"econsim/internal/temporal"
	"econsim/internal/websocket"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	model, err := buildModel(cfg, log)
	if err != nil {
		log.Fatalf("failed to build simulation: %v", err)
	}

	hub := websocket.NewHub()
	handler, err := handlers.New(cfg, model, hub)
	if err != nil {
		log.Fatalf("failed to build handlers: %v", err)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("simulation API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

// buildModel assembles the simulation from the environment: the currency,
// the calendar and a roster of borrowers and lenders.
func buildModel(cfg config.Config, log *logrus.Logger) (*sim.Model, error) {
	model, err := sim.New(sim.Config{
		Seed: cfg.Seed,
		CurrencySpec: money.Spec{
			Code:      cfg.CurrencyCode,
			Symbol:    cfg.CurrencySymbol,
			UnitName:  cfg.CurrencyUnit,
			Precision: cfg.CurrencyPrecision,
		},
		CalendarSpec: temporal.Spec{
			DaysPerWeek:  cfg.DaysPerWeek,
			DaysPerMonth: temporal.UniformMonths(cfg.MonthsPerYear, cfg.DaysPerMonth),
			StartYear:    cfg.StartYear,
			StartMonth:   1,
			StartDay:     1,
			MaxYear:      cfg.MaxYear,
			StepsToDays:  temporal.Ratio{Steps: cfg.StepsPerDay, Days: cfg.DaysPerStep},
		},
		Logger: log,
	})
	if err != nil {
		return nil, err
	}

	demand := model.Currency().FromInt(cfg.MoneyDemand)
	for i := 0; i < cfg.Lenders; i++ {
		_, err := model.AddLender(lending.LenderConfig{
			BorrowerConfig: lending.BorrowerConfig{
				Name: fmt.Sprintf("lender-%d", i+1),
			},
			ReviewLimit: cfg.ReviewLimit,
			Options: []lending.LoanOptionConfig{{
				Name:                   "standard",
				TermDays:               cfg.LoanTermDays,
				DisbursementWindowDays: 2,
				PaymentWindowDays:      2,
				MaxPrincipal:           &demand,
				MinInterestRate:        cfg.InterestRate,
			}},
		})
		if err != nil {
			return nil, err
		}
	}
	for i := 0; i < cfg.Borrowers; i++ {
		b, err := model.AddBorrower(lending.BorrowerConfig{
			Name: fmt.Sprintf("borrower-%d", i+1),
		}, func(b *lending.Borrower) money.Credit {
			return demand
		})
		if err != nil {
			return nil, err
		}
		if cfg.InitialBalance > 0 {
			if err := b.Endow(model.Currency().FromInt(cfg.InitialBalance)); err != nil {
				return nil, err
			}
		}
	}
	return model, nil
}
