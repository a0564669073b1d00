package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv           string
	Port             string
	JWTSecret        string
	TokenTTL         time.Duration
	AllowedOrigins   string
	OperatorPassword string

	Seed        int64
	LogLevel    string
	ReviewLimit int

	CurrencyCode      string
	CurrencySymbol    string
	CurrencyUnit      string
	CurrencyPrecision int

	DaysPerWeek   int
	DaysPerMonth  int
	MonthsPerYear int
	StartYear     int
	MaxYear       int
	StepsPerDay   int
	DaysPerStep   int

	Borrowers      int
	Lenders        int
	LoanTermDays   int
	InterestRate   float64
	InitialBalance int64
	MoneyDemand    int64
}

func Load() Config {
	return Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:         getDuration("TOKEN_TTL_MINUTES", 60),
		AllowedOrigins:   getEnv("ALLOWED_ORIGINS", "*"),
		OperatorPassword: getEnv("OPERATOR_PASSWORD", "operator"),

		Seed:        getInt64("SEED", 1),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		ReviewLimit: getInt("REVIEW_LIMIT", 10),

		CurrencyCode:      strings.ToUpper(getEnv("CURRENCY_CODE", "SIM")),
		CurrencySymbol:    getEnv("CURRENCY_SYMBOL", "$"),
		CurrencyUnit:      getEnv("CURRENCY_UNIT", "dollar"),
		CurrencyPrecision: getInt("CURRENCY_PRECISION", 2),

		DaysPerWeek:   getInt("DAYS_PER_WEEK", 5),
		DaysPerMonth:  getInt("DAYS_PER_MONTH", 30),
		MonthsPerYear: getInt("MONTHS_PER_YEAR", 10),
		StartYear:     getInt("START_YEAR", 1),
		MaxYear:       getInt("MAX_YEAR", 1000),
		StepsPerDay:   getInt("STEPS_PER_DAY", 1),
		DaysPerStep:   getInt("DAYS_PER_STEP", 1),

		Borrowers:      getInt("BORROWERS", 10),
		Lenders:        getInt("LENDERS", 1),
		LoanTermDays:   getInt("LOAN_TERM_DAYS", 10),
		InterestRate:   getFloat("INTEREST_RATE", 0.05),
		InitialBalance: getInt64("INITIAL_BALANCE", 0),
		MoneyDemand:    getInt64("MONEY_DEMAND", 100),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallbackMinutes int) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(fallbackMinutes) * time.Minute
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return time.Duration(fallbackMinutes) * time.Minute
	}
	return time.Duration(parsed) * time.Minute
}
