package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

var API_ENV = os.Getenv("API_ENV")

const (
	DEFAULT_PAYMENT_DEADLINE   = 15 * time.Minute
	DEFAULT_TRANSFER_LEAD_TIME = 24 * time.Hour
	DEFAULT_SWEEP_INTERVAL     = 1 * time.Minute
	DEFAULT_MIN_PAYABLE        = 1.00
)

func PaymentDeadline() time.Duration {
	return durationEnv("PAYMENT_DEADLINE", DEFAULT_PAYMENT_DEADLINE)
}

func TransferLeadTime() time.Duration {
	return durationEnv("TRANSFER_LEAD_TIME", DEFAULT_TRANSFER_LEAD_TIME)
}

func SweepInterval() time.Duration {
	return durationEnv("SWEEP_INTERVAL", DEFAULT_SWEEP_INTERVAL)
}

// MinPayable is the smallest amount the card processor accepts. Final prices
// below it skip payment capture entirely.
func MinPayable() float64 {
	v := os.Getenv("MIN_PAYABLE_AMOUNT")
	if v == "" {
		return DEFAULT_MIN_PAYABLE
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return DEFAULT_MIN_PAYABLE
	}
	return f
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
