package settings

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wizard/internal/domain"
)

// Setting keys.
const (
	KeyAlphaVantageAPIKey  = "alpha_vantage_api_key"
	KeyPriceUpdateInterval = "price_update_interval"
	KeyAutoUpdateEnabled   = "auto_update_enabled"
	KeyCurrency            = "currency"
	KeyDollarRate          = "dollar_rate"
)

// Interval bounds, in minutes.
const (
	DefaultIntervalMinutes = 15
	MinIntervalMinutes     = 5
	MaxIntervalMinutes     = 1440
)

var defaultDollarRate = decimal.RequireFromString("5.08")

// Settings is the typed view of all stored settings.
// The API key itself is never exposed; only whether one is configured.
type Settings struct {
	AlphaVantageKeySet     bool            `json:"alphaVantageKeySet"`
	PriceUpdateIntervalMin int             `json:"priceUpdateInterval"`
	AutoUpdateEnabled      bool            `json:"autoUpdateEnabled"`
	Currency               string          `json:"currency"`
	DollarRate             decimal.Decimal `json:"dollarRate"`
}

// Update is a partial settings change; nil fields are left untouched.
type Update struct {
	AlphaVantageAPIKey     *string          `json:"alphaVantageApiKey"`
	PriceUpdateIntervalMin *int             `json:"priceUpdateInterval"`
	AutoUpdateEnabled      *bool            `json:"autoUpdateEnabled"`
	Currency               *string          `json:"currency"`
	DollarRate             *decimal.Decimal `json:"dollarRate"`
}

// Service reads and writes typed settings with defaults.
type Service struct {
	repo      Repository
	envAPIKey string
}

// NewService creates a settings service. envAPIKey is used when the stored key is empty.
func NewService(repo Repository, envAPIKey string) *Service {
	return &Service{repo: repo, envAPIKey: envAPIKey}
}

func (s *Service) get(ctx context.Context, key string) (string, bool, error) {
	return s.repo.Get(ctx, key)
}

// AlphaVantageAPIKey returns the stored key, falling back to the process config.
func (s *Service) AlphaVantageAPIKey(ctx context.Context) (string, error) {
	v, _, err := s.get(ctx, KeyAlphaVantageAPIKey)
	if err != nil {
		return "", err
	}
	if v = strings.TrimSpace(v); v != "" {
		return v, nil
	}
	return s.envAPIKey, nil
}

// PriceUpdateInterval returns the staleness threshold, clamped to 5..1440 minutes.
func (s *Service) PriceUpdateInterval(ctx context.Context) (time.Duration, error) {
	v, ok, err := s.get(ctx, KeyPriceUpdateInterval)
	if err != nil {
		return 0, err
	}
	return time.Duration(parseInterval(v, ok)) * time.Minute, nil
}

func parseInterval(v string, ok bool) int {
	if !ok {
		return DefaultIntervalMinutes
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return DefaultIntervalMinutes
	}
	return min(max(n, MinIntervalMinutes), MaxIntervalMinutes)
}

// AutoUpdateEnabled reports whether dashboard loads may trigger a bulk update. Defaults to true.
func (s *Service) AutoUpdateEnabled(ctx context.Context) (bool, error) {
	v, ok, err := s.get(ctx, KeyAutoUpdateEnabled)
	if err != nil {
		return false, err
	}
	return parseBool(v, ok), nil
}

func parseBool(v string, ok bool) bool {
	if !ok {
		return true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return true
	}
	return b
}

// Currency returns the display currency code.
func (s *Service) Currency(ctx context.Context) (string, error) {
	v, ok, err := s.get(ctx, KeyCurrency)
	if err != nil {
		return "", err
	}
	return parseCurrency(v, ok), nil
}

func parseCurrency(v string, ok bool) string {
	code := strings.ToUpper(strings.TrimSpace(v))
	if !ok || money.GetCurrency(code) == nil {
		return domain.DefaultCurrency
	}
	return code
}

func parseDollarRate(v string, ok bool) decimal.Decimal {
	if !ok {
		return defaultDollarRate
	}
	d := domain.SafeParse(strings.TrimSpace(v))
	if !d.IsPositive() {
		return defaultDollarRate
	}
	return d
}

// Get returns all settings in typed form.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return Settings{}, err
	}
	lookup := func(k string) (string, bool) {
		v, ok := all[k]
		return v, ok
	}

	key, _ := lookup(KeyAlphaVantageAPIKey)
	interval, ok := lookup(KeyPriceUpdateInterval)
	out := Settings{
		AlphaVantageKeySet:     strings.TrimSpace(key) != "" || s.envAPIKey != "",
		PriceUpdateIntervalMin: parseInterval(interval, ok),
	}
	v, ok := lookup(KeyAutoUpdateEnabled)
	out.AutoUpdateEnabled = parseBool(v, ok)
	v, ok = lookup(KeyCurrency)
	out.Currency = parseCurrency(v, ok)
	v, ok = lookup(KeyDollarRate)
	out.DollarRate = parseDollarRate(v, ok)
	return out, nil
}

// Update validates and stores the set fields of u.
func (s *Service) Update(ctx context.Context, u Update) error {
	var v domain.Validator
	values := make(map[string]string)

	if u.AlphaVantageAPIKey != nil {
		values[KeyAlphaVantageAPIKey] = strings.TrimSpace(*u.AlphaVantageAPIKey)
	}
	if u.PriceUpdateIntervalMin != nil {
		n := *u.PriceUpdateIntervalMin
		v.Check(n >= MinIntervalMinutes && n <= MaxIntervalMinutes, "priceUpdateInterval",
			"must be between 5 and 1440 minutes")
		values[KeyPriceUpdateInterval] = strconv.Itoa(n)
	}
	if u.AutoUpdateEnabled != nil {
		values[KeyAutoUpdateEnabled] = strconv.FormatBool(*u.AutoUpdateEnabled)
	}
	if u.Currency != nil {
		code := strings.ToUpper(strings.TrimSpace(*u.Currency))
		v.Check(money.GetCurrency(code) != nil, "currency", "unknown currency code")
		values[KeyCurrency] = code
	}
	if u.DollarRate != nil {
		v.Check(u.DollarRate.IsPositive(), "dollarRate", "must be positive")
		values[KeyDollarRate] = u.DollarRate.String()
	}

	if err := v.Err(); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	return s.repo.Set(ctx, values)
}
