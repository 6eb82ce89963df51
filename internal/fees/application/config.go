package application

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	fees "household-registry/internal/fees/domain"
)

// PolicyConfig defines the fee discount policy settings.
type PolicyConfig struct {
	Discount fees.DiscountPolicy `yaml:"discount"`
}

// LoadPolicyConfig loads the discount policy from yaml or env. A missing
// config file leaves the default policy in place.
func LoadPolicyConfig() (PolicyConfig, error) {
	cfg := PolicyConfig{Discount: fees.DefaultDiscountPolicy()}

	if path := os.Getenv("FEE_POLICY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Discount.Rate <= 0 || cfg.Discount.Rate >= 1 {
		cfg.Discount.Rate = getenvFloatDefault("FEE_DISCOUNT_RATE", fees.DefaultDiscountPolicy().Rate)
	}
	if cfg.Discount.ElderlyAge <= 0 {
		cfg.Discount.ElderlyAge = getenvIntDefault("FEE_ELDERLY_AGE", fees.DefaultDiscountPolicy().ElderlyAge)
	}
	if cfg.Discount.StudentAge <= 0 {
		cfg.Discount.StudentAge = getenvIntDefault("FEE_STUDENT_AGE", fees.DefaultDiscountPolicy().StudentAge)
	}
	if cfg.Discount.MinorUnitDigits < 0 {
		cfg.Discount.MinorUnitDigits = 0
	}
	return cfg, nil
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
