package app

import (
	"github.com/yungbote/perfoevolution-backend/internal/platform/envutil"
)

type Config struct {
	Environment       string
	HTTPAddr          string
	PricingConfigPath string
	EventDedupEnabled bool
}

func LoadConfig() Config {
	return Config{
		Environment:       envutil.String("APP_ENV", "development"),
		HTTPAddr:          envutil.String("HTTP_ADDR", ":8080"),
		PricingConfigPath: envutil.String("PRICING_CONFIG_PATH", ""),
		EventDedupEnabled: envutil.Bool("STRIPE_EVENT_DEDUP_ENABLED", false),
	}
}
