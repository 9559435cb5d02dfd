// Command syncaddons expires lapsed subscriptions and add-on lots and
// re-syncs every account's cached plan and add-on summary. Meant to run
// from cron; the HTTP server never does this sweep on its own.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/perfoevolution-backend/internal/app"
)

func main() {
	var timeoutSeconds int
	flag.IntVar(&timeoutSeconds, "timeout", 120, "sweep timeout in seconds")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()
	defer application.Close(ctx)

	result, err := application.Services.Entitlements.SweepExpired(ctx)
	if err != nil {
		application.Log.Error("Sweep failed", "error", err)
		os.Exit(1)
	}

	application.Log.Info("Sweep finished",
		"subscriptions_expired", result.SubscriptionsExpired,
		"addons_expired", result.AddOnsExpired,
		"users_synced", result.UsersSynced,
	)
}
