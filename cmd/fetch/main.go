// Command fetch runs one price cycle and exits. Intended for external schedulers (cron, Cloud Scheduler jobs).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	_ "time/tzdata"

	"price_backend/internal/app/di"
	"price_backend/internal/feature/prices/usecase"
)

func main() {
	os.Exit(run())
}

func run() int {
	hourFlag := flag.Int("hour", 0, "target hour 0-23 (default: resolved from the current time)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] .env not found, using environment variables only")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	app, err := di.NewApp(ctx)
	if err != nil {
		log.Println("[ERROR] failed to configure application:", err)
		return 1
	}
	defer app.Close(context.Background())

	// -hour が明示された場合のみ指定時刻として扱う
	var hour *int
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "hour" {
			hour = hourFlag
		}
	})

	out, err := app.Prices.Fetch.FetchAndStore(ctx, hour)
	printOutcome(out)
	if err != nil {
		log.Println("[ERROR]", err)
		return 2
	}
	if !out.Success {
		return 1
	}
	log.Println("fetch ok")
	return 0
}

func printOutcome(out usecase.ServiceOutcome) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Println("[ERROR] failed to encode outcome:", err)
	}
}
