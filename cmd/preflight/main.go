// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	apiKey := strings.TrimSpace(os.Getenv("PRICE_API_KEY"))
	tgToken := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	slack := strings.TrimSpace(os.Getenv("SLACK_WEBHOOK"))
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	redisAddr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))

	if apiKey == "" {
		fail("PRICE_API_KEY is empty (every price check will fail).")
	}
	if tgToken == "" && slack == "" {
		fail("no notification channel: set TELEGRAM_BOT_TOKEN and/or SLACK_WEBHOOK.")
	}

	if admin == "" {
		warn("ADMIN_API_KEYS empty — alert mutations are open (dev mode).")
	}
	if pub == "" {
		warn("PUBLIC_API_KEYS empty — alert reads are open (dev mode).")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if db == "" {
		warn("DATABASE_URL empty — alerts live in memory and vanish on restart.")
	} else {
		ok("DATABASE_URL present")
	}

	if redisAddr == "" {
		warn("REDIS_ADDR empty — quote cache disabled; same-route alerts each hit the provider.")
	} else {
		ok("REDIS_ADDR=" + redisAddr)
	}

	ok("preflight passed")
}
