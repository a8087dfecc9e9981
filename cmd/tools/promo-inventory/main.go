// Command promo-inventory prints what the promo index sees in the configured
// directories, and optionally checks one code against it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kinda-storefront/internal/promo"
)

const defaultDirs = "data/discount_requests,data/discount-requests"

type checkOutput struct {
	Code        string  `json:"code"`
	Valid       bool    `json:"valid"`
	Error       string  `json:"error,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	MinSubtotal float64 `json:"minSubtotal,omitempty"`
}

func run(ctx context.Context, args []string, stdout io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("promo-inventory", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dirs := fs.String("dirs", envOr("PROMO_DIRS", defaultDirs), "comma-separated candidate directories")
	code := fs.String("code", "", "check this code instead of printing the inventory")
	email := fs.String("email", "", "email used with -code")
	if err := fs.Parse(args); err != nil {
		return err
	}

	index, err := promo.NewIndex(splitDirs(*dirs), nil, envOr("PROMO_FUNCTION_VERSION", "promo-v5"), logger)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if strings.TrimSpace(*code) == "" {
		return enc.Encode(index.Inventory())
	}

	out := checkOutput{Code: *code}
	res, err := promo.Checker{Store: index}.Lookup(ctx, *code, *email)
	switch {
	case err == nil:
		out.Valid = true
		out.Amount = res.Amount
		out.MinSubtotal = res.MinSubtotal
	case promo.IsRejection(err):
		out.Error, _ = promo.Message(err)
	default:
		return err
	}
	return enc.Encode(out)
}

func splitDirs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := run(context.Background(), os.Args[1:], os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "promo-inventory: %v\n", err)
		os.Exit(1)
	}
}
