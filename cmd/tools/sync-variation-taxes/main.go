// Command sync-variation-taxes attaches the sales tax to every shirt size
// variation in the Square catalog and resets its fixed price.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/kinda-storefront/internal/config"
	"github.com/noah-isme/kinda-storefront/internal/obs"
	"github.com/noah-isme/kinda-storefront/internal/resilience"
	"github.com/noah-isme/kinda-storefront/internal/square"
)

const (
	defaultParentID = "4TGKGMGIFB5WFCA5I3CFDZ7Y"
	defaultTaxID    = "54WR3GPFARRMBNAXDOCG4QQZ"
)

type variation struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Price int64  `yaml:"price"`
}

type plan struct {
	ParentID   string      `yaml:"parentId"`
	TaxID      string      `yaml:"taxId"`
	Currency   string      `yaml:"currency"`
	Variations []variation `yaml:"variations"`
}

func defaultPlan() plan {
	return plan{
		ParentID: defaultParentID,
		TaxID:    defaultTaxID,
		Currency: "USD",
		Variations: []variation{
			{ID: "RU5HBYNBGC5YI76B6HRQFQN3", Name: "XS", Price: 2500},
			{ID: "IXRI3WJS6XGP7IQSASXA6KCA", Name: "S", Price: 2500},
			{ID: "4WJEKSK7CDRSMFHV6UEZTPCT", Name: "M", Price: 2500},
			{ID: "IX5L6VC7ZS3NJJDNURYBVVWS", Name: "L", Price: 2500},
			{ID: "ZIFH4HBYWZLWPI46NRGJAA3V", Name: "XL", Price: 2500},
			{ID: "2S3ZUOKTXQ62YCJNHQQK4GRM", Name: "2XL", Price: 3000},
			{ID: "53V5JSWYNGTTLZ7W4B6NWQUZ", Name: "3XL", Price: 3000},
			{ID: "IM53XVOCJMFYENLXPHWNMLXS", Name: "4XL", Price: 3000},
		},
	}
}

// loadPlan reads a YAML plan. Missing top-level fields keep their defaults.
func loadPlan(path string) (plan, error) {
	p := defaultPlan()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	var override plan
	if err := yaml.Unmarshal(data, &override); err != nil {
		return p, fmt.Errorf("parse %s: %w", path, err)
	}
	if override.ParentID != "" {
		p.ParentID = override.ParentID
	}
	if override.TaxID != "" {
		p.TaxID = override.TaxID
	}
	if override.Currency != "" {
		p.Currency = override.Currency
	}
	if len(override.Variations) > 0 {
		p.Variations = override.Variations
	}
	return p, nil
}

type catalogAPI interface {
	RetrieveCatalogObject(ctx context.Context, id string) (*square.CatalogObject, error)
	UpsertCatalogObject(ctx context.Context, idempotencyKey string, object square.CatalogObject) (*square.CatalogObject, error)
}

// syncTaxes updates each variation in order and returns how many failed.
// A failure is logged and the loop moves on.
func syncTaxes(ctx context.Context, api catalogAPI, p plan, now func() time.Time, logger zerolog.Logger) int {
	failed := 0
	for _, v := range p.Variations {
		version, err := updateVariation(ctx, api, p, v, now)
		if err != nil {
			failed++
			logger.Error().Err(err).Str("variation", v.Name).Interface("details", square.ErrorDetails(err)).Msg("update failed")
			continue
		}
		logger.Info().Str("variation", v.Name).Int64("version", version).Msg("updated")
	}
	return failed
}

func updateVariation(ctx context.Context, api catalogAPI, p plan, v variation, now func() time.Time) (int64, error) {
	current, err := api.RetrieveCatalogObject(ctx, v.ID)
	if err != nil {
		return 0, fmt.Errorf("retrieve %s: %w", v.ID, err)
	}
	key := fmt.Sprintf("update-tax-%s-%d", v.Name, now().UnixMilli())
	updated, err := api.UpsertCatalogObject(ctx, key, square.CatalogObject{
		Type:    "ITEM_VARIATION",
		ID:      v.ID,
		Version: current.Version,
		ItemVariationData: &square.ItemVariationData{
			ItemID:      p.ParentID,
			Name:        v.Name,
			PricingType: "FIXED_PRICING",
			PriceMoney:  &square.Money{Amount: v.Price, Currency: p.Currency},
			TaxIDs:      []string{p.TaxID},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("upsert %s: %w", v.ID, err)
	}
	if updated == nil {
		return 0, nil
	}
	return updated.Version, nil
}

func main() {
	planFile := flag.String("plan", "", "optional YAML file with parentId, taxId and variations")
	timeout := flag.Duration("timeout", 15*time.Second, "per-call timeout")
	flag.Parse()

	_ = godotenv.Load()
	logger := obs.NewLogger("console", "info")

	token := strings.TrimSpace(os.Getenv("SQUARE_ACCESS_TOKEN"))
	if token == "" {
		logger.Fatal().Msg("SQUARE_ACCESS_TOKEN is not set")
	}
	baseURL := strings.TrimSpace(os.Getenv("SQUARE_BASE_URL"))
	if baseURL == "" {
		baseURL = config.SquareBaseURL(os.Getenv("SQUARE_ENVIRONMENT"))
	}

	p, err := loadPlan(*planFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("load plan")
	}

	client := square.NewClient(
		baseURL,
		token,
		os.Getenv("SQUARE_API_VERSION"),
		obs.OutboundClient(*timeout),
		resilience.NewBreaker(resilience.BreakerConfig{Target: "square", MinRequests: 2*len(p.Variations) + 1, FailureRatio: 1, Logger: logger}),
		*timeout,
	)
	if failed := syncTaxes(context.Background(), client, p, time.Now, logger); failed > 0 {
		logger.Error().Int("failed", failed).Int("total", len(p.Variations)).Msg("sync finished with failures")
		os.Exit(1)
	}
	logger.Info().Int("total", len(p.Variations)).Msg("sync finished")
}
