package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/Rendurdreams/CoinFetch/config"
	"github.com/Rendurdreams/CoinFetch/logger"
	"github.com/Rendurdreams/CoinFetch/models"
	"github.com/Rendurdreams/CoinFetch/reader/cmc"
	"github.com/Rendurdreams/CoinFetch/writer"
)

// candidate is one selectable search result, a map entry enriched with its
// current quote.
type candidate struct {
	entry     models.MapEntry
	price     *decimal.Decimal
	marketCap *decimal.Decimal
	volume24h *decimal.Decimal
}

func main() {
	log := logger.GetLogger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Keep the interactive session quiet unless something goes wrong.
	if err := log.Configure("warn", "text", "stderr", 0); err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	client := cmc.NewClient(cfg, secrets.CMCAPIKey)

	connectCtx, connectCancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := writer.NewStore(connectCtx, cfg, secrets)
	connectCancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to storage backend: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	stdin := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nEnter coin ticker (or 'q' to quit): ")
		if !stdin.Scan() {
			break
		}
		ticker := strings.TrimSpace(stdin.Text())
		if ticker == "" {
			continue
		}
		if strings.EqualFold(ticker, "q") {
			break
		}

		fmt.Printf("\nSearching for %s...\n", ticker)
		candidates, err := searchCoin(ctx, client, ticker)
		if err != nil {
			fmt.Printf("search failed: %v\n", err)
			continue
		}
		if len(candidates) == 0 {
			fmt.Printf("No active coins found matching '%s'\n", ticker)
			continue
		}

		selected, ok := selectCandidate(stdin, candidates)
		if !ok {
			continue
		}

		tc := models.TrackedCoin{
			CMCID:  selected.entry.ID,
			Symbol: selected.entry.Symbol,
			Name:   selected.entry.Name,
		}
		if err := store.AddTrackedCoin(ctx, tc); err != nil {
			fmt.Printf("failed to add coin to tracking: %v\n", err)
			continue
		}
		fmt.Printf("\nSuccessfully added %s to tracking!\n", selected.entry.Name)
	}

	fmt.Println("\nGoodbye!")
}

// searchCoin resolves a ticker to active CMC listings and enriches each with
// its current quote.
func searchCoin(ctx context.Context, client *cmc.Client, ticker string) ([]candidate, error) {
	entries, err := client.FetchCoinMap(ctx, ticker)
	if err != nil {
		return nil, err
	}

	var active []models.MapEntry
	for _, e := range entries {
		if e.IsActive == 1 {
			active = append(active, e)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(active))
	for i, e := range active {
		ids[i] = e.ID
	}

	candidates := make([]candidate, len(active))
	for i, e := range active {
		candidates[i] = candidate{entry: e}
	}

	payloads, _, err := client.FetchQuotes(ctx, ids, "USD")
	if err != nil {
		// Quotes are decoration here; the search result is still usable.
		return candidates, nil
	}

	byID := make(map[int64]*models.CoinPayload, len(payloads))
	for i := range payloads {
		byID[payloads[i].ID] = &payloads[i]
	}
	for i := range candidates {
		p, ok := byID[candidates[i].entry.ID]
		if !ok {
			continue
		}
		if quote, ok := p.Quote["USD"]; ok && quote != nil {
			candidates[i].price = quote.Price
			candidates[i].marketCap = quote.MarketCap
			candidates[i].volume24h = quote.Volume24h
		}
	}

	return candidates, nil
}

// selectCandidate shows the search results and lets the operator pick one.
func selectCandidate(stdin *bufio.Scanner, candidates []candidate) (candidate, bool) {
	if len(candidates) == 1 {
		c := candidates[0]
		fmt.Println("\nCoin details:")
		fmt.Println(strings.Repeat("-", 95))
		fmt.Printf("Name: %s\n", c.entry.Name)
		fmt.Printf("Symbol: %s\n", c.entry.Symbol)
		fmt.Printf("CMC ID: %d\n", c.entry.ID)
		fmt.Printf("Price: %s\n", formatAmount(c.price))
		fmt.Printf("Market Cap: %s\n", formatAmount(c.marketCap))
		fmt.Printf("24h Volume: %s\n", formatAmount(c.volume24h))
		fmt.Println(strings.Repeat("-", 95))

		fmt.Print("Add to tracking? (y/n): ")
		if !stdin.Scan() {
			return candidate{}, false
		}
		if !strings.EqualFold(strings.TrimSpace(stdin.Text()), "y") {
			return candidate{}, false
		}
		return c, true
	}

	fmt.Println("\nMultiple coins found:")
	fmt.Printf("\n%-4s %-20s %-12s %-15s %-15s %-15s %-10s\n",
		"Num", "Name", "Symbol", "Price", "Market Cap", "24h Volume", "CMC ID")
	fmt.Println(strings.Repeat("-", 95))
	for i, c := range candidates {
		name := truncateName(c.entry.Name, 18)
		fmt.Printf("%-4d %-20s %-12s %-15s %-15s %-15s %-10d\n",
			i+1, name, c.entry.Symbol,
			formatAmount(c.price), formatAmount(c.marketCap), formatAmount(c.volume24h),
			c.entry.ID)
	}

	for {
		fmt.Print("\nEnter number of coin to track (0 to skip): ")
		if !stdin.Scan() {
			return candidate{}, false
		}
		choice, err := strconv.Atoi(strings.TrimSpace(stdin.Text()))
		if err != nil {
			fmt.Println("Please enter a valid number")
			continue
		}
		if choice == 0 {
			return candidate{}, false
		}
		if choice >= 1 && choice <= len(candidates) {
			return candidates[choice-1], true
		}
		fmt.Println("Invalid choice, try again")
	}
}

// truncateName shortens a coin name to fit the table column, cutting on rune
// boundaries so multi-byte names stay intact.
func truncateName(name string, max int) string {
	r := []rune(name)
	if len(r) <= max {
		return name
	}
	return string(r[:max]) + ".."
}

var (
	billion = decimal.New(1, 9)
	million = decimal.New(1, 6)
	one     = decimal.New(1, 0)
)

// formatAmount renders a dollar amount for the selection table.
func formatAmount(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	switch {
	case d.GreaterThanOrEqual(billion):
		return "$" + d.Div(billion).StringFixed(2) + "B"
	case d.GreaterThanOrEqual(million):
		return "$" + d.Div(million).StringFixed(2) + "M"
	case d.GreaterThanOrEqual(one):
		return "$" + d.StringFixed(2)
	default:
		return "$" + d.StringFixed(8)
	}
}
