package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"okx-trader/internal/supervisor"
	"okx-trader/pkg/ws"
)

const banner = `
  ___  _  ____  __  _____            _
 / _ \| |/ /\ \/ / |_   _| __ __ _  __| | ___ _ __
| | | | ' /  \  /    | || '__/ _' |/ _' |/ _ \ '__|
| |_| | . \  /  \    | || | | (_| | (_| |  __/ |
 \___/|_|\_\/_/\_\   |_||_|  \__,_|\__,_|\___|_|
`

func (a *app) menu(in io.Reader) error {
	reader := bufio.NewReader(in)
	fmt.Print(banner)

	for {
		fmt.Println("\n=== OKX Trader ===")
		fmt.Println("1) Run grid strategy")
		fmt.Println("2) Run trend strategy")
		fmt.Println("3) Run grid and trend together")
		fmt.Println("4) Show configuration summary")
		fmt.Println("5) Watch live tickers")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			return nil
		}

		switch strings.TrimSpace(input) {
		case "1":
			if err := a.run(supervisor.ModeGrid); err != nil {
				return err
			}
		case "2":
			if err := a.run(supervisor.ModeTrend); err != nil {
				return err
			}
		case "3":
			if err := a.run(supervisor.ModeBoth); err != nil {
				return err
			}
		case "4":
			a.printSummary()
		case "5":
			a.watchTickers(reader)
		case "0":
			return nil
		default:
			fmt.Println("unknown option")
		}
	}
}

func (a *app) printSummary() {
	cfg := a.cfg
	grid, trend := cfg.Strategies.Grid, cfg.Strategies.Trend

	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("REST endpoint: %s%s (timeout %ds, %d attempts)\n", cfg.OKX.BaseURL, cfg.OKX.APIPrefix, cfg.OKX.TimeoutSec, cfg.OKX.MaxAttempts)
	fmt.Printf("Sandbox: %v\n", cfg.OKX.Sandbox)
	fmt.Printf("Credentials: %s\n", cfg.Credentials())
	if cfg.Network.DNSServer != "" {
		fmt.Printf("DNS server: %s\n", cfg.Network.DNSServer)
	}
	fmt.Printf("Grid: %s every %ds (retry after %ds)\n", grid.Symbol, grid.IntervalSec, grid.RetryDelaySec)
	fmt.Printf("Trend: %s leverage %sx every %ds (retry after %ds)\n", trend.Symbol, trend.Leverage, trend.IntervalSec, trend.RetryDelaySec)
	fmt.Printf("Max drawdown: %.2f%%\n", trend.MaxDrawdown*100)
	if cfg.App.MetricsAddr != "" {
		fmt.Printf("Metrics: http://%s/metrics\n", cfg.App.MetricsAddr)
	}
}

// watchTickers streams the grid and trend instruments until Enter is pressed
// or the connection drops.
func (a *app) watchTickers(reader *bufio.Reader) {
	client := ws.NewOKXWSClient(a.cfg.OKX.WSURL, a.log)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		a.log.Error().Err(err).Msg("ticker stream unavailable")
		return
	}
	defer client.Close()

	for _, instID := range []string{a.cfg.Strategies.Grid.Symbol, a.cfg.Strategies.Trend.Symbol} {
		err := client.SubscribeTickers(instID, func(t ws.Ticker) {
			fmt.Printf("%-16s last %-12s bid %-12s ask %s\n", t.InstID, t.Last, t.BidPx, t.AskPx)
		})
		if err != nil {
			a.log.Error().Err(err).Str("inst_id", instID).Msg("subscribe failed")
			return
		}
	}

	fmt.Println("Streaming tickers, press Enter to return to the menu...")
	enter := make(chan struct{})
	go func() {
		_, _ = reader.ReadString('\n')
		close(enter)
	}()

	select {
	case <-enter:
	case <-client.Done():
		if err := client.Err(); err != nil {
			a.log.Error().Err(err).Msg("ticker stream closed")
		}
		// The reader goroutine still owns stdin until the next line.
		<-enter
	}
}
