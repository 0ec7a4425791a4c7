package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"okx-trader/internal/util"
	"okx-trader/pkg/ws"
)

func main() {
	url := flag.String("url", ws.DefaultPublicURL, "OKX public websocket endpoint")
	symbols := flag.String("symbols", "BTC-USDT,BTC-USDT-SWAP", "comma separated instrument ids")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := util.NewLogger(*level, true)
	log.Info().Str("url", *url).Msg("testing OKX public websocket")

	client := ws.NewOKXWSClient(*url, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}
	defer client.Close()

	for _, instID := range strings.Split(*symbols, ",") {
		instID = strings.TrimSpace(instID)
		if instID == "" {
			continue
		}
		err := client.SubscribeTickers(instID, func(t ws.Ticker) {
			log.Info().
				Str("inst_id", t.InstID).
				Str("last", t.Last).
				Str("bid", t.BidPx).
				Str("ask", t.AskPx).
				Msg("ticker")
		})
		if err != nil {
			log.Error().Err(err).Str("inst_id", instID).Msg("failed to subscribe")
		}
	}

	log.Info().Msg("subscribed to tickers, press Ctrl+C to exit")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-client.Done():
		log.Error().Err(client.Err()).Msg("connection closed")
	}

	log.Info().Msg("shutting down")
}
