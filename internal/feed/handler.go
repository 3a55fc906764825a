package feed

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"solana-sniper/internal/observability"
)

// StatusResponse is the JSON body for the /status endpoint.
type StatusResponse struct {
	Status       string                         `json:"status"`
	Uptime       string                         `json:"uptime"`
	StartedAt    time.Time                      `json:"started_at"`
	OpenHoldings int                            `json:"open_holdings"`
	Counters     observability.CountersSnapshot `json:"counters"`
}

// HoldingEntry is the JSON shape of one open position.
type HoldingEntry struct {
	Mint         string    `json:"mint"`
	BondingCurve string    `json:"bonding_curve"`
	TokenAmount  uint64    `json:"token_amount"`
	BuyPriceSOL  float64   `json:"buy_price_sol"`
	BuySOL       float64   `json:"buy_sol"`
	BuySignature string    `json:"buy_signature"`
	BoughtAt     time.Time `json:"bought_at"`
	HeldFor      string    `json:"held_for"`
}

// TradeEntry is the JSON shape of one journaled trade.
type TradeEntry struct {
	TradeID     string    `json:"trade_id"`
	Mint        string    `json:"mint"`
	Side        string    `json:"side"`
	TokenAmount string    `json:"token_amount"`
	SolAmount   string    `json:"sol_amount"`
	PriceSOL    string    `json:"price_sol"`
	ProfitPct   *float64  `json:"profit_pct,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Signature   string    `json:"signature,omitempty"`
	Status      string    `json:"status"`
	ExecutedAt  time.Time `json:"executed_at"`
}

// Register mounts the feed endpoints on the given mux.
func (f *Feed) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", f.handleHealth)
	mux.HandleFunc("/status", f.handleStatus)
	mux.HandleFunc("/detections", f.handleDetections)
	mux.HandleFunc("/holdings", f.handleHoldings)
	mux.HandleFunc("/trades", f.handleTrades)
}

func (f *Feed) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (f *Feed) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Status:       "running",
		Uptime:       f.Uptime().String(),
		StartedAt:    f.startedAt,
		OpenHoldings: f.book.Len(),
		Counters:     f.counters.Snapshot(),
	}
	writeJSON(w, resp)
}

func (f *Feed) handleDetections(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, f.Recent())
}

func (f *Feed) handleHoldings(w http.ResponseWriter, _ *http.Request) {
	now := f.now()
	holdings := f.book.List()

	entries := make([]HoldingEntry, 0, len(holdings))
	for _, h := range holdings {
		entries = append(entries, HoldingEntry{
			Mint:         h.Mint,
			BondingCurve: h.BondingCurve,
			TokenAmount:  h.TokenAmount,
			BuyPriceSOL:  h.BuyPriceSOL,
			BuySOL:       h.BuySOL,
			BuySignature: h.BuySignature,
			BoughtAt:     h.BoughtAt,
			HeldFor:      now.Sub(h.BoughtAt).String(),
		})
	}
	writeJSON(w, entries)
}

func (f *Feed) handleTrades(w http.ResponseWriter, r *http.Request) {
	entries := make([]TradeEntry, 0)
	if f.trades != nil {
		records, err := f.trades.GetRecent(r.Context(), f.capacity)
		if err != nil {
			log.Error().Err(err).Msg("feed: load recent trades")
			http.Error(w, "trade journal unavailable", http.StatusInternalServerError)
			return
		}
		for _, rec := range records {
			entries = append(entries, TradeEntry{
				TradeID:     rec.TradeID,
				Mint:        rec.Mint,
				Side:        rec.Side,
				TokenAmount: rec.TokenAmount.String(),
				SolAmount:   rec.SolAmount.String(),
				PriceSOL:    rec.PriceSOL.String(),
				ProfitPct:   rec.ProfitPct,
				Reason:      rec.Reason,
				Signature:   rec.Signature,
				Status:      rec.Status,
				ExecutedAt:  rec.ExecutedAt,
			})
		}
	}
	writeJSON(w, entries)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("feed: encode response")
	}
}
