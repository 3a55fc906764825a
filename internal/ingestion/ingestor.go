package ingestion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/solana"
)

// EventIngestor subscribes to pump.fun logs on every configured
// websocket endpoint and merges notifications onto a single channel of
// normalized detection events. Failed transactions are dropped here.
type EventIngestor struct {
	clients []solana.WSClient
	program string
	buffer  int
}

// NewEventIngestor creates an ingestor over the given websocket clients.
func NewEventIngestor(clients []solana.WSClient, program string) (*EventIngestor, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("event ingestor requires at least one websocket client")
	}
	if program == "" {
		program = solana.PumpProgramID
	}
	return &EventIngestor{
		clients: clients,
		program: program,
		buffer:  1000,
	}, nil
}

// Start subscribes on every endpoint and returns the merged event
// channel. The channel closes after ctx is cancelled and all
// per-endpoint readers have drained.
func (i *EventIngestor) Start(ctx context.Context) (<-chan domain.DetectionEvent, error) {
	type sub struct {
		ch       <-chan solana.LogNotification
		endpoint string
	}

	var subs []sub
	for idx, client := range i.clients {
		endpoint := fmt.Sprintf("ws-%d", idx)
		if impl, ok := client.(*solana.WSClientImpl); ok {
			endpoint = impl.Endpoint()
		}

		ch, err := client.SubscribeLogs(ctx, solana.LogsFilter{
			Mentions: []string{i.program},
		})
		if err != nil {
			return nil, fmt.Errorf("subscribe logs on %s: %w", endpoint, err)
		}

		log.Info().Str("endpoint", endpoint).Str("program", i.program).
			Msg("subscribed to program logs")
		subs = append(subs, sub{ch: ch, endpoint: endpoint})
	}

	observability.UpdateLiveSubscriptions(len(subs))

	out := make(chan domain.DetectionEvent, i.buffer)
	var wg sync.WaitGroup

	for _, s := range subs {
		wg.Add(1)
		go func(s sub) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case notif, ok := <-s.ch:
					if !ok {
						log.Warn().Str("endpoint", s.endpoint).
							Msg("log subscription channel closed")
						return
					}
					i.forward(ctx, out, s.endpoint, notif)
				}
			}
		}(s)
	}

	go func() {
		wg.Wait()
		observability.UpdateLiveSubscriptions(0)
		close(out)
	}()

	return out, nil
}

// forward normalizes one notification and sends it downstream.
func (i *EventIngestor) forward(ctx context.Context, out chan<- domain.DetectionEvent, endpoint string, notif solana.LogNotification) {
	observability.RecordEventReceived()

	// Failed transactions never produce tradable tokens
	if notif.Err != nil {
		return
	}
	if notif.Signature == "" {
		return
	}

	event := domain.DetectionEvent{
		Signature:  notif.Signature,
		Slot:       notif.Slot,
		Logs:       notif.Logs,
		Endpoint:   endpoint,
		ReceivedAt: time.Now(),
	}

	select {
	case out <- event:
	case <-ctx.Done():
	}
}

// Close closes all websocket clients.
func (i *EventIngestor) Close() error {
	var firstErr error
	for _, c := range i.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
