// internal/workers/receive_processor.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// ReceiptTTL is how long a received order line is remembered
const ReceiptTTL = 30 * 24 * time.Hour

// ReceiptCache de-duplicates order receipts and drops suggestions a receipt made stale.
// Claims are held per order line, identified by supplier code.
type ReceiptCache interface {
	ClaimReceipt(ctx context.Context, orderID, line string, ttl time.Duration) (bool, error)
	ReleaseReceipt(ctx context.Context, orderID, line string) error
	InvalidateSuggestions(ctx context.Context, code string) error
}

// ReceiveProcessor applies queued order receipts. Each line of an order is received
// at most once while its claim is held, so redelivered tasks do not double count.
// Lines whose decision failed are released and can be received again.
type ReceiveProcessor struct {
	service ports.InventoryService
	cache   ReceiptCache
	logger  *slog.Logger
}

// NewReceiveProcessor creates a new receive processor. cache may be nil.
func NewReceiveProcessor(service ports.InventoryService, cache ReceiptCache, logger *slog.Logger) *ReceiveProcessor {
	return &ReceiveProcessor{
		service: service,
		cache:   cache,
		logger:  logger.With(slog.String("processor", "receive")),
	}
}

// ErrAlreadyReceived is returned when every line of a receipt is still claimed
var ErrAlreadyReceived = errors.New("order already received")

// ProcessReceive handles an order:receive task
func (p *ReceiveProcessor) ProcessReceive(ctx context.Context, t *asynq.Task) error {
	var payload ReceivePayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	if payload.Order.ID == "" {
		return fmt.Errorf("order id is required: %w", asynq.SkipRetry)
	}

	_, err := p.Receive(ctx, payload.Order, payload.Decisions)
	if errors.Is(err, ErrAlreadyReceived) {
		p.logger.InfoContext(ctx, "order already received", slog.String("order_id", payload.Order.ID))
		return nil
	}
	return err
}

// receiptLine names the order line a decision books
func receiptLine(d ports.Decision) string {
	if code := strings.TrimSpace(d.Code); code != "" {
		return code
	}
	return "name:" + strings.ToLower(strings.TrimSpace(d.Name))
}

// Receive claims the lines the decisions book, applies the decisions and drops
// the suggestions they made stale. Lines claimed by an earlier receipt are
// reported as failures; claims of decisions that were not applied are released.
func (p *ReceiveProcessor) Receive(ctx context.Context, order domain.SourceOrder, decisions []ports.Decision) (*ports.ReceiveResult, error) {
	orderID := order.ID
	if p.cache == nil || orderID == "" || len(decisions) == 0 {
		res, err := p.service.ReceiveOrder(ctx, order, decisions)
		if err != nil {
			return nil, fmt.Errorf("failed to receive order %s: %w", orderID, err)
		}
		p.finish(ctx, orderID, res)
		return res, nil
	}

	var (
		pending  = make([]ports.Decision, 0, len(decisions))
		position = make([]int, 0, len(decisions))
		claimed  = make(map[string]bool)
		held     []string
		skipped  []ports.DecisionFailure
	)
	for i, d := range decisions {
		line := receiptLine(d)
		if !claimed[line] {
			ok, err := p.cache.ClaimReceipt(ctx, orderID, line, ReceiptTTL)
			if err != nil {
				p.release(ctx, orderID, held)
				return nil, fmt.Errorf("failed to claim receipt: %w", err)
			}
			if !ok {
				skipped = append(skipped, ports.DecisionFailure{
					Code: d.Code,
					Kind: "order_received",
					Err:  fmt.Errorf("%s line %s: %w", orderID, line, ErrAlreadyReceived),
				})
				continue
			}
			claimed[line] = true
			held = append(held, line)
		}
		pending = append(pending, d)
		position = append(position, i)
	}
	if len(pending) == 0 {
		return nil, fmt.Errorf("%s: %w", orderID, ErrAlreadyReceived)
	}

	res, err := p.service.ReceiveOrder(ctx, order, pending)
	if err != nil {
		p.release(ctx, orderID, held)
		return nil, fmt.Errorf("failed to receive order %s: %w", orderID, err)
	}

	booked := make(map[string]bool, len(res.Applied))
	for i, applied := range res.Applied {
		booked[receiptLine(pending[applied.Decision])] = true
		res.Applied[i].Decision = position[applied.Decision]
	}
	var unbooked []string
	for _, line := range held {
		if !booked[line] {
			unbooked = append(unbooked, line)
		}
	}
	p.release(ctx, orderID, unbooked)
	res.Failures = append(skipped, res.Failures...)

	p.finish(ctx, orderID, res)
	return res, nil
}

func (p *ReceiveProcessor) release(ctx context.Context, orderID string, lines []string) {
	for _, line := range lines {
		if err := p.cache.ReleaseReceipt(ctx, orderID, line); err != nil {
			p.logger.WarnContext(ctx, "failed to release receipt",
				slog.String("order_id", orderID),
				slog.String("line", line),
				slog.String("error", err.Error()))
		}
	}
}

func (p *ReceiveProcessor) finish(ctx context.Context, orderID string, res *ports.ReceiveResult) {
	if p.cache != nil {
		for _, applied := range res.Applied {
			if err := p.cache.InvalidateSuggestions(ctx, applied.Code); err != nil {
				p.logger.WarnContext(ctx, "stale suggestions kept",
					slog.String("code", applied.Code),
					slog.String("error", err.Error()))
			}
		}
	}
	for _, f := range res.Failures {
		p.logger.WarnContext(ctx, "decision not applied",
			slog.String("order_id", orderID),
			slog.String("code", f.Code),
			slog.String("kind", f.Kind))
	}
	p.logger.InfoContext(ctx, "order received",
		slog.String("order_id", orderID),
		slog.Int("applied", len(res.Applied)),
		slog.Int("failed", len(res.Failures)))
}
