// Package dispatch routes resolved intents to their tools and renders the
// outcome as a user-facing response. A query moves through the stages
// received, resolving, dispatching, succeeded or failed, responded; every
// query ends in responded no matter what failed on the way.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Product-Intent-Agent/agent/intent"
	"github.com/tanpawarit/Chative-Product-Intent-Agent/agent/provider"
	"github.com/tanpawarit/Chative-Product-Intent-Agent/agent/tool"
)

// Query lifecycle stages, in order.
const (
	StageReceived    = "received"
	StageResolving   = "resolving"
	StageDispatching = "dispatching"
	StageSucceeded   = "succeeded"
	StageFailed      = "failed"
	StageResponded   = "responded"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Response is the terminal outcome of one query. Message is always set;
// Data carries the structured result when one exists. ToolResults keeps
// the per-tool outcomes in invocation order; ToolCalls is the name-only
// view of the same sequence.
type Response struct {
	QueryID     string                 `json:"query_id"`
	Query       string                 `json:"query"`
	Message     string                 `json:"response"`
	Data        any                    `json:"data,omitempty"`
	ToolCalls   []string               `json:"tool_calls"`
	ToolResults []contractx.ToolResult `json:"tool_results,omitempty"`
	Status      Status                 `json:"status"`
}

// recorder accumulates the outcome of every tool invoked for one query.
type recorder struct {
	results []contractx.ToolResult
}

func (r *recorder) success(tool string, result any) {
	r.results = append(r.results, contractx.ToolResult{Tool: tool, Result: result})
}

func (r *recorder) failure(tool string, err error) {
	r.results = append(r.results, contractx.ToolResult{Tool: tool, Error: err.Error()})
}

func (r *recorder) names() []string {
	names := make([]string, 0, len(r.results))
	for _, res := range r.results {
		names = append(names, res.Tool)
	}
	return names
}

type handler func(ctx context.Context, rec *recorder, it intent.Intent) (string, any, error)

// Orchestrator owns the handler table and the per-query state machine.
type Orchestrator struct {
	resolver *intent.Resolver
	provider contractx.ToolProvider
	cfg      Config
	handlers map[intent.Kind]handler
}

// New builds an orchestrator over the given tool provider. The provider
// doubles as the resolver's product lookup, so discount disambiguation
// sees the same catalog the handlers do.
func New(p contractx.ToolProvider, cfg Config) (*Orchestrator, error) {
	if p == nil {
		return nil, errors.New("tool provider is required")
	}
	if cfg.ToolCallTimeout <= 0 {
		cfg.ToolCallTimeout = 10 * time.Second
	}
	if cfg.QueryDeadline <= 0 {
		cfg.QueryDeadline = 30 * time.Second
	}

	o := &Orchestrator{
		resolver: intent.NewResolver(p),
		provider: p,
		cfg:      cfg,
	}
	o.handlers = map[intent.Kind]handler{
		intent.KindListProducts:      o.handleListProducts,
		intent.KindGetProduct:        o.handleGetProduct,
		intent.KindAddProduct:        o.handleAddProduct,
		intent.KindStats:             o.handleStats,
		intent.KindProductDiscount:   o.handleProductDiscount,
		intent.KindCalculateDiscount: o.handleCalculateDiscount,
		intent.KindCalculate:         o.handleCalculate,
		intent.KindFormatText:        o.handleFormatText,
		intent.KindUnrecognized:      o.handleUnrecognized,
	}
	return o, nil
}

// HandleQuery resolves and dispatches one query. It never returns an
// error: failures surface as a failed-status response with a readable
// message.
func (o *Orchestrator) HandleQuery(ctx context.Context, query string) Response {
	queryID := uuid.NewString()
	lg := log.With().Str("query_id", queryID).Logger()
	lg.Info().Str("stage", StageReceived).Str("query", query).Msg("query received")

	qctx, cancel := context.WithTimeout(ctx, o.cfg.QueryDeadline)
	defer cancel()

	lg.Debug().Str("stage", StageResolving).Msg("resolving intent")
	it := o.resolver.Resolve(qctx, query)

	lg.Debug().
		Str("stage", StageDispatching).
		Str("intent", string(it.Kind())).
		Msg("dispatching intent")

	rec := &recorder{}
	h, ok := o.handlers[it.Kind()]
	if !ok {
		// Every intent kind has a handler; treat a gap like an
		// unrecognized query rather than panicking.
		h = o.handleUnrecognized
	}

	message, data, err := h(qctx, rec, it)

	resp := Response{
		QueryID:     queryID,
		Query:       query,
		Data:        data,
		ToolCalls:   rec.names(),
		ToolResults: rec.results,
	}
	if err != nil {
		if qctx.Err() != nil && !errors.Is(err, contractx.ErrTimeout) {
			err = fmt.Errorf("%w: %v", contractx.ErrTimeout, err)
		}
		resp.Status = StatusFailed
		resp.Message = describeError(it, err)
		resp.Data = nil
		lg.Warn().Err(err).Str("stage", StageFailed).Msg("query failed")
	} else {
		resp.Status = StatusSucceeded
		resp.Message = message
		lg.Info().Str("stage", StageSucceeded).Msg("query succeeded")
	}

	lg.Info().
		Str("stage", StageResponded).
		Str("status", string(resp.Status)).
		Strs("tool_calls", resp.ToolCalls).
		Msg("query responded")
	return resp
}

// call runs one provider operation under the per-call timeout and records
// its outcome; result is what fn scanned into on success. A failure caused
// by the query deadline is reported as ErrTimeout.
func (o *Orchestrator) call(ctx context.Context, rec *recorder, op string, result any, fn func(ctx context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, o.cfg.ToolCallTimeout)
	defer cancel()

	err := fn(cctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", contractx.ErrTimeout, err)
	}
	if err != nil {
		rec.failure(op, err)
		return err
	}
	rec.success(op, result)
	return nil
}

func (o *Orchestrator) handleListProducts(ctx context.Context, rec *recorder, _ intent.Intent) (string, any, error) {
	var products []contractx.Product
	err := o.call(ctx, rec, provider.OpListProducts, &products, func(c context.Context) error {
		var e error
		products, e = o.provider.ListProducts(c)
		return e
	})
	if err != nil {
		return "", nil, err
	}
	if len(products) == 0 {
		return "The catalog is currently empty.", products, nil
	}
	return listMessage(products), products, nil
}

func (o *Orchestrator) handleGetProduct(ctx context.Context, rec *recorder, it intent.Intent) (string, any, error) {
	req := it.(intent.GetProduct)

	var p contractx.Product
	err := o.call(ctx, rec, provider.OpGetProduct, &p, func(c context.Context) error {
		var e error
		p, e = o.provider.GetProduct(c, req.Selector.Raw)
		return e
	})
	if err != nil {
		return "", nil, err
	}
	return productMessage(p), p, nil
}

func (o *Orchestrator) handleAddProduct(ctx context.Context, rec *recorder, it intent.Intent) (string, any, error) {
	req := it.(intent.AddProduct)
	fields := contractx.NewProduct{
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		InStock:  req.InStock,
	}

	var p contractx.Product
	err := o.call(ctx, rec, provider.OpAddProduct, &p, func(c context.Context) error {
		var e error
		p, e = o.provider.AddProduct(c, fields)
		return e
	})
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Successfully added '%s' (ID: %d) to the catalog.", p.Name, p.ID), p, nil
}

func (o *Orchestrator) handleStats(ctx context.Context, rec *recorder, _ intent.Intent) (string, any, error) {
	var stats contractx.ProductStats
	err := o.call(ctx, rec, provider.OpGetStats, &stats, func(c context.Context) error {
		var e error
		stats, e = o.provider.GetStats(c)
		return e
	})
	if err != nil {
		return "", nil, err
	}
	if stats.Count == 0 {
		return "The catalog is currently empty, so there are no statistics to report.", stats, nil
	}
	return fmt.Sprintf("I found %d products with an average price of $%s.",
		stats.Count, formatNumber(stats.AveragePrice)), stats, nil
}

func (o *Orchestrator) handleProductDiscount(ctx context.Context, rec *recorder, it intent.Intent) (string, any, error) {
	req := it.(intent.ProductDiscount)

	var p contractx.Product
	err := o.call(ctx, rec, provider.OpGetProduct, &p, func(c context.Context) error {
		var e error
		p, e = o.provider.GetProduct(c, req.Selector.Raw)
		return e
	})
	if err != nil {
		return "", nil, err
	}

	discounted, err := tool.ApplyDiscount(p.Price, req.Percent)
	if err != nil {
		rec.failure(tool.ToolCalculator, err)
		return "", nil, err
	}
	rec.success(tool.ToolCalculator, discounted)
	msg := fmt.Sprintf("The %s costs $%s. With a %s%% discount, the price would be $%.2f.",
		p.Name, formatNumber(p.Price), formatNumber(req.Percent), discounted)
	return msg, discounted, nil
}

func (o *Orchestrator) handleCalculateDiscount(ctx context.Context, rec *recorder, it intent.Intent) (string, any, error) {
	req := it.(intent.CalculateDiscount)

	discounted, err := tool.ApplyDiscount(req.Amount, req.Percent)
	if err != nil {
		rec.failure(tool.ToolCalculator, err)
		return "", nil, err
	}
	rec.success(tool.ToolCalculator, discounted)
	msg := fmt.Sprintf("With a %s%% discount, $%s would be $%.2f.",
		formatNumber(req.Percent), formatNumber(req.Amount), discounted)
	return msg, discounted, nil
}

func (o *Orchestrator) handleCalculate(_ context.Context, rec *recorder, it intent.Intent) (string, any, error) {
	req := it.(intent.Calculate)

	value, err := tool.Evaluate(req.Expression)
	if err != nil {
		rec.failure(tool.ToolCalculator, err)
		return "", nil, err
	}
	rec.success(tool.ToolCalculator, value)
	return fmt.Sprintf("The result is: %s", formatNumber(value)), value, nil
}

func (o *Orchestrator) handleFormatText(_ context.Context, rec *recorder, it intent.Intent) (string, any, error) {
	req := it.(intent.FormatText)

	formatted := tool.Format(req.Text, req.Style)
	rec.success(tool.ToolFormatter, formatted)
	return fmt.Sprintf("The result is: %s", formatted), formatted, nil
}

func (o *Orchestrator) handleUnrecognized(_ context.Context, _ *recorder, _ intent.Intent) (string, any, error) {
	return helpMessage(), nil, nil
}
