package intent

import (
	"context"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
)

// Resolver evaluates recognizers in priority order against a normalized
// query. The lookup is only consulted by the product-discount recognizer;
// a nil lookup disables that rule and nothing else.
type Resolver struct {
	lookup      contractx.ProductLookup
	recognizers []recognizer
}

func NewResolver(lookup contractx.ProductLookup) *Resolver {
	return &Resolver{
		lookup:      lookup,
		recognizers: recognizerTable(),
	}
}

// Resolve maps text to exactly one intent. Recognizers at a higher priority
// win outright; within a priority the longest matched span wins. Resolve
// never fails: inputs no recognizer claims become Unrecognized.
func (r *Resolver) Resolve(ctx context.Context, text string) Intent {
	in := input{
		text:   Normalize(text),
		raw:    text,
		lookup: r.lookup,
	}

	var (
		best     Intent
		bestName string
		bestPrio int
		bestSpan int
	)
	for _, rec := range r.recognizers {
		if best != nil && rec.priority > bestPrio {
			break
		}
		it, span, ok := rec.match(ctx, in)
		if !ok {
			continue
		}
		if best == nil || span > bestSpan {
			best, bestName, bestPrio, bestSpan = it, rec.name, rec.priority, span
		}
	}

	if best == nil {
		log.Debug().Str("query", in.text).Msg("no recognizer matched, falling back")
		return Unrecognized{RawText: text}
	}

	log.Debug().
		Str("recognizer", bestName).
		Str("kind", string(best.Kind())).
		Msg("intent resolved")
	return best
}
