package dispatch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Product-Intent-Agent/agent/intent"
	"github.com/tanpawarit/Chative-Product-Intent-Agent/agent/tool"
)

func listMessage(products []contractx.Product) string {
	var b strings.Builder
	b.WriteString("Here are the products I found:")
	for _, p := range products {
		b.WriteString(fmt.Sprintf("\n• %s ($%s) - %s", p.Name, formatNumber(p.Price), p.Category))
	}
	return b.String()
}

func productMessage(p contractx.Product) string {
	stock := "it is in stock"
	if !p.InStock {
		stock = "it is currently out of stock"
	}
	return fmt.Sprintf("The %s costs $%s. It is listed under %s and %s.",
		p.Name, formatNumber(p.Price), p.Category, stock)
}

func helpMessage() string {
	var b strings.Builder
	b.WriteString("I'm not sure what you're asking for. I can list products, look one up by id or name, ")
	b.WriteString("add a product, report catalog statistics, and apply discounts. I also have these tools:")
	for _, info := range tool.Catalog() {
		b.WriteString(fmt.Sprintf("\n• %s: %s", info.Name, info.Desc))
	}
	b.WriteString("\nTry \"show all products\" or \"calculate 20% discount on 5000\".")
	return b.String()
}

// describeError turns a classified failure into the user-facing message.
// Classification is by errors.Is against the contract sentinels, so
// wrapped detail never changes the phrasing.
func describeError(it intent.Intent, err error) string {
	switch {
	case errors.Is(err, contractx.ErrNotFound):
		return fmt.Sprintf("I couldn't find a product matching '%s' in the catalog.", errSubject(it))
	case errors.Is(err, contractx.ErrValidation):
		return "Those product details don't look valid, so nothing was added."
	case errors.Is(err, contractx.ErrInvalidComputation):
		return "I couldn't work that calculation out. Check the numbers and try again."
	case errors.Is(err, contractx.ErrTimeout):
		return "That took too long to answer. Please try again."
	case errors.Is(err, contractx.ErrStoreUnavailable):
		return "The product catalog is unavailable right now. Please try again shortly."
	case errors.Is(err, contractx.ErrToolUnavailable):
		return "The product tools are unavailable right now. Please try again shortly."
	case errors.Is(err, contractx.ErrParseAmbiguous):
		return "That request could mean several things. Could you rephrase it?"
	default:
		return "Something went wrong while handling your request."
	}
}

// errSubject extracts the selector a not-found message should name.
func errSubject(it intent.Intent) string {
	switch req := it.(type) {
	case intent.GetProduct:
		return req.Selector.Raw
	case intent.ProductDiscount:
		return req.Selector.Raw
	default:
		return "that"
	}
}

// formatNumber renders a float without trailing zeros, so whole prices
// print as "1500" and fractional ones as "99.99".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
