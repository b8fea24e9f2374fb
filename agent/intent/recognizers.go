package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
)

// A recognizer is one row of the resolver's ordered grammar. match reports
// the produced intent and the length of the consumed span; span breaks
// ties between recognizers that share a priority.
type recognizer struct {
	name     string
	priority int
	match    func(ctx context.Context, in input) (Intent, int, bool)
}

// input carries the normalized text, the raw original, and the product
// lookup used to disambiguate product discounts.
type input struct {
	text   string
	raw    string
	lookup contractx.ProductLookup
}

var (
	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

	addActionRe   = regexp.MustCompile(`\b(?:add|create|insert|register|new)\b`)
	addPriceRe    = regexp.MustCompile(`(?:price|cost|for)\s*:?\s*\$?(\d+(?:\.\d+)?)`)
	addCategoryRe = regexp.MustCompile(`\b(?:category|type|in)\b\s*:?\s*([a-z][a-z ]*?)(?:\s*,|$)`)
	addNameRe     = regexp.MustCompile(`(?:product|item|name)\s*:\s*([a-z][a-z0-9 ]*?)(?:\s*,|\s+price|\s+cost|\s+for|\s+category|\s+\d)`)
	addNameLooseRe = regexp.MustCompile(
		`(?:add|create|insert|register)(?:\s+(?:a|an|new))?\s+(?:product|item)?\s*:?\s*([a-z][a-z0-9 ]*?)(?:\s*,|\s+price|\s+cost|\s+for|\s+category|\s+in\b|\s+\d)`)

	discountWordRe     = regexp.MustCompile(`\bdiscount\b`)
	discountPercentRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:%|percent\b)`)
	discountSelectorRe = regexp.MustCompile(`\b(?:on|for)\s+(?:the\s+)?(.+?)\s*[?!.]*$`)

	calcKeywordRe = regexp.MustCompile(`\b(?:calculate|compute|what is|what's|evaluate)\b`)
	calcVerbRe    = regexp.MustCompile(`\b(multiply|add|subtract|divide)\s+(\d+(?:\.\d+)?)\s+(?:by|and|with)\s+(\d+(?:\.\d+)?)`)
	calcInfixRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(plus|minus|times|divided by|over)\s*(\d+(?:\.\d+)?)`)
	calcExprRe    = regexp.MustCompile(`[\d\s\+\-\*/%\^\(\)\.]+`)

	statsActionRe = regexp.MustCompile(`\b(?:average|avg|mean|total|count|how many)\b`)
	statsEntityRe = regexp.MustCompile(`\b(?:price|prices|cost|costs|product|products|item|items)\b`)
	statsWordRe   = regexp.MustCompile(`\b(?:stats|statistics)\b`)

	listActionRe = regexp.MustCompile(`\b(?:list|show|display|get|what|view|see|give)\b`)
	listEntityRe = regexp.MustCompile(`\b(?:products|items|catalog|inventory)\b`)

	getVerbRe   = regexp.MustCompile(`\b(?:get|show|fetch|find|display|view|details?)\b`)
	getByIDRes  = []*regexp.Regexp{
		regexp.MustCompile(`\bproduct\s+with\s+id\s+(\d+)`),
		regexp.MustCompile(`\bproduct\s+(\d+)`),
		regexp.MustCompile(`\bid\s+(\d+)`),
		regexp.MustCompile(`#(\d+)`),
	}
	getByNameRe = regexp.MustCompile(`\bproduct\s+([a-z][a-z0-9 ]*?)\s*[?!.]*$`)

	formatStyledRe = regexp.MustCompile(
		`\b(?:format|convert|turn|make)\s+(?:the\s+)?(?:text\s+)?['"]?(.+?)['"]?\s+(?:in|into|as|to)\s+(upper\s?case|lower\s?case|title\s?case|uppercase|lowercase|title)\s*[?!.]*$`)
	formatLeadingRe = regexp.MustCompile(`^(uppercase|lowercase|titlecase)\s+['"]?(.+?)['"]?\s*[?!.]*$`)
)

// recognizerTable builds the ordered grammar, most specific first. The
// order encodes the disambiguation rules: add-product before the discount
// family (shared vocabulary), product discount before the generic one,
// stats before listing, listing before single-product lookup.
func recognizerTable() []recognizer {
	return []recognizer{
		{name: "add_product", priority: 1, match: matchAddProduct},
		{name: "product_discount", priority: 2, match: matchProductDiscount},
		{name: "calculate_discount", priority: 3, match: matchCalculateDiscount},
		{name: "calculate", priority: 4, match: matchCalculate},
		{name: "get_stats", priority: 5, match: matchStats},
		{name: "list_products", priority: 6, match: matchListProducts},
		{name: "get_product", priority: 7, match: matchGetProduct},
		{name: "format_text", priority: 8, match: matchFormatText},
	}
}

func matchAddProduct(_ context.Context, in input) (Intent, int, bool) {
	if !addActionRe.MatchString(in.text) {
		return nil, 0, false
	}

	priceMatch := addPriceRe.FindStringSubmatchIndex(in.text)
	if priceMatch == nil {
		return nil, 0, false
	}
	price, err := strconv.ParseFloat(in.text[priceMatch[2]:priceMatch[3]], 64)
	if err != nil || price < 0 {
		return nil, 0, false
	}

	name := ""
	nameMatch := addNameRe.FindStringSubmatch(in.text)
	if nameMatch == nil {
		nameMatch = addNameLooseRe.FindStringSubmatch(in.text)
	}
	if nameMatch != nil {
		name = cleanProductName(nameMatch[1])
	}
	if name == "" {
		return nil, 0, false
	}

	category := "General"
	// The category phrase must sit after the price to keep "for 1500" and
	// "in electronics" from competing for the same tokens.
	if catMatch := addCategoryRe.FindStringSubmatch(in.text[priceMatch[1]:]); catMatch != nil {
		if c := strings.TrimSpace(catMatch[1]); c != "" {
			category = titleWords(c)
		}
	}

	return AddProduct{
		Name:     titleWords(name),
		Price:    price,
		Category: category,
		InStock:  true,
	}, len(in.text), true
}

// matchProductDiscount consults the live product set: the selector after
// on/for must resolve to an existing product, by id for a bare number or
// by exact case-insensitive name otherwise. An unresolvable selector makes
// the recognizer fall through instead of reporting a false positive.
func matchProductDiscount(ctx context.Context, in input) (Intent, int, bool) {
	if !discountWordRe.MatchString(in.text) || in.lookup == nil {
		return nil, 0, false
	}

	percent, ok := discountPercent(in.text)
	if !ok {
		return nil, 0, false
	}

	selMatch := discountSelectorRe.FindStringSubmatch(in.text)
	if selMatch == nil {
		return nil, 0, false
	}
	token := strings.TrimSpace(selMatch[1])
	token = strings.TrimPrefix(token, "product ")
	token = strings.TrimPrefix(token, "id ")
	if token == "" {
		return nil, 0, false
	}

	sel := contractx.ParseSelector(token)
	if _, err := in.lookup.GetProduct(ctx, sel.Raw); err != nil {
		// Not found, or the store could not be consulted: either way the
		// match is unverifiable, so fall through.
		return nil, 0, false
	}

	return ProductDiscount{Selector: sel, Percent: percent}, len(in.text), true
}

func matchCalculateDiscount(_ context.Context, in input) (Intent, int, bool) {
	if !discountWordRe.MatchString(in.text) {
		return nil, 0, false
	}

	numbers := numberRe.FindAllString(in.text, -1)
	if len(numbers) < 2 {
		return nil, 0, false
	}

	a, errA := strconv.ParseFloat(numbers[0], 64)
	b, errB := strconv.ParseFloat(numbers[1], 64)
	if errA != nil || errB != nil {
		return nil, 0, false
	}

	percent, amount := a, b
	if pm := discountPercentRe.FindStringSubmatch(in.text); pm != nil {
		p, err := strconv.ParseFloat(pm[1], 64)
		if err != nil {
			return nil, 0, false
		}
		percent = p
		if percent == a {
			amount = b
		} else {
			amount = a
		}
	} else if a >= 100 && b < 100 {
		percent, amount = b, a
	}

	if percent < 0 || percent > 100 || amount < 0 {
		return nil, 0, false
	}

	return CalculateDiscount{Amount: amount, Percent: percent}, len(in.text), true
}

func matchCalculate(_ context.Context, in input) (Intent, int, bool) {
	if discountWordRe.MatchString(in.text) {
		return nil, 0, false
	}

	if m := calcVerbRe.FindStringSubmatch(in.text); m != nil {
		ops := map[string]string{"multiply": "*", "add": "+", "subtract": "-", "divide": "/"}
		return Calculate{Expression: m[2] + " " + ops[m[1]] + " " + m[3]}, len(m[0]), true
	}

	if m := calcInfixRe.FindStringSubmatch(in.text); m != nil {
		ops := map[string]string{"plus": "+", "minus": "-", "times": "*", "divided by": "/", "over": "/"}
		return Calculate{Expression: m[1] + " " + ops[m[2]] + " " + m[3]}, len(m[0]), true
	}

	if !calcKeywordRe.MatchString(in.text) {
		return nil, 0, false
	}

	// Longest run of expression characters that actually contains a digit.
	best := ""
	for _, run := range calcExprRe.FindAllString(in.text, -1) {
		run = strings.Trim(run, " .")
		if strings.ContainsAny(run, "0123456789") && len(run) > len(best) {
			best = run
		}
	}
	if best == "" {
		return nil, 0, false
	}
	return Calculate{Expression: best}, len(best), true
}

func matchStats(_ context.Context, in input) (Intent, int, bool) {
	if statsWordRe.MatchString(in.text) {
		return Stats{}, len(in.text), true
	}
	if statsActionRe.MatchString(in.text) && statsEntityRe.MatchString(in.text) {
		return Stats{}, len(in.text), true
	}
	return nil, 0, false
}

func matchListProducts(_ context.Context, in input) (Intent, int, bool) {
	if listActionRe.MatchString(in.text) && listEntityRe.MatchString(in.text) {
		return ListProducts{}, len(in.text), true
	}
	return nil, 0, false
}

func matchGetProduct(_ context.Context, in input) (Intent, int, bool) {
	if !getVerbRe.MatchString(in.text) {
		return nil, 0, false
	}

	for _, re := range getByIDRes {
		if m := re.FindStringSubmatch(in.text); m != nil {
			return GetProduct{Selector: contractx.ParseSelector(m[1])}, len(m[0]), true
		}
	}

	if m := getByNameRe.FindStringSubmatch(in.text); m != nil && m[1] != "products" {
		return GetProduct{Selector: contractx.ParseSelector(m[1])}, len(m[0]), true
	}
	return nil, 0, false
}

func matchFormatText(_ context.Context, in input) (Intent, int, bool) {
	if m := formatStyledRe.FindStringSubmatch(in.text); m != nil {
		return FormatText{Text: m[1], Style: canonicalStyle(m[2])}, len(m[0]), true
	}
	if m := formatLeadingRe.FindStringSubmatch(in.text); m != nil {
		return FormatText{Text: m[2], Style: canonicalStyle(m[1])}, len(m[0]), true
	}
	return nil, 0, false
}

func canonicalStyle(style string) string {
	style = strings.ReplaceAll(style, " ", "")
	switch style {
	case "uppercase":
		return "uppercase"
	case "lowercase":
		return "lowercase"
	case "title", "titlecase":
		return "title"
	default:
		return style
	}
}

func discountPercent(text string) (float64, bool) {
	m := discountPercentRe.FindStringSubmatch(text)
	if m == nil {
		// No explicit marker: the first number before "discount" is taken
		// as the percentage, mirroring "make 15 discount on mouse".
		head, _, found := strings.Cut(text, "discount")
		if !found {
			return 0, false
		}
		m = numberRe.FindStringSubmatch(head)
		if m == nil {
			return 0, false
		}
	}
	percent, err := strconv.ParseFloat(m[len(m)-1], 64)
	if err != nil || percent < 0 || percent > 100 {
		return 0, false
	}
	return percent, true
}

// cleanProductName strips command words that leak into a captured name.
func cleanProductName(name string) string {
	name = strings.TrimSpace(name)
	for _, word := range []string{"add", "create", "new", "insert", "register", "product", "item"} {
		name = strings.TrimSpace(strings.TrimPrefix(name, word+" "))
		if name == word {
			return ""
		}
	}
	return name
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 && w[0] >= 'a' && w[0] <= 'z' {
			words[i] = string(w[0]-'a'+'A') + w[1:]
		}
	}
	return strings.Join(words, " ")
}
