package dispatch

import "time"

// Config bounds the time spent on a single query and on each tool call
// within it.
type Config struct {
	ToolCallTimeout time.Duration `envconfig:"TOOL_CALL_TIMEOUT" split_words:"true" default:"10s"`
	QueryDeadline   time.Duration `envconfig:"QUERY_DEADLINE" split_words:"true" default:"30s"`
}
