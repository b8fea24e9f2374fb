package tool

// Local tool names, tracked alongside the remote operation names in query
// responses.
const (
	ToolCalculator = "calculator"
	ToolFormatter  = "formatter"
)

// Info describes one local tool for help output.
type Info struct {
	Name string
	Desc string
}

// Catalog lists the local computation tools in a stable order.
func Catalog() []Info {
	return []Info{
		{Name: ToolCalculator, Desc: "Evaluate arithmetic expressions and discounts."},
		{Name: ToolFormatter, Desc: "Format text as uppercase, lowercase, or title case."},
	}
}
