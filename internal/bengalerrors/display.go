package bengalerrors

import (
	"fmt"
	"sort"
	"strings"
)

// RenderClass distinguishes the shape of a rendering failure so Display
// can tailor its suggestions and header, matching spec §4.12's
// classifier categories.
type RenderClass string

const (
	RenderClassSyntax     RenderClass = "syntax"
	RenderClassFilter     RenderClass = "filter"
	RenderClassUndefined  RenderClass = "undefined"
	RenderClassCallable   RenderClass = "callable"
	RenderClassNoneAccess RenderClass = "none_access"
	RenderClassRuntime    RenderClass = "runtime"
	RenderClassOther      RenderClass = "other"
)

var renderClassHeaders = map[RenderClass]string{
	RenderClassSyntax:     "Template Syntax Error",
	RenderClassFilter:     "Unknown Filter",
	RenderClassUndefined:  "Undefined Variable",
	RenderClassCallable:   "None Is Not Callable",
	RenderClassNoneAccess: "None Is Not Iterable",
	RenderClassRuntime:    "Template Runtime Error",
	RenderClassOther:      "Template Error",
}

// SourceContext carries the surrounding source lines for a rendering
// error display: the full file's lines, the 1-based line at fault, and
// the template inclusion chain (outermost first) derived from the error's
// traceback.
type SourceContext struct {
	Lines           []string
	FaultLine       int
	FaultColumn     int
	InclusionChain  []string
}

// Display formats a rich multi-line rendering-error report: the error
// header for its class, the offending line with a "^" pointer, up to
// three surrounding lines of context on either side, the template
// inclusion chain, and up to three did-you-mean suggestions drawn from
// candidates (the engine's registered filter/variable names).
func Display(err *ClassifiedError, class RenderClass, src SourceContext, candidates []string) string {
	var b strings.Builder

	header, ok := renderClassHeaders[class]
	if !ok {
		header = renderClassHeaders[RenderClassOther]
	}
	fmt.Fprintf(&b, "%s: %s\n", header, err.Message())

	if src.FaultLine > 0 && src.FaultLine <= len(src.Lines) {
		start := src.FaultLine - 3
		if start < 1 {
			start = 1
		}
		end := src.FaultLine + 3
		if end > len(src.Lines) {
			end = len(src.Lines)
		}
		for ln := start; ln <= end; ln++ {
			fmt.Fprintf(&b, "  %4d | %s\n", ln, src.Lines[ln-1])
			if ln == src.FaultLine {
				col := src.FaultColumn
				if col < 1 {
					col = 1
				}
				b.WriteString("       | " + strings.Repeat(" ", col-1) + "^\n")
			}
		}
	}

	if len(src.InclusionChain) > 0 {
		fmt.Fprintf(&b, "  included from: %s\n", strings.Join(src.InclusionChain, " -> "))
	}

	if err.Suggestion() != "" {
		fmt.Fprintf(&b, "  suggestion: %s\n", err.Suggestion())
	}

	if suggestions := didYouMean(extractIdentifier(err.Message()), candidates, 3); len(suggestions) > 0 {
		fmt.Fprintf(&b, "  did you mean: %s?\n", strings.Join(suggestions, ", "))
	}

	return b.String()
}

// extractIdentifier pulls a best-effort identifier out of a message like
// "'foo' is undefined" or "no filter named 'bar'" for did-you-mean matching.
func extractIdentifier(message string) string {
	start := strings.IndexByte(message, '\'')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(message[start+1:], '\'')
	if end < 0 {
		return ""
	}
	return message[start+1 : start+1+end]
}

// didYouMean returns up to limit candidates closest to target by
// Levenshtein distance, sorted closest-first. Candidates farther than
// half the target's length plus one are dropped as unhelpful noise.
func didYouMean(target string, candidates []string, limit int) []string {
	if target == "" || len(candidates) == 0 {
		return nil
	}

	type scored struct {
		name string
		dist int
	}
	results := make([]scored, 0, len(candidates))
	maxDist := len(target)/2 + 1
	for _, c := range candidates {
		d := levenshtein(target, c)
		if d <= maxDist {
			results = append(results, scored{c, d})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].dist != results[j].dist {
			return results[i].dist < results[j].dist
		}
		return results[i].name < results[j].name
	})
	if len(results) > limit {
		results = results[:limit]
	}
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.name
	}
	return out
}

func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}
