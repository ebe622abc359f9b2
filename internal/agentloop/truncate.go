package agentloop

import "fmt"

// truncateToolOutput clamps a tool's outputSummary to maxChars via
// head/tail elision (spec.md §4.5: "preserve first ~half, '… N chars
// truncated …', last ~half"), so an unbounded search/excerpt result cannot
// blow out the transcript's per-message size.
func truncateToolOutput(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}

	dropped := len(s) - maxChars
	for {
		marker := fmt.Sprintf("\n… %d chars truncated …\n", dropped)
		budget := maxChars - len(marker)
		if budget <= 0 {
			// maxChars too small even for the marker; fall back to a hard cut.
			return s[:maxChars]
		}
		if len(s)-budget == dropped {
			headLen := budget / 2
			tailLen := budget - headLen
			return s[:headLen] + marker + s[len(s)-tailLen:]
		}
		// The marker takes room too; recount so it reports exactly the
		// characters left out.
		dropped = len(s) - budget
	}
}
