package formatting

// Truncate shortens s to at most max runes, appending an ellipsis when
// content was cut. Model payloads truncate headlines, URLs, and article text
// to keep batch requests inside the service's context budget.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	return string(runes[:max]) + "…"
}
