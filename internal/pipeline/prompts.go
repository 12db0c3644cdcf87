package pipeline

import "fmt"

func batchInstruction(symbol string) string {
	return fmt.Sprintf(`You are a financial news analyst. You will receive a JSON array of news articles about %s. For each article, produce a JSON object with these fields:

- "article_id": copied verbatim from the input item
- "is_relevant": true only if the article is materially about %s or directly affects it
- "sentiment_score": integer 0-100 reflecting the article's implication for %s (0 very negative, 50 neutral, 100 very positive); refine the provided score when the text justifies it
- "article_summary": 2-3 plain sentences covering what happened and why it matters for %s
- "key_points": exactly 3 short bullet strings with the most decision-relevant facts

Respond with ONLY a JSON array containing one object per input article, in the same order. No prose, no markdown fences.`, symbol, symbol, symbol, symbol)
}

func symbolRollupInstruction(symbol string) string {
	return fmt.Sprintf(`You are a financial news analyst writing a daily briefing for %s. You will receive a JSON array of article summaries from roughly the last day, each with a sentiment score and its age in hours.

Write a single cohesive narrative of 3-5 sentences that synthesizes the coverage: the dominant storyline, any conflicting signals, and the overall sentiment picture. Weight recent items more heavily. Do not enumerate articles one by one and do not invent facts absent from the input.

Respond with ONLY the narrative text. No headers, no bullets, no markdown.`, symbol)
}

func etfSnapshotRollupInstruction(etf string) string {
	return fmt.Sprintf(`You are a financial news analyst writing a daily briefing for the ETF %s. You will receive a JSON array of today's per-symbol daily summaries for the fund and its largest holdings.

Write a single cohesive narrative of 3-5 sentences describing how the day's news across these holdings shapes the outlook for %s. Emphasize themes that cut across multiple holdings over single-name detail.

Respond with ONLY the narrative text. No headers, no bullets, no markdown.`, etf, etf)
}

func etfArticleRollupInstruction(etf string) string {
	return fmt.Sprintf(`You are a financial news analyst writing a daily briefing for the ETF %s. You will receive a JSON array of recent article summaries covering the fund and its largest holdings, each tagged with its symbol, a sentiment score, and its age in hours.

Write a single cohesive narrative of 3-5 sentences synthesizing what this coverage means for %s. Emphasize themes that cut across multiple holdings, weight recent items more heavily, and do not invent facts absent from the input.

Respond with ONLY the narrative text. No headers, no bullets, no markdown.`, etf, etf)
}
