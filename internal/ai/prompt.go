package ai

import (
	"fmt"
	"strings"

	"github.com/hoanghai1803/tweetgen/internal/models"
)

const systemPromptTmpl = `You are an expert tweet author. Your task is to generate %d new, distinct, and diverse tweets.

Notably the following are cringe on twitter and you should avoid them:
- Hashtags
- Emojis
- Random capitalization

Your goal is to be a thought leader on stablecoins, ideally with a research tilt. When you write a tweet, it should be grounded in the recent themes and should not be a vapid generic tweet.

Each tweet must satisfy two conditions:
1. The WRITING STYLE must match the style of the following "grounding" tweets:
---
%s
---

2. The TOPIC or THEME of each tweet should be inspired by the following "recency" tweets:
---
%s
---

Please provide a numbered list of exactly %d tweets. Do not include any other text or preamble.`

const userPromptTmpl = `Please generate %d diverse tweets.`

// BuildPrompt builds the generation request for count posts in the voice of
// the grounding samples on the themes of the recency samples. It is
// deterministic and never fails; empty sets render as "(none)".
func BuildPrompt(grounding, recency []models.TextSample, count int) models.GenerationRequest {
	return models.GenerationRequest{
		System: fmt.Sprintf(systemPromptTmpl, count, renderSamples(grounding), renderSamples(recency), count),
		User:   fmt.Sprintf(userPromptTmpl, count),
		Count:  count,
	}
}

// renderSamples writes one sample per line. Whitespace runs inside a sample
// (including newlines) collapse to a single space so every sample stays on
// its own line.
func renderSamples(samples []models.TextSample) string {
	var b strings.Builder
	for _, s := range samples {
		text := strings.Join(strings.Fields(s.Text), " ")
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(text)
	}
	if b.Len() == 0 {
		return "(none)"
	}
	return b.String()
}
