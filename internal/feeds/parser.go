package feeds

import (
	"html"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/hoanghai1803/tweetgen/internal/models"
)

var htmlTagPattern = regexp.MustCompile("<[^>]*>")

// feedSamples converts feed items into samples, keeping the feed's order.
// Items without a title are skipped. maxItems <= 0 means no cap.
func feedSamples(feed *gofeed.Feed, maxItems int) []models.TextSample {
	author := strings.TrimSpace(feed.Title)

	var samples []models.TextSample
	for _, item := range feed.Items {
		if maxItems > 0 && len(samples) >= maxItems {
			break
		}

		title := strings.TrimSpace(stripHTML(item.Title))
		if title == "" {
			continue
		}

		text := title
		if desc := strings.TrimSpace(stripHTML(item.Description)); desc != "" {
			text += ": " + desc
		}

		samples = append(samples, models.TextSample{Author: author, Text: text})
	}

	return samples
}

// stripHTML removes HTML tags from s and unescapes HTML entities.
func stripHTML(s string) string {
	clean := htmlTagPattern.ReplaceAllString(s, "")
	return html.UnescapeString(clean)
}
