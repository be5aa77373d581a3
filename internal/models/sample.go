package models

// TextSample is a single post pulled from the warehouse or a feed.
type TextSample struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// GenerationRequest is the prompt sent to the generation service. System and
// User together form the prompt text; Count is the number of posts asked for.
type GenerationRequest struct {
	System string `json:"system"`
	User   string `json:"user"`
	Count  int    `json:"count"`
}

// OutputRow is one generated post as written to the output file.
type OutputRow struct {
	Text string `json:"generated_tweet"`
}
