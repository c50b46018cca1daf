package domain

// Pattern is one entry of A Pattern Language. Patterns are loaded once at
// startup and shared by value; nothing mutates them afterwards.
type Pattern struct {
	ID              int    `json:"id" yaml:"id"`
	Title           string `json:"title" yaml:"title"`
	Problem         string `json:"problem" yaml:"problem"`
	Solution        string `json:"solution" yaml:"solution"`
	RelatedPatterns string `json:"relatedPatterns,omitempty" yaml:"related_patterns,omitempty"`
	ImagePrompt     string `json:"imagePrompt" yaml:"image_prompt,omitempty"`
}
