package models

// Greeting is the body returned by the greeting endpoint.
type Greeting struct {
	Message string `json:"message"`
}

type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
	Error  string `json:"error,omitempty"`
}

type Result struct {
	Sources []SourceCount `json:"sources"`
	Stats   struct {
		TotalWords  int `json:"totalWords"`
		Failed      int `json:"failed"`
		TimeElapsed int `json:"timeElapsedMs"`
	} `json:"stats"`
}
