package domain

// Category is read-only reference data shown on the home screen.
type Category struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
}
