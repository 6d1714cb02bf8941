package types

// Event represents a typed event emitted during state transitions. Attributes
// hold the searchable fields downstream indexers filter on.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
