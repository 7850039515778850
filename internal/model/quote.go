package model

// Quote is fetched on demand and never stored.
type Quote struct {
	Text   string
	Author string
}
