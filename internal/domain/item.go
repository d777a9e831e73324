package domain

import "time"

// TypeStory is the only upstream item type that takes part in crossing detection.
const TypeStory = "story"

// Item is the upstream metadata of a single ranked item.
type Item struct {
	ID              int
	Type            string
	Score           int
	Title           string
	ArticleURL      string
	DiscussionURL   string
	BodyText        string
	DiscussionCount *int
	CreatedAt       *time.Time
}

// Key returns the identity key the item will carry once published.
func (i Item) Key() string {
	return IdentityKey(i.ID, i.DiscussionURL, i.ArticleURL, i.Title)
}

// Candidate is an item that crossed the score threshold in the current run.
type Candidate struct {
	Score int
	Item  Item
}
