package domain

import "strings"

// Sentiment classifies the tone of a comment. It is assigned by the remote
// service; the client never computes it.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

// ParseSentiment normalizes a raw label from the wire. Unknown or empty
// values fall back to neutral, which is also the display default.
func ParseSentiment(raw string) Sentiment {
	switch s := Sentiment(strings.ToUpper(raw)); s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return s
	}
	return SentimentNeutral
}

// UserRef points at the author of a comment in the remote service.
type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// Comment is created only by a successful submission to the remote service,
// which assigns both the id and the sentiment label.
type Comment struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	User      *UserRef  `json:"user,omitempty"`
	Sentiment Sentiment `json:"sentiment,omitempty"`
}

const anonymousAuthor = "anonymous"

// AuthorName returns the display name for the comment author, falling back
// to a placeholder when the user reference is absent.
func (c Comment) AuthorName() string {
	if c.User == nil || c.User.Name == "" {
		return anonymousAuthor
	}
	return c.User.Name
}

// Article is the catalog record fetched from the remote service. Summary is
// empty until the first successful summary fetch; Comments grow only by
// append within a session.
type Article struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Category string    `json:"category"`
	Author   string    `json:"author"`
	Image    string    `json:"image"`
	Content  string    `json:"content"`
	Summary  string    `json:"summary,omitempty"`
	Comments []Comment `json:"comments,omitempty"`
}

// NewComment carries everything needed to submit a comment.
type NewComment struct {
	Text      string
	UserID    int64
	ArticleID int64
}
