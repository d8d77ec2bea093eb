package domain

import "testing"

func TestParseSentiment(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want Sentiment
	}{
		{"POSITIVE", SentimentPositive},
		{"NEGATIVE", SentimentNegative},
		{"NEUTRAL", SentimentNeutral},
		{"", SentimentNeutral},
		{"positive", SentimentPositive},
		{"ECSTATIC", SentimentNeutral},
	}

	for _, tc := range cases {
		if got := ParseSentiment(tc.raw); got != tc.want {
			t.Fatalf("ParseSentiment(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestCommentAuthorName(t *testing.T) {
	t.Parallel()

	if got := (Comment{}).AuthorName(); got != "anonymous" {
		t.Fatalf("missing user: %q", got)
	}
	if got := (Comment{User: &UserRef{ID: 1}}).AuthorName(); got != "anonymous" {
		t.Fatalf("unnamed user: %q", got)
	}
	if got := (Comment{User: &UserRef{ID: 1, Name: "Sara"}}).AuthorName(); got != "Sara" {
		t.Fatalf("named user: %q", got)
	}
}
