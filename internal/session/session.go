package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"smartreader/internal/catalog"
	"smartreader/internal/domain"
	"smartreader/internal/playback"
	"smartreader/internal/ports"
)

// LoadState tracks the catalog fetch lifecycle.
type LoadState string

const (
	LoadLoading LoadState = "LOADING"
	LoadReady   LoadState = "READY"
	LoadFailed  LoadState = "FAILED"
)

// LoadStatus pairs the load state with a human-readable failure reason.
type LoadStatus struct {
	State  LoadState
	Reason string
}

// SummaryState tracks the summary fetch for the open article.
type SummaryState string

const (
	SummaryIdle     SummaryState = "IDLE"
	SummaryInFlight SummaryState = "IN_FLIGHT"
	SummaryFailed   SummaryState = "FAILED"
)

// SummaryStatus pairs the summary request state with a failure reason.
type SummaryStatus struct {
	State  SummaryState
	Reason string
}

// Snapshot is the consistent view the presentation layer renders from. Open
// is looked up in the catalog at snapshot time, never a second copy.
type Snapshot struct {
	Load            LoadStatus
	Articles        int
	Open            *domain.Article
	SummaryVisible  bool
	Summary         SummaryStatus
	CommentInFlight bool
	CommentFailure  string
	Draft           string
	Playback        playback.State
}

// Deps wires the collaborators the controller coordinates.
type Deps struct {
	Service   ports.ArticleService
	Catalog   *catalog.Store
	Playback  *playback.Machine
	Extractor ports.TextExtractor
	Logger    *slog.Logger
	Speech    ports.SpeechOptions
	UserID    int64
}

// Controller is the single authority for one reading session: it mediates
// every catalog mutation, owns the view state, and delegates read-aloud
// requests to the playback machine. Methods that reach the network block the
// calling goroutine but release the session lock around the call, so the
// controller stays responsive while a request is in flight; completions are
// guarded against stale session context before touching view state.
type Controller struct {
	mu sync.Mutex

	service   ports.ArticleService
	catalog   *catalog.Store
	playback  *playback.Machine
	extractor ports.TextExtractor
	logger    *slog.Logger
	speech    ports.SpeechOptions
	userID    int64

	loadStatus      LoadStatus
	openID          int64
	hasOpen         bool
	summaryVisible  bool
	summaryStatus   SummaryStatus
	commentInFlight bool
	commentFailure  string
	draft           string
}

// NewController builds a controller in the pre-fetch state.
func NewController(deps Deps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		service:       deps.Service,
		catalog:       deps.Catalog,
		playback:      deps.Playback,
		extractor:     deps.Extractor,
		logger:        logger,
		speech:        deps.Speech,
		userID:        deps.UserID,
		loadStatus:    LoadStatus{State: LoadLoading},
		summaryStatus: SummaryStatus{State: SummaryIdle},
	}
}

// FetchCatalog loads the full article collection and replaces the catalog
// with the returned snapshot. Failures are terminal until the user retries
// by calling FetchCatalog again; no automatic retry or backoff happens.
// When several fetches overlap, the last one to resolve wins.
func (c *Controller) FetchCatalog(ctx context.Context) error {
	reqID := uuid.NewString()

	c.mu.Lock()
	c.loadStatus = LoadStatus{State: LoadLoading}
	c.mu.Unlock()

	c.logger.Debug("fetching catalog", "request_id", reqID)
	articles, err := c.service.FetchArticles(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.loadStatus = LoadStatus{State: LoadFailed, Reason: err.Error()}
		c.logger.Warn("catalog fetch failed", "request_id", reqID, "error", err)
		return fmt.Errorf("fetch catalog: %w", err)
	}

	c.catalog.ReplaceAll(articles)
	c.loadStatus = LoadStatus{State: LoadReady}
	c.logger.Info("catalog loaded", "request_id", reqID, "articles", len(articles))
	return nil
}

// OpenArticle switches the session to the detail view for id. Playback is
// stopped unconditionally so no audio outlives the article it was started
// for; the summary panel and the comment draft reset. Unknown ids are
// ignored.
func (c *Controller) OpenArticle(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.catalog.Get(id); !ok {
		c.logger.Debug("open ignored, article not in catalog", "article_id", id)
		return
	}

	c.playback.Stop()
	c.openID = id
	c.hasOpen = true
	c.summaryVisible = false
	c.summaryStatus = SummaryStatus{State: SummaryIdle}
	c.commentFailure = ""
	c.draft = ""
}

// CloseArticle returns the session to the list view, stopping playback and
// clearing the detail-view state.
func (c *Controller) CloseArticle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.playback.Stop()
	c.openID = 0
	c.hasOpen = false
	c.summaryVisible = false
	c.summaryStatus = SummaryStatus{State: SummaryIdle}
	c.commentFailure = ""
	c.draft = ""
}

// ToggleSummary shows or hides the summary panel for the open article. The
// summary is fetched from the service at most once per article per session:
// once cached in the catalog, toggling back on reveals it without a network
// call. A failed fetch caches nothing, so toggling again retries. If the
// user navigates away while the fetch is in flight, the response is still
// cached but no longer touches the view state.
func (c *Controller) ToggleSummary(ctx context.Context) error {
	c.mu.Lock()

	if !c.hasOpen {
		c.mu.Unlock()
		return nil
	}

	if c.summaryVisible {
		c.summaryVisible = false
		c.mu.Unlock()
		return nil
	}

	if art, ok := c.catalog.Get(c.openID); ok && art.Summary != "" {
		c.summaryVisible = true
		c.summaryStatus = SummaryStatus{State: SummaryIdle}
		c.mu.Unlock()
		return nil
	}

	if c.summaryStatus.State == SummaryInFlight {
		c.mu.Unlock()
		return nil
	}

	issuedFor := c.openID
	c.summaryVisible = true
	c.summaryStatus = SummaryStatus{State: SummaryInFlight}
	c.mu.Unlock()

	reqID := uuid.NewString()
	c.logger.Debug("fetching summary", "request_id", reqID, "article_id", issuedFor)
	summary, err := c.service.FetchSummary(ctx, issuedFor)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if c.hasOpen && c.openID == issuedFor {
			c.summaryStatus = SummaryStatus{State: SummaryFailed, Reason: err.Error()}
		}
		c.logger.Warn("summary fetch failed", "request_id", reqID, "article_id", issuedFor, "error", err)
		return fmt.Errorf("fetch summary: %w", err)
	}

	// Summaries are harmless to cache even for a closed article.
	c.catalog.Update(issuedFor, func(a *domain.Article) { a.Summary = summary })
	if c.hasOpen && c.openID == issuedFor {
		c.summaryVisible = true
		c.summaryStatus = SummaryStatus{State: SummaryIdle}
	}
	return nil
}

// SubmitComment posts text as a comment on the open article. Whitespace-only
// text and calls without an open article never reach the network. On success
// the server-returned comment, with its assigned id and sentiment, is
// appended to the catalog record and the draft clears; on failure the draft
// is preserved so the user can retry.
func (c *Controller) SubmitComment(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)

	c.mu.Lock()
	if trimmed == "" || !c.hasOpen || c.commentInFlight {
		c.mu.Unlock()
		return nil
	}
	articleID := c.openID
	c.draft = text
	c.commentInFlight = true
	c.commentFailure = ""
	c.mu.Unlock()

	reqID := uuid.NewString()
	c.logger.Debug("posting comment", "request_id", reqID, "article_id", articleID)
	saved, err := c.service.PostComment(ctx, domain.NewComment{
		Text:      trimmed,
		UserID:    c.userID,
		ArticleID: articleID,
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	c.commentInFlight = false
	if err != nil {
		c.commentFailure = err.Error()
		c.logger.Warn("comment post failed", "request_id", reqID, "article_id", articleID, "error", err)
		return fmt.Errorf("post comment: %w", err)
	}

	c.catalog.Update(articleID, func(a *domain.Article) {
		a.Comments = append(a.Comments, saved)
	})
	if c.hasOpen && c.openID == articleID {
		c.draft = ""
	}
	c.logger.Info("comment posted", "request_id", reqID, "article_id", articleID, "comment_id", saved.ID, "sentiment", saved.Sentiment)
	return nil
}

// Search returns the catalog entries whose title or category contains term,
// preserving catalog order. The empty term returns the full list. Search
// never mutates the catalog.
func (c *Controller) Search(term string) []domain.Article {
	articles := c.catalog.All()
	if term == "" {
		return articles
	}

	filtered := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if strings.Contains(a.Title, term) || strings.Contains(a.Category, term) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// StartReading speaks the currently displayed text: the summary when the
// summary panel shows one, otherwise the full article body. Markup is
// stripped before the text reaches the device. No-op in list view.
func (c *Controller) StartReading() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasOpen {
		return
	}
	art, ok := c.catalog.Get(c.openID)
	if !ok {
		return
	}

	text := art.Content
	if c.summaryVisible && art.Summary != "" {
		text = art.Summary
	}
	if c.extractor != nil {
		text = c.extractor.PlainText(text)
	}

	c.playback.Start(text, c.speech)
}

// TogglePause flips the read-aloud session between speaking and paused.
func (c *Controller) TogglePause() {
	c.playback.TogglePause()
}

// StopReading cancels the read-aloud session outright.
func (c *Controller) StopReading() {
	c.playback.Stop()
}

// SetDraft stores the comment composer text.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

// Draft returns the comment composer text.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Snapshot returns the session state for rendering. The open article is a
// fresh catalog lookup, so summary and comment mutations applied through the
// store are always reflected.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Load:            c.loadStatus,
		Articles:        c.catalog.Len(),
		SummaryVisible:  c.summaryVisible,
		Summary:         c.summaryStatus,
		CommentInFlight: c.commentInFlight,
		CommentFailure:  c.commentFailure,
		Draft:           c.draft,
		Playback:        c.playback.State(),
	}
	if c.hasOpen {
		if art, ok := c.catalog.Get(c.openID); ok {
			snap.Open = &art
		}
	}
	return snap
}
