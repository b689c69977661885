// Package pipeline runs one inbound chat message through link resolution,
// enrichment, classification and deduplication, then deletes the original and
// reposts the allowed media.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
	"github.com/lueurxax/media-relay-bot/internal/core/links"
	"github.com/lueurxax/media-relay-bot/internal/core/links/linkextract"
	"github.com/lueurxax/media-relay-bot/internal/output/repost"
	"github.com/lueurxax/media-relay-bot/internal/platform/observability"
	"github.com/lueurxax/media-relay-bot/internal/process/dedup"
)

// Messenger deletes and sends chat messages.
type Messenger interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Auditor mirrors processing notices to a log chat.
type Auditor interface {
	Audit(ctx context.Context, text string) error
}

// ShortLinkResolver expands a short link.
type ShortLinkResolver interface {
	Resolve(ctx context.Context, shortURL string) (string, bool)
}

// PostEnricher finds the media behind a post URL.
type PostEnricher interface {
	Enrich(ctx context.Context, postURL string) (*domain.EnrichedPost, bool)
}

// URLClassifier decides which canonical URLs may be reposted.
type URLClassifier interface {
	Classify(url string, enriched bool) domain.Decision
	IsAllowedDomain(url string) bool
}

// Config holds the per-deployment pipeline settings.
type Config struct {
	SourceAccountIDs []int64
	TestMode         bool

	// ExpandConcurrency bounds the concurrent short-link lookups of one message.
	ExpandConcurrency int

	// DeliveryTimeout bounds the delete, send and audit calls made after the
	// lookups finish. Delivery does not inherit the lookup deadline.
	DeliveryTimeout time.Duration
}

// Deps are the collaborators of a Pipeline. Auditor and Logger may be nil.
type Deps struct {
	Resolver   ShortLinkResolver
	Enricher   PostEnricher
	Classifier URLClassifier
	Composer   *repost.Composer
	Messenger  Messenger
	Auditor    Auditor
	Logger     *zerolog.Logger
}

// Pipeline handles inbound messages. It keeps no per-message state between calls
// and is safe for concurrent use.
type Pipeline struct {
	cfg     Config
	sources map[int64]struct{}
	selfID  int64
	deps    Deps
	logger  *zerolog.Logger
}

func New(cfg Config, deps Deps) *Pipeline {
	if cfg.ExpandConcurrency <= 0 {
		cfg.ExpandConcurrency = DefaultExpandConcurrency
	}

	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = DefaultDeliveryTimeout
	}

	if deps.Composer == nil {
		deps.Composer = repost.NewComposer(repost.DefaultMaxItemsPerMessage)
	}

	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	sources := make(map[int64]struct{}, len(cfg.SourceAccountIDs))
	for _, id := range cfg.SourceAccountIDs {
		sources[id] = struct{}{}
	}

	return &Pipeline{cfg: cfg, sources: sources, deps: deps, logger: logger}
}

// SetSelfID records the bot's own account so its reposts are never reprocessed.
func (p *Pipeline) SetSelfID(id int64) {
	p.selfID = id
}

// Outcome describes what Handle did with a message.
type Outcome struct {
	Action  Action
	TraceID string
	Total   int
	Allowed []string
	Blocked []string
	Batches []domain.OutputBatch
}

// expansion is what resolution and enrichment made of one URL token.
type expansion struct {
	post     *domain.EnrichedPost
	resolved string
}

// Handle processes one message. Misses during resolution and enrichment only
// degrade the result; errors are returned for failed delete or send calls.
func (p *Pipeline) Handle(ctx context.Context, msg domain.RawMessage) (*Outcome, error) {
	start := time.Now()
	traceID := uuid.New().String()
	logger := p.logger.With().
		Str(LogFieldTraceID, traceID).
		Int64(LogFieldChatID, msg.ChatID).
		Int(LogFieldMsgID, msg.MessageID).
		Logger()

	out, err := p.handle(ctx, msg, &logger)
	out.TraceID = traceID

	observability.MessagesHandled.WithLabelValues(string(out.Action)).Inc()
	observability.MessageHandleDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error().Err(err).Str(LogFieldAction, string(out.Action)).Msg("message handling failed")

		return out, err
	}

	if out.Action != ActionIgnored {
		logger.Info().
			Str(LogFieldAction, string(out.Action)).
			Int(LogFieldTotal, out.Total).
			Int(LogFieldAllowed, len(out.Allowed)).
			Int(LogFieldBlocked, len(out.Blocked)).
			Int(LogFieldBatches, len(out.Batches)).
			Msg("message handled")
	}

	return out, nil
}

func (p *Pipeline) handle(ctx context.Context, msg domain.RawMessage, logger *zerolog.Logger) (*Outcome, error) {
	_, fromSource := p.sources[msg.AuthorID]

	if p.selfID != 0 && msg.AuthorID == p.selfID {
		return &Outcome{Action: ActionIgnored}, nil
	}

	if !fromSource && !p.cfg.TestMode {
		return &Outcome{Action: ActionIgnored}, nil
	}

	p.audit(ctx, logger, processingNotice(msg, p.cfg.TestMode, fromSource))

	tokens := append(linkextract.ExtractURLs(msg.Text), msg.EntityURLs...)
	if len(tokens) == 0 {
		return &Outcome{Action: ActionNoURLs}, nil
	}

	expansions := p.expand(ctx, tokens)
	post := firstPost(expansions)

	ctx, cancel := p.deliveryContext(ctx)
	defer cancel()

	candidates := dedup.DeduplicateFull(p.candidates(tokens, expansions), logger).Candidates

	out := &Outcome{Total: len(tokens)}

	for _, c := range candidates {
		if c.Decision == domain.DecisionAllowed {
			out.Allowed = append(out.Allowed, c.URL)
		} else {
			out.Blocked = append(out.Blocked, c.URL)
		}
	}

	subreddits := linkextract.ExtractSubreddits(msg.Text)
	p.audit(ctx, logger, linkAnalysis(msg, analysisInput{
		testMode:   p.cfg.TestMode,
		fromSource: fromSource,
		subreddits: subreddits,
		total:      out.Total,
		allowed:    out.Allowed,
		blocked:    out.Blocked,
	}))

	switch {
	case len(out.Allowed) == 0 && len(out.Blocked) > 0:
		out.Action = ActionDeleteOnly

		if err := p.deps.Messenger.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
			p.audit(ctx, logger, errorNotice(msg, err))

			return out, fmt.Errorf("delete message: %w", err)
		}

		return out, nil
	case len(out.Allowed) == 0:
		out.Action = ActionKept

		return out, nil
	}

	out.Action = ActionRepost
	out.Batches = p.deps.Composer.Compose(p.composeInput(msg, post, subreddits, out.Allowed))

	if err := p.repost(ctx, msg, out.Batches); err != nil {
		p.audit(ctx, logger, errorNotice(msg, err))

		return out, err
	}

	p.audit(ctx, logger, completionNotice(msg, completionInput{
		testMode:   p.cfg.TestMode,
		fromSource: fromSource,
		subreddits: subreddits,
		allowed:    len(out.Allowed),
		blocked:    len(out.Blocked),
		labelled:   p.countLabelled(out.Allowed),
	}))

	return out, nil
}

// expand resolves short links and enriches post URLs concurrently. The result is
// indexed like tokens; a nil entry means the token stays as it is.
func (p *Pipeline) expand(ctx context.Context, tokens []string) []*expansion {
	results := make([]*expansion, len(tokens))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.ExpandConcurrency)

	for i, token := range tokens {
		short := linkextract.IsShortLink(token)
		if !short && !linkextract.IsPostURL(token) {
			continue
		}

		g.Go(func() error {
			results[i] = p.expandOne(gctx, token, short)

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // lookups report misses, never errors

	return results
}

func (p *Pipeline) expandOne(ctx context.Context, token string, short bool) *expansion {
	target := token

	if short {
		resolved, ok := p.deps.Resolver.Resolve(ctx, token)
		if !ok {
			return nil
		}

		if !linkextract.IsPostURL(resolved) {
			return &expansion{resolved: resolved}
		}

		target = resolved
	}

	post, ok := p.deps.Enricher.Enrich(ctx, target)
	if !ok {
		return nil
	}

	return &expansion{post: post}
}

// candidates lists the tokens that were not replaced by enrichment, then the
// enrichment items, all canonicalized and classified.
func (p *Pipeline) candidates(tokens []string, expansions []*expansion) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(tokens))

	var enriched []domain.Candidate

	for i, token := range tokens {
		exp := expansions[i]

		switch {
		case exp == nil:
			out = append(out, p.candidate(token, token, false))
		case exp.post != nil:
			for _, u := range exp.post.MediaURLs {
				enriched = append(enriched, p.candidate(u, token, true))
			}
		default:
			out = append(out, p.candidate(exp.resolved, token, false))
		}
	}

	return append(out, enriched...)
}

func (p *Pipeline) candidate(rawURL, original string, enriched bool) domain.Candidate {
	canonical := links.Canonical(rawURL)

	decision := domain.DecisionAllowed
	if !p.cfg.TestMode {
		decision = p.deps.Classifier.Classify(canonical, enriched)
	}

	return domain.Candidate{URL: canonical, Original: original, Enriched: enriched, Decision: decision}
}

func firstPost(expansions []*expansion) *domain.EnrichedPost {
	for _, e := range expansions {
		if e != nil && e.post != nil {
			return e.post
		}
	}

	return nil
}

func (p *Pipeline) composeInput(msg domain.RawMessage, post *domain.EnrichedPost, subreddits, allowed []string) repost.Input {
	in := repost.Input{URLs: allowed}

	if post != nil {
		in.Title = post.Title
		in.Group = post.Subreddit
		in.Author = post.Author
		in.HasGallery = post.HasGallery
		in.HasVideo = post.HasVideo
	}

	if in.Group == "" && len(subreddits) > 0 {
		in.Group = subreddits[0]
	}

	label := msg.AuthorName
	if in.Group != "" {
		label = "r/" + repost.NormalizeGroup(in.Group)
	}

	if label == "" {
		return in
	}

	for _, u := range allowed {
		if p.deps.Classifier != nil && p.deps.Classifier.IsAllowedDomain(u) {
			if in.Labels == nil {
				in.Labels = make(map[string]string)
			}

			in.Labels[u] = label
		}
	}

	return in
}

func (p *Pipeline) countLabelled(allowed []string) int {
	if p.deps.Classifier == nil {
		return 0
	}

	n := 0

	for _, u := range allowed {
		if p.deps.Classifier.IsAllowedDomain(u) {
			n++
		}
	}

	return n
}

// deliveryContext detaches delivery from the lookup deadline: a deleted
// original is always followed by its repost attempt.
func (p *Pipeline) deliveryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), p.cfg.DeliveryTimeout)
}

// repost deletes the original message and sends the batches in order.
func (p *Pipeline) repost(ctx context.Context, msg domain.RawMessage, batches []domain.OutputBatch) error {
	if err := p.deps.Messenger.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	for i, b := range batches {
		if err := p.deps.Messenger.SendMessage(ctx, msg.ChatID, b.Text); err != nil {
			observability.RepostBatchesSent.WithLabelValues(statusFailed).Inc()

			return fmt.Errorf("send batch %d/%d: %w", i+1, len(batches), err)
		}

		observability.RepostBatchesSent.WithLabelValues(statusSent).Inc()
	}

	return nil
}

func (p *Pipeline) audit(ctx context.Context, logger *zerolog.Logger, text string) {
	if p.deps.Auditor == nil || text == "" {
		return
	}

	if err := p.deps.Auditor.Audit(ctx, text); err != nil {
		logger.Warn().Err(err).Msg("failed to send audit notice")
	}
}
