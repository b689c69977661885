package domain

// RawMessage is an inbound chat message as delivered by the gateway.
type RawMessage struct {
	ChatID     int64
	ChatTitle  string
	MessageID  int
	AuthorID   int64
	AuthorName string
	Text       string

	// EntityURLs holds URLs hidden behind formatted text (text_link entities).
	EntityURLs []string
}

// EnrichedPost is the media found behind a Reddit post. Immutable once built.
type EnrichedPost struct {
	MediaURLs  []string
	Title      string
	Subreddit  string
	Author     string
	HasGallery bool
	HasVideo   bool
}

// Decision is the classification outcome for a canonical URL.
type Decision int

const (
	DecisionBlocked Decision = iota
	DecisionAllowed
)

func (d Decision) String() string {
	if d == DecisionAllowed {
		return "allowed"
	}

	return "blocked"
}

// Candidate is a canonical URL on its way through classification and dedup.
type Candidate struct {
	URL      string
	Original string
	Enriched bool
	Decision Decision
}

// RenderMode selects the template used for an output batch.
type RenderMode string

const (
	RenderSingle     RenderMode = "single"
	RenderMultiImage RenderMode = "multi-image"
	RenderGallery    RenderMode = "gallery"
	RenderVideo      RenderMode = "video"
	RenderDivider    RenderMode = "divider"
)

// OutputBatch is one outgoing message worth of media items.
type OutputBatch struct {
	Mode RenderMode
	URLs []string
	Text string
}
