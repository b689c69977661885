package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
	"github.com/lueurxax/media-relay-bot/internal/platform/htmlutils"
)

const (
	testModeLabel    = " (regular user, test mode only)"
	truncationSuffix = "..."
)

type analysisInput struct {
	testMode   bool
	fromSource bool
	subreddits []string
	total      int
	allowed    []string
	blocked    []string
}

type completionInput struct {
	testMode   bool
	fromSource bool
	subreddits []string
	allowed    int
	blocked    int
	labelled   int
}

func processingNotice(msg domain.RawMessage, testMode, fromSource bool) string {
	var sb strings.Builder

	if testMode {
		sb.WriteString("🧪 <b>TEST MODE ACTIVE</b>\n")
	}

	fmt.Fprintf(&sb, "🔍 Processing message from %s%s%s\n", sender(msg), userTypeLabel(testMode, fromSource), chatLabel(msg))
	sb.WriteString("📝 <b>Original content:</b>\n")
	sb.WriteString(htmlutils.Escape(truncate(msg.Text, processingContentLimit)))

	return sb.String()
}

func linkAnalysis(msg domain.RawMessage, in analysisInput) string {
	var sb strings.Builder

	if in.testMode {
		sb.WriteString("🧪 <b>TEST MODE ANALYSIS</b>\n")
	} else {
		sb.WriteString("🔗 <b>Link Analysis:</b>\n")
	}

	fmt.Fprintf(&sb, "• From: %s%s%s\n", sender(msg), userTypeLabel(in.testMode, in.fromSource), chatLabel(msg))
	sb.WriteString(subredditLine(in.subreddits))
	fmt.Fprintf(&sb, "• Total URLs: %d\n", in.total)

	if in.testMode {
		fmt.Fprintf(&sb, "• Allowed: %d (all, test mode)\n", len(in.allowed))
	} else {
		fmt.Fprintf(&sb, "• Allowed: %d\n• Blocked: %d\n", len(in.allowed), len(in.blocked))
		sb.WriteString(blockedSummary(in.blocked))
	}

	fmt.Fprintf(&sb, "• Action: %s", analysisAction(in))

	return sb.String()
}

func analysisAction(in analysisInput) string {
	switch {
	case in.testMode:
		return "test mode, allowing all"
	case len(in.allowed) == 0 && len(in.blocked) > 0:
		return "delete only"
	case len(in.allowed) == 0:
		return "none"
	default:
		return "delete and repost"
	}
}

// blockedSummary lists the first blocked URLs and how many were left out.
func blockedSummary(blocked []string) string {
	if len(blocked) == 0 {
		return ""
	}

	shown := blocked
	if len(shown) > blockedPreviewLimit {
		shown = shown[:blockedPreviewLimit]
	}

	escaped := make([]string, len(shown))
	for i, u := range shown {
		escaped[i] = htmlutils.Escape(u)
	}

	line := "• Blocked URLs: " + strings.Join(escaped, ", ")
	if extra := len(blocked) - len(shown); extra > 0 {
		line += fmt.Sprintf(" (+%d more)", extra)
	}

	return line + "\n"
}

func completionNotice(msg domain.RawMessage, in completionInput) string {
	var sb strings.Builder

	if in.testMode {
		sb.WriteString("🧪 <b>TEST MODE COMPLETE</b>\n")
	} else {
		sb.WriteString("✅ <b>Cleaning Complete</b>\n")
	}

	fmt.Fprintf(&sb, "• Processed %d link(s) from %s%s%s\n", in.allowed, sender(msg), userTypeLabel(in.testMode, in.fromSource), chatLabel(msg))
	sb.WriteString(subredditLine(in.subreddits))

	if in.labelled > 0 {
		source := "username"
		if len(in.subreddits) > 0 {
			source = "subreddit"
		}

		fmt.Fprintf(&sb, "• %d link(s) formatted with %s\n", in.labelled, source)
	}

	if !in.testMode {
		fmt.Fprintf(&sb, "• Blocked %d unwanted link(s)", in.blocked)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func errorNotice(msg domain.RawMessage, err error) string {
	return fmt.Sprintf("❌ <b>Error processing message:</b> %s\n• From: %s\n• Original content: %s",
		htmlutils.Escape(err.Error()),
		sender(msg),
		htmlutils.Escape(truncate(msg.Text, errorContentLimit)),
	)
}

func sender(msg domain.RawMessage) string {
	name := msg.AuthorName
	if name == "" {
		name = strconv.FormatInt(msg.AuthorID, 10)
	}

	return htmlutils.Bold(name)
}

func chatLabel(msg domain.RawMessage) string {
	if msg.ChatTitle == "" {
		return ""
	}

	return " in " + htmlutils.Italic(msg.ChatTitle)
}

func userTypeLabel(testMode, fromSource bool) string {
	if testMode && !fromSource {
		return testModeLabel
	}

	return ""
}

func subredditLine(subreddits []string) string {
	if len(subreddits) == 0 {
		return ""
	}

	return "• Subreddit(s): " + htmlutils.Escape(strings.Join(subreddits, ", ")) + "\n"
}

// truncate cuts s to limit runes, marking the cut.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)

	return string(runes[:limit]) + truncationSuffix
}
