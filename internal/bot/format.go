package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/timmy/researchbot/internal/domain"
)

const welcomeText = `🔬 <b>Research Bot — your personal analyst</b>

What I can do:
• Run deep research on any topic
• Analyze up-to-date information from the web
• Build structured reports with cited sources
• Generate a PDF version of the report

Commands:
/research &lt;topic&gt; — start a research
/status — current research status
/cancel — cancel the running research
/settings — bot settings
/sources — source list of the last research
/help — detailed help

Or just send me a topic to research.`

const helpText = `📖 <b>Research Bot help</b>

Quick start:
1. Send a topic, e.g. <code>artificial intelligence in medicine</code>
2. Watch the live progress
3. Receive the report as Markdown and PDF

Settings:
• <code>/settings sources 25</code> — source count per query (1-50)
• <code>/settings depth on</code> — deep analysis (on/off)
• <code>/settings lang en</code> — report language (ru/en)

More commands:
• <code>/status</code> — current progress
• <code>/sources</code> — found sources
• <code>/cancel</code> — stop the research

One chat runs one research at a time.`

// statusEmoji maps job status to the emoji used in status replies.
var statusEmoji = map[domain.JobStatus]string{
	domain.JobStatusPending:   "⏳",
	domain.JobStatusRunning:   "🔄",
	domain.JobStatusDone:      "✅",
	domain.JobStatusCancelled: "❌",
	domain.JobStatusError:     "⚠️",
}

// formatDuration renders a duration the way users read it.
func formatDuration(d time.Duration) string {
	secs := int(d.Seconds())
	switch {
	case secs < 60:
		return fmt.Sprintf("%d s", secs)
	case secs < 3600:
		return fmt.Sprintf("%d min %d s", secs/60, secs%60)
	default:
		return fmt.Sprintf("%d h %d min", secs/3600, (secs%3600)/60)
	}
}

// progressBar renders a 20-segment bar for the given percentage.
func progressBar(pct int) string {
	filled := pct / 5
	if filled > 20 {
		filled = 20
	}
	return strings.Repeat("🟩", filled) + strings.Repeat("⬜", 20-filled)
}

// progressText renders the live progress message edited in place.
func progressText(topic string, p domain.Progress) string {
	pct := 0
	if p.Total > 0 {
		pct = p.Step * 100 / p.Total
		if pct > 100 {
			pct = 100
		}
	}
	remaining := p.Total - p.Step
	if remaining < 1 {
		remaining = 1
	}
	return fmt.Sprintf(
		"🔬 <b>Research in progress</b>\n\n"+
			"📋 <b>Topic:</b> %s\n"+
			"<b>Current stage:</b> %s\n\n"+
			"<b>Progress:</b> %d%% (%d/%d)\n%s\n\n"+
			"<i>~%d s remaining</i>",
		html.EscapeString(topic), html.EscapeString(p.Label),
		pct, p.Step, p.Total, progressBar(pct), remaining*15,
	)
}

// statusText renders the /status reply for a job snapshot.
func statusText(job *domain.ResearchJob, now time.Time) string {
	emoji := statusEmoji[job.Status]
	if emoji == "" {
		emoji = "🔄"
	}
	return fmt.Sprintf(
		"%s <b>Research status</b>\n\n"+
			"📋 <b>Topic:</b> %s\n"+
			"⏱ <b>Time:</b> %s\n"+
			"📊 <b>Status:</b> %s",
		emoji, html.EscapeString(job.Topic),
		formatDuration(job.Elapsed(now)), job.Status,
	)
}

// settingsText renders the current settings overview.
func settingsText(s *domain.UserSettings) string {
	depth := "off"
	if s.DeepAnalysis {
		depth = "on"
	}
	return fmt.Sprintf(
		"⚙️ <b>Current settings</b>\n\n"+
			"📊 <b>Sources per query:</b> %d\n"+
			"🔍 <b>Deep analysis:</b> %s\n"+
			"🌐 <b>Report language:</b> %s\n\n"+
			"Change with:\n"+
			"• <code>/settings sources 25</code>\n"+
			"• <code>/settings depth on</code>\n"+
			"• <code>/settings lang en</code>",
		s.MaxResults, depth, strings.ToUpper(s.Lang),
	)
}

// startedText renders the initial research message, later edited with
// progress updates.
func startedText(topic string, s *domain.UserSettings) string {
	depth := "off"
	if s.DeepAnalysis {
		depth = "on"
	}
	return fmt.Sprintf(
		"🔬 <b>Starting research</b>\n\n"+
			"📋 <b>Topic:</b> %s\n"+
			"📊 <b>Sources:</b> up to %d per query\n"+
			"🔍 <b>Deep analysis:</b> %s\n\n"+
			"<i>Preparing search queries...</i>",
		html.EscapeString(topic), s.MaxResults, depth,
	)
}

// completedText renders the final edit of the progress message.
func completedText(job *domain.ResearchJob) string {
	return fmt.Sprintf(
		"✅ <b>Research completed!</b>\n\n"+
			"📋 <b>Topic:</b> %s\n"+
			"⏱ <b>Elapsed:</b> %s\n"+
			"📊 <b>Sources found:</b> %d\n\n"+
			"<i>Sending the report...</i>",
		html.EscapeString(job.Topic), formatDuration(job.CompletedIn), len(job.Sources),
	)
}

// sourcesDocument renders the plain-text source list attachment.
func sourcesDocument(topic string, sources []domain.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sources for: %s\n\n", topic)
	for i, s := range sources {
		title := s.Title
		if len([]rune(title)) > 80 {
			title = string([]rune(title)[:80])
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n\n", i+1, title, s.Link)
	}
	return b.String()
}

// safeFilename builds an attachment filename from a topic.
func safeFilename(prefix, topic, ext string, now time.Time) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r == '/' || r == '\\' || r == ':':
			return '-'
		default:
			return r
		}
	}, topic)
	if len([]rune(cleaned)) > 40 {
		cleaned = string([]rune(cleaned)[:40])
	}
	return fmt.Sprintf("%s_%s_%d.%s", prefix, cleaned, now.Unix(), ext)
}
