package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/timmy/researchbot/internal/domain"
	"github.com/timmy/researchbot/internal/logger"
	"github.com/timmy/researchbot/internal/service"
)

// Renderer produces a binary report attachment (PDF). A render failure
// never fails a delivery.
type Renderer interface {
	Render(report *domain.Report) ([]byte, error)
}

// Bot routes Telegram updates into the research service and delivers
// research events back to chats. It implements service.Notifier.
type Bot struct {
	client   *TelegramClient
	research *service.ResearchService
	settings service.SettingsStore
	renderer Renderer
	log      *logger.Logger

	mu sync.Mutex
	// progressMsg maps chat ID to the message edited with live progress.
	progressMsg map[int64]int64
}

// New creates the bot. The renderer is optional; without it only the
// Markdown report is sent.
// Parameters:
//   - client: Telegram transport.
//   - research: research lifecycle service.
//   - settings: per-chat settings store.
//   - renderer: optional PDF renderer.
//   - log: logger instance.
// Returns:
//   - *Bot: initialized bot.
func New(client *TelegramClient, research *service.ResearchService, settings service.SettingsStore, renderer Renderer, log *logger.Logger) *Bot {
	return &Bot{
		client:      client,
		research:    research,
		settings:    settings,
		renderer:    renderer,
		log:         log.WithField(logger.FieldComponent, "bot"),
		progressMsg: make(map[int64]int64),
	}
}

// Run polls Telegram for updates until ctx is cancelled.
// Parameters:
//   - ctx: cancellation context; Run returns its error on cancellation.
// Returns:
//   - error: ctx.Err() after shutdown.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("bot update loop started")
	var offset int64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		updates, err := b.client.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.log.Errorf("get updates: %v", err)
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			msg := u.Message
			go b.handleMessage(ctx, msg)
		}
	}
}

// handleMessage routes one inbound text message.
func (b *Bot) handleMessage(ctx context.Context, msg *IncomingMessage) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	log := b.log.WithField(logger.FieldChatID, chatID)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("message handler panicked: %v", r)
		}
	}()

	command, args := splitCommand(text)
	switch command {
	case "/start":
		b.send(ctx, chatID, welcomeText)
	case "/help":
		b.send(ctx, chatID, helpText)
	case "/research":
		if args == "" {
			b.send(ctx, chatID, "Usage: <code>/research topic</code>\nExample: <code>/research artificial intelligence in medicine</code>")
			return
		}
		b.startResearch(ctx, chatID, args)
	case "/status":
		b.handleStatus(ctx, chatID)
	case "/cancel":
		b.handleCancel(ctx, chatID)
	case "/settings":
		b.handleSettings(ctx, chatID, args)
	case "/sources":
		b.handleSources(ctx, chatID)
	default:
		if strings.HasPrefix(text, "/") {
			b.send(ctx, chatID, "Unknown command. See /help.")
			return
		}
		// Plain text is an implicit research request.
		if len([]rune(text)) < service.MinTopicLength {
			b.send(ctx, chatID, fmt.Sprintf("The topic is too short. Send at least %d characters, e.g. <code>renewable energy trends</code>.", service.MinTopicLength))
			return
		}
		b.startResearch(ctx, chatID, text)
	}
}

// startResearch posts the initial progress message and starts the job.
// The sent message becomes the live progress message for the chat.
func (b *Bot) startResearch(ctx context.Context, chatID int64, topic string) {
	settings, err := b.settings.GetOrInit(ctx, chatID)
	if err != nil {
		b.log.WithField(logger.FieldChatID, chatID).Errorf("load settings: %v", err)
		b.send(ctx, chatID, "⚠️ Could not load your settings, please try again.")
		return
	}

	sent, err := b.client.SendMessage(ctx, chatID, startedText(topic, settings))
	if err != nil {
		b.log.WithField(logger.FieldChatID, chatID).Errorf("send start message: %v", err)
		return
	}
	b.setProgressMsg(chatID, sent.MessageID)

	if _, err := b.research.Start(ctx, chatID, topic); err != nil {
		b.clearProgressMsg(chatID)
		text := "⚠️ Could not start the research, please try again."
		switch {
		case errors.Is(err, service.ErrAlreadyActive):
			text = "⏳ A research is already running in this chat. Wait for it to finish or stop it with /cancel."
		case errors.Is(err, service.ErrTopicTooShort):
			text = fmt.Sprintf("The topic is too short. Send at least %d characters.", service.MinTopicLength)
		default:
			b.log.WithField(logger.FieldChatID, chatID).Errorf("start research: %v", err)
		}
		if editErr := b.client.EditMessageText(ctx, chatID, sent.MessageID, text); editErr != nil {
			b.send(ctx, chatID, text)
		}
	}
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64) {
	job, err := b.research.Status(ctx, chatID)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveJob) {
			b.send(ctx, chatID, "ℹ️ No research in this chat yet. Send a topic to start one.")
			return
		}
		b.log.WithField(logger.FieldChatID, chatID).Errorf("job status: %v", err)
		b.send(ctx, chatID, "⚠️ Could not read the research status.")
		return
	}
	b.send(ctx, chatID, statusText(job, time.Now()))
}

func (b *Bot) handleCancel(ctx context.Context, chatID int64) {
	if err := b.research.Cancel(chatID); err != nil {
		if errors.Is(err, service.ErrNoActiveJob) {
			b.send(ctx, chatID, "ℹ️ Nothing to cancel: no research is running.")
			return
		}
		b.log.WithField(logger.FieldChatID, chatID).Errorf("cancel research: %v", err)
		b.send(ctx, chatID, "⚠️ Could not cancel the research.")
		return
	}
	b.send(ctx, chatID, "🛑 Stopping the research...")
}

// handleSettings shows current settings without arguments and applies
// "key value" updates with them.
func (b *Bot) handleSettings(ctx context.Context, chatID int64, args string) {
	settings, err := b.settings.GetOrInit(ctx, chatID)
	if err != nil {
		b.log.WithField(logger.FieldChatID, chatID).Errorf("load settings: %v", err)
		b.send(ctx, chatID, "⚠️ Could not load your settings.")
		return
	}
	if args == "" {
		b.send(ctx, chatID, settingsText(settings))
		return
	}

	parts := strings.Fields(args)
	if len(parts) != 2 {
		b.send(ctx, chatID, "Usage: <code>/settings key value</code>, e.g. <code>/settings sources 25</code>")
		return
	}
	if err := settings.ApplyUpdate(parts[0], parts[1]); err != nil {
		b.send(ctx, chatID, "⚠️ "+html.EscapeString(err.Error()))
		return
	}
	if err := b.settings.Save(ctx, settings); err != nil {
		b.log.WithField(logger.FieldChatID, chatID).Errorf("save settings: %v", err)
		b.send(ctx, chatID, "⚠️ Could not save the settings.")
		return
	}
	b.send(ctx, chatID, "✅ Settings updated.\n\n"+settingsText(settings))
}

func (b *Bot) handleSources(ctx context.Context, chatID int64) {
	topic, sources, err := b.research.Sources(ctx, chatID)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveJob) {
			b.send(ctx, chatID, "ℹ️ No research in this chat yet. Send a topic to start one.")
			return
		}
		b.log.WithField(logger.FieldChatID, chatID).Errorf("job sources: %v", err)
		b.send(ctx, chatID, "⚠️ Could not read the source list.")
		return
	}
	if len(sources) == 0 {
		b.send(ctx, chatID, "ℹ️ The last research has no recorded sources yet.")
		return
	}
	doc := sourcesDocument(topic, sources)
	name := safeFilename("sources", topic, "txt", time.Now())
	if err := b.client.SendDocument(ctx, chatID, name, []byte(doc), fmt.Sprintf("📎 %d sources", len(sources))); err != nil {
		b.log.WithField(logger.FieldChatID, chatID).Errorf("send sources: %v", err)
		b.send(ctx, chatID, "⚠️ Could not send the source list.")
	}
}

// NotifyProgress edits the live progress message for the chat, creating
// one when none is tracked yet.
func (b *Bot) NotifyProgress(ctx context.Context, chatID int64, topic string, p domain.Progress) error {
	text := progressText(topic, p)
	msgID, ok := b.getProgressMsg(chatID)
	if ok {
		err := b.client.EditMessageText(ctx, chatID, msgID, text)
		if err == nil || isNotModified(err) {
			return nil
		}
		b.log.WithField(logger.FieldChatID, chatID).Debugf("edit progress message: %v", err)
	}
	sent, err := b.client.SendMessage(ctx, chatID, text)
	if err != nil {
		return err
	}
	b.setProgressMsg(chatID, sent.MessageID)
	return nil
}

// NotifyDone finalizes the progress message and delivers the report as a
// Markdown document plus, when a renderer is configured, a PDF.
func (b *Bot) NotifyDone(ctx context.Context, job *domain.ResearchJob, report *domain.Report) error {
	chatID := job.ChatID
	log := b.log.WithField(logger.FieldChatID, chatID)
	b.finalizeProgress(ctx, chatID, completedText(job))

	now := time.Now()
	caption := fmt.Sprintf("📄 Research report: %s", truncateRunes(job.Topic, 120))
	if err := b.client.SendDocument(ctx, chatID, safeFilename("report", job.Topic, "md", now), []byte(report.Markdown()), caption); err != nil {
		return fmt.Errorf("send markdown report: %w", err)
	}

	if b.renderer != nil {
		pdf, err := b.renderer.Render(report)
		if err != nil {
			// PDF is a bonus artifact; the Markdown report already landed.
			log.Warnf("render pdf report: %v", err)
		} else if err := b.client.SendDocument(ctx, chatID, safeFilename("report", job.Topic, "pdf", now), pdf, "📑 PDF version"); err != nil {
			log.Warnf("send pdf report: %v", err)
		}
	}

	b.send(ctx, chatID, fmt.Sprintf(
		"🎉 Done! The research took %s and covered %d sources.\n\nSend a new topic to start another research.",
		formatDuration(job.CompletedIn), len(job.Sources),
	))
	return nil
}

// NotifyCancelled reports a user-requested stop.
func (b *Bot) NotifyCancelled(ctx context.Context, chatID int64, topic string) error {
	b.finalizeProgress(ctx, chatID, fmt.Sprintf(
		"❌ <b>Research cancelled</b>\n\n📋 <b>Topic:</b> %s\n\nSend a new topic whenever you are ready.",
		html.EscapeString(topic),
	))
	return nil
}

// NotifyFailed reports a pipeline failure.
func (b *Bot) NotifyFailed(ctx context.Context, chatID int64, topic string, cause error) error {
	b.log.WithField(logger.FieldChatID, chatID).Errorf("research failed: %v", cause)
	b.finalizeProgress(ctx, chatID, fmt.Sprintf(
		"⚠️ <b>Research failed</b>\n\n📋 <b>Topic:</b> %s\n\nSomething went wrong on our side. Please try again later.",
		html.EscapeString(topic),
	))
	return nil
}

// finalizeProgress replaces the tracked progress message with a terminal
// text and stops tracking it.
func (b *Bot) finalizeProgress(ctx context.Context, chatID int64, text string) {
	msgID, ok := b.getProgressMsg(chatID)
	b.clearProgressMsg(chatID)
	if ok {
		if err := b.client.EditMessageText(ctx, chatID, msgID, text); err == nil || isNotModified(err) {
			return
		}
	}
	b.send(ctx, chatID, text)
}

// send delivers a message and logs delivery failures.
func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if _, err := b.client.SendMessage(ctx, chatID, text); err != nil {
		b.log.WithField(logger.FieldChatID, chatID).Errorf("send message: %v", err)
	}
}

func (b *Bot) getProgressMsg(chatID int64) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.progressMsg[chatID]
	return id, ok
}

func (b *Bot) setProgressMsg(chatID, messageID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.progressMsg[chatID] = messageID
}

func (b *Bot) clearProgressMsg(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.progressMsg, chatID)
}

// splitCommand separates "/cmd arg text" into the command and its
// argument string. Bot-name suffixes like /status@mybot are stripped.
func splitCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	command := text
	args := ""
	if i := strings.IndexAny(text, " \n"); i >= 0 {
		command = text[:i]
		args = strings.TrimSpace(text[i+1:])
	}
	if i := strings.Index(command, "@"); i >= 0 {
		command = command[:i]
	}
	return strings.ToLower(command), args
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// isNotModified recognizes Telegram's benign edit rejection when the new
// text equals the current one.
func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
