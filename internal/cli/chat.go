// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Plain-terminal chat REPL for MediGuide.
//
// Runs the conversation session without the full-screen interface. Used when
// --plain is passed or when the terminal cannot host the TUI (piped output,
// dumb terminals). Input history and line editing come from liner.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/mediguide/mediguide-tui/internal/config"
	"github.com/mediguide/mediguide-tui/internal/gateway"
	"github.com/mediguide/mediguide-tui/internal/model"
	"github.com/mediguide/mediguide-tui/internal/session"
	"github.com/mediguide/mediguide-tui/internal/storage"
	"github.com/mediguide/mediguide-tui/internal/ui/components"
	"github.com/mediguide/mediguide-tui/internal/ui/styles"
	"github.com/mediguide/mediguide-tui/internal/upload"
	"github.com/mediguide/mediguide-tui/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Teal).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Teal).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(styles.Teal).
			Bold(true)
)

// sendTimeout bounds a single send round trip, matching the TUI.
const sendTimeout = 90 * time.Second

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for the plain chat mode.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with persistent input history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dataDir, err := config.DataDir()
	if err != nil {
		dataDir = os.TempDir()
	}
	historyFile := filepath.Join(dataDir, "chat_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with history navigation.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions. Symptom
// descriptions are health data; other users on the machine must not read
// them.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureDataDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// Directory is the gateway subset the REPL needs beyond the chat session.
type Directory interface {
	GetAllSpecialists(ctx context.Context) ([]gateway.Specialist, error)
}

// REPL drives a conversation session from a line-oriented prompt.
type REPL struct {
	session   *session.Manager
	store     *storage.ConversationStore
	directory Directory
	logger    *zap.Logger

	markdown *components.MarkdownRenderer
	input    *ChatCLI
	userName string

	startTime  time.Time
	sends      int
	recPrinted bool

	// cancel aborts the in-flight send on Ctrl+C.
	cancel context.CancelFunc
}

// NewREPL creates a plain-terminal chat REPL. logger may be nil.
func NewREPL(sess *session.Manager, store *storage.ConversationStore, directory Directory, logger *zap.Logger) *REPL {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &REPL{
		session:   sess,
		store:     store,
		directory: directory,
		logger:    logger,
		markdown:  components.NewMarkdownRenderer(),
		startTime: time.Now(),
	}
}

// SetUserName sets the name shown in the welcome banner.
func (r *REPL) SetUserName(name string) {
	r.userName = name
}

// Run starts the REPL loop. Returns gateway.ErrSessionExpired when the
// backend rejects the stored token; the caller should re-login.
func (r *REPL) Run(ctx context.Context) error {
	r.input = NewChatCLI()
	defer r.input.Close()

	r.printWelcome()

	// First Ctrl+C cancels the in-flight send; at the prompt liner turns it
	// into ErrPromptAborted which exits.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if r.cancel != nil {
				r.cancel()
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := r.input.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C (ErrPromptAborted) or Ctrl+D exit gracefully.
			fmt.Println()
			r.printExitSummary()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			cont, err := r.handleSlashCommand(ctx, input)
			if err != nil {
				if errors.Is(err, gateway.ErrSessionExpired) {
					return err
				}
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !cont {
				r.printExitSummary()
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			r.printExitSummary()
			return nil
		}

		if err := r.sendText(ctx, input); err != nil {
			if errors.Is(err, gateway.ErrSessionExpired) {
				return err
			}
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// sendText sends a chat message and prints the reply.
func (r *REPL) sendText(ctx context.Context, text string) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	r.cancel = cancel
	defer func() {
		r.cancel = nil
		cancel()
	}()

	start := time.Now()
	reply, err := r.session.SendText(sendCtx, text)
	if err != nil {
		return err
	}

	r.sends++
	r.printReply(reply, time.Since(start))
	r.afterSend()
	return nil
}

// sendImage attaches an image from disk and sends it for analysis.
func (r *REPL) sendImage(ctx context.Context, path, caption string) error {
	img, err := upload.Open(path)
	if err != nil {
		if errors.Is(err, upload.ErrTooLarge) {
			return errors.New("The image is too large. Please upload an image smaller than 5MB.")
		}
		if errors.Is(err, upload.ErrNotAnImage) {
			return errors.New("Please upload a valid image file (JPEG, PNG, etc.).")
		}
		return err
	}

	fmt.Fprintf(os.Stderr, "%s %s (%s)\n",
		infoStyle.Render("[Analyzing]"),
		img.Name,
		formatBytes(img.Size))

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	r.cancel = cancel
	defer func() {
		r.cancel = nil
		cancel()
	}()

	start := time.Now()
	reply, err := r.session.SendImage(sendCtx, caption, img)
	if err != nil {
		img.ReleasePreview()
		return err
	}

	r.sends++
	r.printReply(reply, time.Since(start))
	r.afterSend()
	return nil
}

// printReply renders an assistant reply. Markdown on a TTY, wrapped plain
// text otherwise. Error bubbles get the error style.
func (r *REPL) printReply(reply *model.Message, elapsed time.Duration) {
	if reply == nil {
		return
	}

	fmt.Println()
	if reply.IsError {
		fmt.Println(errorStyle.Render("medibot:") + " " + reply.Text)
		fmt.Println()
		return
	}

	label := "medibot:"
	if reply.IsImageAnalysis {
		label = "medibot (image analysis):"
	}
	fmt.Println(headerStyle.Render(label))

	if IsStdoutTTY() {
		fmt.Println(r.markdown.Render(reply.Text, TerminalWidth()-2))
	} else {
		fmt.Println(reply.Text)
	}

	fmt.Fprintf(os.Stderr, "%s %s\n",
		infoStyle.Render("[Stats]"),
		elapsed.Round(time.Millisecond))
	fmt.Println()
}

// afterSend prints any specialist recommendation and mirrors the
// conversation into local storage. The recommendation is printed once per
// conversation; the latch keeps it set for the rest of the session.
func (r *REPL) afterSend() {
	if rec := r.session.Recommendation(); rec != nil && rec.Triggered && !r.recPrinted {
		r.printRecommendation(rec)
		r.recPrinted = true
	}
	r.saveConversation()
}

// printRecommendation renders the specialist recommendation banner.
func (r *REPL) printRecommendation(rec *session.Recommendation) {
	fmt.Println(warningStyle.Render("Based on your symptoms, you may want to consult:"))
	for _, s := range rec.Specialists {
		line := fmt.Sprintf("  %s - %s", s.Name, s.Specialty)
		if s.Verified {
			line += " " + commandStyle.Render("[verified]")
		}
		fmt.Println(line)
	}
	if rec.Analysis != "" {
		fmt.Println(infoStyle.Render("  " + rec.Analysis))
	}
	fmt.Println()
}

// saveConversation mirrors the session into the local store. Failures are
// logged and swallowed; local history is best effort.
func (r *REPL) saveConversation() {
	if r.store == nil || r.session.MessageCount() == 0 {
		return
	}
	stored := &storage.StoredConversation{
		ID:       r.session.ConversationID(),
		Messages: r.session.Messages(),
		Topics:   r.session.Topics(),
	}
	if _, err := r.store.Save(stored); err != nil {
		r.logger.Warn("conversation save failed", zap.Error(err))
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands. Returns (shouldContinue, err)
// where shouldContinue=false means exit.
func (r *REPL) handleSlashCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		r.printHelp()
		return true, nil

	case "/new", "/n":
		r.session.StartNewChat()
		r.recPrinted = false
		fmt.Println(commandStyle.Render("[Started a new conversation]"))
		return true, nil

	case "/image", "/i":
		if len(args) == 0 {
			return true, errors.New("usage: /image PATH [caption...]")
		}
		caption := strings.Join(args[1:], " ")
		return true, r.sendImage(ctx, args[0], caption)

	case "/history":
		r.printHistory()
		return true, nil

	case "/topics":
		r.printTopics()
		return true, nil

	case "/specialists":
		return true, r.printSpecialists(ctx)

	case "/export":
		path := "conversation.md"
		if len(args) > 0 {
			path = args[0]
		}
		return true, r.exportConversation(path)

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// printWelcome prints the banner shown at startup.
func (r *REPL) printWelcome() {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("MediGuide"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))

	greeting := "Describe your symptoms and MediBot will help you understand them."
	if r.userName != "" {
		fmt.Printf("%s %s\n", infoStyle.Render("Signed in as:"), commandStyle.Render(r.userName))
	}
	fmt.Println(infoStyle.Render(greeting))
	fmt.Println()
	fmt.Println(warningStyle.Render("MediBot is not a substitute for professional medical advice."))
	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printHelp prints the slash command reference.
func (r *REPL) printHelp() {
	fmt.Println()
	fmt.Println(headerStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/new, /n", "Start a new conversation"},
		{"/image PATH", "Attach an image and send it for analysis"},
		{"/history", "Show the current conversation"},
		{"/topics", "Show topics detected so far"},
		{"/specialists", "List all available specialists"},
		{"/export [path]", "Export the conversation as Markdown"},
		{"/quit, /q", "Exit"},
	}
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-14s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+C cancels the current send, Ctrl+D exits"))
	fmt.Println()
}

// printHistory prints the current conversation transcript.
func (r *REPL) printHistory() {
	messages := r.session.Messages()
	if len(messages) == 0 {
		fmt.Println(infoStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Conversation"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	for i, msg := range messages {
		role := "medibot"
		roleStyled := headerStyle.Render(role)
		if msg.Role == model.RoleUser {
			roleStyled = promptStyle.Render("you")
		} else if msg.IsError {
			roleStyled = errorStyle.Render(role)
		}

		content := strings.ReplaceAll(msg.Text, "\n", " ")
		runes := []rune(content)
		if len(runes) > 100 {
			content = string(runes[:100]) + "..."
		}
		if msg.HasImage() {
			content = "[img] " + content
		}

		fmt.Printf("  %d. %s: %s\n", i+1, roleStyled, content)
	}
	fmt.Println()
}

// printTopics prints the accumulated health topics.
func (r *REPL) printTopics() {
	topics := r.session.Topics()
	if len(topics) == 0 {
		fmt.Println(infoStyle.Render("[No topics detected yet]"))
		return
	}
	fmt.Printf("%s %s\n",
		infoStyle.Render("[Topics]"),
		commandStyle.Render(strings.Join(topics, ", ")))
}

// exportConversation writes the current conversation as Markdown.
func (r *REPL) exportConversation(path string) error {
	if r.session.MessageCount() == 0 {
		return errors.New("nothing to export yet")
	}

	stored := &storage.StoredConversation{
		ID:       r.session.ConversationID(),
		Messages: r.session.Messages(),
		Topics:   r.session.Topics(),
	}
	if err := util.AtomicWriteFile(path, []byte(stored.ExportMarkdown()), 0644); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Printf("%s Exported to %s\n", commandStyle.Render("[OK]"), path)
	return nil
}

// printSpecialists lists the full specialist directory.
func (r *REPL) printSpecialists(ctx context.Context) error {
	if r.directory == nil {
		return errors.New("specialist directory is not available")
	}

	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	specialists, err := r.directory.GetAllSpecialists(reqCtx)
	if err != nil {
		return err
	}
	if len(specialists) == 0 {
		fmt.Println(infoStyle.Render("[No specialists available]"))
		return nil
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Specialists"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()
	for _, s := range specialists {
		line := fmt.Sprintf("  %-24s %s", s.Name, s.Specialty)
		if s.Rating > 0 {
			line += fmt.Sprintf("  %.1f*", s.Rating)
		}
		if s.Verified {
			line += " " + commandStyle.Render("[verified]")
		}
		fmt.Println(line)
	}
	fmt.Println()
	return nil
}

// printExitSummary prints the session summary on exit.
func (r *REPL) printExitSummary() {
	if r.sends == 0 {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}

	elapsed := time.Since(r.startTime).Round(time.Second)

	fmt.Println()
	fmt.Println(headerStyle.Render("Session Summary"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))
	fmt.Printf("  %s %d\n", infoStyle.Render("Messages sent:"), r.sends)
	if topics := r.session.Topics(); len(topics) > 0 {
		fmt.Printf("  %s %s\n", infoStyle.Render("Topics:"), strings.Join(topics, ", "))
	}
	fmt.Printf("  %s %s\n", infoStyle.Render("Duration:"), elapsed.String())
	fmt.Println()
	fmt.Println(infoStyle.Render("Goodbye!"))
}

// formatBytes formats a byte count for display.
func formatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
