// MediGuide TUI - A terminal client for the MediGuide health assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/mediguide/mediguide-tui/internal/auth"
	"github.com/mediguide/mediguide-tui/internal/cli"
	"github.com/mediguide/mediguide-tui/internal/config"
	"github.com/mediguide/mediguide-tui/internal/feedcache"
	"github.com/mediguide/mediguide-tui/internal/gateway"
	"github.com/mediguide/mediguide-tui/internal/logging"
	"github.com/mediguide/mediguide-tui/internal/session"
	"github.com/mediguide/mediguide-tui/internal/storage"
	"github.com/mediguide/mediguide-tui/internal/ui/chat"
	"github.com/mediguide/mediguide-tui/internal/ui/login"
	"github.com/mediguide/mediguide-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		plainMode   = flag.Bool("plain", false, "run the line-oriented chat instead of the full-screen interface")
		configPath  = flag.String("config", "", "path to config file (default ~/.mediguide/config.toml)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("mediguide %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	app, err := bootstrap(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	if *plainMode || !cli.CanRunTUI() {
		if err := runPlain(app); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runTUI(app); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// BOOTSTRAP
// =============================================================================

// app holds the wired application dependencies shared by both modes.
type app struct {
	cfg       *config.Config
	cfgPath   string
	logger    *zap.Logger
	authStore *auth.Store
	client    *gateway.Client
	store     *storage.ConversationStore
	cache     *feedcache.Cache
	session   *session.Manager
}

// bootstrap loads configuration and wires the gateway client, credential
// store, local storage, and the conversation session.
func bootstrap(configPath string) (*app, error) {
	var err error
	if configPath == "" {
		configPath, err = config.ConfigPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		return nil, err
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}

	logPath, err := cfg.ResolveLogPath()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logPath, cfg.Logging.Level)
	if err != nil {
		// The log file is not worth refusing to start over.
		logger = zap.NewNop()
	}

	authStore, err := auth.NewStore(dataDir)
	if err != nil {
		return nil, err
	}

	client := gateway.NewClient(cfg.Gateway.BaseURL, authStore).
		WithTimeout(time.Duration(cfg.Gateway.TimeoutSecs) * time.Second).
		WithRateLimit(cfg.Gateway.RequestsPerMinute).
		WithLogger(logger)

	store, err := storage.NewConversationStore(dataDir)
	if err != nil {
		return nil, err
	}
	store.MaxConversations = cfg.Storage.MaxConversations

	var cache *feedcache.Cache
	if cfg.Storage.FeedCacheEnabled {
		cache, err = feedcache.Open(filepath.Join(dataDir, "feed.db"))
		if err != nil {
			logger.Warn("feed cache unavailable", zap.Error(err))
			cache = nil
		}
	}

	sess := session.NewManager(client, logger).
		WithContextTuning(cfg.Chat.MinContextChars, cfg.Chat.ContextReplyPrefix)

	return &app{
		cfg:       cfg,
		cfgPath:   configPath,
		logger:    logger,
		authStore: authStore,
		client:    client,
		store:     store,
		cache:     cache,
		session:   sess,
	}, nil
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
	a.logger.Sync()
}

// =============================================================================
// FULL-SCREEN MODE
// =============================================================================

func runTUI(a *app) error {
	// "auto" keeps lipgloss's terminal background detection; an explicit
	// theme pins the adaptive palette to one side.
	switch strings.ToLower(a.cfg.UI.Theme) {
	case "dark":
		lipgloss.DefaultRenderer().SetHasDarkBackground(true)
	case "light":
		lipgloss.DefaultRenderer().SetHasDarkBackground(false)
	}

	theme := styles.NewTheme()
	root := newRootModel(a, theme)

	p := tea.NewProgram(
		root,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Live config reload: edits to the config file show up as a status note.
	// Connection settings still require a restart.
	watcher, err := config.NewWatcher(a.cfgPath, func(cfg *config.Config) {
		a.logger.Info("config reloaded", zap.String("path", a.cfgPath))
		p.Send(chat.StatusMsg{Text: "Configuration reloaded (connection settings apply after restart)"})
	})
	if err == nil {
		defer watcher.Close()
	}

	_, err = p.Run()
	return err
}

// rootState selects which screen owns the terminal.
type rootState int

const (
	stateLogin rootState = iota
	stateChat
)

// rootModel switches between the login screen and the chat view, and owns
// the session-expiry transition between them.
type rootModel struct {
	app   *app
	theme *styles.Theme
	state rootState

	login login.Model
	chat  chat.Model

	width  int
	height int
}

func newRootModel(a *app, theme *styles.Theme) rootModel {
	m := rootModel{
		app:   a,
		theme: theme,
		login: login.New(theme, a.client),
		chat:  chat.New(theme, a.session, a.store, a.client, a.cache, a.logger),
	}
	m.chat.SetDisplayOptions(a.cfg.UI.ShowTimestamps, a.cfg.UI.CompactMode)

	if a.authStore.LoggedIn() {
		m.state = stateChat
		if user := a.authStore.Current(); user != nil {
			m.chat.SetUserName(user.Name)
		}
	}
	return m
}

func (m rootModel) Init() tea.Cmd {
	if m.state == stateChat {
		// Stored credentials may have gone stale since the last run; verify
		// them in the background and force re-login on rejection.
		return tea.Batch(m.chat.Init(), m.verifyProfileCmd())
	}
	return m.login.Init()
}

// profileVerifiedMsg carries a freshly fetched user profile.
type profileVerifiedMsg struct {
	user *gateway.User
}

func (m rootModel) verifyProfileCmd() tea.Cmd {
	client := m.app.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		user, err := client.GetProfile(ctx)
		if errors.Is(err, gateway.ErrSessionExpired) {
			return chat.SessionExpiredMsg{}
		}
		if err != nil || user == nil {
			// Offline start is fine; history still works from the cache.
			return nil
		}
		return profileVerifiedMsg{user: user}
	}
}

func (m rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		var loginCmd, chatCmd tea.Cmd
		m.login, loginCmd = m.login.Update(msg)
		m.chat, chatCmd = m.chat.Update(msg)
		return m, tea.Batch(loginCmd, chatCmd)

	case login.CompleteMsg:
		if msg.Err != nil || msg.Response == nil {
			var cmd tea.Cmd
			m.login, cmd = m.login.Update(msg)
			return m, cmd
		}
		creds := auth.Credentials{Token: msg.Response.Token, User: msg.Response.User}
		if err := m.app.authStore.Save(creds); err != nil {
			m.app.logger.Warn("credential save failed", zap.Error(err))
		}
		m.chat.SetUserName(msg.Response.User.Name)
		m.state = stateChat
		return m, m.chat.Init()

	case profileVerifiedMsg:
		m.chat.SetUserName(msg.user.Name)
		if token := m.app.authStore.Token(); token != "" {
			creds := auth.Credentials{Token: token, User: *msg.user}
			if err := m.app.authStore.Save(creds); err != nil {
				m.app.logger.Warn("credential refresh failed", zap.Error(err))
			}
		}
		return m, nil

	case chat.LogoutMsg:
		if err := m.app.authStore.Clear(); err != nil {
			m.app.logger.Warn("credential clear failed", zap.Error(err))
		}
		m.app.session.StartNewChat()
		m.login = login.New(m.theme, m.app.client)
		m.login, _ = m.login.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		m.state = stateLogin
		return m, m.login.Init()

	case chat.SessionExpiredMsg:
		// The backend rejected the token. Drop credentials and return to
		// the login screen; the conversation state stays intact so a
		// re-login can continue where it left off.
		if err := m.app.authStore.Clear(); err != nil {
			m.app.logger.Warn("credential clear failed", zap.Error(err))
		}
		m.login = login.New(m.theme, m.app.client)
		m.login, _ = m.login.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		m.state = stateLogin
		return m, m.login.Init()
	}

	var cmd tea.Cmd
	switch m.state {
	case stateLogin:
		m.login, cmd = m.login.Update(msg)
	case stateChat:
		m.chat, cmd = m.chat.Update(msg)
	}
	return m, cmd
}

func (m rootModel) View() string {
	if m.state == stateLogin {
		return m.login.View()
	}
	return m.chat.View()
}

// =============================================================================
// PLAIN MODE
// =============================================================================

func runPlain(a *app) error {
	if !a.authStore.LoggedIn() {
		if err := plainLogin(a); err != nil {
			return err
		}
	}

	repl := cli.NewREPL(a.session, a.store, a.client, a.logger)
	if user := a.authStore.Current(); user != nil {
		repl.SetUserName(user.Name)
	}

	err := repl.Run(context.Background())
	if errors.Is(err, gateway.ErrSessionExpired) {
		if clearErr := a.authStore.Clear(); clearErr != nil {
			a.logger.Warn("credential clear failed", zap.Error(clearErr))
		}
		return errors.New("your session has expired; run mediguide again to sign back in")
	}
	return err
}

// plainLogin prompts for a phone number on stdin and stores the credentials.
func plainLogin(a *app) error {
	if !cli.IsTTY() {
		return errors.New("not signed in; run mediguide in a terminal to sign in first")
	}

	reader := bufio.NewReader(os.Stdin)
	for attempts := 0; attempts < 3; attempts++ {
		fmt.Print("Phone number: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		phone := strings.TrimSpace(line)

		if err := gateway.ValidatePhone(phone); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		resp, err := a.client.Login(ctx, phone)
		cancel()
		if err != nil {
			if errors.Is(err, gateway.ErrInvalidPhone) {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				continue
			}
			return fmt.Errorf("login failed: %w", err)
		}

		creds := auth.Credentials{Token: resp.Token, User: resp.User}
		if err := a.authStore.Save(creds); err != nil {
			a.logger.Warn("credential save failed", zap.Error(err))
		}
		fmt.Printf("Signed in as %s\n", resp.User.Name)
		return nil
	}
	return errors.New("too many failed login attempts")
}
