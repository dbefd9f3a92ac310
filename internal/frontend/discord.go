// Package frontend connects chat surfaces to the assistant. The Discord
// front-end maps each channel to its own session so conversations (and
// their event memories) never bleed into each other.
package frontend

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/arman-dogru/baklava-bot/internal/assistant"
	"github.com/arman-dogru/baklava-bot/internal/logging"
	"github.com/arman-dogru/baklava-bot/internal/store"
	"github.com/arman-dogru/baklava-bot/internal/types"
)

// DiscordConfig holds Discord connection settings
type DiscordConfig struct {
	Token     string
	ChannelID string // optional: restrict to one channel
}

// Discord is a chat front-end over a Discord bot account
type Discord struct {
	session   *discordgo.Session
	channelID string
	botID     string
	assistant *assistant.Assistant
	store     *store.Store // optional transcript persistence

	mu       sync.Mutex
	sessions map[string]*assistant.Session // channel ID -> session
}

// NewDiscord creates a Discord front-end. The store may be nil, in which
// case transcripts live only in memory.
func NewDiscord(cfg DiscordConfig, asst *assistant.Assistant, st *store.Store) (*Discord, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create Discord session: %w", err)
	}

	d := &Discord{
		session:   session,
		channelID: cfg.ChannelID,
		assistant: asst,
		store:     st,
		sessions:  make(map[string]*assistant.Session),
	}

	session.AddHandler(d.handleMessage)
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	return d, nil
}

// Start connects to Discord and begins listening
func (d *Discord) Start() error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("open Discord connection: %w", err)
	}

	d.botID = d.session.State.User.ID
	logging.Info("discord", "connected as %s", d.session.State.User.Username)
	return nil
}

// Stop disconnects from Discord
func (d *Discord) Stop() error {
	return d.session.Close()
}

// handleMessage runs one assistant turn per incoming user message
func (d *Discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore messages from self
	if m.Author.ID == d.botID {
		return
	}
	// Only process messages from the configured channel (if set)
	if d.channelID != "" && m.ChannelID != d.channelID {
		return
	}

	logging.Info("discord", "message from %s: %s", m.Author.Username, logging.Truncate(m.Content, 50))

	// Turns can take several model calls; don't block the gateway handler
	go d.runTurn(m.ChannelID, m.Content)
}

func (d *Discord) runTurn(channelID, content string) {
	ctx := context.Background()
	session := d.sessionFor(ctx, channelID)

	d.session.ChannelTyping(channelID)
	reply := d.assistant.HandleTurn(ctx, session, content)

	if d.store != nil {
		d.persist(ctx, session.ID, content, reply)
	}

	if _, err := d.session.ChannelMessageSend(channelID, reply); err != nil {
		logging.Error("discord", "send reply: %v", err)
	}
}

// sessionFor returns the channel's session, resuming a stored transcript
// when one exists
func (d *Discord) sessionFor(ctx context.Context, channelID string) *assistant.Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	if sess, ok := d.sessions[channelID]; ok {
		return sess
	}

	sess := d.assistant.NewSession()
	if d.store != nil {
		if prevID, err := d.store.SessionForChannel(ctx, channelID); err == nil && prevID != "" {
			if history, err := d.store.History(ctx, prevID); err == nil && len(history) > 0 {
				sess.Seed(history)
				logging.Info("discord", "resumed %d message(s) for channel %s", len(history), channelID)
			}
		}
		if err := d.store.EnsureSession(ctx, sess.ID, channelID); err != nil {
			logging.Error("discord", "record session: %v", err)
		}
	}

	d.sessions[channelID] = sess
	return sess
}

func (d *Discord) persist(ctx context.Context, sessionID, userText, botText string) {
	if err := d.store.AppendMessage(ctx, sessionID, types.ChatMessage{Sender: types.SenderUser, Text: userText}); err != nil {
		logging.Error("discord", "persist user message: %v", err)
	}
	if err := d.store.AppendMessage(ctx, sessionID, types.ChatMessage{Sender: types.SenderBot, Text: botText}); err != nil {
		logging.Error("discord", "persist bot message: %v", err)
	}
}
