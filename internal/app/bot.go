package app

import (
	"context"
	"log/slog"

	"github.com/m3rciful/voicequotes/core/logger"
	tg "github.com/m3rciful/voicequotes/core/telegram"
	"github.com/m3rciful/voicequotes/core/telegram/commands"
	"github.com/m3rciful/voicequotes/core/telegram/router"
	tgsender "github.com/m3rciful/voicequotes/core/telegram/sender"
	"github.com/m3rciful/voicequotes/internal/conversation"
	"github.com/m3rciful/voicequotes/internal/transport"
)

// callbackActions are the inline button names routed to the conversation.
var callbackActions = []string{
	conversation.ActionMenu,
	conversation.ActionAddQuote,
	conversation.ActionAddAdmin,
	conversation.ActionFinish,
	conversation.ActionListQuotes,
	conversation.ActionDeleteQuote,
	conversation.ActionListAdmins,
	conversation.ActionRemoveAdmin,
}

// Bot is the running quote bot.
type Bot struct {
	app        *App
	sender     *tgsender.Dispatcher
	channel    *transport.Channel
	dispatcher *conversation.Dispatcher
	reconciler *conversation.Reconciler
	handler    *transport.Handler
	registry   *tg.Registry
}

// NewBot builds the conversation layer on top of the storage.
func NewBot(a *App) *Bot {
	cfg := a.cfg
	sender := tgsender.NewDispatcher(tgsender.Options{MaxRetries: 2})
	channel := transport.NewChannel(cfg.Quotes.ChannelID, sender)

	machine := conversation.NewMachine(conversation.Deps{
		Sessions: a.Sessions,
		Quotes:   a.Quotes,
		Admins:   a.Admins,
		Journal:  a.Journal,
		Channel:  channel,
		PageSize: cfg.Quotes.PageSize,
	})
	search := conversation.NewSearcher(a.Quotes, cfg.Quotes.InlineCacheSeconds)
	dispatcher := conversation.NewDispatcher(a.Sessions, a.Admins, machine, search)

	b := &Bot{
		app:        a,
		sender:     sender,
		channel:    channel,
		dispatcher: dispatcher,
		reconciler: conversation.NewReconciler(a.Sessions, a.Quotes, a.Journal, channel),
		handler:    transport.NewHandler(dispatcher),
	}
	b.registry = b.buildRegistry()
	b.handler.UseCommands(b.registry)
	return b
}

// Registry returns the bot commands and callback keys.
func (b *Bot) Registry() *tg.Registry {
	return b.registry
}

func (b *Bot) buildRegistry() *tg.Registry {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     b.handler.Handle,
		Description: "Open the admin menu",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     b.handler.Handle,
		Description: "Cancel the current action",
		Aliases:     []string{"stop"},
	})
	for _, name := range callbackActions {
		_ = reg.RegisterCallback(name, b.handler.Handle)
	}
	return reg
}

// TelegramRunOptions implements cmd.TelegramApp.
func (b *Bot) TelegramRunOptions() (tg.RunOptions, error) {
	cfg := b.app.cfg
	reg := b.Registry()

	routes := router.CommandRoutes(reg)
	routes = append(routes, router.MessageRoutes(b.handler.Handle, reg, router.MessageOptions{})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}), router.QueryRoute(b.handler.Handle))

	return tg.RunOptions{
		Config:      &cfg.Config,
		Registry:    reg,
		Dispatcher:  b.sender,
		Middlewares: tg.DefaultMiddlewares(&cfg.Config, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			b.channel.Bind(rt.Bot)
			go b.reconciler.Run(ctx, cfg.Quotes.SweepInterval())
			return nil
		},
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			b.channel.Bind(nil)
			if err := b.app.Close(); err != nil {
				logger.Warn(ctx, "app", "close.fail", slog.String("err", err.Error()))
			}
			return nil
		},
	}, nil
}

// Close stops the outbound sender. RunTelegram closes it on its own.
func (b *Bot) Close() {
	b.sender.Close()
}

// Dispatcher exposes the event dispatcher.
func (b *Bot) Dispatcher() *conversation.Dispatcher {
	return b.dispatcher
}

// Reconciler exposes the pending broadcast sweep.
func (b *Bot) Reconciler() *conversation.Reconciler {
	return b.reconciler
}

// BindChannel attaches a bot API to the broadcast channel outside RunTelegram.
func (b *Bot) BindChannel(api transport.BotAPI) {
	b.channel.Bind(api)
}
