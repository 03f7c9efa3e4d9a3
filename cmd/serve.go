package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"schedule_bot/internal/chat"
	"schedule_bot/internal/config"
	handler "schedule_bot/internal/handlers"
	"schedule_bot/internal/logging"
	"schedule_bot/internal/server"
	"schedule_bot/internal/transport/line"
	"schedule_bot/internal/transport/telegram"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot on the configured chat transport",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

		st, err := openStore(ctx, cfg, log, serveMigrate)
		if err != nil {
			return err
		}
		defer st.Close(context.Background())

		pub, err := openPublisher(cfg, log)
		if err != nil {
			return err
		}
		defer pub.Close()

		assets, err := openAssets(ctx, cfg, log)
		if err != nil {
			return err
		}

		var (
			bot     interface{ Handle(chat.Handler) }
			poll    func(context.Context) error
			webhook gin.HandlerFunc
		)
		deps := handler.Deps{
			Publisher: pub,
			Log:       log,
			Location:  cfg.Location(),
			Prefix:    cfg.CommandPrefix,
		}
		switch cfg.Transport {
		case "telegram":
			tg, err := telegram.New(cfg.BotToken, log)
			if err != nil {
				return err
			}
			bot, poll, deps.Profiles = tg, tg.Run, tg
		case "line":
			ln, err := line.New(cfg.LineChannelSecret, cfg.LineChannelToken, log)
			if err != nil {
				return err
			}
			bot, webhook, deps.Profiles = ln, ln.Webhook, ln
		}

		domains := []handler.Domain{
			handler.NewScheduleDomain(st, deps),
			handler.NewSeminarDomain(st, deps),
			handler.NewWorkshopDomain(st, deps),
		}
		if assets != nil {
			domains = append(domains, handler.NewImageDomain(st, assets, deps))
		}
		bot.Handle(handler.NewDispatcher(handler.Options{
			Prefix:    cfg.CommandPrefix,
			MaxArgLen: cfg.MaxArgumentLength,
			Log:       log,
		}, domains...))

		gin.SetMode(gin.ReleaseMode)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.New(cfg.HTTPAddr, log, webhook).Run(gctx)
		})
		if poll != nil {
			g.Go(func() error {
				return poll(gctx)
			})
		}
		log.Info("bot started", "transport", cfg.Transport, "store", cfg.StoreDriver)
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply database migrations before serving (postgres only)")
}
