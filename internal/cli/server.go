package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"roboclic/internal/app"
	"roboclic/internal/config"
	"roboclic/internal/infra/file"
	"roboclic/internal/telegram"
	transport "roboclic/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the bot.
func NewStartCmd(configPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the bot and the leaderboard feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), *configPath, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "leaderboard feed address, overrides server.addr")
	return cmd
}

func runBot(ctx context.Context, configPath, addrFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Telegram.Token == "" && cfg.Telegram.APIURL == "" {
		return errors.New("telegram token not configured")
	}
	if addrFlag != "" {
		cfg.Server.Addr = addrFlag
	}
	logger := newLogger(cfg, os.Stdout)

	res, err := loadResources(cfg)
	if err != nil {
		return fmt.Errorf("loading resources: %w", err)
	}
	helpTexts := map[string]string{}
	if cfg.Data.HelpTexts != "" {
		if helpTexts, err = file.LoadHelpTexts(cfg.Data.HelpTexts); err != nil {
			return fmt.Errorf("loading resources: %w", err)
		}
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	countdowns, err := cfg.CountdownTargets(loc)
	if err != nil {
		return err
	}
	logger.Info("resources loaded",
		"participants", res.Participants.Len(),
		"corpus_blocks", res.Corpus.Blocks(),
		"sources", len(res.Corpus.Sources()))

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	client := telegram.NewClient(cfg.Telegram.Token)
	if cfg.Telegram.APIURL != "" {
		client = telegram.NewClientWithBaseURL(cfg.Telegram.APIURL, nil)
	}
	delivery := telegram.NewDelivery(client)

	builder := app.NewQuizBuilder(cfg.Quiz.OptionLimit, cfg.Quiz.ShuffleSmallPool)
	ledger := app.NewLedger(st.scores, res.Participants, logger)
	guess := app.NewGuessService(res, builder, st.sessions, ledger, delivery, app.GuessConfig{
		ScoreChats:  cfg.Chats.Scored,
		AdminChatID: cfg.Chats.Admin,
	}, logger)

	quotes := make([]app.QuoteSource, 0, len(cfg.Data.Quotes))
	for _, q := range cfg.Data.Quotes {
		quotes = append(quotes, app.QuoteSource{Command: q.Command, Capitalize: q.Capitalize})
	}
	commands := app.NewCommands(res, builder, ledger, lineRepository(cfg), delivery, app.CommandsConfig{
		Quotes:      quotes,
		Countdowns:  countdowns,
		Location:    loc,
		PhoneNumber: cfg.PhoneNumber,
		HelpTexts:   helpTexts,
	}, logger)

	handler := telegram.NewUpdateHandler(client, delivery, guess, commands, cfg.Telegram.BotName, logger)
	poller := telegram.NewPoller(client, handler, config.TTLDuration(cfg.Telegram.PollTimeout, 25*time.Second), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poller.Run(gctx)
	})

	if cfg.Server.Addr != "" {
		srv := transport.NewServer(cfg.Server.Addr, ledger, logger)
		g.Go(func() error {
			return srv.Run(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down http server")
			return srv.Shutdown(context.Background())
		})
	}

	err = g.Wait()
	logger.Info("bot stopped")
	return err
}
