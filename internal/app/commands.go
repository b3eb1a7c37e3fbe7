package app

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"roboclic/internal/domain"
)

const (
	noStats       = "No stat available"
	notACommand   = "Not a command"
	progressTiles = 25
)

// OfficeQuestion and OfficeOptions make up the regular /bureau poll.
var (
	OfficeQuestion = "Qui est au bureau ?"
	OfficeOptions  = []string{
		"Je suis actuellement au bureau",
		"Je suis autour du bureau",
		"Je compte m'y rendre bientôt",
		"J'y suis pas",
	}
)

// QuoteSource names a quote file served by a command.
type QuoteSource struct {
	Command    string
	Capitalize bool
}

// CommandsConfig gathers the static knobs of the reply commands.
type CommandsConfig struct {
	Quotes      []QuoteSource
	Countdowns  map[string]time.Time
	Location    *time.Location
	PhoneNumber string
	HelpTexts   map[string]string
}

// Commands implements the reply commands around the guess game.
type Commands struct {
	res       *Resources
	builder   *QuizBuilder
	ledger    *Ledger
	lines     LineRepository
	messenger Messenger
	cfg       CommandsConfig
	logger    *slog.Logger
	now       func() time.Time
	intn      func(int) int
}

func NewCommands(res *Resources, builder *QuizBuilder, ledger *Ledger, lines LineRepository, messenger Messenger, cfg CommandsConfig, logger *slog.Logger) *Commands {
	if logger == nil {
		logger = discardLogger()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Commands{
		res:       res,
		builder:   builder,
		ledger:    ledger,
		lines:     lines,
		messenger: messenger,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		intn:      rand.IntN,
	}
}

// QuoteGame asks who wrote a random corpus line; every source is an option.
func (c *Commands) QuoteGame(ctx context.Context, chatID int64) (domain.Quiz, error) {
	block := c.res.Corpus.SampleBlock()
	source, line := c.res.Corpus.SampleLine(block)
	quiz, err := DirectAttribution(
		fmt.Sprintf("Qui est l'auteur de la punchline qui suit ?\n\"%s\"", line),
		source, c.res.Corpus.Sources())
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := c.messenger.SendQuiz(ctx, chatID, quiz, false); err != nil {
		return domain.Quiz{}, fmt.Errorf("send quote quiz: %w", err)
	}
	return quiz, nil
}

// BirthdayGame asks whose birthday a random date is.
func (c *Commands) BirthdayGame(ctx context.Context, chatID int64) (domain.Quiz, error) {
	ids := c.res.Birthdays.IDs()
	if len(ids) == 0 {
		return domain.Quiz{}, domain.ErrNoBirthdays
	}
	id := ids[c.intn(len(ids))]
	p, ok := c.res.Participants.Lookup(id)
	if !ok {
		return domain.Quiz{}, fmt.Errorf("%w: %q", domain.ErrUnknownParticipant, id)
	}
	date, _ := c.res.Birthdays.Date(id)

	quiz, err := c.builder.Bounded(fmt.Sprintf("Qui est né le %s ?", date), p.Name, c.res.Participants.Names())
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := c.messenger.SendQuiz(ctx, chatID, quiz, false); err != nil {
		return domain.Quiz{}, fmt.Errorf("send birthday quiz: %w", err)
	}
	return quiz, nil
}

// StatsText renders the whole leaderboard, or one participant when args is set.
func (c *Commands) StatsText(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 {
		name, score, err := c.ledger.Lookup(ctx, args[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s: %d", name, score), nil
	}

	lb, err := c.ledger.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	if len(lb.Entries) == 0 {
		return noStats, nil
	}
	var b strings.Builder
	for _, e := range lb.Entries {
		fmt.Fprintf(&b, "%s: %d\n", e.DisplayName, e.Score)
	}
	return b.String(), nil
}

// QuoteText picks a random line of the quote file behind command.
func (c *Commands) QuoteText(ctx context.Context, command string) (string, error) {
	lines, err := c.lines.Lines(ctx, command)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("quote file %q is empty", command)
	}
	line := lines[c.intn(len(lines))]
	for _, q := range c.cfg.Quotes {
		if q.Command == command && q.Capitalize {
			return capitalize(line), nil
		}
	}
	return line, nil
}

// IsQuote reports whether command serves a quote file.
func (c *Commands) IsQuote(command string) bool {
	for _, q := range c.cfg.Quotes {
		if q.Command == command {
			return true
		}
	}
	return false
}

// CountdownText returns "<d>j <h>h <m>m" until the countdown's date.
func (c *Commands) CountdownText(command string) (string, bool) {
	target, ok := c.cfg.Countdowns[command]
	if !ok {
		return "", false
	}
	return FormatCountdown(target.Sub(c.now())), true
}

// FormatCountdown splits d into days, hours and minutes. Like a floored
// division, a negative duration yields negative days and positive remainders.
func FormatCountdown(d time.Duration) string {
	secs := int64(math.Floor(d.Seconds()))
	days := secs / 86400
	rem := secs % 86400
	if rem < 0 {
		days--
		rem += 86400
	}
	return fmt.Sprintf("%dj %dh %dm", days, rem/3600, rem%3600/60)
}

// YearText shows how much of the current year has elapsed.
func (c *Commands) YearText() string {
	return YearProgress(c.now(), c.cfg.Location)
}

// YearProgress is measured from Jan 1 00:00 to Dec 31 23:59 in loc.
func YearProgress(now time.Time, loc *time.Location) string {
	today := now.In(loc)
	start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, loc)
	end := time.Date(today.Year(), time.December, 31, 23, 59, 0, 0, loc)

	passed := math.Floor(today.Sub(start).Seconds())
	total := end.Sub(start).Seconds()
	percent := math.Max(0, passed/total*100)
	return fmt.Sprintf("%.2f%%\n%s", percent, ProgressBar(percent))
}

// ProgressBar draws percent as 25 tiles.
func ProgressBar(percent float64) string {
	tiles := min(progressTiles, int(math.RoundToEven(percent/4)))
	tiles = max(tiles, 0)
	return "[" + strings.Repeat("#", tiles) + strings.Repeat("-", progressTiles-tiles) + "]"
}

// PhoneText is the phone-number joke addressed to who.
func (c *Commands) PhoneText(who string) string {
	return fmt.Sprintf("%s le téléphone du %s !", c.cfg.PhoneNumber, who)
}

// Office sends the regular presence poll.
func (c *Commands) Office(ctx context.Context, chatID int64) error {
	if err := c.messenger.SendPoll(ctx, chatID, OfficeQuestion, OfficeOptions); err != nil {
		return fmt.Errorf("send office poll: %w", err)
	}
	return nil
}

// HelpText lists commands, or explains args[0].
func (c *Commands) HelpText(args []string, commands []string) string {
	if len(args) > 0 {
		if text, ok := c.cfg.HelpTexts[strings.TrimPrefix(args[0], "/")]; ok {
			return text
		}
		return notACommand
	}
	sorted := append([]string(nil), commands...)
	sort.Strings(sorted)
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, cmd := range sorted {
		b.WriteString("/" + cmd + "\n")
	}
	b.WriteString("Use help 'command_name' for more info")
	return b.String()
}

// Configured lists the quote and countdown commands, sorted.
func (c *Commands) Configured() []string {
	names := make([]string, 0, len(c.cfg.Quotes)+len(c.cfg.Countdowns))
	for _, q := range c.cfg.Quotes {
		names = append(names, q.Command)
	}
	for name := range c.cfg.Countdowns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
