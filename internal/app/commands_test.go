package app

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"roboclic/internal/domain"
	"roboclic/internal/infra/memory"
)

func newTestCommands(t *testing.T, scores map[string]int) (*Commands, *fakeMessenger) {
	t.Helper()
	res := testResources(t)
	messenger := &fakeMessenger{}
	ledger := NewLedger(memory.NewScoreStore(scores), res.Participants, nil)
	lines := memory.NewLineRepository(memory.NewStaticLineLoader(map[string][]string{
		"rayan":  {"C'EST LA FÊTE"},
		"arthur": {"Mais c'est pas faux"},
	}), time.Minute)
	cmds := NewCommands(res, NewQuizBuilder(DefaultOptionLimit, false), ledger, lines, messenger, CommandsConfig{
		Quotes:      []QuoteSource{{Command: "rayan", Capitalize: true}, {Command: "arthur"}},
		Countdowns:  map[string]time.Time{"qalf": time.Date(2021, 4, 26, 0, 0, 0, 0, time.UTC)},
		PhoneNumber: "+41 00 000 00 00",
		HelpTexts:   map[string]string{"jul": "Devine l'auteur d'une punchline"},
	}, nil)
	return cmds, messenger
}

func TestQuoteGameUsesEverySource(t *testing.T) {
	cmds, messenger := newTestCommands(t, nil)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		quiz, err := cmds.QuoteGame(context.Background(), -1)
		if err != nil {
			t.Fatalf("quote game: %v", err)
		}
		if !reflect.DeepEqual(quiz.Options, []string{"A", "B"}) {
			t.Fatalf("unexpected options %v", quiz.Options)
		}
		line := quiz.Question[strings.Index(quiz.Question, "\"")+1 : len(quiz.Question)-1]
		want := "A"
		if strings.HasPrefix(line, "b") {
			want = "B"
		}
		if quiz.Correct() != want {
			t.Fatalf("line %q attributed to %s", line, quiz.Correct())
		}
		seen[want] = true
	}
	if !seen["A"] || !seen["B"] {
		t.Fatalf("expected both sources to be sampled, got %v", seen)
	}
	if len(messenger.quizzes) != 50 || messenger.quizzes[0].Anonymous {
		t.Fatalf("expected 50 non-anonymous quizzes")
	}
}

func TestBirthdayGame(t *testing.T) {
	cmds, _ := newTestCommands(t, nil)

	quiz, err := cmds.BirthdayGame(context.Background(), -1)
	if err != nil {
		t.Fatalf("birthday: %v", err)
	}
	if quiz.Question != "Qui est né le 12 juin ?" || quiz.Correct() != "Max" {
		t.Fatalf("unexpected quiz %+v", quiz)
	}

	empty, err := domain.NewBirthdays(cmds.res.Participants, nil)
	if err != nil {
		t.Fatalf("birthdays: %v", err)
	}
	cmds.res.Birthdays = empty
	if _, err := cmds.BirthdayGame(context.Background(), -1); !errors.Is(err, domain.ErrNoBirthdays) {
		t.Fatalf("expected ErrNoBirthdays, got %v", err)
	}
}

func TestStatsText(t *testing.T) {
	ctx := context.Background()

	cmds, _ := newTestCommands(t, nil)
	if text, _ := cmds.StatsText(ctx, nil); text != "No stat available" {
		t.Fatalf("unexpected empty stats %q", text)
	}

	cmds, _ = newTestCommands(t, map[string]int{"hugo": 1, "lea": 4})
	if text, _ := cmds.StatsText(ctx, nil); text != "Léa: 4\nHugo: 1\n" {
		t.Fatalf("unexpected stats %q", text)
	}
	if text, _ := cmds.StatsText(ctx, []string{"LEA"}); text != "Léa: 4" {
		t.Fatalf("unexpected single stat %q", text)
	}
	if text, _ := cmds.StatsText(ctx, []string{"inconnu"}); text != "Inconnu: 0" {
		t.Fatalf("unexpected unknown stat %q", text)
	}
}

func TestQuoteText(t *testing.T) {
	ctx := context.Background()
	cmds, _ := newTestCommands(t, nil)

	if text, _ := cmds.QuoteText(ctx, "rayan"); text != "C'est la fête" {
		t.Fatalf("unexpected capitalized quote %q", text)
	}
	if text, _ := cmds.QuoteText(ctx, "arthur"); text != "Mais c'est pas faux" {
		t.Fatalf("unexpected quote %q", text)
	}
	if !cmds.IsQuote("rayan") || cmds.IsQuote("jul") {
		t.Fatalf("unexpected quote routing")
	}
	if _, err := cmds.QuoteText(ctx, "nobody"); err == nil {
		t.Fatalf("expected unknown quote file to fail")
	}
}

func TestCountdownText(t *testing.T) {
	cmds, _ := newTestCommands(t, nil)
	cmds.now = func() time.Time { return time.Date(2021, 4, 24, 21, 15, 30, 0, time.UTC) }

	text, ok := cmds.CountdownText("qalf")
	if !ok || text != "1j 2h 44m" {
		t.Fatalf("unexpected countdown %q ok=%v", text, ok)
	}
	if _, ok := cmds.CountdownText("nope"); ok {
		t.Fatalf("unknown countdown must report false")
	}
}

func TestFormatCountdown(t *testing.T) {
	cases := map[time.Duration]string{
		0:                             "0j 0h 0m",
		49*time.Hour + 30*time.Minute: "2j 1h 30m",
		-time.Minute:                  "-1j 23h 59m",
	}
	for d, want := range cases {
		if got := FormatCountdown(d); got != want {
			t.Fatalf("FormatCountdown(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	cases := map[float64]int{0: 0, 50: 12, 54: 14, 100: 25}
	for percent, tiles := range cases {
		want := "[" + strings.Repeat("#", tiles) + strings.Repeat("-", 25-tiles) + "]"
		if got := ProgressBar(percent); got != want {
			t.Fatalf("ProgressBar(%v) = %q, want %q", percent, got, want)
		}
	}
}

func TestYearProgress(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, loc)
	if got := YearProgress(start, loc); got != "0.00%\n["+strings.Repeat("-", 25)+"]" {
		t.Fatalf("unexpected start of year %q", got)
	}
	end := time.Date(2026, time.December, 31, 23, 59, 0, 0, loc)
	if got := YearProgress(end, loc); !strings.HasPrefix(got, "100.00%\n[#########################]") {
		t.Fatalf("unexpected end of year %q", got)
	}
}

func TestPhoneText(t *testing.T) {
	cmds, _ := newTestCommands(t, nil)
	if got := cmds.PhoneText("père Noël"); got != "+41 00 000 00 00 le téléphone du père Noël !" {
		t.Fatalf("unexpected phone text %q", got)
	}
}

func TestOfficePoll(t *testing.T) {
	cmds, messenger := newTestCommands(t, nil)
	if err := cmds.Office(context.Background(), -1); err != nil {
		t.Fatalf("office: %v", err)
	}
	if !reflect.DeepEqual(messenger.polls, []string{OfficeQuestion}) {
		t.Fatalf("unexpected polls %v", messenger.polls)
	}
}

func TestHelpText(t *testing.T) {
	cmds, _ := newTestCommands(t, nil)

	want := "Available commands:\n/help\n/jul\n/poll\nUse help 'command_name' for more info"
	if got := cmds.HelpText(nil, []string{"poll", "jul", "help"}); got != want {
		t.Fatalf("unexpected help %q", got)
	}
	if got := cmds.HelpText([]string{"/jul"}, nil); got != "Devine l'auteur d'une punchline" {
		t.Fatalf("unexpected explanation %q", got)
	}
	if got := cmds.HelpText([]string{"nope"}, nil); got != "Not a command" {
		t.Fatalf("unexpected fallback %q", got)
	}
	if got := cmds.Configured(); !reflect.DeepEqual(got, []string{"arthur", "qalf", "rayan"}) {
		t.Fatalf("unexpected configured commands %v", got)
	}
}
