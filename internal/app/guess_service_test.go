package app

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"roboclic/internal/domain"
)

var testKey = domain.SessionKey{ChatID: -1, UserID: 7}

func TestGuessRoundCompletes(t *testing.T) {
	ctx := context.Background()
	f := newGuessFixture(t, GuessConfig{AdminChatID: 99})

	if _, err := f.svc.Start(ctx, testKey, "alice", 100); err != nil {
		t.Fatalf("start: %v", err)
	}
	prompt := f.messenger.messages[0]
	if prompt.Text != PromptWho || len(prompt.Rows) != 1 || len(prompt.Rows[0]) != 3 {
		t.Fatalf("unexpected prompt %+v", prompt)
	}
	if prompt.Rows[0][1].Data != CallbackData("lea") {
		t.Fatalf("unexpected callback data %q", prompt.Rows[0][1].Data)
	}

	if err := f.svc.Select(ctx, testKey, "hugo", 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if !reflect.DeepEqual(f.messenger.edits, []string{PromptWhat}) {
		t.Fatalf("unexpected edits %v", f.messenger.edits)
	}

	res, ok, err := f.svc.Submit(ctx, testKey, "à demain", 101)
	if err != nil || !ok {
		t.Fatalf("submit: ok=%v err=%v", ok, err)
	}
	if res.Quiz.Question != `Qui a dit ça : "à demain"` {
		t.Fatalf("unexpected question %q", res.Quiz.Question)
	}
	if !reflect.DeepEqual(res.Quiz.Options, []string{"Hugo", "Léa", "Max"}) || res.Quiz.CorrectIndex != 0 {
		t.Fatalf("unexpected quiz %+v", res.Quiz)
	}
	if !res.Scored {
		t.Fatalf("expected round to be scored")
	}
	if f.messenger.quizCount() != 1 || f.messenger.quizzes[0].Anonymous {
		t.Fatalf("expected one non-anonymous quiz, got %+v", f.messenger.quizzes)
	}
	if !reflect.DeepEqual(f.messenger.deletes, []int64{100, 1, 101}) {
		t.Fatalf("unexpected deletions %v", f.messenger.deletes)
	}

	admin := f.messenger.messages[len(f.messenger.messages)-1]
	if admin.ChatID != 99 || admin.Text != "Poll started by @alice\nThe answer is \"Hugo\"" {
		t.Fatalf("unexpected admin notice %+v", admin)
	}
	scores, _ := f.scores.Load(ctx)
	if !reflect.DeepEqual(scores, map[string]int{"hugo": 1}) {
		t.Fatalf("unexpected scores %v", scores)
	}
	if f.sessions.Len() != 0 {
		t.Fatalf("expected session to be consumed")
	}
}

func TestGuessRestartOverwritesPendingRound(t *testing.T) {
	ctx := context.Background()
	f := newGuessFixture(t, GuessConfig{})

	_, _ = f.svc.Start(ctx, testKey, "alice", 100)
	if err := f.svc.Select(ctx, testKey, "lea", 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	_, _ = f.svc.Start(ctx, testKey, "alice", 102)

	if _, ok, _ := f.svc.Submit(ctx, testKey, "texte", 103); ok {
		t.Fatalf("restarted round must wait for a new selection")
	}
	if err := f.svc.Select(ctx, testKey, "max", 2); err != nil {
		t.Fatalf("select: %v", err)
	}
	res, ok, err := f.svc.Submit(ctx, testKey, "texte", 104)
	if err != nil || !ok || res.Participant.ID != "max" {
		t.Fatalf("unexpected submit ok=%v err=%v result=%+v", ok, err, res)
	}
}

func TestGuessTextBeforeSelectionIsNotConsumed(t *testing.T) {
	ctx := context.Background()
	f := newGuessFixture(t, GuessConfig{})

	if _, ok, err := f.svc.Submit(ctx, testKey, "rien", 5); ok || err != nil {
		t.Fatalf("expected idle submit to be ignored, ok=%v err=%v", ok, err)
	}
	_, _ = f.svc.Start(ctx, testKey, "alice", 100)
	if _, ok, _ := f.svc.Submit(ctx, testKey, "trop tôt", 101); ok {
		t.Fatalf("text before selection must not complete the round")
	}
	_ = f.svc.Select(ctx, testKey, "hugo", 1)
	if _, ok, _ := f.svc.Submit(ctx, testKey, "maintenant", 102); !ok {
		t.Fatalf("expected round to complete after selection")
	}
	if f.messenger.quizCount() != 1 {
		t.Fatalf("expected exactly one quiz, got %d", f.messenger.quizCount())
	}
}

func TestGuessBestEffortFailuresDoNotAbort(t *testing.T) {
	ctx := context.Background()
	f := newGuessFixture(t, GuessConfig{})
	f.messenger.failDelete = true

	outcomes, err := f.svc.Start(ctx, testKey, "alice", 100)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].OK() {
		t.Fatalf("expected failed trigger deletion outcome, got %+v", outcomes)
	}
	_ = f.svc.Select(ctx, testKey, "hugo", 1)

	res, ok, err := f.svc.Submit(ctx, testKey, "malgré tout", 101)
	if err != nil || !ok {
		t.Fatalf("submit: ok=%v err=%v", ok, err)
	}
	for _, o := range res.Outcomes {
		if !errors.Is(o.Err, errDeleteRefused) {
			t.Fatalf("expected deletion failures to be reported, got %+v", o)
		}
	}
	if len(res.Outcomes) != 2 || f.messenger.quizCount() != 1 {
		t.Fatalf("expected quiz despite failed deletions, outcomes=%+v", res.Outcomes)
	}
}

func TestGuessFailedAdminNoticeDoesNotAbort(t *testing.T) {
	ctx := context.Background()
	f := newGuessFixture(t, GuessConfig{AdminChatID: -900})
	f.messenger.failSend = true

	if _, err := f.svc.Start(ctx, testKey, "alice", 100); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.svc.Select(ctx, testKey, "hugo", 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	res, ok, err := f.svc.Submit(ctx, testKey, "quand même", 101)
	if err != nil || !ok {
		t.Fatalf("submit: ok=%v err=%v", ok, err)
	}
	if f.messenger.quizCount() != 1 {
		t.Fatalf("expected one quiz, got %d", f.messenger.quizCount())
	}
	last := res.Outcomes[len(res.Outcomes)-1]
	if last.Action != "notify admin" || !errors.Is(last.Err, errSendRefused) {
		t.Fatalf("expected failed admin notice outcome, got %+v", res.Outcomes)
	}
	if !res.Scored {
		t.Fatalf("round should still be scored")
	}
}

func TestGuessAllowListSkipsLedger(t *testing.T) {
	ctx := context.Background()
	f := newGuessFixture(t, GuessConfig{ScoreChats: []int64{-500}})

	_, _ = f.svc.Start(ctx, testKey, "alice", 100)
	_ = f.svc.Select(ctx, testKey, "hugo", 1)
	res, ok, err := f.svc.Submit(ctx, testKey, "hors liste", 101)
	if err != nil || !ok {
		t.Fatalf("submit: ok=%v err=%v", ok, err)
	}
	if res.Scored {
		t.Fatalf("chat outside the allow-list must not score")
	}
	scores, _ := f.scores.Load(ctx)
	if len(scores) != 0 {
		t.Fatalf("unexpected scores %v", scores)
	}
}

func TestGuessLedgerFailureKeepsQuiz(t *testing.T) {
	ctx := context.Background()
	f := newGuessFixture(t, GuessConfig{})
	f.scores.SaveErr = errors.New("disk full")

	_, _ = f.svc.Start(ctx, testKey, "alice", 100)
	_ = f.svc.Select(ctx, testKey, "hugo", 1)
	_, ok, err := f.svc.Submit(ctx, testKey, "perdu", 101)
	if !ok || err == nil {
		t.Fatalf("expected ledger error to surface, ok=%v err=%v", ok, err)
	}
	if f.messenger.quizCount() != 1 {
		t.Fatalf("quiz must stay sent when the ledger fails")
	}
}

func TestGuessSelectErrors(t *testing.T) {
	ctx := context.Background()
	f := newGuessFixture(t, GuessConfig{})

	if err := f.svc.Select(ctx, testKey, "hugo", 1); !errors.Is(err, domain.ErrNoPendingGuess) {
		t.Fatalf("expected ErrNoPendingGuess, got %v", err)
	}
	_, _ = f.svc.Start(ctx, testKey, "alice", 100)
	if err := f.svc.Select(ctx, testKey, "ghost", 1); !errors.Is(err, domain.ErrUnknownParticipant) {
		t.Fatalf("expected ErrUnknownParticipant, got %v", err)
	}
	if len(f.messenger.edits) != 0 {
		t.Fatalf("failed selections must not edit the prompt")
	}
}

func TestGuessConcurrentSubmitYieldsOneQuiz(t *testing.T) {
	ctx := context.Background()
	f := newGuessFixture(t, GuessConfig{})
	_, _ = f.svc.Start(ctx, testKey, "alice", 100)
	_ = f.svc.Select(ctx, testKey, "lea", 1)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, ok, _ := f.svc.Submit(ctx, testKey, "course", id); ok {
				mu.Lock()
				completed++
				mu.Unlock()
			}
		}(int64(200 + i))
	}
	wg.Wait()

	if completed != 1 || f.messenger.quizCount() != 1 {
		t.Fatalf("expected one completion, got %d (quizzes %d)", completed, f.messenger.quizCount())
	}
	scores, _ := f.scores.Load(ctx)
	if scores["lea"] != 1 {
		t.Fatalf("expected a single increment, got %v", scores)
	}
}

func TestKeyboardRowsOfFour(t *testing.T) {
	participants := make([]domain.Participant, 6)
	for i := range participants {
		participants[i] = domain.Participant{ID: string(rune('a' + i)), Name: string(rune('A' + i))}
	}
	rows := keyboardRows(participants, keyboardWidth)
	if len(rows) != 2 || len(rows[0]) != 4 || len(rows[1]) != 2 {
		t.Fatalf("unexpected layout %+v", rows)
	}
	if rows[1][1].Label != "F" || rows[1][1].Data != "guess:f" {
		t.Fatalf("unexpected last button %+v", rows[1][1])
	}
}

func TestParseCallbackData(t *testing.T) {
	if id, ok := ParseCallbackData("guess:lea"); !ok || id != "lea" {
		t.Fatalf("unexpected parse %q %v", id, ok)
	}
	for _, bad := range []string{"", "guess:", "other:lea"} {
		if _, ok := ParseCallbackData(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
