package app

import (
	"fmt"
	"math/rand/v2"

	"roboclic/internal/domain"
)

// DefaultOptionLimit is the largest quiz Telegram accepts.
const DefaultOptionLimit = 10

// QuizBuilder turns a correct answer plus candidate names into a quiz.
type QuizBuilder struct {
	limit        int
	shuffleSmall bool
	intn         func(int) int
}

// NewQuizBuilder returns a builder capped at limit options. When shuffleSmall
// is set, registries no larger than limit are shuffled as well.
func NewQuizBuilder(limit int, shuffleSmall bool) *QuizBuilder {
	if limit <= 0 {
		limit = DefaultOptionLimit
	}
	return &QuizBuilder{limit: limit, shuffleSmall: shuffleSmall, intn: rand.IntN}
}

// Limit is the configured option cap L.
func (b *QuizBuilder) Limit() int {
	return b.limit
}

// Bounded builds a quiz whose options are drawn from names.
//
// More than L names: L-1 decoys are sampled without replacement and the
// answer is inserted at a uniformly random index. Otherwise every name is an
// option in registry order and the index is wherever the answer sits.
func (b *QuizBuilder) Bounded(question, answer string, names []string) (domain.Quiz, error) {
	if len(names) == 0 {
		return domain.Quiz{}, domain.ErrNoParticipants
	}
	at := indexOf(names, answer)
	if at < 0 {
		return domain.Quiz{}, fmt.Errorf("%w: %q", domain.ErrUnknownAnswer, answer)
	}

	if len(names) <= b.limit {
		options := append([]string(nil), names...)
		if b.shuffleSmall {
			b.shuffle(options)
			at = indexOf(options, answer)
		}
		return domain.Quiz{Question: question, Options: options, CorrectIndex: at}, nil
	}

	pool := make([]string, 0, len(names)-1)
	for _, n := range names {
		if n != answer {
			pool = append(pool, n)
		}
	}

	decoys, err := b.sample(pool, b.limit-1)
	if err != nil {
		return domain.Quiz{}, err
	}
	idx := b.intn(b.limit)
	options := make([]string, 0, b.limit)
	options = append(options, decoys[:idx]...)
	options = append(options, answer)
	options = append(options, decoys[idx:]...)
	return domain.Quiz{Question: question, Options: options, CorrectIndex: idx}, nil
}

// DirectAttribution uses every source as an option; there is no cap.
func DirectAttribution(question, answer string, sources []string) (domain.Quiz, error) {
	at := indexOf(sources, answer)
	if at < 0 {
		return domain.Quiz{}, fmt.Errorf("%w: %q", domain.ErrUnknownAnswer, answer)
	}
	return domain.Quiz{
		Question:     question,
		Options:      append([]string(nil), sources...),
		CorrectIndex: at,
	}, nil
}

// sample draws k items without replacement (partial Fisher-Yates on a copy).
func (b *QuizBuilder) sample(pool []string, k int) ([]string, error) {
	if k > len(pool) {
		return nil, fmt.Errorf("%w: need %d, have %d", domain.ErrPoolTooSmall, k, len(pool))
	}
	work := append([]string(nil), pool...)
	for i := 0; i < k; i++ {
		j := i + b.intn(len(work)-i)
		work[i], work[j] = work[j], work[i]
	}
	return work[:k], nil
}

func (b *QuizBuilder) shuffle(items []string) {
	for i := len(items) - 1; i > 0; i-- {
		j := b.intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

func indexOf(items []string, target string) int {
	for i, item := range items {
		if item == target {
			return i
		}
	}
	return -1
}
