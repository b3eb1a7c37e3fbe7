// Package corpus parses the quote/lyric corpus and samples from it.
//
// A corpus file is a sequence of blocks separated by blank lines. The first
// line of a block is a source tag such as "[Couplet 1 : Jul]"; the remaining
// lines are the quotes credited to that source.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"regexp"
	"strings"

	"roboclic/internal/domain"
)

// DefaultTagPattern captures the source name of "[Couplet 1 : Jul]" or "[Jul]".
const DefaultTagPattern = `^\[(?:[^\]]*?:\s*)?(.+?)\s*\]$`

// Block is a run of lines credited to one source.
type Block struct {
	Source string
	Lines  []string
}

// Corpus is immutable once parsed and safe for concurrent use.
type Corpus struct {
	blocks  []Block
	sources []string
	intn    func(int) int
}

// Load reads and parses a corpus file.
func Load(path, tagPattern string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	c, err := Parse(f, tagPattern)
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", path, err)
	}
	return c, nil
}

// Parse builds a corpus from r. An empty tagPattern selects DefaultTagPattern.
func Parse(r io.Reader, tagPattern string) (*Corpus, error) {
	if tagPattern == "" {
		tagPattern = DefaultTagPattern
	}
	tagRE, err := regexp.Compile(tagPattern)
	if err != nil {
		return nil, fmt.Errorf("compile tag pattern: %w", err)
	}
	if tagRE.NumSubexp() < 1 {
		return nil, fmt.Errorf("tag pattern %q has no capture group", tagPattern)
	}

	var (
		blocks  []Block
		current []string
	)
	flush := func() error {
		if len(current) == 0 {
			return nil
		}
		m := tagRE.FindStringSubmatch(current[0])
		if m == nil || strings.TrimSpace(m[1]) == "" {
			return fmt.Errorf("%w: %q", domain.ErrUntaggedBlock, current[0])
		}
		if len(current) < 2 {
			return fmt.Errorf("block %q has no lines", current[0])
		}
		blocks = append(blocks, Block{
			Source: strings.TrimSpace(m[1]),
			Lines:  append([]string(nil), current[1:]...),
		})
		current = current[:0]
		return nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return New(blocks)
}

// New wraps already-parsed blocks.
func New(blocks []Block) (*Corpus, error) {
	if len(blocks) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	seen := make(map[string]struct{})
	var sources []string
	for _, b := range blocks {
		if b.Source == "" {
			return nil, domain.ErrUntaggedBlock
		}
		if len(b.Lines) == 0 {
			return nil, fmt.Errorf("block %q has no lines", b.Source)
		}
		if _, ok := seen[b.Source]; ok {
			continue
		}
		seen[b.Source] = struct{}{}
		sources = append(sources, b.Source)
	}
	return &Corpus{blocks: blocks, sources: sources, intn: rand.IntN}, nil
}

// SampleBlock returns a uniformly random block.
func (c *Corpus) SampleBlock() Block {
	return c.blocks[c.intn(len(c.blocks))]
}

// SampleLine returns a uniformly random line of b with its source.
func (c *Corpus) SampleLine(b Block) (string, string) {
	return b.Source, b.Lines[c.intn(len(b.Lines))]
}

// Sources lists the distinct sources in order of first appearance.
func (c *Corpus) Sources() []string {
	out := make([]string, len(c.sources))
	copy(out, c.sources)
	return out
}

// Blocks is the number of blocks in the corpus.
func (c *Corpus) Blocks() int {
	return len(c.blocks)
}
