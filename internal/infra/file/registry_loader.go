// Package file loads the bot's static data files and persists the ledger as JSON.
package file

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"roboclic/internal/domain"
)

// LoadRegistry reads an id -> display name object. Key order is kept, so the
// keyboard and small quizzes follow the file. JSON and YAML are both accepted.
func LoadRegistry(path string) (*domain.Registry, error) {
	pairs, err := loadOrderedMap(path)
	if err != nil {
		return nil, err
	}
	participants := make([]domain.Participant, 0, len(pairs))
	for _, kv := range pairs {
		participants = append(participants, domain.Participant{ID: kv[0], Name: kv[1]})
	}
	reg, err := domain.NewRegistry(participants)
	if err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	return reg, nil
}

// LoadBirthdays reads an id -> date object and checks ids against reg.
func LoadBirthdays(path string, reg *domain.Registry) (*domain.Birthdays, error) {
	pairs, err := loadOrderedMap(path)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.Birthday, 0, len(pairs))
	for _, kv := range pairs {
		entries = append(entries, domain.Birthday{ParticipantID: kv[0], Date: kv[1]})
	}
	b, err := domain.NewBirthdays(reg, entries)
	if err != nil {
		return nil, fmt.Errorf("birthdays %s: %w", path, err)
	}
	return b, nil
}

// LoadHelpTexts reads "command explanation" lines.
func LoadHelpTexts(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open help texts: %w", err)
	}
	defer f.Close()

	texts := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, text, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("help texts %s: line %q has no explanation", path, line)
		}
		texts[name] = strings.TrimSpace(text)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read help texts: %w", err)
	}
	return texts, nil
}

func loadOrderedMap(path string) ([][2]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("parse %s: empty document", path)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse %s: expected an object at the top level", path)
	}
	pairs := make([][2]string, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("parse %s: value of %q is not a string", path, key.Value)
		}
		pairs = append(pairs, [2]string{key.Value, value.Value})
	}
	return pairs, nil
}
