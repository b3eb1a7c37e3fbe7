package domain

import "fmt"

// Participant is a chat member that can be the subject of a guess round.
type Participant struct {
	ID   string
	Name string
}

// Registry is the ordered participant id -> display name mapping.
// It is built once at startup and never mutated.
type Registry struct {
	order []Participant
	index map[string]int
}

// NewRegistry keeps the given order. Empty ids, duplicate ids and duplicate
// display names are rejected: names are quiz options and must be unique.
func NewRegistry(participants []Participant) (*Registry, error) {
	r := &Registry{
		order: make([]Participant, 0, len(participants)),
		index: make(map[string]int, len(participants)),
	}
	names := make(map[string]string, len(participants))
	for _, p := range participants {
		if p.ID == "" {
			return nil, fmt.Errorf("participant with empty id (name %q)", p.Name)
		}
		if _, dup := r.index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate participant id %q", p.ID)
		}
		if other, dup := names[p.Name]; dup {
			return nil, fmt.Errorf("participants %q and %q share the name %q", other, p.ID, p.Name)
		}
		names[p.Name] = p.ID
		r.index[p.ID] = len(r.order)
		r.order = append(r.order, p)
	}
	return r, nil
}

// Lookup returns the participant registered under id.
func (r *Registry) Lookup(id string) (Participant, bool) {
	i, ok := r.index[id]
	if !ok {
		return Participant{}, false
	}
	return r.order[i], true
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Position is the registration order of id, used for stable tie-breaks.
func (r *Registry) Position(id string) int {
	if i, ok := r.index[id]; ok {
		return i
	}
	return len(r.order)
}

// Participants returns a copy of the registry in registration order.
func (r *Registry) Participants() []Participant {
	out := make([]Participant, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns the display names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	for i, p := range r.order {
		out[i] = p.Name
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}

// Birthday is one line of the birthday registry.
type Birthday struct {
	ParticipantID string
	Date          string
}

// Birthdays maps participant ids to a free-form date text.
type Birthdays struct {
	ids   []string
	dates map[string]string
}

// NewBirthdays validates every id against the registry.
func NewBirthdays(reg *Registry, entries []Birthday) (*Birthdays, error) {
	b := &Birthdays{dates: make(map[string]string, len(entries))}
	for _, e := range entries {
		if !reg.Has(e.ParticipantID) {
			return nil, fmt.Errorf("birthday for %q: %w", e.ParticipantID, ErrUnknownParticipant)
		}
		if _, dup := b.dates[e.ParticipantID]; !dup {
			b.ids = append(b.ids, e.ParticipantID)
		}
		b.dates[e.ParticipantID] = e.Date
	}
	return b, nil
}

// Date returns the birthday text of a participant.
func (b *Birthdays) Date(id string) (string, bool) {
	d, ok := b.dates[id]
	return d, ok
}

// IDs returns participants with a known birthday in file order.
func (b *Birthdays) IDs() []string {
	out := make([]string, len(b.ids))
	copy(out, b.ids)
	return out
}
