package changelog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ariel-frischer/taglog/internal/git"
)

// Sequencer orders tags by their position in the current branch's history.
type Sequencer struct {
	source Source
}

// NewSequencer creates a Sequencer reading from source.
func NewSequencer(source Source) *Sequencer {
	return &Sequencer{source: source}
}

// Sequence returns the tags whose commit is a decorated ancestor of HEAD,
// oldest first. Tags on unmerged or unrelated branches are dropped.
func (s *Sequencer) Sequence() ([]Tag, error) {
	names, err := s.source.AllTags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}

	ancestry, err := s.source.BranchAncestryOrder()
	if err != nil {
		return nil, fmt.Errorf("reading branch history: %w", err)
	}
	position := make(map[string]int, len(ancestry))
	for i, id := range ancestry {
		if _, seen := position[id]; !seen {
			position[id] = i
		}
	}

	var tags []Tag
	for _, name := range names {
		id, err := s.source.Resolve(name)
		if err != nil {
			// Tags pointing at trees or blobs never mark a release.
			if errors.Is(err, git.ErrUnresolvableRef) {
				continue
			}
			return nil, fmt.Errorf("resolving tag %s: %w", name, err)
		}
		if _, ok := position[id]; !ok {
			continue
		}
		tags = append(tags, Tag{Name: name, ID: id})
	}

	sort.SliceStable(tags, func(i, j int) bool {
		return position[tags[i].ID] < position[tags[j].ID]
	})

	for i := range tags {
		date, err := s.source.DateOf(tags[i].ID)
		if err != nil {
			return nil, fmt.Errorf("dating tag %s: %w", tags[i].Name, err)
		}
		tags[i].Date = date
	}
	return tags, nil
}
