package git

import (
	"errors"
	"fmt"
)

// Source is the read-only commit source used by the changelog generator.
// Ref resolution and commit dates are memoized for the lifetime of the
// Source; history is not expected to change during one run.
type Source struct {
	provider Provider
	// SkipMergeCommits asks the provider to drop multi-parent commits.
	SkipMergeCommits bool

	ids   map[string]string
	dates map[string]string
}

// NewSource wraps a provider.
func NewSource(p Provider) *Source {
	return &Source{
		provider: p,
		ids:      make(map[string]string),
		dates:    make(map[string]string),
	}
}

// Resolve returns the canonical id for ref.
func (s *Source) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty ref", ErrUnresolvableRef)
	}
	if id, ok := s.ids[ref]; ok {
		return id, nil
	}
	id, err := s.provider.RevParse(ref)
	if err != nil {
		return "", classify(err)
	}
	s.ids[ref] = id
	logDebug("[git] resolved %s -> %s", ref, id)
	return id, nil
}

// DateOf returns the YYYY-MM-DD date of the commit ref names.
func (s *Source) DateOf(ref string) (string, error) {
	id, err := s.Resolve(ref)
	if err != nil {
		return "", err
	}
	if date, ok := s.dates[id]; ok {
		return date, nil
	}
	date, err := s.provider.CommitDate(id)
	if err != nil {
		return "", classify(err)
	}
	s.dates[id] = date
	return date, nil
}

// LogBetween returns raw "<subject> (<author>)" lines for commits reachable
// from to but not from from. An empty from means the repository start; an
// empty to means HEAD.
func (s *Source) LogBetween(from, to string) ([]string, error) {
	r := LogRange{NoMerges: s.SkipMergeCommits}
	if from != "" {
		id, err := s.Resolve(from)
		if err != nil {
			return nil, err
		}
		r.From = id
	}
	if to == "" {
		to = Head
	}
	id, err := s.Resolve(to)
	if err != nil {
		return nil, err
	}
	r.To = id

	lines, err := s.provider.Log(r)
	if err != nil {
		return nil, classify(err)
	}
	return lines, nil
}

// AllTags lists every tag name.
func (s *Source) AllTags() ([]string, error) {
	tags, err := s.provider.Tags()
	if err != nil {
		return nil, classify(err)
	}
	return tags, nil
}

// BranchAncestryOrder returns decorated commit ids along the current branch,
// oldest first.
func (s *Source) BranchAncestryOrder() ([]string, error) {
	ids, err := s.provider.DecorationOrder()
	if err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

// classify keeps unresolvable refs distinct and reports everything else as
// an unavailable source.
func classify(err error) error {
	if errors.Is(err, ErrUnresolvableRef) || errors.Is(err, ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
}
