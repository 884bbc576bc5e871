package changelog

import (
	"errors"
	"fmt"

	"github.com/ariel-frischer/taglog/internal/git"
)

// fakeProvider serves scripted history. Refs map names to ids; ids resolve
// to themselves.
type fakeProvider struct {
	refs  map[string]string
	dates map[string]string
	tags  []string
	order []string
	// logs is keyed by "<from id>..<to id>".
	logs map[string][]string

	tagsErr error
	calls   map[string]int
}

func (f *fakeProvider) count(key string) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[key]++
}

func (f *fakeProvider) RevParse(ref string) (string, error) {
	f.count("RevParse:" + ref)
	if id, ok := f.refs[ref]; ok {
		return id, nil
	}
	for _, id := range f.refs {
		if id == ref {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", git.ErrUnresolvableRef, ref)
}

func (f *fakeProvider) CommitDate(id string) (string, error) {
	f.count("CommitDate:" + id)
	date, ok := f.dates[id]
	if !ok {
		return "", errors.New("no date scripted for " + id)
	}
	return date, nil
}

func (f *fakeProvider) Log(r git.LogRange) ([]string, error) {
	f.count("Log")
	return f.logs[r.From+".."+r.To], nil
}

func (f *fakeProvider) Tags() ([]string, error) {
	if f.tagsErr != nil {
		return nil, f.tagsErr
	}
	return f.tags, nil
}

func (f *fakeProvider) DecorationOrder() ([]string, error) {
	return f.order, nil
}

// twoReleaseHistory has v1.0.0 at c1 and v1.1.0 at c2 with three commits
// between them, one of them a duplicate subject.
func twoReleaseHistory() *fakeProvider {
	return &fakeProvider{
		refs: map[string]string{
			"v1.0.0": "c1",
			"v1.1.0": "c2",
			"HEAD":   "c2",
		},
		dates: map[string]string{
			"c1": "2024-01-01",
			"c2": "2024-02-01",
		},
		tags:  []string{"v1.1.0", "v1.0.0"},
		order: []string{"c1", "c2"},
		logs: map[string][]string{
			"c1..c2": {
				"Add feature (alice)",
				"Fix bug (bob)",
				"Add feature (alice)",
			},
		},
	}
}
