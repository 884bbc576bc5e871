package git

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// nativeProvider reads history from the object database with go-git.
type nativeProvider struct {
	repo *git.Repository
}

func newNativeProvider(repo *git.Repository) *nativeProvider {
	return &nativeProvider{repo: repo}
}

func (n *nativeProvider) RevParse(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: %q", ErrUnresolvableRef, ref)
	}
	if n.repo == nil {
		return "", fmt.Errorf("%w: repository not open", ErrSourceUnavailable)
	}
	hash, err := n.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		logDebug("[git] resolve %s: %v", ref, err)
		return "", fmt.Errorf("%w: %q", ErrUnresolvableRef, ref)
	}
	peeled, ok := n.peelToCommit(*hash)
	if !ok {
		return "", fmt.Errorf("%w: %q does not name a commit", ErrUnresolvableRef, ref)
	}
	return peeled.String(), nil
}

// peelToCommit follows annotated tag objects down to the commit they point at.
func (n *nativeProvider) peelToCommit(hash plumbing.Hash) (plumbing.Hash, bool) {
	if _, err := n.repo.CommitObject(hash); err == nil {
		return hash, true
	}
	cur := hash
	for range 8 {
		tag, err := n.repo.TagObject(cur)
		if err != nil {
			return plumbing.ZeroHash, false
		}
		switch tag.TargetType {
		case plumbing.CommitObject:
			return tag.Target, true
		case plumbing.TagObject:
			cur = tag.Target
		default:
			return plumbing.ZeroHash, false
		}
	}
	return plumbing.ZeroHash, false
}

func (n *nativeProvider) CommitDate(id string) (string, error) {
	c, err := n.commit(id)
	if err != nil {
		return "", err
	}
	return c.Author.When.Format("2006-01-02"), nil
}

func (n *nativeProvider) Log(r LogRange) ([]string, error) {
	to := r.To
	if to == "" {
		to = Head
	}
	tip, err := n.commit(to)
	if err != nil {
		return nil, err
	}

	excluded := map[plumbing.Hash]bool{}
	if r.From != "" {
		from, err := n.commit(r.From)
		if err != nil {
			return nil, err
		}
		err = object.NewCommitPreorderIter(from, nil, nil).ForEach(func(c *object.Commit) error {
			excluded[c.Hash] = true
			return nil
		})
		if err != nil && !errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: walking %s: %v", ErrSourceUnavailable, r.From, err)
		}
	}

	var commits []*object.Commit
	err = object.NewCommitPreorderIter(tip, excluded, nil).ForEach(func(c *object.Commit) error {
		if r.NoMerges && c.NumParents() > 1 {
			return nil
		}
		commits = append(commits, c)
		return nil
	})
	if err != nil && !errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: walking %s: %v", ErrSourceUnavailable, to, err)
	}

	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].Committer.When.After(commits[j].Committer.When)
	})

	lines := make([]string, 0, len(commits))
	for _, c := range commits {
		lines = append(lines, fmt.Sprintf("%s (%s)", subject(c.Message), c.Author.Name))
	}
	return lines, nil
}

// subject mirrors git's %s: the first paragraph of the message on one line.
func subject(message string) string {
	var parts []string
	for _, line := range strings.Split(strings.TrimSpace(message), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

func (n *nativeProvider) Tags() ([]string, error) {
	if n.repo == nil {
		return nil, fmt.Errorf("%w: repository not open", ErrSourceUnavailable)
	}
	iter, err := n.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("%w: listing tags: %v", ErrSourceUnavailable, err)
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: iterating tags: %v", ErrSourceUnavailable, err)
	}
	sort.Strings(names)
	return names, nil
}

func (n *nativeProvider) DecorationOrder() ([]string, error) {
	head, err := n.commit(Head)
	if err != nil {
		return nil, err
	}
	decorated, err := n.decorated()
	if err != nil {
		return nil, err
	}
	decorated[head.Hash] = true

	var order []string
	for _, h := range n.topoOrder(head) {
		if decorated[h] {
			order = append(order, h.String())
		}
	}
	return order, nil
}

// decorated collects the commits pointed at by branches, remote branches and tags.
func (n *nativeProvider) decorated() (map[plumbing.Hash]bool, error) {
	refs, err := n.repo.References()
	if err != nil {
		return nil, fmt.Errorf("%w: listing references: %v", ErrSourceUnavailable, err)
	}
	defer refs.Close()

	out := map[plumbing.Hash]bool{}
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		if !name.IsBranch() && !name.IsRemote() && !name.IsTag() {
			return nil
		}
		if hash, ok := n.peelToCommit(ref.Hash()); ok {
			out[hash] = true
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("%w: iterating references: %v", ErrSourceUnavailable, err)
	}
	return out, nil
}

// topoOrder returns every commit reachable from tip with parents before
// children. Missing parents (shallow clones) end the walk on that line.
func (n *nativeProvider) topoOrder(tip *object.Commit) []plumbing.Hash {
	type frame struct {
		c    *object.Commit
		next int
	}
	visited := map[plumbing.Hash]bool{tip.Hash: true}
	stack := []frame{{c: tip}}
	var order []plumbing.Hash

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.c.ParentHashes) {
			ph := top.c.ParentHashes[top.next]
			top.next++
			if visited[ph] {
				continue
			}
			visited[ph] = true
			parent, err := n.repo.CommitObject(ph)
			if err != nil {
				logDebug("[git] parent %s unavailable: %v", ph, err)
				continue
			}
			stack = append(stack, frame{c: parent})
			continue
		}
		order = append(order, top.c.Hash)
		stack = stack[:len(stack)-1]
	}
	return order
}

func (n *nativeProvider) commit(ref string) (*object.Commit, error) {
	id, err := n.RevParse(ref)
	if err != nil {
		return nil, err
	}
	c, err := n.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		return nil, fmt.Errorf("%w: reading commit %s: %v", ErrSourceUnavailable, id, err)
	}
	return c, nil
}
