package git

// Provider abstracts access to repository history.
//
// Implementations return ErrUnresolvableRef (possibly wrapped) from RevParse
// when a ref does not exist. Any other error is treated as the source being
// unavailable.
type Provider interface {
	// RevParse resolves a ref to the canonical id of the commit it names.
	RevParse(ref string) (string, error)
	// CommitDate returns the author date of a commit as YYYY-MM-DD, as
	// formatted by the backend in the author's own timezone.
	CommitDate(id string) (string, error)
	// Log returns "<subject> (<author>)" lines for the range, newest commit
	// date first.
	Log(r LogRange) ([]string, error)
	// Tags lists every tag name in the repository.
	Tags() ([]string, error)
	// DecorationOrder returns the ids of decorated commits reachable from
	// HEAD, oldest first in topological order.
	DecorationOrder() ([]string, error)
}

// LogRange selects commits reachable from To but not from From.
// An empty From means the repository start; an empty To means HEAD.
type LogRange struct {
	From string
	To   string
	// NoMerges excludes commits with more than one parent.
	NoMerges bool
}

// Head is the ref naming the current branch tip.
const Head = "HEAD"
