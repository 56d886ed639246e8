package domain

// ResolutionKind is the operator's chosen conflict outcome.
type ResolutionKind int

const (
	ResolveSkip ResolutionKind = iota
	ResolveOverwrite
	ResolveMerge
	ResolveRename

	// ResolveViewDiff is reserved for a future diff view. Until it is
	// implemented it must behave exactly like ResolveSkip.
	ResolveViewDiff
)

// MergeStrategy selects how a merged body is combined with the existing one.
type MergeStrategy int

const (
	MergeAppend MergeStrategy = iota
	MergePrepend
)

// Resolution is the single answer produced by one conflict handshake.
type Resolution struct {
	Kind         ResolutionKind
	Reason       string // set for skips
	CreateBackup bool   // overwrite only
	Merge        MergeStrategy
	NewFilename  string // rename only
}

// SkipResolution builds a skip with the given reason.
func SkipResolution(reason string) Resolution {
	return Resolution{Kind: ResolveSkip, Reason: reason}
}

// Normalize maps reserved variants onto their current behavior.
func (r Resolution) Normalize() Resolution {
	if r.Kind == ResolveViewDiff {
		return SkipResolution("diff view not available")
	}
	return r
}
