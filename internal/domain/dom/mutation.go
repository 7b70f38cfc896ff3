package dom

import "golang.org/x/net/html"

type MutationOp int

const (
	OpSetAttr MutationOp = iota
	OpRemoveAttr
	// OpReplace swaps Node for New.
	OpReplace
	// OpInsertAfter inserts New right after Node.
	OpInsertAfter
	OpRemove
	// OpUpsertStyle creates or rewrites <style id=Key> in head.
	OpUpsertStyle
)

func (o MutationOp) String() string {
	switch o {
	case OpSetAttr:
		return "set_attr"
	case OpRemoveAttr:
		return "remove_attr"
	case OpReplace:
		return "replace"
	case OpInsertAfter:
		return "insert_after"
	case OpRemove:
		return "remove"
	case OpUpsertStyle:
		return "upsert_style"
	default:
		return "unknown"
	}
}

// Mutation is one journaled change to the document.
type Mutation struct {
	Op    MutationOp
	Node  *html.Node
	Key   string
	Value string
	New   *html.Node
}
