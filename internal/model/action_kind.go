package model

// ActionKind names the quota-gated write actions. Spam checks only accept
// the two content kinds; reactions are gated by quota alone.
type ActionKind string

const (
	ActionKindPost     ActionKind = "post"
	ActionKindThread   ActionKind = "thread"
	ActionKindReaction ActionKind = "reaction"
)

func (k ActionKind) Valid() bool {
	switch k {
	case ActionKindPost, ActionKindThread, ActionKindReaction:
		return true
	}
	return false
}
