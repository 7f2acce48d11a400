package handlers

// reactionAction is the outcome of applying a reaction to an existing state
type reactionAction string

const (
	reactionCreated  reactionAction = "created"
	reactionRemoved  reactionAction = "removed"
	reactionSwitched reactionAction = "switched"
)

// counterPolicy maps reaction transitions onto counter deltas. The same
// toggle state machine drives post popularity and comment thanks; only the
// arithmetic differs.
type counterPolicy struct {
	counterColumn string
	onCreate      func(value int) int
	onRemove      func(value int) int
	onSwitch      func(oldValue, newValue int) int
}

// popularityPolicy: every reaction counts as engagement regardless of sign,
// so creating any reaction adds 1 and removing one takes it back. A value
// flip applies the raw arithmetic, swinging the score by 2.
var popularityPolicy = counterPolicy{
	counterColumn: "popularity_score",
	onCreate:      func(value int) int { return 1 },
	onRemove:      func(value int) int { return -1 },
	onSwitch:      func(oldValue, newValue int) int { return newValue - oldValue },
}

// thanksPolicy: only +1 reactions count, so deltas fire when +1 is entered
// or left and a flip swings the counter by 1
var thanksPolicy = counterPolicy{
	counterColumn: "thanks_count",
	onCreate: func(value int) int {
		if value == 1 {
			return 1
		}
		return 0
	},
	onRemove: func(value int) int {
		if value == 1 {
			return -1
		}
		return 0
	},
	onSwitch: func(oldValue, newValue int) int {
		if newValue == 1 {
			return 1
		}
		if oldValue == 1 {
			return -1
		}
		return 0
	},
}

// resolveReaction applies the toggle state machine: no existing reaction
// creates one, repeating the same value removes it, and a different value
// switches it. Returns the action plus the policy's counter delta.
func resolveReaction(policy counterPolicy, existing *int, value int) (reactionAction, int) {
	if existing == nil {
		return reactionCreated, policy.onCreate(value)
	}
	if *existing == value {
		return reactionRemoved, policy.onRemove(value)
	}
	return reactionSwitched, policy.onSwitch(*existing, value)
}

// reactionMessage is the response message for each toggle outcome
func reactionMessage(action reactionAction) string {
	switch action {
	case reactionCreated:
		return "rating_added"
	case reactionSwitched:
		return "rating_changed"
	default:
		return "rating_removed"
	}
}
