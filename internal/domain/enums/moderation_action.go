package enums

type ModerationAction string

const (
	ActionExile       ModerationAction = "exile"
	ActionRecall      ModerationAction = "recall"
	ActionBatchExile  ModerationAction = "batch_exile"
	ActionBatchRecall ModerationAction = "batch_recall"
)

func (a ModerationAction) Valid() bool {
	switch a {
	case ActionExile, ActionRecall, ActionBatchExile, ActionBatchRecall:
		return true
	}
	return false
}

// TargetState is the visibility state an action drives an item into.
func (a ModerationAction) TargetState() VisibilityState {
	switch a {
	case ActionExile, ActionBatchExile:
		return VisibilityExiled
	default:
		return VisibilityNormal
	}
}
