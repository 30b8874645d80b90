package triggers

import (
	"strings"

	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
	"github.com/KirkDiggler/dnd-narrator/internal/events"
)

// DetermineEventType maps a fired trigger to the kind of event it should produce
func DetermineEventType(trigger *EventTrigger) (events.EventType, error) {
	if trigger == nil {
		return "", dnderr.InvalidArgument("trigger is required")
	}

	switch trigger.Type {
	case TriggerLocationBased:
		if trigger.Conditions[ConditionReason] == ReasonFirstVisit {
			return events.EventTypeLocationEvent, nil
		}
		return events.EventTypeRandomEvent, nil
	case TriggerQuestBased:
		return events.EventTypeSideQuest, nil
	case TriggerPatternBased:
		suggested, err := events.ParseEventType(trigger.Conditions[ConditionSuggestedEventType])
		if err != nil {
			return "", dnderr.Wrap(err, "pattern trigger has no usable suggestion").
				WithMeta("pattern", trigger.Conditions[ConditionPattern])
		}
		return suggested, nil
	case TriggerContextBased:
		if trigger.Conditions[ConditionReason] == ReasonStaleLocation {
			return events.EventTypeLocationEvent, nil
		}
		return events.EventTypeRandomEvent, nil
	case TriggerStorylineBased:
		if strings.Contains(trigger.Conditions[ConditionStorylineType], "mystery") {
			return events.EventTypeRevelation, nil
		}
		return events.EventTypeConsequence, nil
	case TriggerFlagBased:
		return events.EventTypeQuestHook, nil
	}

	return "", dnderr.InvalidArgumentf("unknown trigger type '%s'", trigger.Type)
}
