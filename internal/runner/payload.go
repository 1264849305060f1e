package runner

import (
	"encoding/json"
	"fmt"
)

// BuildPayload computes the input for the next role from the accumulated
// context under the given policy.
func BuildPayload(policy ContextPolicy, rc *RunContext) (string, error) {
	switch policy {
	case PolicyVision, "":
		return rc.Vision(), nil
	case PolicyPrevious:
		_, last, ok := rc.Last()
		if !ok {
			return rc.Vision(), nil
		}
		return last.Payload()
	case PolicyCumulative:
		data, err := json.Marshal(rc)
		if err != nil {
			return "", fmt.Errorf("serializing run context: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown context policy %q", policy)
	}
}
