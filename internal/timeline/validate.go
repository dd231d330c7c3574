package timeline

import "fmt"

// Validation error codes (E200-E299)
const (
	ErrMissingID             = "E201" // timeline id is required
	ErrNonPositiveTotal      = "E202" // total duration must be > 0
	ErrNegativeStart         = "E203" // phase start must be >= 0
	ErrNegativeDuration      = "E204" // phase duration must be >= 0
	ErrUnknownPhase          = "E205" // phase id not in vocabulary
	ErrUnknownTarget         = "E206" // target not a known layer
	ErrMultipleSwitches      = "E207" // more than one mode-switch phase
	ErrUnknownAction         = "E208" // action not recognised
	ErrReducedMotionNoSwitch = "E209" // reduced-motion timeline lacks a switch
	ErrDuplicateTimeline     = "E210" // identifier registered twice
	ErrSwitchAfterTotal      = "E211" // mode-switch start must be <= total
)

// ValidationError describes one problem with a timeline definition.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a timeline and returns every problem found.
// It does not fail fast.
func Validate(tl Timeline) []*ValidationError {
	var errs []*ValidationError

	if tl.ID == "" {
		errs = append(errs, &ValidationError{
			Code:    ErrMissingID,
			Field:   "id",
			Message: "timeline id is required",
		})
	}

	if tl.Total <= 0 {
		errs = append(errs, &ValidationError{
			Code:    ErrNonPositiveTotal,
			Field:   "total",
			Message: fmt.Sprintf("total duration must be positive, got %s", tl.Total),
		})
	}

	switches := 0
	for i, p := range tl.Phases {
		field := fmt.Sprintf("phases[%d]", i)

		if !p.ID.Known() {
			errs = append(errs, &ValidationError{
				Code:    ErrUnknownPhase,
				Field:   field + ".id",
				Message: fmt.Sprintf("unknown phase %q", p.ID),
			})
		}
		if !p.Target.Known() {
			errs = append(errs, &ValidationError{
				Code:    ErrUnknownTarget,
				Field:   field + ".target",
				Message: fmt.Sprintf("unknown target %q", p.Target),
			})
		}
		if p.Start < 0 {
			errs = append(errs, &ValidationError{
				Code:    ErrNegativeStart,
				Field:   field + ".start",
				Message: fmt.Sprintf("start must not be negative, got %s", p.Start),
			})
		}
		if p.Duration < 0 {
			errs = append(errs, &ValidationError{
				Code:    ErrNegativeDuration,
				Field:   field + ".duration",
				Message: fmt.Sprintf("duration must not be negative, got %s", p.Duration),
			})
		}

		switch p.Action {
		case ActionNone:
		case ActionModeSwitch:
			switches++
			if switches == 2 {
				errs = append(errs, &ValidationError{
					Code:    ErrMultipleSwitches,
					Field:   field + ".action",
					Message: "at most one phase may carry the mode-switch action",
				})
			}
			if tl.Total > 0 && p.Start > tl.Total {
				errs = append(errs, &ValidationError{
					Code:    ErrSwitchAfterTotal,
					Field:   field + ".start",
					Message: fmt.Sprintf("mode switch at %s would never fire before total %s", p.Start, tl.Total),
				})
			}
		default:
			errs = append(errs, &ValidationError{
				Code:    ErrUnknownAction,
				Field:   field + ".action",
				Message: fmt.Sprintf("unknown action %q", p.Action),
			})
		}
	}

	return errs
}
