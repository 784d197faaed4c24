package scenario

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/anstrom/scanviz/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(frameStructLevel, Frame{})
	return v
}

// frameStructLevel enforces that a timeout carries no flags.
func frameStructLevel(sl validator.StructLevel) {
	frame := sl.Current().Interface().(Frame)
	if frame.Direction == Timeout && len(frame.Flags) > 0 {
		sl.ReportError(frame.Flags, "Flags", "flags", "timeout_without_flags", "")
	}
}

// Validate checks the frame invariants.
func (f Frame) Validate() error {
	if err := validate.Struct(f); err != nil {
		return errors.WrapPlaybackError(errors.CodeInvalidScenario, describe(err), err)
	}
	return nil
}

// Validate checks that the scenario is non-empty and every frame is well formed.
func (s Scenario) Validate() error {
	if len(s.Frames) == 0 {
		return errors.ErrInvalidScenario("scenario has no frames")
	}
	if err := validate.Struct(s); err != nil {
		return errors.WrapPlaybackError(errors.CodeInvalidScenario, describe(err), err)
	}
	return nil
}

// Validate checks the definition, including both scripted scenarios.
func (d *ScanDefinition) Validate() error {
	if err := validate.Struct(d); err != nil {
		perr := errors.WrapPlaybackError(errors.CodeInvalidScenario, describe(err), err)
		perr.ScanType = string(d.ID)
		return perr
	}
	for _, state := range PortStates {
		if _, ok := d.Scenarios[state]; !ok {
			perr := errors.ErrInvalidScenario(fmt.Sprintf("missing %s scenario", state))
			perr.ScanType = string(d.ID)
			return perr
		}
	}
	return nil
}

// Normalize drops empty flag sets so that "no flags" has a single representation.
func (d *ScanDefinition) Normalize() {
	for state, s := range d.Scenarios {
		for i := range s.Frames {
			if len(s.Frames[i].Flags) == 0 {
				s.Frames[i].Flags = nil
			}
		}
		d.Scenarios[state] = s
	}
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return "invalid scenario: " + strings.Join(parts, "; ")
}
