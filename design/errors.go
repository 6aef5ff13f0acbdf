// Public domain.

package design

import "fmt"

// ConfigError reports a fit configuration that cannot produce a design
// matrix, such as a free parameter with no derivative function.
type ConfigError struct {
	Param string
	Msg   string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Param == "" {
		return "design: " + e.Msg
	}
	if e.Err != nil {
		return fmt.Sprintf("design: parameter %s: %s: %v", e.Param, e.Msg, e.Err)
	}
	return fmt.Sprintf("design: parameter %s: %s", e.Param, e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NumericalError reports a non-finite derivative entry.
type NumericalError struct {
	Param string
	Row   int
	Msg   string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("design: parameter %s, observation %d: %s",
		e.Param, e.Row, e.Msg)
}
