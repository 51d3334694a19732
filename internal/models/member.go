package models

import (
	"fmt"
	"strings"
)

// SurveyState is the "lot measured" status of a member's plot.
// The store persists it as a nullable boolean; inside the service it is always
// one of the three explicit states so that NULL never silently reads as false.
type SurveyState int

const (
	// SurveyUnknown means the flag was never recorded (NULL in the store).
	SurveyUnknown SurveyState = iota
	// SurveyPending means the plot is recorded as not yet measured.
	SurveyPending
	// SurveyMeasured means the plot is recorded (or derived) as measured.
	SurveyMeasured
)

// SurveyStateFromNullable maps the stored nullable flag to a SurveyState.
func SurveyStateFromNullable(flag *bool) SurveyState {
	switch {
	case flag == nil:
		return SurveyUnknown
	case *flag:
		return SurveyMeasured
	default:
		return SurveyPending
	}
}

// SurveyStateFromBool maps an explicit boolean decision to a SurveyState.
func SurveyStateFromBool(measured bool) SurveyState {
	if measured {
		return SurveyMeasured
	}
	return SurveyPending
}

// Nullable returns the storage representation of the state.
func (s SurveyState) Nullable() *bool {
	switch s {
	case SurveyMeasured:
		v := true
		return &v
	case SurveyPending:
		v := false
		return &v
	default:
		return nil
	}
}

// Measured reports whether the state counts as measured.
func (s SurveyState) Measured() bool {
	return s == SurveyMeasured
}

func (s SurveyState) String() string {
	switch s {
	case SurveyMeasured:
		return "measured"
	case SurveyPending:
		return "pending"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s SurveyState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SurveyState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "measured":
		*s = SurveyMeasured
	case "pending":
		*s = SurveyPending
	case "unknown", "":
		*s = SurveyUnknown
	default:
		return fmt.Errorf("unknown survey state %q", string(text))
	}
	return nil
}

// Member is a registered plot-holder of the association.
// Nullable columns use pointers to distinguish between empty values and NULL.
type Member struct {
	ID              string        `db:"id" json:"id"`
	DNI             string        `db:"dni" json:"dni"`
	Nombres         string        `db:"nombres" json:"nombres"`
	ApellidoPaterno string        `db:"apellidoPaterno" json:"apellidoPaterno"`
	ApellidoMaterno string        `db:"apellidoMaterno" json:"apellidoMaterno"`
	Localidad       string        `db:"localidad" json:"localidad"`
	Mz              *string       `db:"mz" json:"mz,omitempty"`
	Lote            *string       `db:"lote" json:"lote,omitempty"`
	Survey          SurveyState   `db:"is_lote_medido" json:"survey"`
	Documents       []RawDocument `json:"documents,omitempty"`
}

// FullName joins the name fields the way the association prints them.
func (m Member) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{m.Nombres, m.ApellidoPaterno, m.ApellidoMaterno} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
