package calibration

import "github.com/CK6170/Torquecal-go/models"

type State string

const (
	StateIdle                State = "idle"
	StateGeneratingSetpoints State = "generating_setpoints"
	StatePromptingInitial    State = "prompting_initial"
	StateAcquiring           State = "acquiring"
	StatePromptingFinal      State = "prompting_final"
	StateSummarizing         State = "summarizing"
	StateComplete            State = "complete"
	StateRegressed           State = "regressed"
	StateWarning             State = "warning"
)

// Progress is emitted on every state change of a sweep.
type Progress struct {
	Direction models.Direction `json:"direction"`
	State     State            `json:"state"`
	Index     int              `json:"index"` // -1 outside a setpoint
	Total     int              `json:"total"`
	Nominal   float64          `json:"nominal"` // canonical
	Target    float64          `json:"target"`  // operator unit
	Message   string           `json:"message,omitempty"`

	Result     *models.SetpointResult   `json:"result,omitempty"`
	Regression *models.RegressionResult `json:"regression,omitempty"`
}
