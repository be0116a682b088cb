package calibration

import (
	"context"

	"github.com/pkg/errors"

	"github.com/CK6170/Torquecal-go/models"
)

var (
	Sides    = []string{"left", "right"}
	Channels = []string{"ai0", "ai1", "ai2", "ai3"}
)

// CompleteSetup asks the operator for run metadata the config leaves open:
// which side a force transducer sits on and, when askChannel is set, which
// bridge channel it is wired to.
func CompleteSetup(ctx context.Context, cfg models.Config, op Operator, askChannel bool) (models.Config, error) {
	if cfg.Transducer.Kind == models.Force && cfg.Side == "" {
		side, err := op.PromptChoice(ctx, "Which side is being calibrated?", Sides)
		if err != nil {
			return cfg, errors.Wrap(err, "reading side")
		}
		cfg.Side = side
	}
	if askChannel {
		ch, err := op.PromptChoice(ctx, "Which bridge channel is the transducer connected to?", Channels)
		if err != nil {
			return cfg, errors.Wrap(err, "reading channel")
		}
		cfg.Channel = ch
	}
	return cfg, nil
}
