// Command calrun runs a transducer calibration from the terminal.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/CK6170/Torquecal-go/calibration"
	"github.com/CK6170/Torquecal-go/models"
	"github.com/CK6170/Torquecal-go/persist"
	"github.com/CK6170/Torquecal-go/ui"
)

var (
	app        = kingpin.New("calrun", "Calibrate a torque arm or force transducer against a bridge amplifier.")
	configPath = app.Flag("config", "Path to config.json; built-in torque arm defaults when empty.").Short('c').String()
	simulate   = app.Flag("simulate", "Use the simulated bridge instead of the serial amplifier.").Bool()
	side       = app.Flag("side", "Side being calibrated (left|right).").Enum("left", "right")
	channel    = app.Flag("channel", "Bridge channel, overriding the config.").String()
	askChannel = app.Flag("ask-channel", "Ask which channel the transducer is wired to.").Bool()
	outDir     = app.Flag("out", "Output directory, overriding the config.").String()
	format     = app.Flag("format", "Processed table format (csv|xlsx).").Enum("csv", "xlsx")
	level      = app.Flag("log", "Log level (debug|info|warn|error).").Default("info").Enum("debug", "info", "warn", "error")
	lines      = app.Flag("lines", "Read answers line by line even on a terminal.").Bool()
)

func loadConfig() (models.Config, error) {
	cfg := models.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = calibration.LoadConfig(*configPath); err != nil {
			return cfg, err
		}
	}
	if *simulate {
		cfg.Simulate = true
	}
	if *side != "" {
		cfg.Side = *side
	}
	if *channel != "" {
		cfg.Channel = *channel
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *format != "" {
		cfg.TableFormat = *format
	}
	return cfg, cfg.Validate()
}

func interactive() bool {
	return !*lines && term.IsTerminal(int(os.Stdin.Fd()))
}

func operator() calibration.Operator {
	if interactive() {
		return ui.NewKeys(os.Stdout)
	}
	return ui.NewConsole(os.Stdin, os.Stdout)
}

func run(log *logrus.Entry) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sess, err := calibration.Connect(cfg, log)
	if err != nil {
		return err
	}
	defer sess.Close()
	if saved, err := calibration.RememberPort(*configPath, cfg, sess.Port()); err != nil {
		log.Warnf("could not save detected port: %v", err)
	} else if saved {
		log.Infof("saved detected port %s to %s", sess.Port(), *configPath)
	}
	if interactive() {
		ui.ClearScreen()
	}
	if sess.Simulated() {
		ui.Warningf("Using the simulated bridge; readings follow the forces you enter.\n")
	}

	op := sess.Operator(operator())
	if cfg, err = calibration.CompleteSetup(ctx, cfg, op, *askChannel); err != nil {
		return err
	}
	plan, err := calibration.BuildPlan(cfg)
	if err != nil {
		return err
	}
	for _, st := range plan {
		ui.Debugf(*level == "debug", "%s %s\n", st.Label, st.Prompt)
	}
	store, closeStore := persist.ForConfig(cfg, log)
	defer closeStore()

	c := &calibration.Calibrator{
		Config:   cfg,
		Source:   sess.Source,
		Operator: op,
		Store:    store,
		Log:      log,
		Report:   os.Stdout,
		OnProgress: func(p calibration.Progress) {
			switch p.State {
			case calibration.StateAcquiring, calibration.StatePromptingFinal:
				ui.Greenf("%s\n", p.Message)
			case calibration.StateSummarizing:
				if p.Result != nil {
					ui.Greenf("%s\n", p.Message)
				}
			case calibration.StateComplete:
				ui.Greenf("%s calibration complete\n", calibration.Title(p.Direction))
			}
		},
	}
	rec, err := c.Run(ctx)
	if err != nil {
		return err
	}
	ui.Greenf("\nCalibration %s saved to %s\n", rec.ID, cfg.RecordPath())
	return nil
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := logrus.New()
	lvl, _ := logrus.ParseLevel(*level)
	logger.SetLevel(lvl)
	logger.SetOutput(os.Stderr)

	if err := run(logrus.NewEntry(logger)); err != nil {
		logger.Errorf("calibration failed: %v", err)
		os.Exit(1)
	}
}
