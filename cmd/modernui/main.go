package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/CK6170/Torquecal-go/calibration"
	"github.com/CK6170/Torquecal-go/models"
	"github.com/CK6170/Torquecal-go/persist"
)

type screen int

const (
	screenEntry screen = iota
	screenCalibration
	screenDone
)

type modeStatus int

const (
	statusIdle modeStatus = iota
	statusRunning
	statusDone
	statusError
)

type model struct {
	scr screen

	configInput textinput.Model
	answerInput textinput.Model

	simulate bool
	log      *logrus.Entry
	op       *tuiOperator

	// connection
	configPath string
	cfg        models.Config
	sess       *calibration.Session
	plan       []calibration.PlanStep
	lastErr    error
	infoLine   string

	// calibration state
	calStatus modeStatus
	progress  calibration.Progress
	results   []resultLine
	warnings  []string
	prompt    *promptMsg
	record    *models.CalibrationRecord
	runCancel context.CancelFunc
	calRunID  int
}

type resultLine struct {
	dir models.Direction
	res models.SetpointResult
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	promptBox  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func initialModel(configPath string, simulate bool, log *logrus.Entry, op *tuiOperator) model {
	in := textinput.New()
	in.Placeholder = "Path to config.json"
	in.Focus()
	in.CharLimit = 512
	in.Width = 60
	if configPath != "" {
		in.SetValue(configPath)
		in.CursorEnd()
	}

	ans := textinput.New()
	ans.Placeholder = "answer"
	ans.CharLimit = 32
	ans.Width = 20

	return model{
		scr:         screenEntry,
		configInput: in,
		answerInput: ans,
		simulate:    simulate,
		log:         log,
		op:          op,
	}
}

type errMsg struct{ err error }
type connectedMsg struct {
	sess       *calibration.Session
	cfg        models.Config
	plan       []calibration.PlanStep
	configPath string
}
type disconnectedMsg struct{}
type progressMsg struct {
	runID int
	p     calibration.Progress
}
type calDoneMsg struct {
	runID int
	rec   *models.CalibrationRecord
	err   error
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			_ = m.disconnect()
			return m, tea.Quit
		}

		switch m.scr {
		case screenEntry:
			return m.updateEntryKey(msg)
		case screenCalibration:
			return m.updateCalibrationKey(msg)
		case screenDone:
			return m.updateDoneKey(msg)
		}

	case errMsg:
		m.lastErr = msg.err
		return m, nil

	case connectedMsg:
		m.sess = msg.sess
		m.cfg = msg.cfg
		m.plan = msg.plan
		m.configPath = msg.configPath
		source := "bridge amplifier"
		if m.sess.Simulated() {
			source = "simulator"
		}
		m.infoLine = fmt.Sprintf("Connected to %s on %s (%d setpoints)", source, m.cfg.PhysicalChannel(), len(m.plan))
		m.lastErr = nil
		return m, nil

	case disconnectedMsg:
		m.sess = nil
		m.infoLine = "Disconnected"
		return m, nil

	case promptMsg:
		m.prompt = &msg
		m.answerInput.SetValue("")
		m.answerInput.Focus()
		return m, textinput.Blink

	case progressMsg:
		if msg.runID != m.calRunID {
			return m, nil
		}
		m.progress = msg.p
		switch {
		case msg.p.State == calibration.StateWarning:
			m.warnings = append(m.warnings, msg.p.Message)
		case msg.p.Result != nil:
			m.results = append(m.results, resultLine{dir: msg.p.Direction, res: *msg.p.Result})
		}
		return m, nil

	case calDoneMsg:
		if msg.runID != m.calRunID {
			return m, nil
		}
		m.runCancel = nil
		m.prompt = nil
		if msg.err != nil {
			m.calStatus = statusError
			m.lastErr = msg.err
			return m, nil
		}
		m.calStatus = statusDone
		m.record = msg.rec
		m.scr = screenDone
		m.infoLine = "Calibration complete (saved to " + m.cfg.RecordPath() + ")."
		return m, nil
	}

	// default: let inputs update
	var cmd tea.Cmd
	switch m.scr {
	case screenEntry:
		m.configInput, cmd = m.configInput.Update(msg)
	case screenCalibration:
		m.answerInput, cmd = m.answerInput.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Torquecal") + "\n")
	b.WriteString(helpStyle.Render("Ctrl+C to quit. Esc aborts a running calibration.") + "\n\n")
	if m.infoLine != "" {
		b.WriteString(okStyle.Render(m.infoLine) + "\n")
	}
	if m.lastErr != nil {
		b.WriteString(errStyle.Render("Error: "+m.lastErr.Error()) + "\n")
	}
	b.WriteString("\n")

	switch m.scr {
	case screenEntry:
		b.WriteString(m.viewEntry())
	case screenCalibration:
		b.WriteString(m.viewCalibration())
	case screenDone:
		b.WriteString(m.viewDone())
	}
	return b.String()
}

func (m model) viewEntry() string {
	var b strings.Builder
	b.WriteString("Config JSON:\n")
	b.WriteString(m.configInput.View() + "\n\n")
	if m.sess == nil {
		b.WriteString(helpStyle.Render("Enter a config path then press Enter to connect.") + "\n")
		return b.String()
	}
	b.WriteString(okStyle.Render("Connected.") + "\n\n")
	b.WriteString("Plan:\n")
	for _, st := range m.plan {
		b.WriteString(fmt.Sprintf("  %s %s\n", st.Label, st.Prompt))
	}
	b.WriteString("\n" + helpStyle.Render("Press Enter to start the calibration. Press d to disconnect.") + "\n")
	return b.String()
}

func (m model) viewCalibration() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Calibration") + "\n\n")
	p := m.progress
	if p.Index >= 0 && p.Total > 0 {
		b.WriteString(fmt.Sprintf("%s setpoint %d/%d: %.3g %s\n", calibration.Title(p.Direction), p.Index+1, p.Total, p.Nominal, m.cfg.CanonicalUnit()))
	}
	if p.State != "" {
		b.WriteString(helpStyle.Render(string(p.State)+" "+p.Message) + "\n\n")
	}
	for _, r := range m.results {
		b.WriteString(fmt.Sprintf("  %-10s #%-2d applied %10.4g %s  mean %.6g V/V  std %.3g\n",
			r.dir, r.res.Index, r.res.Applied, m.cfg.CanonicalUnit(), r.res.MeanSignal, r.res.StdSignal))
	}
	for _, w := range m.warnings {
		b.WriteString(warnStyle.Render("warning: "+w) + "\n")
	}
	b.WriteString("\n")
	if m.prompt != nil {
		q := m.prompt.message
		if m.prompt.allowed != nil {
			q += " (" + strings.Join(m.prompt.allowed, "/") + ")"
		}
		b.WriteString(promptBox.Render(q+"\n"+m.answerInput.View()) + "\n")
		b.WriteString(helpStyle.Render("Type the answer and press Enter.") + "\n")
	} else if m.calStatus == statusRunning {
		b.WriteString("Working...\n")
	} else if m.calStatus == statusError {
		b.WriteString(helpStyle.Render("Calibration aborted. Press b to go back.") + "\n")
	}
	return b.String()
}

func (m model) viewDone() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Results") + "\n\n")
	if m.record == nil {
		return b.String()
	}
	for _, r := range m.record.Regressions {
		b.WriteString(fmt.Sprintf("%-10s slope %.6g %s  intercept %.4g  r %.6f\n",
			calibration.Title(r.Direction), r.Regression.Slope, m.record.Units, r.Regression.Intercept, r.Regression.RValue))
	}
	all := m.record.All
	b.WriteString(fmt.Sprintf("%-10s slope %.6g %s  intercept %.4g  r %.6f  n %d\n",
		"All", all.Slope, m.record.Units, all.Intercept, all.RValue, all.N))
	b.WriteString("\n" + helpStyle.Render("Press b to go back.") + "\n")
	return b.String()
}

func (m *model) disconnect() error {
	m.stopRun()
	if m.sess != nil {
		_ = m.sess.Close()
		m.sess = nil
	}
	return nil
}

func (m *model) stopRun() {
	if m.runCancel != nil {
		m.runCancel()
		m.runCancel = nil
	}
}

func (m model) updateEntryKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "enter":
		if m.sess == nil {
			path := strings.TrimSpace(m.configInput.Value())
			if path == "" {
				return m, func() tea.Msg { return errMsg{err: fmt.Errorf("config path is empty")} }
			}
			return m, m.connectCmd(path)
		}
		m.calRunID++
		ctx, cancel := context.WithCancel(context.Background())
		m.runCancel = cancel
		m.scr = screenCalibration
		m.calStatus = statusRunning
		m.progress = calibration.Progress{Index: -1}
		m.results = nil
		m.warnings = nil
		m.record = nil
		m.lastErr = nil
		return m, m.runCalibrationCmd(ctx, m.calRunID)
	case "d":
		if m.sess != nil {
			_ = m.disconnect()
			return m, func() tea.Msg { return disconnectedMsg{} }
		}
	}

	var cmd tea.Cmd
	m.configInput, cmd = m.configInput.Update(k)
	return m, cmd
}

func (m model) updateCalibrationKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc":
		m.stopRun()
		return m, nil
	case "b":
		if m.calStatus != statusRunning {
			m.scr = screenEntry
			return m, nil
		}
	case "enter":
		if m.prompt == nil {
			return m, nil
		}
		v, err := m.prompt.parse(m.answerInput.Value())
		if err != nil {
			m.lastErr = err
			m.answerInput.SetValue("")
			return m, nil
		}
		m.lastErr = nil
		m.prompt.reply <- v
		m.prompt = nil
		m.answerInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.answerInput, cmd = m.answerInput.Update(k)
	return m, cmd
}

func (m model) updateDoneKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.String() == "b" {
		m.scr = screenEntry
	}
	return m, nil
}

func (m model) connectCmd(path string) tea.Cmd {
	simulate := m.simulate
	log := m.log
	return func() tea.Msg {
		cfg, err := calibration.LoadConfig(path)
		if err != nil {
			return errMsg{err: err}
		}
		cfg.Simulate = cfg.Simulate || simulate
		plan, err := calibration.BuildPlan(cfg)
		if err != nil {
			return errMsg{err: err}
		}
		sess, err := calibration.Connect(cfg, log)
		if err != nil {
			return errMsg{err: err}
		}
		return connectedMsg{sess: sess, cfg: cfg, plan: plan, configPath: path}
	}
}

func (m model) runCalibrationCmd(ctx context.Context, runID int) tea.Cmd {
	sess, cfg, op, log := m.sess, m.cfg, m.op, m.log
	return func() tea.Msg {
		operator := sess.Operator(op)
		cfg, err := calibration.CompleteSetup(ctx, cfg, operator, false)
		if err != nil {
			return calDoneMsg{runID: runID, err: err}
		}
		store, closeStore := persist.ForConfig(cfg, log)
		defer closeStore()
		c := &calibration.Calibrator{
			Config:     cfg,
			Source:     sess.Source,
			Operator:   operator,
			Store:      store,
			Log:        log,
			OnProgress: func(p calibration.Progress) { op.send(progressMsg{runID: runID, p: p}) },
		}
		rec, err := c.Run(ctx)
		return calDoneMsg{runID: runID, rec: rec, err: err}
	}
}

func main() {
	var (
		app      = kingpin.New("modernui", "Terminal UI for transducer calibration.")
		config   = app.Arg("config", "Path to config.json.").String()
		simulate = app.Flag("simulate", "Use the simulated bridge instead of the serial amplifier.").Bool()
		logFile  = app.Flag("log-file", "Where to write the log.").Default("modernui.log").String()
		level    = app.Flag("log", "Log level (debug|info|warn|error).").Default("info").Enum("debug", "info", "warn", "error")
	)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := logrus.New()
	lvl, _ := logrus.ParseLevel(*level)
	logger.SetLevel(lvl)
	f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	defer f.Close()
	logger.SetOutput(f)

	op := &tuiOperator{}
	p := tea.NewProgram(initialModel(*config, *simulate, logrus.NewEntry(logger), op), tea.WithAltScreen())
	op.send = p.Send
	if _, err := p.Run(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}
