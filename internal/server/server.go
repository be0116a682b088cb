// Package server exposes the calibration over HTTP for the browser front
// end. Progress and prompts are pushed on /ws/calibration; answers come back
// through /api/prompt/answer.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CK6170/Torquecal-go/calibration"
	"github.com/CK6170/Torquecal-go/models"
	"github.com/CK6170/Torquecal-go/persist"
)

type Server struct {
	mux *http.ServeMux
	log *logrus.Entry

	store    *ConfigStore
	dev      *DeviceSession
	operator *WebOperator

	wsCal *WSHub

	// connect opens the acquisition source; replaced in tests.
	connect func(models.Config, *logrus.Entry) (*calibration.Session, error)
}

func New(log *logrus.Entry, webRoot string) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		mux:     http.NewServeMux(),
		log:     log,
		store:   NewConfigStore(),
		dev:     &DeviceSession{},
		wsCal:   NewWSHub(),
		connect: calibration.Connect,
	}
	s.operator = NewWebOperator(func(p PromptDTO) {
		s.wsCal.Broadcast(WSMessage{Type: msgPrompt, Data: p})
	})

	// API
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/upload/config", s.handleUploadConfig)
	s.mux.HandleFunc("/api/connect", s.handleConnect)
	s.mux.HandleFunc("/api/disconnect", s.handleDisconnect)
	s.mux.HandleFunc("/api/download", s.handleDownload)

	s.mux.HandleFunc("/api/calibration/plan", s.handleCalPlan)
	s.mux.HandleFunc("/api/calibration/start", s.handleCalStart)
	s.mux.HandleFunc("/api/calibration/stop", s.handleStopOp)
	s.mux.HandleFunc("/api/calibration/status", s.handleCalStatus)

	s.mux.HandleFunc("/api/prompt", s.handlePrompt)
	s.mux.HandleFunc("/api/prompt/answer", s.handleAnswer)

	// WS
	s.mux.HandleFunc("/ws/calibration", s.handleWSCal)

	// Static frontend
	if webRoot != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(webRoot)))
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	b, err := io.ReadAll(io.LimitReader(r.Body, 2<<20))
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, 200, HealthResponse{OK: true, Timestamp: time.Now()})
}

func (s *Server) handleUploadConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	f, _, err := fileFromMultipart(r, "file")
	if err != nil {
		s.writeJSON(w, 400, APIError{Error: err.Error()})
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, 4<<20))
	if err != nil {
		s.writeJSON(w, 400, APIError{Error: err.Error()})
		return
	}
	cfg, err := calibration.DecodeConfig(raw)
	if err != nil {
		s.writeJSON(w, 400, APIError{Error: err.Error()})
		return
	}
	rec := s.store.Put("", kindConfig, raw, &cfg)
	s.log.WithField("config", rec.ID).Info("config uploaded")
	s.writeJSON(w, 200, UploadResponse{ConfigID: rec.ID, Kind: string(kindConfig)})
}

func fileFromMultipart(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return nil, nil, err
	}
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	return f, hdr, nil
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req ConnectRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeJSON(w, 400, APIError{Error: err.Error()})
		return
	}
	rec, ok := s.store.Get(req.ConfigID)
	if !ok || rec.Kind != kindConfig {
		s.writeJSON(w, 404, APIError{Error: "configId not found (upload a config first)"})
		return
	}

	// Release the old port first; opening or auto-detecting the new one can
	// take seconds and must not block status requests.
	s.dev.mu.Lock()
	s.dev.cancelLocked()
	old := s.dev.detachLocked()
	s.dev.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	sess, err := s.connect(*rec.Cfg, s.log)
	if err != nil {
		s.writeJSON(w, 400, APIError{Error: err.Error()})
		return
	}

	s.dev.mu.Lock()
	// A concurrent connect may have finished first; the latest one wins.
	s.dev.cancelLocked()
	old = s.dev.detachLocked()
	s.dev.configID = rec.ID
	s.dev.cfg = *rec.Cfg
	s.dev.sess = sess
	s.dev.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	resp := ConnectResponse{Connected: true, Simulated: sess.Simulated(), Channel: rec.Cfg.PhysicalChannel()}
	resp.Port = sess.Port()
	s.writeJSON(w, 200, resp)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	s.dev.cancelLocked()
	_ = s.dev.disconnectLocked()
	s.writeJSON(w, 200, map[string]bool{"ok": true})
}

func (s *Server) handleStopOp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	s.dev.cancelLocked()
	s.writeJSON(w, 200, map[string]bool{"ok": true})
}

func (s *Server) handleCalPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	s.dev.mu.Lock()
	connected := s.dev.connectedLocked()
	cfg := s.dev.cfg
	s.dev.mu.Unlock()
	if !connected {
		s.writeJSON(w, 400, APIError{Error: "not connected"})
		return
	}
	steps, err := calibration.BuildPlan(cfg)
	if err != nil {
		s.writeJSON(w, 500, APIError{Error: err.Error()})
		return
	}
	s.writeJSON(w, 200, CalPlanResponse{Steps: steps})
}

func (s *Server) handleCalStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, 200, s.dev.status())
}

func (s *Server) handleCalStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req CalStartRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeJSON(w, 400, APIError{Error: err.Error()})
		return
	}

	s.dev.mu.Lock()
	if !s.dev.connectedLocked() {
		s.dev.mu.Unlock()
		s.writeJSON(w, 400, APIError{Error: "not connected"})
		return
	}
	if s.dev.running {
		s.dev.mu.Unlock()
		s.writeJSON(w, 409, APIError{Error: "a calibration is already running"})
		return
	}
	cfg := s.dev.cfg
	if req.Side != "" {
		if !validSide(req.Side) {
			s.dev.mu.Unlock()
			s.writeJSON(w, 400, APIError{Error: "side must be one of: " + strings.Join(calibration.Sides, ", ")})
			return
		}
		cfg.Side = strings.ToLower(req.Side)
	}
	if err := cfg.Validate(); err != nil {
		s.dev.mu.Unlock()
		s.writeJSON(w, 400, APIError{Error: err.Error()})
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.dev.opCancel = cancel
	s.dev.running = true
	s.dev.recordID = ""
	s.dev.lastErr = ""
	sess := s.dev.sess
	s.dev.mu.Unlock()

	go s.runCalibration(ctx, cfg, sess)

	s.writeJSON(w, 200, map[string]bool{"ok": true})
}

func validSide(side string) bool {
	for _, v := range calibration.Sides {
		if strings.EqualFold(v, side) {
			return true
		}
	}
	return false
}

func (s *Server) runCalibration(ctx context.Context, cfg models.Config, sess *calibration.Session) {
	log := s.log.WithField("channel", cfg.PhysicalChannel())
	op := sess.Operator(s.operator)

	// A force transducer without a side asks for it through the prompt API.
	cfg, err := calibration.CompleteSetup(ctx, cfg, op, false)
	var rec *models.CalibrationRecord
	if err == nil {
		store, closeStore := persist.ForConfig(cfg, log)
		defer closeStore()

		c := &calibration.Calibrator{
			Config:   cfg,
			Source:   sess.Source,
			Operator: op,
			Store:    store,
			Log:      log,
			OnProgress: func(p calibration.Progress) {
				s.wsCal.Broadcast(WSMessage{Type: msgProgress, Data: p})
			},
		}
		rec, err = c.Run(ctx)
	}

	var recordID string
	if err == nil {
		raw, merr := json.MarshalIndent(rec, "", "  ")
		if merr != nil {
			err = errors.Wrap(merr, "encoding record")
		} else {
			recordID = s.store.Put(rec.ID, kindRecord, raw, nil).ID
		}
	}

	s.dev.mu.Lock()
	s.dev.running = false
	s.dev.opCancel = nil
	s.dev.recordID = recordID
	if err != nil {
		s.dev.lastErr = err.Error()
	}
	s.dev.mu.Unlock()

	if err != nil {
		log.Errorf("calibration failed: %v", err)
		s.wsCal.broadcastError(err)
		return
	}
	s.wsCal.Broadcast(WSMessage{
		Type: msgDone,
		Data: map[string]interface{}{
			"ok":       true,
			"recordId": recordID,
			"record":   rec,
		},
	})
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	p, ok := s.operator.Pending()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, 200, p)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req AnswerRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeJSON(w, 400, APIError{Error: err.Error()})
		return
	}
	if err := s.operator.Answer(req.PromptID, req.Value); err != nil {
		status := 400
		if err == errNoPrompt {
			status = 409
		}
		s.writeJSON(w, status, APIError{Error: err.Error()})
		return
	}
	s.writeJSON(w, 200, map[string]bool{"ok": true})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeJSON(w, 400, APIError{Error: "missing id"})
		return
	}
	rec, ok := s.store.Get(id)
	if !ok {
		s.writeJSON(w, 404, APIError{Error: "not found"})
		return
	}
	name := "config.json"
	if rec.Kind == kindRecord {
		name = "calibration.json"
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(200)
	_, _ = w.Write(rec.Raw)
}
