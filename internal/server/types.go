package server

import (
	"time"

	"github.com/CK6170/Torquecal-go/calibration"
)

type APIError struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	OK        bool      `json:"ok"`
	Timestamp time.Time `json:"timestamp"`
}

type UploadResponse struct {
	ConfigID string `json:"configId"`
	Kind     string `json:"kind"`
}

type ConnectRequest struct {
	ConfigID string `json:"configId"`
}

type ConnectResponse struct {
	Connected bool   `json:"connected"`
	Port      string `json:"port,omitempty"`
	Simulated bool   `json:"simulated"`
	Channel   string `json:"channel"`
}

type CalPlanResponse struct {
	Steps []calibration.PlanStep `json:"steps"`
}

// CalStartRequest may fill in settings the uploaded config left open.
type CalStartRequest struct {
	Side string `json:"side,omitempty"`
}

type CalStatusResponse struct {
	Connected bool   `json:"connected"`
	Running   bool   `json:"running"`
	RecordID  string `json:"recordId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type PromptKind string

const (
	PromptNumber PromptKind = "number"
	PromptChoice PromptKind = "choice"
)

// PromptDTO is the question the calibration is currently waiting on.
type PromptDTO struct {
	ID      string     `json:"promptId"`
	Kind    PromptKind `json:"kind"`
	Message string     `json:"message"`
	Allowed []string   `json:"allowed,omitempty"`
}

type AnswerRequest struct {
	PromptID string `json:"promptId"`
	Value    string `json:"value"`
}
