package entity

import (
	"errors"
	"fmt"
)

var ErrUnknownAgentKind = errors.New("unknown agent kind")

// AgentKind identifies the external backend that plays one side of a match.
type AgentKind string

const (
	AgentGemini AgentKind = "gemini"
	AgentLlama  AgentKind = "llama"
	AgentDify   AgentKind = "dify"
)

// AgentKinds - returns every supported agent in display order.
func AgentKinds() []AgentKind {
	return []AgentKind{AgentGemini, AgentLlama, AgentDify}
}

// ParseAgentKind - converts raw input into an AgentKind, rejecting anything outside the closed set.
func ParseAgentKind(raw string) (AgentKind, error) {
	kind := AgentKind(raw)
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAgentKind, raw)
	}

	return kind, nil
}

func (that AgentKind) IsValid() bool {
	switch that {
	case AgentGemini, AgentLlama, AgentDify:
		return true
	default:
		return false
	}
}

func (that AgentKind) String() string {
	return string(that)
}
