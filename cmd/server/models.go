package main

import (
	"time"

	"github.com/liamcoop/easyrules/rules"
)

// API Request and Response Models

// RuleResponse represents a registered rule in API responses
type RuleResponse struct {
	ID           string    `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Name         string    `json:"name" example:"heat-alert"`
	Description  string    `json:"description" example:"temperature is above 30"`
	Priority     int       `json:"priority" example:"1"`
	Language     string    `json:"language,omitempty" example:"cel"`
	Condition    string    `json:"condition,omitempty" example:"temperature > 30"`
	RegisteredAt time.Time `json:"registeredAt" example:"2024-01-15T10:30:00Z"`
}

// RulesListResponse lists rules in precedence order
type RulesListResponse struct {
	Rules []RuleResponse `json:"rules"`
}

// ConflictsResponse lists groups of rule names tied on precedence
type ConflictsResponse struct {
	Conflicts [][]string `json:"conflicts"`
}

// FactsResponse represents the current facts
type FactsResponse struct {
	Facts map[string]any `json:"facts"`
}

// EvaluateRequest optionally restricts evaluation to named rules
type EvaluateRequest struct {
	Rules []string `json:"rules,omitempty" example:"heat-alert"`
}

// EvaluationResultResponse represents the condition result of a single rule
type EvaluationResultResponse struct {
	RuleName string `json:"ruleName" example:"heat-alert"`
	Priority int    `json:"priority" example:"1"`
	Matched  bool   `json:"matched" example:"true"`
	Error    string `json:"error,omitempty"`
}

// EvaluateResponse represents the response for condition evaluation
type EvaluateResponse struct {
	Results        []EvaluationResultResponse `json:"results"`
	EvaluationTime string                     `json:"evaluationTime" example:"2.3ms"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"rule not found"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status          string `json:"status" example:"healthy"`
	RulesRegistered int    `json:"rulesRegistered" example:"3"`
}

func newRuleResponse(registration rules.Registration) RuleResponse {
	r := registration.Rule
	resp := RuleResponse{
		ID:           registration.ID,
		Name:         r.Name(),
		Description:  r.Description(),
		Priority:     r.Priority(),
		RegisteredAt: registration.RegisteredAt,
	}
	if er, ok := r.(*rules.ExpressionRule); ok && er.Condition() != nil {
		resp.Language = string(er.Condition().Language())
		resp.Condition = er.Condition().Source()
	}
	return resp
}

func newEvaluationResultResponse(result *rules.EvaluationResult) EvaluationResultResponse {
	resp := EvaluationResultResponse{
		RuleName: result.RuleName,
		Priority: result.Priority,
		Matched:  result.Matched,
	}
	if result.Error != nil {
		resp.Error = result.Error.Error()
	}
	return resp
}
