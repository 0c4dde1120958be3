// Package cicd implements the TRIGGER_CI_CD action.
package cicd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agarg/collabot/pkg/integration"
	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/protocol"
)

const defaultEnvironment = "staging"

func NewFactory(connector integration.CICDConnector) *Factory {
	return &Factory{connector: connector}
}

type Factory struct {
	connector integration.CICDConnector
}

func (*Factory) ID() string {
	return string(models.ActionTypeTriggerCICD)
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pipeline":    map[string]any{"type": "string", "minLength": 1},
			"environment": map[string]any{"type": "string"},
			"ref":         map[string]any{"type": "string"},
			"parameters":  map[string]any{"type": "object"},
		},
		"required": []any{"pipeline"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	pipeline, _ := config["pipeline"].(string)
	if pipeline == "" {
		return nil, errors.New("trigger_ci_cd requires a pipeline")
	}

	environment, _ := config["environment"].(string)
	if environment == "" {
		environment = defaultEnvironment
	}

	ref, _ := config["ref"].(string)

	parameters := make(map[string]string)
	if parametersConfig, ok := config["parameters"].(map[string]any); ok {
		for key, value := range parametersConfig {
			if stringValue, ok := value.(string); ok {
				parameters[key] = stringValue
			}
		}
	}

	return &Handler{
		connector: f.connector,
		request: integration.PipelineRequest{
			Pipeline:    pipeline,
			Environment: environment,
			Ref:         ref,
			Parameters:  parameters,
		},
	}, nil
}

type Handler struct {
	connector integration.CICDConnector
	request   integration.PipelineRequest
}

func (h *Handler) Execute(ctx context.Context, _ models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "trigger_ci_cd")

	ref, err := h.connector.TriggerPipeline(ctx, h.request)
	if err != nil {
		return nil, fmt.Errorf("failed to trigger pipeline: %w", err)
	}

	logger.InfoContext(ctx, "Triggered pipeline",
		"pipeline", h.request.Pipeline, "environment", h.request.Environment, "run_id", ref.RunID)

	return map[string]any{
		"pipeline":    h.request.Pipeline,
		"environment": h.request.Environment,
		"run_id":      ref.RunID,
		"run_url":     ref.URL,
	}, nil
}
