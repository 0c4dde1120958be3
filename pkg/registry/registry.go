// Package registry maps action types to handler factories.
package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/agarg/collabot/pkg/models"
	"github.com/agarg/collabot/pkg/protocol"
)

var ErrHandlerNotRegistered = errors.New("handler not registered")

func IsHandlerNotRegistered(err error) bool {
	return errors.Is(err, ErrHandlerNotRegistered)
}

type Registry struct {
	logger    *slog.Logger
	factories map[models.ActionType]protocol.HandlerFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[models.ActionType]protocol.HandlerFactory),
	}
}

func (r *Registry) Register(factory protocol.HandlerFactory) {
	r.factories[models.ActionType(factory.ID())] = factory
	r.logger.Debug("Registered action handler", "action_type", factory.ID())
}

// Registered reports whether a factory exists for the given action type.
func (r *Registry) Registered(actionType models.ActionType) bool {
	_, ok := r.factories[actionType]

	return ok
}

// ActionTypes returns the registered action types.
func (r *Registry) ActionTypes() []models.ActionType {
	types := make([]models.ActionType, 0, len(r.factories))
	for actionType := range r.factories {
		types = append(types, actionType)
	}

	return types
}

// CreateHandler builds a handler for the action. Unknown action types return
// ErrHandlerNotRegistered so callers can decide whether to skip or fail.
func (r *Registry) CreateHandler(actionType models.ActionType, config map[string]any) (protocol.Handler, error) {
	factory, ok := r.factories[actionType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotRegistered, actionType)
	}

	return factory.Create(config)
}

// ValidateConfig checks an action configuration against the factory schema.
func (r *Registry) ValidateConfig(actionType models.ActionType, config map[string]any) error {
	factory, ok := r.factories[actionType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrHandlerNotRegistered, actionType)
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(factory.Schema())
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate %s config: %w", actionType, err)
	}

	if !result.Valid() {
		validationErrors := result.Errors()
		messages := make([]string, 0, len(validationErrors))

		for _, validationError := range validationErrors {
			messages = append(messages, validationError.String())
		}

		return fmt.Errorf("invalid %s config: %v", actionType, messages)
	}

	return nil
}
