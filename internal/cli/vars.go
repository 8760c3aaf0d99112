package cli

import (
	"github.com/valter-silva-au/eisenhower/internal/core"
	"github.com/valter-silva-au/eisenhower/internal/integration"
	"github.com/valter-silva-au/eisenhower/internal/observability"
	"github.com/valter-silva-au/eisenhower/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	Engine     *core.Engine
	Classifier integration.Classifier
	Config     *models.GlobalConfig
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	Metrics     *observability.Metrics
	AlertEngine observability.AlertEngine
	Notifier    observability.Notifier
)
