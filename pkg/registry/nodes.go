package registry

import (
	"github.com/conduitcrm/conduit/pkg/nodes/action"
	"github.com/conduitcrm/conduit/pkg/nodes/aiobjective"
	"github.com/conduitcrm/conduit/pkg/nodes/condition"
	"github.com/conduitcrm/conduit/pkg/nodes/delay"
	"github.com/conduitcrm/conduit/pkg/nodes/httprequest"
	"github.com/conduitcrm/conduit/pkg/nodes/trigger"
	"github.com/conduitcrm/conduit/pkg/protocol"
)

// Dependencies carries the external collaborators injected into node
// capabilities at wiring time, keeping module-level singletons out of the
// engine and enabling deterministic test doubles.
type Dependencies struct {
	Evaluator protocol.ObjectiveEvaluator
	Provider  protocol.ChannelProvider
}

// RegisterDefaults registers the built-in node set.
func (r *Registry) RegisterDefaults(deps Dependencies) {
	r.Register(trigger.NewFactory())
	r.Register(action.NewFactory(deps.Provider))
	r.Register(condition.NewFactory())
	r.Register(delay.NewFactory())
	r.Register(httprequest.NewFactory())
	r.Register(aiobjective.NewFactory(deps.Evaluator))
}
