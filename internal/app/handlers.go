// Package app holds the message handlers served over the websocket and the
// session registry they share.
package app

import (
	"github.com/dkeye/Switchboard/internal/core"
	"github.com/dkeye/Switchboard/internal/dispatch"
)

// Handlers is the full handler set, bound to their payload types.
func Handlers(reg *Registry, policy Policy) []dispatch.Route {
	return []dispatch.Route{
		dispatch.Bind[*AuthRequest](&AuthHandler{Registry: reg, Policy: policy}),
		dispatch.Bind[*EchoRequest](EchoHandler{}),
		dispatch.Bind[*SendToOneRequest](&SendToOneHandler{Registry: reg}),
		dispatch.Bind[*SendToAllRequest](&SendToAllHandler{Registry: reg, Policy: policy}),
	}
}

// NewDispatcher builds the registry over Handlers and wires the session
// lifecycle into reg.
func NewDispatcher(reg *Registry, policy Policy, dup dispatch.DuplicatePolicy, opts ...dispatch.Option) (*dispatch.Dispatcher, error) {
	table, err := dispatch.NewRegistry(
		Handlers(reg, policy),
		dispatch.WithDuplicatePolicy(dup),
		dispatch.WithKnownTags(KnownTags()...),
		dispatch.WithRequiredTags(KnownTags()...),
	)
	if err != nil {
		return nil, err
	}
	opts = append([]dispatch.Option{
		dispatch.WithOpener(OpenAuth),
		dispatch.WithCloseHook(func(s core.Session) { reg.Unbind(s.ID()) }),
	}, opts...)
	return dispatch.New(table, opts...), nil
}
