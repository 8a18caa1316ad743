package app

import (
	"github.com/dkeye/Switchboard/internal/core"
	"github.com/rs/zerolog/log"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

type Policy interface {
	OnBackPressure(member core.Session) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.Session) BackpressureAction {
	return KickMember
}

// PublishResult reports delivery stats/backpressure of a broadcast.
type PublishResult struct {
	SendTo  int
	Dropped []core.Session
}

// Broadcast sends frame to every authenticated session except from.
// Sessions that cannot keep up are handed to policy.
func (r *Registry) Broadcast(from core.SessionID, frame core.Frame, policy Policy) PublishResult {
	res := PublishResult{}
	for _, snap := range r.Authenticated() {
		if snap.SID == from {
			continue
		}
		if err := snap.Session.Send(frame); err != nil {
			res.Dropped = append(res.Dropped, snap.Session)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.broadcast").Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")

	if policy == nil {
		return res
	}
	for _, slow := range res.Dropped {
		switch policy.OnBackPressure(slow) {
		case KickMember:
			log.Warn().Str("module", "app.broadcast").Str("sid", string(slow.ID())).Msg("kicking slow session")
			slow.Close()
		case DropFrame, NoAction:
		}
	}
	return res
}
