// Package live tracks running live-trading deployments and delivers control
// commands to them.
package live

import (
	"fmt"

	"github.com/google/uuid"
)

// Action is a control command understood by a running engine.
type Action string

const (
	AddSecurity Action = "AddSecurity"
	SubmitOrder Action = "SubmitOrder"
	UpdateOrder Action = "UpdateOrder"
	CancelOrder Action = "CancelOrder"
	Liquidate   Action = "Liquidate"
	Stop        Action = "Stop"
)

// Terminal reports whether the action stops the session on acknowledgement.
func (a Action) Terminal() bool {
	return a == Liquidate || a == Stop
}

// wireTypes map actions to the engine's command type identifiers.
var wireTypes = map[Action]string{
	AddSecurity: "QuantConnect.Commands.AddSecurityCommand, QuantConnect.Common",
	SubmitOrder: "QuantConnect.Commands.OrderCommand, QuantConnect.Common",
	UpdateOrder: "QuantConnect.Commands.UpdateOrderCommand, QuantConnect.Common",
	CancelOrder: "QuantConnect.Commands.CancelOrderCommand, QuantConnect.Common",
	Liquidate:   "QuantConnect.Commands.LiquidateCommand, QuantConnect.Common",
	Stop:        "QuantConnect.Commands.StopCommand, QuantConnect.Common",
}

// Message is one control message. Created by the CLI layer, consumed exactly
// once by the command channel, never retried automatically.
type Message struct {
	ID      string
	Action  Action
	Payload map[string]any
}

// NewMessage creates a Message with a fresh id.
func NewMessage(action Action, payload map[string]any) (*Message, error) {
	if _, ok := wireTypes[action]; !ok {
		return nil, fmt.Errorf("unknown live command action %q", action)
	}
	return &Message{
		ID:      uuid.NewString(),
		Action:  action,
		Payload: payload,
	}, nil
}

// Encode returns the JSON document the engine expects as a command file.
func (m *Message) Encode() map[string]any {
	doc := map[string]any{
		"$type": wireTypes[m.Action],
		"Id":    m.ID,
	}
	for k, v := range m.Payload {
		doc[k] = v
	}
	return doc
}
