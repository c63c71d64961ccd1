package messaging

import (
	"context"
	"fmt"
	"sync"

	"missedcall/internal/gatewaycreds"
)

// MemoryGateway records messages instead of sending them. Set Err to simulate failures.
type MemoryGateway struct {
	mu   sync.Mutex
	Err  error
	sent []SentMessage
}

type SentMessage struct {
	Creds gatewaycreds.Credentials
	Msg   OutboundSMS
}

func (g *MemoryGateway) SendSMS(ctx context.Context, creds gatewaycreds.Credentials, msg OutboundSMS) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	g.sent = append(g.sent, SentMessage{Creds: creds, Msg: msg})
	return fmt.Sprintf("SM%04d", len(g.sent)), nil
}

func (g *MemoryGateway) Sent() []SentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]SentMessage, len(g.sent))
	copy(out, g.sent)
	return out
}
