package oschub

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/hypebeast/go-osc/osc"

	"prism/internal/logging"
)

// Publisher sends engine output to the configured forward targets, normally
// the renderer. Sends are fire-and-forget: a failure is logged at debug and
// never blocks the frame loop.
type Publisher struct {
	logger  *slog.Logger
	clients []*osc.Client
}

// NewPublisher resolves the host:port forward targets into OSC clients.
func NewPublisher(targets []string, logger *slog.Logger) (*Publisher, error) {
	p := &Publisher{logger: logging.NewComponentLogger(logger, "publisher")}
	for _, target := range targets {
		host, portStr, err := net.SplitHostPort(target)
		if err != nil {
			return nil, fmt.Errorf("forward target %q: %w", target, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("forward target %q: bad port: %w", target, err)
		}
		p.clients = append(p.clients, osc.NewClient(host, port))
	}
	return p, nil
}

// Param publishes one bound parameter value.
func (p *Publisher) Param(name string, value float64) {
	msg := osc.NewMessage(AddrParamPrefix + name)
	msg.Append(float32(value))
	p.send(msg)
}

// Scene publishes the active scene: mood followed by the ordered asset ids.
func (p *Publisher) Scene(mood string, assetIDs []string) {
	msg := osc.NewMessage(AddrScene)
	msg.Append(mood)
	for _, id := range assetIDs {
		msg.Append(id)
	}
	p.send(msg)
}

// Visible publishes the output visibility flag.
func (p *Publisher) Visible(on bool) {
	msg := osc.NewMessage(AddrVisibleOut)
	if on {
		msg.Append(int32(1))
	} else {
		msg.Append(int32(0))
	}
	p.send(msg)
}

func (p *Publisher) send(msg *osc.Message) {
	for _, client := range p.clients {
		if err := client.Send(msg); err != nil {
			p.logger.Debug("publish failed",
				logging.String(logging.FieldAddress, msg.Address), logging.Error(err))
		}
	}
}
