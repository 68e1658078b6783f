package oschub

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"prism/internal/logging"
)

func newCapturingTarget(t *testing.T) (string, <-chan *osc.Message) {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	messages := make(chan *osc.Message, 16)
	go func() {
		buf := make([]byte, 65507)
		for {
			n, _, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			packet, err := osc.ParsePacket(string(buf[:n]))
			if err != nil {
				continue
			}
			if msg, ok := packet.(*osc.Message); ok {
				messages <- msg
			}
		}
	}()
	return conn.LocalAddr().String(), messages
}

func receive(t *testing.T, messages <-chan *osc.Message) *osc.Message {
	t.Helper()
	select {
	case msg := <-messages:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestPublisherParam(t *testing.T) {
	target, messages := newCapturingTarget(t)
	publisher, err := NewPublisher([]string{target}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}

	publisher.Param("glow", 0.75)
	msg := receive(t, messages)
	if msg.Address != AddrParamPrefix+"glow" {
		t.Errorf("address = %q", msg.Address)
	}
	if len(msg.Arguments) != 1 || msg.Arguments[0] != float32(0.75) {
		t.Errorf("arguments = %v, want [0.75]", msg.Arguments)
	}
}

func TestPublisherScene(t *testing.T) {
	target, messages := newCapturingTarget(t)
	publisher, err := NewPublisher([]string{target}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}

	publisher.Scene("dark, glitchy", []string{"isf/BitStreamer", "isf/NeonTunnel3D"})
	msg := receive(t, messages)
	if msg.Address != AddrScene {
		t.Errorf("address = %q", msg.Address)
	}
	want := []interface{}{"dark, glitchy", "isf/BitStreamer", "isf/NeonTunnel3D"}
	if len(msg.Arguments) != len(want) {
		t.Fatalf("arguments = %v, want %v", msg.Arguments, want)
	}
	for i := range want {
		if msg.Arguments[i] != want[i] {
			t.Errorf("argument %d = %v, want %v", i, msg.Arguments[i], want[i])
		}
	}
}

func TestPublisherVisible(t *testing.T) {
	target, messages := newCapturingTarget(t)
	publisher, err := NewPublisher([]string{target}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}

	publisher.Visible(true)
	if msg := receive(t, messages); msg.Arguments[0] != int32(1) {
		t.Errorf("visible on = %v, want 1", msg.Arguments)
	}
	publisher.Visible(false)
	if msg := receive(t, messages); msg.Arguments[0] != int32(0) {
		t.Errorf("visible off = %v, want 0", msg.Arguments)
	}
}

func TestPublisherFanOut(t *testing.T) {
	targetA, messagesA := newCapturingTarget(t)
	targetB, messagesB := newCapturingTarget(t)
	publisher, err := NewPublisher([]string{targetA, targetB}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}

	publisher.Param("speed", 1.5)
	for _, messages := range []<-chan *osc.Message{messagesA, messagesB} {
		if msg := receive(t, messages); msg.Address != AddrParamPrefix+"speed" {
			t.Errorf("address = %q", msg.Address)
		}
	}
}

func TestNewPublisherRejectsBadTarget(t *testing.T) {
	for _, target := range []string{"no-port", "127.0.0.1:notaport"} {
		if _, err := NewPublisher([]string{target}, logging.NewNop()); err == nil {
			t.Errorf("target %q: expected error", target)
		}
	}
	// Sanity: a valid target parses.
	if _, err := NewPublisher([]string{net.JoinHostPort("127.0.0.1", strconv.Itoa(10000))}, logging.NewNop()); err != nil {
		t.Errorf("valid target rejected: %v", err)
	}
}
