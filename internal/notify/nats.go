package notify

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is used when no NATS subject is configured
const DefaultSubject = "tridex.events"

// Publisher is the part of *nats.Conn the notifier needs
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes every event as JSON on a subject. Publishing is
// buffered by the NATS client, so a slow or absent server never stalls the
// pipeline; failed publishes are only counted.
type NATSNotifier struct {
	pub     Publisher
	subject string
	dropped uint64
}

// NewNATSNotifier creates a notifier publishing to subject
func NewNATSNotifier(pub Publisher, subject string) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSNotifier{pub: pub, subject: subject}
}

func (n *NATSNotifier) Notify(e Event) {
	data, err := e.JSON()
	if err != nil {
		n.dropped++
		return
	}
	if err := n.pub.Publish(n.subject+"."+e.Kind.String(), data); err != nil {
		n.dropped++
	}
}

// Dropped returns how many events could not be published
func (n *NATSNotifier) Dropped() uint64 {
	return n.dropped
}

// ConnectNATS opens a connection suitable for fire-and-forget event
// publishing
func ConnectNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("tridex"),
		nats.Timeout(5*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return conn, nil
}
