package pins

import (
	"github.com/sirupsen/logrus"
)

// Pin is the operation surface shared by every kind of pin.
type Pin interface {
	// Capabilities returns what the hardware behind the pin can do
	Capabilities() Capabilities

	// Attributes returns the attributes requested by the pin declaration
	Attributes() Attributes

	// Mode returns the attributes applied by the last Configure
	Mode() Attributes

	// Configure validates and applies a requested mode
	Configure(requested Attributes) error

	// Write sets the logical level of an output pin
	Write(level Level) error

	// Read returns the logical level of the pin
	Read() Level

	// AttachInterrupt binds fn to edges on the pin
	AttachInterrupt(fn InterruptHandler, arg any, edge Edge) error

	// DetachInterrupt removes the bound handler
	DetachInterrupt() error

	String() string
}

var log = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "pins")

// SetLogger replaces the logger used for configuration events.
func SetLogger(l *logrus.Entry) {
	if l == nil {
		l = logrus.NewEntry(logrus.StandardLogger())
	}
	log = l.WithField("component", "pins")
}
