package machine

import (
	"github.com/sirupsen/logrus"

	"gopin/pins"
)

var log = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "machine")

// SetLogger replaces the logger used during bring-up.
func SetLogger(l *logrus.Entry) {
	if l == nil {
		l = logrus.NewEntry(logrus.StandardLogger())
	}
	log = l.WithField("component", "machine")
}

// Signals are the configured pins of a machine, by signal name.
type Signals struct {
	names []string
	pins  map[string]pins.Pin
	roles map[string]Role
}

// Get returns the pin for a signal.
func (s *Signals) Get(name string) (pins.Pin, bool) {
	p, ok := s.pins[name]
	return p, ok
}

// Role returns the role a signal was configured for.
func (s *Signals) Role(name string) Role { return s.roles[name] }

// Names returns the signal names in bring-up order.
func (s *Signals) Names() []string { return s.names }

// ByRole returns the signals with the given role, in name order.
func (s *Signals) ByRole(r Role) []string {
	var out []string
	for _, name := range s.names {
		if s.roles[name] == r {
			out = append(out, name)
		}
	}
	return out
}

// Attributes returns the mode a pin with role r is configured for.
func (r Role) Attributes() pins.Attributes {
	switch r {
	case RoleLimit, RoleProbe:
		return pins.AttrInput | pins.AttrISR
	default:
		return pins.AttrOutput
	}
}

// Bringup claims and configures every signal of cfg on board, in name
// order. It stops at the first failure; pins claimed before it stay
// claimed.
func Bringup(board *pins.Board, cfg *Config) (*Signals, error) {
	s := &Signals{
		pins:  make(map[string]pins.Pin, len(cfg.Signals)),
		roles: make(map[string]Role, len(cfg.Signals)),
	}

	for _, name := range cfg.SignalNames() {
		sig := cfg.Signals[name]
		if !sig.Role.Valid() {
			return nil, &ConfigError{Signal: name, Err: ErrUnknownRole}
		}

		p, err := board.Claim(name, sig.Pin)
		if err != nil {
			return nil, &ConfigError{Signal: name, Err: err}
		}

		_, void := p.(*pins.VoidPin)
		if sig.Role.NeedsPWM() && !void && !p.Capabilities().Has(pins.CapPWM) {
			return nil, &ConfigError{Signal: name, Err: ErrNeedsPWM}
		}

		if err := p.Configure(sig.Role.Attributes()); err != nil {
			return nil, &ConfigError{Signal: name, Err: err}
		}

		s.names = append(s.names, name)
		s.pins[name] = p
		s.roles[name] = sig.Role

		log.WithFields(logrus.Fields{
			"machine": cfg.Name,
			"signal":  name,
			"pin":     p.String(),
			"role":    string(sig.Role),
		}).Debug("Signal ready")
	}

	log.WithFields(logrus.Fields{
		"machine": cfg.Name,
		"signals": len(s.names),
	}).Info("Machine pins configured")
	return s, nil
}
