package board

import "pioblink/errcode"

// Setup is the wiring of one board: which pins carry the LEDs and buttons
// and which peripheral clocks must run before they can be configured.
type Setup struct {
	Name      string      `yaml:"name"`
	StatusLED string      `yaml:"status_led,omitempty"` // optional LED driven low at start-up and left alone
	Clocks    []uint8     `yaml:"clocks,omitempty"`     // peripheral ids to enable; empty on chips without gating
	Pairs     []PairSetup `yaml:"pairs"`
}

// PairSetup wires one button to one LED. Buttons are active-low.
type PairSetup struct {
	Name   string `yaml:"name"`
	Button string `yaml:"button"`
	LED    string `yaml:"led"`
}

// Validate checks the parts of a setup that do not need a platform.
func (s Setup) Validate() error {
	if len(s.Pairs) == 0 {
		return errcode.Wrap("board.setup", errcode.InvalidParams, "no pairs")
	}
	seen := make(map[string]bool, len(s.Pairs))
	for _, p := range s.Pairs {
		if p.Name == "" || p.Button == "" || p.LED == "" {
			return errcode.Wrap("board.setup", errcode.InvalidParams, "incomplete pair "+p.Name)
		}
		if seen[p.Name] {
			return errcode.Wrap("board.setup", errcode.InvalidParams, "duplicate pair "+p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
