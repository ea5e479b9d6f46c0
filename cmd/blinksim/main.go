// Command blinksim runs the button/LED firmware on simulated PIO ports and
// prints every LED transition.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/denisbrodbeck/machineid"
	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pioblink/bus"
	"pioblink/services/blinker"
	"pioblink/services/board"
	"pioblink/services/board/setups"
	"pioblink/services/bridge"
	"pioblink/x/logx"
)

var (
	opts = struct {
		press       []int
		scale       float64
		setupFile   string
		count       int
		halfMs      uint32
		interactive bool
		mqtt        string
		color       bool
		debug       bool
	}{}

	rootCmd = &cobra.Command{
		Use:   "blinksim",
		Short: "Run the blinker on simulated ports",
		Long: "Build the host board on simulated PIO ports, press the requested buttons " +
			"and print the LED transitions on a virtual clock.",
		SilenceUsage: true,
		RunE:         run,
	}
)

func init() {
	f := rootCmd.Flags()
	f.IntSliceVarP(&opts.press, "press", "p", nil, "Buttons to press, 1-based (e.g. 1,3)")
	f.Float64VarP(&opts.scale, "scale", "s", 1, "Wall time per virtual millisecond; 0 runs flat out")
	f.StringVar(&opts.setupFile, "setup", "", "YAML board setup to use instead of the built-in host wiring")
	f.IntVar(&opts.count, "count", 0, "Blinks per press (default 5)")
	f.Uint32Var(&opts.halfMs, "half-ms", 0, "On and off time of one blink in ms (default 200)")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "Start a shell to press and release buttons")
	f.StringVar(&opts.mqtt, "mqtt", "", "Forward blinker telemetry to this MQTT broker (tcp://host:1883)")
	f.BoolVar(&opts.color, "color", true, "Colour LED transitions")
	f.BoolVar(&opts.debug, "debug", false, "Debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logx.SetOutput(os.Stderr)
	if opts.debug {
		logx.SetLevel(logx.LevelDebug)
	}

	setup := setups.Host
	if opts.setupFile != "" {
		s, err := loadSetup(opts.setupFile)
		if err != nil {
			return err
		}
		setup = s
	}

	out := io.Writer(os.Stdout)
	if opts.color {
		out = colorable.NewColorableStdout()
	}
	m, err := newSim(setup, out, opts.scale, opts.color)
	if err != nil {
		return err
	}
	defer m.halt()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.mqtt != "" {
		startBridge(ctx, m, setup.Name, opts.mqtt)
	}

	cfg := blinker.Config{Count: opts.count, HalfPeriodMs: opts.halfMs}
	if opts.interactive {
		return runShell(ctx, m, cfg)
	}

	presses, err := parsePresses(opts.press, len(m.board.Pairs))
	if err != nil {
		return err
	}
	n, err := m.runOnce(ctx, presses, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d pair(s) blinked in %dms\n", n, m.elapsed())
	return nil
}

func loadSetup(path string) (board.Setup, error) {
	var s board.Setup
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	if len(s.Clocks) == 0 {
		s = setups.WithPIOClocks(s)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

var bridgeConfigTopic = bus.T("config", "bridge")

// startBridge forwards blinker telemetry to an MQTT broker under
// pioblink/<setup>/.
func startBridge(ctx context.Context, m *sim, setupName, broker string) {
	conn := m.bus.NewConnection("bridge")
	go bridge.Start(ctx, conn)
	conn.Publish(conn.NewMessage(bridgeConfigTopic, bridge.Config{
		Transport: bridge.TransportConfig{
			Type: "mqtt",
			MQTT: &bridge.MQTTConfig{Broker: broker, ClientID: clientID()},
		},
		Prefix: "pioblink/" + setupName + "/",
	}, true))
}

// clientID is stable per machine without exposing the raw machine id.
func clientID() string {
	id, err := machineid.ProtectedID("pioblink")
	if err != nil || len(id) < 12 {
		return "blinksim"
	}
	return "blinksim-" + id[:12]
}
