package main

import (
	"context"
	"time"

	"pioblink/bus"
	"pioblink/services/blinker"
	"pioblink/services/board"
	"pioblink/services/board/platform"
	"pioblink/services/board/setups"
	"pioblink/services/bridge"
	"pioblink/services/config"
	"pioblink/services/heartbeat"
	"pioblink/x/logx"
)

var log = logx.New("main")

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	ctx := context.Background()

	plat, err := platform.Open()
	if err != nil {
		halt("platform open failed", err)
	}
	log.Info("boot", "platform", plat.Name(), "setup", setups.Selected.Name)

	b := bus.NewBus(4)
	cfgConn := b.NewConnection("config")
	cctx := context.WithValue(ctx, config.CtxDeviceKey, setups.Selected.Name)
	if err := config.NewConfigService().Publish(cctx, cfgConn); err != nil {
		log.Warn("running with defaults", "err", err)
	}

	brd, err := board.Init(setups.Selected, plat)
	if err != nil {
		halt("board init failed", err)
	}

	_ = heartbeat.New(0).Start(ctx, b.NewConnection("heartbeat"))
	// Idle until the device config names a link.
	go bridge.Start(ctx, b.NewConnection("bridge"))

	// Never returns with a background context.
	_ = blinker.New(brd, b.NewConnection("blinker"), blinker.Config{}).Run(ctx)
}

// halt parks the firmware after a fatal boot error; there is nothing to
// return to on a microcontroller.
func halt(msg string, err error) {
	for {
		log.Error(msg, "err", err)
		time.Sleep(5 * time.Second)
	}
}
