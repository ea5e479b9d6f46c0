package main

import (
	"context"
	"errors"
	"strconv"

	"github.com/abiosoft/ishell"

	"pioblink/services/blinker"
)

const simKey = "$sim"

func simFrom(c *ishell.Context) *sim { return c.Get(simKey).(*sim) }

// withButton parses the first argument as a 1-based button number.
func withButton(name string, fn func(m *sim, n int) error) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if len(c.Args) != 1 {
			c.Err(errors.New("usage: " + name + " N"))
			return
		}
		n, err := strconv.Atoi(c.Args[0])
		if err != nil {
			c.Err(err)
			return
		}
		if err := fn(simFrom(c), n); err != nil {
			c.Err(err)
		}
	}
}

var (
	pressCmd = ishell.Cmd{
		Name:    "press",
		Aliases: []string{"p"},
		Help:    "N - hold button N down",
		Func:    withButton("press", (*sim).press),
	}

	releaseCmd = ishell.Cmd{
		Name:    "release",
		Aliases: []string{"r"},
		Help:    "N - let go of button N",
		Func:    withButton("release", (*sim).release),
	}

	statusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"s"},
		Help:    "show buttons and LEDs",
		Func: func(c *ishell.Context) {
			for _, line := range simFrom(c).status() {
				c.Println(line)
			}
		},
	}
)

// runShell runs the blinker loop in the background and reads commands
// until the shell exits or ctx ends.
func runShell(ctx context.Context, m *sim, cfg blinker.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc := m.blinker(cfg)
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()

	sh := ishell.New()
	sh.Set(simKey, m)
	sh.SetPrompt("blinksim > ")
	sh.AddCmd(&pressCmd)
	sh.AddCmd(&releaseCmd)
	sh.AddCmd(&statusCmd)
	sh.Println("buttons 1.." + strconv.Itoa(len(m.board.Pairs)) + "; type help for commands")

	go func() {
		<-ctx.Done()
		sh.Close()
	}()
	sh.Run()

	cancel()
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
