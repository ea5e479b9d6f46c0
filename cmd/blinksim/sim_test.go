package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"

	"pioblink/drivers/pmc"
	"pioblink/services/blinker"
	"pioblink/services/board/setups"
)

func newTestSim(t *testing.T) (*sim, *bytes.Buffer) {
	var buf bytes.Buffer
	m, err := newSim(setups.Host, &buf, 0, false)
	require.NoError(t, err)
	return m, &buf
}

func TestRunOnce_PrintsTransitions(t *testing.T) {
	m, buf := newTestSim(t)

	n, err := m.runOnce(context.Background(), []int{2}, blinker.Config{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.EqualValues(t, 2000, m.elapsed())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 10)
	require.Equal(t, []string{"0ms", "pair2", "PC30", "ON"}, strings.Fields(lines[0]))
	require.Equal(t, []string{"200ms", "pair2", "PC30", "off"}, strings.Fields(lines[1]))
	require.Equal(t, []string{"1800ms", "pair2", "PC30", "off"}, strings.Fields(lines[9]))
}

func TestRunOnce_PairsInOrder(t *testing.T) {
	m, buf := newTestSim(t)

	n, err := m.runOnce(context.Background(), []int{1, 3}, blinker.Config{Count: 1, HalfPeriodMs: 10})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	out := buf.String()
	require.Less(t, strings.Index(out, "pair1"), strings.Index(out, "pair3"))
	require.NotContains(t, out, "pair2")
	require.EqualValues(t, 40, m.elapsed())
}

func TestRunOnce_NoPressNoOutput(t *testing.T) {
	m, buf := newTestSim(t)
	n, err := m.runOnce(context.Background(), nil, blinker.Config{})
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, buf.String())
}

func TestPressReleaseStatus(t *testing.T) {
	m, _ := newTestSim(t)

	require.NoError(t, m.press(3))
	st := m.status()
	require.Len(t, st, 3)
	require.Contains(t, st[2], "button PA19=on")
	require.Contains(t, st[0], "button PD28=off")

	require.NoError(t, m.release(3))
	require.Contains(t, m.status()[2], "button PA19=off")

	require.Error(t, m.press(0))
	require.Error(t, m.release(4))
}

func TestHalt_LeavesLEDsLow(t *testing.T) {
	m, _ := newTestSim(t)
	require.NoError(t, m.board.Status.Out(gpio.High))
	require.NoError(t, m.board.Pairs[0].LED.Out(gpio.High))

	m.halt()
	require.Equal(t, gpio.Low, m.board.Status.Read())
	for _, p := range m.board.Pairs {
		require.Equal(t, gpio.Low, p.LED.Read(), p.Name)
	}
}

func TestParsePresses(t *testing.T) {
	got, err := parsePresses([]int{3, 1, 3}, 3)
	require.NoError(t, err)
	require.Equal(t, []int{1, 3}, got)

	_, err = parsePresses([]int{4}, 3)
	require.Error(t, err)
}

func TestLoadSetup(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
name: bench
status_led: PC8
pairs:
  - {name: left, button: PA1, led: PA2}
  - {name: right, button: PB1, led: PB2}
`), 0o644))

	s, err := loadSetup(good)
	require.NoError(t, err)
	require.Equal(t, "bench", s.Name)
	require.Len(t, s.Pairs, 2)
	require.Equal(t, "PB2", s.Pairs[1].LED)
	require.Equal(t, []uint8{pmc.IDPIOC, pmc.IDPIOA, pmc.IDPIOB}, s.Clocks)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: empty\n"), 0o644))
	_, err = loadSetup(bad)
	require.Error(t, err)
}

func TestClientID(t *testing.T) {
	require.True(t, strings.HasPrefix(clientID(), "blinksim"))
}
