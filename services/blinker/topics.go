package blinker

import "pioblink/bus"

func topicConfig() bus.Topic { return bus.T("config", "blinker") }
func topicState() bus.Topic  { return bus.T("blinker", "state") }

// blinker/<pair>/...
func pairBase(pair string) bus.Topic       { return bus.T("blinker", pair) }
func pairValue(pair string) bus.Topic      { return pairBase(pair).Append("value") }
func pairButton(pair string) bus.Topic     { return pairBase(pair).Append("button") }
func pairEvent(pair, tag string) bus.Topic { return pairBase(pair).Append("event", tag) }
