package main

import "github.com/oshokin/rtc-alarm/cmd/rtcalarm-sim/cmd"

func main() {
	cmd.Execute()
}
