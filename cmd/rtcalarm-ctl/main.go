package main

import "github.com/oshokin/rtc-alarm/cmd/rtcalarm-ctl/cmd"

func main() {
	cmd.Execute()
}
