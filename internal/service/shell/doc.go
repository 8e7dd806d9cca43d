// Package shell is the interactive console of rtcalarm-ctl.
package shell
