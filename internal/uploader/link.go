package uploader

import (
	"io/ioutil"
	"strings"
)

// SysfsLink checks /sys/class/net/<iface>/operstate. Wireless
// association itself is managed outside this process.
type SysfsLink struct {
	Iface string
}

func (l SysfsLink) IsUp() bool {
	bs, err := ioutil.ReadFile("/sys/class/net/" + l.Iface + "/operstate")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(bs)) == "up"
}
