package logger

const (
	Main   = "main"
	Probe  = "probe"
	DHCP   = "dhcp"
	OSUtil = "osutil"
)
