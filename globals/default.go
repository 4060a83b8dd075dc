package globals

import "github.com/hashicorp/go-hclog"

var AppLogger = hclog.New(&hclog.LoggerOptions{
	Name:  "mopad-client",
	Level: hclog.LevelFromString("INFO"),
})
