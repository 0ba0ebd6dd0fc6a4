package pool

import "github.com/bnclabs/golog"

func init() {
	setts := map[string]interface{}{
		"log.level": "warn",
		"log.file":  "",
	}
	log.SetLogger(nil, setts)
	LogComponents("self")
}
