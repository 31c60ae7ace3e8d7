package logger

import (
	"fmt"
	"sync"

	glog "github.com/Laisky/go-utils/v5/log"
)

var (
	Logger      glog.Logger
	initLogOnce sync.Once
)

// init initializes the logger automatically when the package is imported
func init() {
	initLogger()
}

func initLogger() {
	initLogOnce.Do(func() {
		var err error
		Logger, err = glog.NewConsoleWithName("parity", glog.LevelInfo)
		if err != nil {
			panic(fmt.Sprintf("failed to create logger: %+v", err))
		}
	})
}

// SetDebug switches the process-wide logger between info and debug level.
func SetDebug(debug bool) {
	if debug {
		_ = Logger.ChangeLevel("debug")
		Logger.Debug("running in debug mode")
		return
	}
	_ = Logger.ChangeLevel("info")
}
