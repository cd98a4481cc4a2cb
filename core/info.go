package core

import (
	"fmt"

	"github.com/tidwall/pretty"
)

type NonSecretConf struct {
	DevMode              bool
	DisableStdoutLog     bool
	EnableFileLog        bool
	LogDir               string
	LogLevel             string
	LogRotationMaxDays   int
	SettingPath          string
	QueueMaxSize         int
	QueueRefillThreshold int
	ProgressLogPeriod    int
}

type Info struct {
	Conf *NonSecretConf
}

var CurrentInfo *Info

func SetInfo(c *Conf) {
	conf := &NonSecretConf{
		DevMode:              c.DevMode,
		DisableStdoutLog:     c.DisableStdoutLog,
		EnableFileLog:        c.EnableFileLog,
		LogDir:               c.LogDir,
		LogLevel:             c.LogLevel,
		LogRotationMaxDays:   c.LogRotationMaxDays,
		SettingPath:          c.SettingPath,
		QueueMaxSize:         c.QueueMaxSize,
		QueueRefillThreshold: c.QueueRefillThreshold,
		ProgressLogPeriod:    c.ProgressLogPeriod,
	}

	CurrentInfo = &Info{
		Conf: conf,
	}
}

func (i *Info) String() string {
	st, err := jsonIter.Marshal(i)
	if err != nil {
		return fmt.Sprintf("failed to marshal info/reason:%s", err)
	}
	return string(pretty.Pretty(st))
}
