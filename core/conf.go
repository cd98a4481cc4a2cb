package core

type Conf struct {
	Version              string `long:"version" description:"version of the simulator" env:"QSIM_VERSION"`
	DevMode              bool   `long:"dev-mode" description:"run in dev mode" env:"QSIM_DEV_MODE"`
	DisableStdoutLog     bool   `long:"disable-stdout-log" description:"do not log in standard output" env:"QSIM_DISABLE_STDOUT_LOG"`
	EnableFileLog        bool   `long:"enable-file-log" description:"enable log in file" env:"QSIM_ENABLE_FILE_LOG"`
	LogDir               string `long:"log-dir" description:"rotating log file dir" default:"./shares/logs" env:"QSIM_LOG_DIR"`
	LogLevel             string `long:"log-level" description:"log level" default:"warn" choice:"debug" choice:"info" choice:"warn" choice:"error" env:"QSIM_LOG_LEVEL"`
	LogRotationMaxDays   int    `long:"log-rotation-max-days" description:"max days of log rotation" default:"7" env:"QSIM_LOG_ROTATION_MAX_DAYS"`
	SettingPath          string `long:"setting-path" description:"setting file path" default:"./setting/setting.toml" env:"QSIM_SETTING_PATH"`
	QueueMaxSize         int    `long:"queue-max-size" description:"queue max size" default:"100" env:"QSIM_QUEUE_MAX_SIZE"`
	QueueRefillThreshold int    `long:"queue-refill-threshold" description:"queue refill threshold" default:"10" env:"QSIM_QUEUE_REFILL_THRESHOLD"`
	ProgressLogPeriod    int    `long:"progress-log-period" description:"seconds between progress logs of a batch" default:"5" env:"QSIM_PROGRESS_LOG_PERIOD"`
}
