package dicomlog

import (
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// level sets log verbosity. The larger the value, the more verbose.  Setting it
// to -1 disables logging completely.
var level = int32(0)

// SetLevel sets log verbosity. The larger the value, the more verbose. Setting
// it to -1 disables logging completely. Thread safe.
func SetLevel(l int) {
	atomic.StoreInt32(&level, int32(l))
}

// Level returns the current log level. The larger the value, the more verbose.
// Thread safe.
func Level() int {
	return int(atomic.LoadInt32(&level))
}

// Vprintf is shorthand for "if level > Level { log.Printf(...) }".
func Vprintf(l int, format string, args ...interface{}) {
	if Level() >= l {
		logrus.Printf(format, args...)
	}
}

// WithFile 返回带有文件名字段的logrus entry
func WithFile(name string) *logrus.Entry {
	return logrus.WithField("file", name)
}

// SetLevelByName 同时设置logrus的级别和Vprintf的verbosity
// "debug" 打开全部解码日志(verbosity 2), "info" 为1, "warn"/"error" 为0,
// "off"/"none" 为-1.
func SetLevelByName(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "off", "none":
		SetLevel(-1)
		logrus.SetLevel(logrus.PanicLevel)
		return nil
	case "":
		name = "info"
	}
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	switch {
	case lvl >= logrus.DebugLevel:
		SetLevel(2)
	case lvl == logrus.InfoLevel:
		SetLevel(1)
	default:
		SetLevel(0)
	}
	return nil
}
