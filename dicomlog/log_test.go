package dicomlog

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLevelByName(t *testing.T) {
	defer SetLevel(Level())
	defer logrus.SetLevel(logrus.GetLevel())

	tests := []struct {
		name  string
		level int
		lr    logrus.Level
	}{
		{"debug", 2, logrus.DebugLevel},
		{"TRACE", 2, logrus.TraceLevel},
		{" info ", 1, logrus.InfoLevel},
		{"", 1, logrus.InfoLevel},
		{"warn", 0, logrus.WarnLevel},
		{"none", -1, logrus.PanicLevel},
	}
	for _, test := range tests {
		require.NoError(t, SetLevelByName(test.name), test.name)
		assert.Equal(t, test.level, Level(), test.name)
		assert.Equal(t, test.lr, logrus.GetLevel(), test.name)
	}
	assert.Error(t, SetLevelByName("loud"))
}
