package observability

import (
	"testing"
	"time"

	"github.com/danmuck/respkit/internal/testutil/testlog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordCommand("GET", StatusOK, 12*time.Millisecond)
	RecordCommand("SET", StatusTransportError, 3*time.Millisecond)
	RecordPipeline(StatusOK, 4)
	RecordConnection()
	RecordServerCommand("PING", StatusOK)
}
