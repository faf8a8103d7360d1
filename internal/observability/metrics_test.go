package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTransfer(t *testing.T) {
	migrated := testutil.ToFloat64(recordsTotal.WithLabelValues("workout", "migrated"))
	failedBefore := testutil.ToFloat64(recordsTotal.WithLabelValues("workout", "failed"))

	RecordTransfer("workout", true)
	RecordTransfer("workout", true)
	RecordTransfer("workout", false)

	assert.Equal(t, migrated+2, testutil.ToFloat64(recordsTotal.WithLabelValues("workout", "migrated")))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(recordsTotal.WithLabelValues("workout", "failed")))
}

func TestRecordRun(t *testing.T) {
	before := testutil.ToFloat64(runsTotal.WithLabelValues(RunPartial))
	RecordRun(RunPartial)
	assert.Equal(t, before+1, testutil.ToFloat64(runsTotal.WithLabelValues(RunPartial)))
}
