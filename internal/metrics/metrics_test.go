package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_ObserveMark(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveMark("marked", 120*time.Millisecond)
	r.ObserveMark("marked", time.Second)
	r.ObserveMark("already_marked", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.marks.WithLabelValues("marked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.marks.WithLabelValues("already_marked")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.duration))
}
