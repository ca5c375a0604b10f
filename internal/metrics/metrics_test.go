package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(Operations.WithLabelValues("swap", "ok"))
	ObserveOperation("swap", "ok", time.Now())
	require.Equal(t, before+1, testutil.ToFloat64(Operations.WithLabelValues("swap", "ok")))
}

func TestObserveSwap(t *testing.T) {
	before := testutil.ToFloat64(SwapFees.WithLabelValues("x"))
	ObserveSwap("x", 1000, 3)
	require.Equal(t, before+3, testutil.ToFloat64(SwapFees.WithLabelValues("x")))
}

func TestWriteTextfile(t *testing.T) {
	require.NoError(t, WriteTextfile(""))

	ObserveOperation("deposit", "ok", time.Now())
	path := filepath.Join(t.TempDir(), "metrics", "amm.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "amm_operations_total"))
}
