package hal

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBackendAlwaysTerminatesOnScalar(t *testing.T) {
	d, err := SelectBackend(0)
	require.NoError(t, err)
	assert.Equal(t, "scalar", d.Name)
	assert.Equal(t, Features(0), d.RequiredFeatures)
}

func TestSelectBackendPrefersHigherPriority(t *testing.T) {
	tableMu.Lock()
	table = append(table, &BackendDescriptor{
		Name:             "test-high",
		Priority:         1000,
		RequiredFeatures: FeatureAVX2,
		VecDotI2I8:       VecDotI2I8ScalarBlocks,
		QuantizeI2:       QuantizeI2Scalar,
		GemvI2I8:         GemvI2I8Scalar,
		GemmI2I8:         GemmI2I8Scalar,
	})
	tableMu.Unlock()

	d, err := SelectBackend(FeatureAVX2)
	require.NoError(t, err)
	assert.Equal(t, "test-high", d.Name)

	d2, err := SelectBackend(0)
	require.NoError(t, err)
	assert.Equal(t, "scalar", d2.Name)
}

func TestActivateShutsDownPrevious(t *testing.T) {
	var shutdownCalls int
	tableMu.Lock()
	table = append(table, &BackendDescriptor{
		Name:             "test-shutdown-a",
		Priority:         2000,
		RequiredFeatures: 0,
		VecDotI2I8:       VecDotI2I8ScalarBlocks,
		QuantizeI2:       QuantizeI2Scalar,
		GemvI2I8:         GemvI2I8Scalar,
		GemmI2I8:         GemmI2I8Scalar,
		Shutdown:         func() { shutdownCalls++ },
	})
	table = append(table, &BackendDescriptor{
		Name:             "test-shutdown-b",
		Priority:         3000,
		RequiredFeatures: 0,
		VecDotI2I8:       VecDotI2I8ScalarBlocks,
		QuantizeI2:       QuantizeI2Scalar,
		GemvI2I8:         GemvI2I8Scalar,
		GemmI2I8:         GemmI2I8Scalar,
	})
	tableMu.Unlock()
	defer ShutdownActive()

	_, err := Activate(0)
	require.NoError(t, err)
	assert.Equal(t, "test-shutdown-b", Active().Name)

	_, err = Activate(0)
	require.NoError(t, err)
	// The second Activate call re-selects test-shutdown-b (still
	// highest priority). Demote it so the next switch makes
	// test-shutdown-a active, then demote test-shutdown-a so the
	// switch after that has to invoke test-shutdown-a's hook.
	tableMu.Lock()
	for _, d := range table {
		if d.Name == "test-shutdown-b" {
			d.Priority = -1
		}
	}
	tableMu.Unlock()

	_, err = Activate(0)
	require.NoError(t, err)
	assert.Equal(t, "test-shutdown-a", Active().Name)
	assert.Equal(t, 0, shutdownCalls)

	tableMu.Lock()
	for _, d := range table {
		if d.Name == "test-shutdown-a" {
			d.Priority = -1
		}
	}
	tableMu.Unlock()

	_, err = Activate(0)
	require.NoError(t, err)
	assert.Equal(t, 1, shutdownCalls)
}

func TestSelectBackendFallsBackOnInitFailure(t *testing.T) {
	tableMu.Lock()
	table = append(table, &BackendDescriptor{
		Name:             "test-broken",
		Priority:         5000,
		RequiredFeatures: 0,
		Init:             func() error { return assertErr },
		VecDotI2I8:       VecDotI2I8ScalarBlocks,
		QuantizeI2:       QuantizeI2Scalar,
		GemvI2I8:         GemvI2I8Scalar,
		GemmI2I8:         GemmI2I8Scalar,
	})
	tableMu.Unlock()

	d, err := SelectBackend(0)
	require.NoError(t, err)
	assert.NotEqual(t, "test-broken", d.Name)
}

var assertErr = &initFailure{}

type initFailure struct{}

func (*initFailure) Error() string { return "init failed" }

func TestFeaturesHasAndString(t *testing.T) {
	f := FeatureAVX | FeatureAVX2
	assert.True(t, f.Has(FeatureAVX))
	assert.True(t, f.Has(FeatureAVX2))
	assert.False(t, f.Has(FeatureAVX512F))
	assert.Contains(t, f.String(), "AVX2")
}

func BenchmarkGemmScalar(b *testing.B) {
	r := rand.New(rand.NewSource(42))
	inFeatures := 1024
	outFeatures := 32
	batchSize := 8

	rows := make([][]Block, outFeatures)
	for i := range rows {
		rows[i] = QuantizeRow(randWeights(inFeatures, r))
	}
	batch := make([][]int8, batchSize)
	for i := range batch {
		batch[i] = randActivations(inFeatures, r)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = GemmI2I8Scalar(rows, inFeatures, batch)
	}
}
