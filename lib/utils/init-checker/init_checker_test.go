package initchecker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type provider interface{ Name() string }

type impl struct{}

func (i *impl) Name() string { return "impl" }

func TestCheckInit(t *testing.T) {
	t.Run(`initialized dependencies pass`, func(t *testing.T) {
		var p provider = &impl{}
		require.NotPanics(t, func() { CheckInit("provider", p, "value", 1) })
	})

	t.Run(`nil interface panics with its name`, func(t *testing.T) {
		var p provider
		require.PanicsWithValue(t, "superset dependency not initialized", func() { CheckInit("superset", p) })
	})

	t.Run(`typed nil panics`, func(t *testing.T) {
		var ptr *impl
		var p provider = ptr
		require.PanicsWithValue(t, "credentials dependency not initialized", func() { CheckInit("credentials", p) })
	})

	t.Run(`odd pairs panic`, func(t *testing.T) {
		require.Panics(t, func() { CheckInit("only-name") })
	})
}
