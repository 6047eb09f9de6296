package payment

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var orderIDPattern = regexp.MustCompile(`^order_[0-9a-f]{24}$`)

func TestNewOrderID_Format(t *testing.T) {
	id := NewOrderID()
	require.Regexp(t, orderIDPattern, id)
}

func TestNewOrderID_PairwiseDistinct(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := NewOrderID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate order id after %d generations: %s", i, id)
		}
		seen[id] = struct{}{}
	}
}
