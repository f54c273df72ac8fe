package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelFor(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, LabelFor(0.9))
	assert.Equal(t, ConfidenceHigh, LabelFor(0.7))
	assert.Equal(t, ConfidenceMedium, LabelFor(0.5))
	assert.Equal(t, ConfidenceLow, LabelFor(0.1))
}

func TestTopByPrice(t *testing.T) {
	sales := []Sale{
		{ID: "a", Price: 100}, {ID: "b", Price: 900}, {ID: "c", Price: 500},
		{ID: "d", Price: 700}, {ID: "e", Price: 300},
	}
	top := TopByPrice(sales, 4)

	var ids []string
	for _, s := range top {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"b", "d", "c", "e"}, ids)
	assert.Equal(t, "a", sales[0].ID, "input untouched")
	assert.Len(t, TopByPrice(sales[:2], 4), 2)
}
