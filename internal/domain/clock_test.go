package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestSetClock(t *testing.T) {
	frozen := time.Date(2024, time.May, 1, 19, 0, 0, 0, time.UTC)
	fake := clockwork.NewFakeClockAt(frozen)

	SetClock(fake)
	assert.Equal(t, frozen, Now())

	fake.Advance(time.Hour)
	assert.Equal(t, frozen.Add(time.Hour), Now())

	SetClock(nil)
	assert.WithinDuration(t, time.Now(), Now(), time.Second)
}
