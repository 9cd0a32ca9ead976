package meetingid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity_Deterministic(t *testing.T) {
	id1 := Identity("test@example.com", "2025-01-15T14:00:00", "Strategy Session")
	id2 := Identity("test@example.com", "2025-01-15T14:00:00", "Strategy Session")

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, DefaultLength)
}

func TestIdentity_DistinctInputsDistinctIDs(t *testing.T) {
	base := Identity("test@example.com", "2025-01-15T14:00:00", "Strategy Session")

	assert.NotEqual(t, base, Identity("other@example.com", "2025-01-15T14:00:00", "Strategy Session"))
	assert.NotEqual(t, base, Identity("test@example.com", "2025-01-16T14:00:00", "Strategy Session"))
	assert.NotEqual(t, base, Identity("test@example.com", "2025-01-15T14:00:00", "Other Session"))
}

func TestIdentityN_ClampsLength(t *testing.T) {
	assert.Len(t, IdentityN("a@b.com", "2025-01-15", "x", 0), 4)
	assert.Len(t, IdentityN("a@b.com", "2025-01-15", "x", 100), 64)
	assert.Len(t, IdentityN("a@b.com", "2025-01-15", "x", 16), 16)
}

func TestIdentityN_PrefixOfFullHash(t *testing.T) {
	long := IdentityN("a@b.com", "2025-01-15", "x", 24)
	short := IdentityN("a@b.com", "2025-01-15", "x", 12)

	assert.Equal(t, long[:12], short)
}

func TestTagRoundTrip(t *testing.T) {
	id := Identity("jane@co.com", "2025-01-15T09:00:00", "Kickoff")
	desc := "Kickoff - 2025-01-15 at 09:00 AM (1h @ $200.00/h) " + Tag(id)

	found, ok := FindTag(desc)
	assert.True(t, ok)
	assert.Equal(t, id, found)
}

func TestFindTag_NoTag(t *testing.T) {
	_, ok := FindTag("Consulting retainer - January")
	assert.False(t, ok)
}
