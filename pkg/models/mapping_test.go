package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeKeepsExistingKeys(t *testing.T) {
	m := AccountMapping{"1234": "9"}
	added := m.Merge(AccountMapping{"1234": "10", "5678": "11"})

	assert.Equal(t, 1, added)
	assert.Equal(t, AccountMapping{"1234": "9", "5678": "11"}, m)
}

func TestLookupIgnoresEmptyAssets(t *testing.T) {
	m := AccountMapping{"1234": "9", "5678": ""}

	id, ok := m.Lookup("1234")
	assert.True(t, ok)
	assert.Equal(t, AssetID("9"), id)

	_, ok = m.Lookup("5678")
	assert.False(t, ok)
	_, ok = m.Lookup("0000")
	assert.False(t, ok)
}

func TestReverse(t *testing.T) {
	m := AccountMapping{"b": "1", "a": "1", "c": "2"}
	assert.Equal(t, map[AssetID]string{"1": "a", "2": "c"}, m.Reverse())
}

func TestAssetDisplayName(t *testing.T) {
	assert.Equal(t, "Chequing (TD)", Asset{Name: "Chequing", InstitutionName: "TD"}.DisplayName())
	assert.Equal(t, "Cash", Asset{Name: "Cash"}.DisplayName())
	assert.Equal(t, "cash/checking", Asset{TypeName: "cash", SubtypeName: "checking"}.Kind())
}
