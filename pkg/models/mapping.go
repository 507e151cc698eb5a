package models

import "sort"

// AccountMapping maps statement account ids to budgeting service asset ids.
type AccountMapping map[string]AssetID

// Lookup returns the asset mapped to a file account.
func (m AccountMapping) Lookup(accountID string) (AssetID, bool) {
	id, ok := m[accountID]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Merge adds the given pairs without touching keys that are already mapped.
// It returns how many pairs were added.
func (m AccountMapping) Merge(additions AccountMapping) int {
	added := 0
	for k, v := range additions {
		if _, exists := m[k]; exists {
			continue
		}
		m[k] = v
		added++
	}
	return added
}

// Reverse maps asset ids back to file account ids. When several file accounts
// share an asset the lexically smallest account id wins.
func (m AccountMapping) Reverse() map[AssetID]string {
	keys := m.Keys()
	out := make(map[AssetID]string, len(m))
	for _, k := range keys {
		if _, seen := out[m[k]]; !seen {
			out[m[k]] = k
		}
	}
	return out
}

// Keys returns the mapped file account ids in sorted order.
func (m AccountMapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

