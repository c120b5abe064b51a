package nostr

// Event kinds used by the catalog.
const (
	KindDeletion               = 5
	KindReaction               = 7
	KindListHeader             = 9998
	KindListItem               = 9999
	KindTrustedProviders       = 10040
	KindTrustedAssertionPubkey = 30382
	KindListHeaderAddressable  = 39998
	KindListItemAddressable    = 39999
)

// ListItemKinds are the kinds a catalog entry may be published as.
var ListItemKinds = []int{KindListItem, KindListItemAddressable}

// IsReplaceable reports whether relays keep only the latest event per (pubkey, kind).
func IsReplaceable(kind int) bool {
	return kind == 0 || kind == 3 || (kind >= 10000 && kind < 20000)
}

// IsAddressable reports whether relays keep only the latest event per (pubkey, kind, d tag).
func IsAddressable(kind int) bool {
	return kind >= 30000 && kind < 40000
}
