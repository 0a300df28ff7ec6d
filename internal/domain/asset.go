package domain

// Address identifies an account: a user, a marketplace, or the vault itself.
// Identity verification happens in the host environment; here an address is
// an opaque caller tag.
type Address string

// ZeroAddress is the empty address. Never a valid role holder.
const ZeroAddress Address = ""

// AssetKind identifies a fungible asset held in custody.
// NativeAsset is the chain's native currency; any other value names a
// specific fungible token.
type AssetKind string

// NativeAsset is the sentinel kind for native currency deposits.
const NativeAsset AssetKind = "native"

// TokenID identifies a non-fungible item in the external asset registry.
type TokenID uint64
