// Package can reassembles CAN frames from the per-byte decode table
// exported by the logic analyser and decodes the fields carried by the
// primary (GNSS) and secondary (Stahle) message identifiers.
package can

import "fmt"

// Role says what a catalogued identifier carries.
type Role int

const (
	RoleIgnored Role = iota
	RolePrimaryTime
	RolePrimaryMotion
	RolePrimaryStatus
	RoleSecondaryTime
	RoleSecondarySpeed
	RoleSecondaryHeading
)

var roleNames = map[Role]string{
	RoleIgnored:          "ignored",
	RolePrimaryTime:      "primary-time",
	RolePrimaryMotion:    "primary-motion",
	RolePrimaryStatus:    "primary-status",
	RoleSecondaryTime:    "secondary-time",
	RoleSecondarySpeed:   "secondary-speed",
	RoleSecondaryHeading: "secondary-heading",
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "unknown"
}

// Message identifiers on the bus under test.
const (
	IDPrimaryTime      uint32 = 0x301
	IDPrimaryMotion    uint32 = 0x302
	IDPrimaryStatus    uint32 = 0x303
	IDSecondaryTime    uint32 = 0x304
	IDSecondarySpeed   uint32 = 0x305
	IDSecondaryHeading uint32 = 0x306
)

// Catalog maps identifiers to roles. It is built once and only read.
type Catalog map[uint32]Role

// DefaultCatalog is the fixed set of identifiers the analysis knows.
// 0x307-0x309 and 0x314 are on the bus but carry nothing we decode.
var DefaultCatalog = Catalog{
	IDPrimaryTime:      RolePrimaryTime,
	IDPrimaryMotion:    RolePrimaryMotion,
	IDPrimaryStatus:    RolePrimaryStatus,
	IDSecondaryTime:    RoleSecondaryTime,
	IDSecondarySpeed:   RoleSecondarySpeed,
	IDSecondaryHeading: RoleSecondaryHeading,
	0x307:              RoleIgnored,
	0x308:              RoleIgnored,
	0x309:              RoleIgnored,
	0x314:              RoleIgnored,
}

// Lookup returns the role for id. ok is false for identifiers outside the
// catalog, which callers skip silently.
func (c Catalog) Lookup(id uint32) (role Role, ok bool) {
	role, ok = c[id]
	return role, ok
}

// FormatID renders id the way the export writes it.
func FormatID(id uint32) string {
	return fmt.Sprintf("0x%016X", id)
}
