// Package addr composes and decomposes the 29-bit extended CAN arbitration
// identifier used by this vendor family (component C6).
package addr

// VendorID is the fixed 8-bit vendor id for this device family.
const VendorID = 0x0E

// Masks for filtering frames by arbitration id.
const (
	// MaskDeviceTypeVendor matches on device_type and vendor_id only.
	MaskDeviceTypeVendor uint32 = 0x1FFF_0000
	// MaskAllButAPIIndex matches everything except the api_index field.
	MaskAllButAPIIndex uint32 = 0x1FFF_003F
)

// ID holds the decomposed fields of a 29-bit extended CAN identifier:
//
//	bits 28..24 : device_type (5)
//	bits 23..16 : vendor_id   (8)
//	bits 15..6  : api_index   (10), of which the low 5 bits are the message id
//	bits  5..0  : device_id   (6)
type ID struct {
	DeviceType uint8
	VendorID   uint8
	APIIndex   uint16
	DeviceID   uint8
}

// Compose packs an ID into its 29-bit wire representation.
func Compose(id ID) uint32 {
	return (uint32(id.DeviceType)&0x1F)<<24 |
		(uint32(id.VendorID)&0xFF)<<16 |
		(uint32(id.APIIndex)&0x3FF)<<6 |
		(uint32(id.DeviceID) & 0x3F)
}

// Decompose unpacks a 29-bit wire identifier into its fields.
func Decompose(raw uint32) ID {
	return ID{
		DeviceType: uint8((raw >> 24) & 0x1F),
		VendorID:   uint8((raw >> 16) & 0xFF),
		APIIndex:   uint16((raw >> 6) & 0x3FF),
		DeviceID:   uint8(raw & 0x3F),
	}
}

// ComposeMessage builds the arbitration id for a message addressed to a
// specific device instance: vendor id is fixed to VendorID, and api_index
// is the message id (the low 5 bits of the 10-bit field; the high bits are
// reserved for future multi-index expansion and left zero here).
func ComposeMessage(devType uint8, deviceID uint8, messageID uint16) uint32 {
	return Compose(ID{
		DeviceType: devType,
		VendorID:   VendorID,
		APIIndex:   messageID,
		DeviceID:   deviceID,
	})
}

// BroadcastDeviceType is the reserved device_type for broadcast identifiers.
const BroadcastDeviceType uint8 = 0
