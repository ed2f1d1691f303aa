package wire

// Packet ids (spec.md §6 reference table), partitioned by range as described
// in spec.md §4.1: handshake 0x0001–, game action 0x0010–, game state
// 0x0020–, boss 0x0030–, player 0x0040–, room 0x0050–, time-sync 0x0060–,
// system 0x00F0–.
const (
	HandshakeRequest  uint16 = 0x0001
	HandshakeResponse uint16 = 0x0002

	ShotFired     uint16 = 0x0010
	HitResult     uint16 = 0x0011
	BalanceUpdate uint16 = 0x0012
	WeaponSwitch  uint16 = 0x0013

	RoomSnapshot uint16 = 0x0020
	FishSpawn    uint16 = 0x0021
	FishDeath    uint16 = 0x0022

	PlayerJoin uint16 = 0x0040

	RoomCreate uint16 = 0x0050
	RoomJoin   uint16 = 0x0051
	GameStart  uint16 = 0x0054

	TimeSyncPing uint16 = 0x0060
	TimeSyncPong uint16 = 0x0061

	ErrorPacket uint16 = 0x00F0
)

// SizePolicy declares either a fixed payload size or an inclusive [Min,Max]
// range for variable-size payloads (spec.md §4.1 "Size policy").
type SizePolicy struct {
	Fixed    int // exact size if non-zero and Min==Max==0
	Min, Max int // inclusive range for variable-size payloads
}

func fixed(n int) SizePolicy { return SizePolicy{Fixed: n} }
func rng(min, max int) SizePolicy { return SizePolicy{Min: min, Max: max} }

// sizePolicies is the whitelist from spec.md §6: every recognized packet id
// and its declared payload size. An id absent from this map fails receive
// with CodeUnknownPacketID.
var sizePolicies = map[uint16]SizePolicy{
	HandshakeRequest:  fixed(98),
	HandshakeResponse: fixed(145),

	ShotFired:     fixed(53),
	HitResult:     rng(30, 4096),
	BalanceUpdate: fixed(37),
	WeaponSwitch:  fixed(25),

	RoomSnapshot: rng(32, 65536),
	FishSpawn:    fixed(54),
	FishDeath:    rng(36, 4096),

	PlayerJoin: fixed(66),

	RoomCreate: fixed(41),
	RoomJoin:   fixed(46),
	GameStart:  fixed(8),

	TimeSyncPing: fixed(12),
	TimeSyncPong: fixed(20),

	ErrorPacket: rng(4, 1024),
}

// ValidateIDAndSize checks a packet id is whitelisted and its declared payload
// length L is consistent with its size policy (spec.md §4.1 "Packet-id
// whitelist", "Size policy"). On failure it returns a *Error carrying the
// fatal Code.
func ValidateIDAndSize(packetID uint16, length uint32) error {
	policy, ok := sizePolicies[packetID]
	if !ok {
		return newErr(CodeUnknownPacketID, "unrecognized packet id")
	}
	if policy.Fixed != 0 {
		if int(length) != policy.Fixed {
			if int(length) > policy.Fixed {
				return newErr(CodePayloadTooLarge, "fixed-size packet exceeds declared size")
			}
			return newErr(CodePayloadTooSmall, "fixed-size packet below declared size")
		}
		return nil
	}
	if int(length) < policy.Min {
		return newErr(CodePayloadTooSmall, "payload below declared minimum")
	}
	if int(length) > policy.Max {
		return newErr(CodePayloadTooLarge, "payload exceeds declared maximum")
	}
	return nil
}

// KnownPacketID reports whether id is part of the whitelist.
func KnownPacketID(id uint16) bool {
	_, ok := sizePolicies[id]
	return ok
}
