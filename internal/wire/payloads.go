package wire

import (
	"encoding/binary"
	"math"
)

// Fixed field widths from spec.md §4.1 / §6.
const (
	PlayerIDSize   = 16
	RoomCodeSize   = 6
	PlayerNameSize = 32
)

func putFloat32(dst []byte, v float32) { binary.BigEndian.PutUint32(dst, math.Float32bits(v)) }
func getFloat32(src []byte) float32    { return math.Float32frombits(binary.BigEndian.Uint32(src)) }

// ShotFiredPayload is packet 0x0010, C→S, 53 bytes:
// player_id(16) weapon_id(u16) target_x(f32) target_z(f32) seq(u32) client_ts(u64) bullet_id(u32) cost_fp(u64) weapon_switch_pad... (reserved to pad to 53)
//
// Layout: player_id[16] weapon_id[2] target_x[4] target_z[4] seq[4] client_ts[8] bullet_id[4] cost_fp[8] reserved[3] = 53
type ShotFiredPayload struct {
	PlayerID string
	WeaponID uint16
	TargetX  float32
	TargetZ  float32
	Seq      uint32
	ClientTS uint64
	BulletID uint32
	CostFP   uint64
}

func (p ShotFiredPayload) Encode() []byte {
	buf := make([]byte, 53)
	putFixedString(buf[0:16], p.PlayerID)
	binary.BigEndian.PutUint16(buf[16:18], p.WeaponID)
	putFloat32(buf[18:22], p.TargetX)
	putFloat32(buf[22:26], p.TargetZ)
	binary.BigEndian.PutUint32(buf[26:30], p.Seq)
	binary.BigEndian.PutUint64(buf[30:38], p.ClientTS)
	binary.BigEndian.PutUint32(buf[38:42], p.BulletID)
	binary.BigEndian.PutUint64(buf[42:50], p.CostFP)
	return buf
}

func DecodeShotFired(buf []byte) (ShotFiredPayload, error) {
	if len(buf) != 53 {
		return ShotFiredPayload{}, newErr(CodeInvalidPacket, "SHOT_FIRED payload must be 53 bytes")
	}
	return ShotFiredPayload{
		PlayerID: getFixedString(buf[0:16]),
		WeaponID: binary.BigEndian.Uint16(buf[16:18]),
		TargetX:  getFloat32(buf[18:22]),
		TargetZ:  getFloat32(buf[22:26]),
		Seq:      binary.BigEndian.Uint32(buf[26:30]),
		ClientTS: binary.BigEndian.Uint64(buf[30:38]),
		BulletID: binary.BigEndian.Uint32(buf[38:42]),
		CostFP:   binary.BigEndian.Uint64(buf[42:50]),
	}, nil
}

// HitResultPayload is packet 0x0011, S→C, variable ≥ 30:
// bullet_id(4) target_id(4) kill(u8) reward_fp(u64) reason(u8) budget_remaining_fp(i64) shots(u32) + N * (player_id[16] share_fp[8])
// There is no contributor count field; N is the remaining length divided by 24.
type HitResultPayload struct {
	BulletID          uint32
	TargetID          uint32
	Kill              bool
	RewardFP          uint64
	Reason            uint8
	BudgetRemainingFP int64
	Shots             uint32
	Contributors      []ContributorShare
}

// ContributorShare is one entry of HitResultPayload's/FishDeathPayload's
// variable contributor list.
type ContributorShare struct {
	PlayerID string
	ShareFP  uint64
}

func (p HitResultPayload) Encode() []byte {
	buf := make([]byte, 30+len(p.Contributors)*24)
	binary.BigEndian.PutUint32(buf[0:4], p.BulletID)
	binary.BigEndian.PutUint32(buf[4:8], p.TargetID)
	if p.Kill {
		buf[8] = 1
	}
	binary.BigEndian.PutUint64(buf[9:17], p.RewardFP)
	buf[17] = p.Reason
	binary.BigEndian.PutUint64(buf[18:26], uint64(p.BudgetRemainingFP))
	binary.BigEndian.PutUint32(buf[26:30], p.Shots)
	off := 30
	for _, c := range p.Contributors {
		putFixedString(buf[off:off+16], c.PlayerID)
		binary.BigEndian.PutUint64(buf[off+16:off+24], c.ShareFP)
		off += 24
	}
	return buf
}

func DecodeHitResult(buf []byte) (HitResultPayload, error) {
	if len(buf) < 30 {
		return HitResultPayload{}, newErr(CodeInvalidPacket, "HIT_RESULT payload shorter than minimum")
	}
	p := HitResultPayload{
		BulletID:          binary.BigEndian.Uint32(buf[0:4]),
		TargetID:          binary.BigEndian.Uint32(buf[4:8]),
		Kill:              buf[8] != 0,
		RewardFP:          binary.BigEndian.Uint64(buf[9:17]),
		Reason:            buf[17],
		BudgetRemainingFP: int64(binary.BigEndian.Uint64(buf[18:26])),
		Shots:             binary.BigEndian.Uint32(buf[26:30]),
	}
	rest := buf[30:]
	if len(rest)%24 != 0 {
		return HitResultPayload{}, newErr(CodeInvalidPacket, "HIT_RESULT contributor list misaligned")
	}
	for off := 0; off < len(rest); off += 24 {
		p.Contributors = append(p.Contributors, ContributorShare{
			PlayerID: getFixedString(rest[off : off+16]),
			ShareFP:  binary.BigEndian.Uint64(rest[off+16 : off+24]),
		})
	}
	return p, nil
}

// BalanceUpdatePayload is packet 0x0012, S→C, 37 bytes:
// player_id(16) balance_fp(8) delta_fp(8) reason(u8) timestamp(u32)
type BalanceUpdatePayload struct {
	PlayerID  string
	BalanceFP int64
	DeltaFP   int64
	Reason    uint8
	Timestamp uint32
}

func (p BalanceUpdatePayload) Encode() []byte {
	buf := make([]byte, 37)
	putFixedString(buf[0:16], p.PlayerID)
	binary.BigEndian.PutUint64(buf[16:24], uint64(p.BalanceFP))
	binary.BigEndian.PutUint64(buf[24:32], uint64(p.DeltaFP))
	buf[32] = p.Reason
	binary.BigEndian.PutUint32(buf[33:37], p.Timestamp)
	return buf
}

func DecodeBalanceUpdate(buf []byte) (BalanceUpdatePayload, error) {
	if len(buf) != 37 {
		return BalanceUpdatePayload{}, newErr(CodeInvalidPacket, "BALANCE_UPDATE payload must be 37 bytes")
	}
	return BalanceUpdatePayload{
		PlayerID:  getFixedString(buf[0:16]),
		BalanceFP: int64(binary.BigEndian.Uint64(buf[16:24])),
		DeltaFP:   int64(binary.BigEndian.Uint64(buf[24:32])),
		Reason:    buf[32],
		Timestamp: binary.BigEndian.Uint32(buf[33:37]),
	}, nil
}

// WeaponSwitchPayload is packet 0x0013, C→S, 25 bytes:
// player_id(16) weapon_id(u16) seq(u32) reserved(3)
type WeaponSwitchPayload struct {
	PlayerID string
	WeaponID uint16
	Seq      uint32
}

func (p WeaponSwitchPayload) Encode() []byte {
	buf := make([]byte, 25)
	putFixedString(buf[0:16], p.PlayerID)
	binary.BigEndian.PutUint16(buf[16:18], p.WeaponID)
	binary.BigEndian.PutUint32(buf[18:22], p.Seq)
	return buf
}

func DecodeWeaponSwitch(buf []byte) (WeaponSwitchPayload, error) {
	if len(buf) != 25 {
		return WeaponSwitchPayload{}, newErr(CodeInvalidPacket, "WEAPON_SWITCH payload must be 25 bytes")
	}
	return WeaponSwitchPayload{
		PlayerID: getFixedString(buf[0:16]),
		WeaponID: binary.BigEndian.Uint16(buf[16:18]),
		Seq:      binary.BigEndian.Uint32(buf[18:22]),
	}, nil
}

// FishSpawnPayload is packet 0x0021, S→C, 54 bytes:
// target_id(4) species_id(u16) tier(u8) x(f32) z(f32) vx(f32) vz(f32) rotation(f32) hp(u32) max_hp(u32) size_scale(f32) reserved(15)
type FishSpawnPayload struct {
	TargetID  uint32
	SpeciesID uint16
	Tier      uint8
	X, Z      float32
	VX, VZ    float32
	Rotation  float32
	HP, MaxHP uint32
	SizeScale float32
}

func (p FishSpawnPayload) Encode() []byte {
	buf := make([]byte, 54)
	binary.BigEndian.PutUint32(buf[0:4], p.TargetID)
	binary.BigEndian.PutUint16(buf[4:6], p.SpeciesID)
	buf[6] = p.Tier
	putFloat32(buf[7:11], p.X)
	putFloat32(buf[11:15], p.Z)
	putFloat32(buf[15:19], p.VX)
	putFloat32(buf[19:23], p.VZ)
	putFloat32(buf[23:27], p.Rotation)
	binary.BigEndian.PutUint32(buf[27:31], p.HP)
	binary.BigEndian.PutUint32(buf[31:35], p.MaxHP)
	putFloat32(buf[35:39], p.SizeScale)
	return buf
}

func DecodeFishSpawn(buf []byte) (FishSpawnPayload, error) {
	if len(buf) != 54 {
		return FishSpawnPayload{}, newErr(CodeInvalidPacket, "FISH_SPAWN payload must be 54 bytes")
	}
	return FishSpawnPayload{
		TargetID:  binary.BigEndian.Uint32(buf[0:4]),
		SpeciesID: binary.BigEndian.Uint16(buf[4:6]),
		Tier:      buf[6],
		X:         getFloat32(buf[7:11]),
		Z:         getFloat32(buf[11:15]),
		VX:        getFloat32(buf[15:19]),
		VZ:        getFloat32(buf[19:23]),
		Rotation:  getFloat32(buf[23:27]),
		HP:        binary.BigEndian.Uint32(buf[27:31]),
		MaxHP:     binary.BigEndian.Uint32(buf[31:35]),
		SizeScale: getFloat32(buf[35:39]),
	}, nil
}

// FishDeathPayload is packet 0x0022, S→C, variable ≥ 36:
// target_id(4) species_id(u16) tier(u8) reward_fp(u64) killer_player_id(16) reason(u8) contributor_count(u16) reserved(2) + contributor_count * (player_id[16] damage(u32) share_fp(u64))
type FishDeathPayload struct {
	TargetID       uint32
	SpeciesID      uint16
	Tier           uint8
	RewardFP       uint64
	KillerPlayerID string
	Reason         uint8
	Contributors   []DamageShare
}

// DamageShare is one FishDeathPayload contributor entry.
type DamageShare struct {
	PlayerID string
	Damage   uint32
	ShareFP  uint64
}

func (p FishDeathPayload) Encode() []byte {
	buf := make([]byte, 36+len(p.Contributors)*28)
	binary.BigEndian.PutUint32(buf[0:4], p.TargetID)
	binary.BigEndian.PutUint16(buf[4:6], p.SpeciesID)
	buf[6] = p.Tier
	binary.BigEndian.PutUint64(buf[7:15], p.RewardFP)
	putFixedString(buf[15:31], p.KillerPlayerID)
	buf[31] = p.Reason
	binary.BigEndian.PutUint16(buf[32:34], uint16(len(p.Contributors)))
	off := 36
	for _, c := range p.Contributors {
		putFixedString(buf[off:off+16], c.PlayerID)
		binary.BigEndian.PutUint32(buf[off+16:off+20], c.Damage)
		binary.BigEndian.PutUint64(buf[off+20:off+28], c.ShareFP)
		off += 28
	}
	return buf
}

func DecodeFishDeath(buf []byte) (FishDeathPayload, error) {
	if len(buf) < 36 {
		return FishDeathPayload{}, newErr(CodeInvalidPacket, "FISH_DEATH payload shorter than minimum")
	}
	p := FishDeathPayload{
		TargetID:       binary.BigEndian.Uint32(buf[0:4]),
		SpeciesID:      binary.BigEndian.Uint16(buf[4:6]),
		Tier:           buf[6],
		RewardFP:       binary.BigEndian.Uint64(buf[7:15]),
		KillerPlayerID: getFixedString(buf[15:31]),
		Reason:         buf[31],
	}
	count := binary.BigEndian.Uint16(buf[32:34])
	rest := buf[36:]
	if len(rest) != int(count)*28 {
		return FishDeathPayload{}, newErr(CodeInvalidPacket, "FISH_DEATH contributor count mismatch")
	}
	for off := 0; off < len(rest); off += 28 {
		p.Contributors = append(p.Contributors, DamageShare{
			PlayerID: getFixedString(rest[off : off+16]),
			Damage:   binary.BigEndian.Uint32(rest[off+16 : off+20]),
			ShareFP:  binary.BigEndian.Uint64(rest[off+20 : off+28]),
		})
	}
	return p, nil
}

// PlayerJoinPayload is packet 0x0040, S→C, 66 bytes:
// player_id(16) player_name(32) balance_fp(8) seat_index(u8) is_host(u8) reserved(8)
type PlayerJoinPayload struct {
	PlayerID   string
	PlayerName string
	BalanceFP  int64
	SeatIndex  uint8
	IsHost     bool
}

func (p PlayerJoinPayload) Encode() []byte {
	buf := make([]byte, 66)
	putFixedString(buf[0:16], p.PlayerID)
	putFixedString(buf[16:48], p.PlayerName)
	binary.BigEndian.PutUint64(buf[48:56], uint64(p.BalanceFP))
	buf[56] = p.SeatIndex
	if p.IsHost {
		buf[57] = 1
	}
	return buf
}

func DecodePlayerJoin(buf []byte) (PlayerJoinPayload, error) {
	if len(buf) != 66 {
		return PlayerJoinPayload{}, newErr(CodeInvalidPacket, "PLAYER_JOIN payload must be 66 bytes")
	}
	return PlayerJoinPayload{
		PlayerID:   getFixedString(buf[0:16]),
		PlayerName: getFixedString(buf[16:48]),
		BalanceFP:  int64(binary.BigEndian.Uint64(buf[48:56])),
		SeatIndex:  buf[56],
		IsHost:     buf[57] != 0,
	}, nil
}

// RoomCreatePayload is packet 0x0050, C→S, 41 bytes:
// player_id(16) player_name(32-ish)... Layout: player_id(16) player_name(24) reserved(1) = 41
type RoomCreatePayload struct {
	PlayerID   string
	PlayerName string
}

func (p RoomCreatePayload) Encode() []byte {
	buf := make([]byte, 41)
	putFixedString(buf[0:16], p.PlayerID)
	putFixedString(buf[16:40], p.PlayerName)
	return buf
}

func DecodeRoomCreate(buf []byte) (RoomCreatePayload, error) {
	if len(buf) != 41 {
		return RoomCreatePayload{}, newErr(CodeInvalidPacket, "ROOM_CREATE payload must be 41 bytes")
	}
	return RoomCreatePayload{
		PlayerID:   getFixedString(buf[0:16]),
		PlayerName: getFixedString(buf[16:40]),
	}, nil
}

// RoomJoinPayload is packet 0x0051, C→S, 46 bytes:
// player_id(16) player_name(24) room_code(6)
type RoomJoinPayload struct {
	PlayerID   string
	PlayerName string
	RoomCode   string
}

func (p RoomJoinPayload) Encode() []byte {
	buf := make([]byte, 46)
	putFixedString(buf[0:16], p.PlayerID)
	putFixedString(buf[16:40], p.PlayerName)
	putFixedString(buf[40:46], p.RoomCode)
	return buf
}

func DecodeRoomJoin(buf []byte) (RoomJoinPayload, error) {
	if len(buf) != 46 {
		return RoomJoinPayload{}, newErr(CodeInvalidPacket, "ROOM_JOIN payload must be 46 bytes")
	}
	return RoomJoinPayload{
		PlayerID:   getFixedString(buf[0:16]),
		PlayerName: getFixedString(buf[16:40]),
		RoomCode:   getFixedString(buf[40:46]),
	}, nil
}

// GameStartPayload is packet 0x0054, C→S, 8 bytes: room_seed(u64).
type GameStartPayload struct {
	RoomSeed uint64
}

func (p GameStartPayload) Encode() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, p.RoomSeed)
	return buf
}

func DecodeGameStart(buf []byte) (GameStartPayload, error) {
	if len(buf) != 8 {
		return GameStartPayload{}, newErr(CodeInvalidPacket, "GAME_START payload must be 8 bytes")
	}
	return GameStartPayload{RoomSeed: binary.BigEndian.Uint64(buf)}, nil
}

// TimeSyncPingPayload is packet 0x0060, C→S, 12 bytes: seq(u32) client_ts(u64).
type TimeSyncPingPayload struct {
	Seq      uint32
	ClientTS uint64
}

func (p TimeSyncPingPayload) Encode() []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint32(buf[0:4], p.Seq)
	binary.BigEndian.PutUint64(buf[4:12], p.ClientTS)
	return buf
}

func DecodeTimeSyncPing(buf []byte) (TimeSyncPingPayload, error) {
	if len(buf) != 12 {
		return TimeSyncPingPayload{}, newErr(CodeInvalidPacket, "TIME_SYNC_PING payload must be 12 bytes")
	}
	return TimeSyncPingPayload{
		Seq:      binary.BigEndian.Uint32(buf[0:4]),
		ClientTS: binary.BigEndian.Uint64(buf[4:12]),
	}, nil
}

// TimeSyncPongPayload is packet 0x0061, S→C, 20 bytes: seq(u32) client_ts(u64) server_ts(u64).
type TimeSyncPongPayload struct {
	Seq      uint32
	ClientTS uint64
	ServerTS uint64
}

func (p TimeSyncPongPayload) Encode() []byte {
	buf := make([]byte, 20)
	binary.BigEndian.PutUint32(buf[0:4], p.Seq)
	binary.BigEndian.PutUint64(buf[4:12], p.ClientTS)
	binary.BigEndian.PutUint64(buf[12:20], p.ServerTS)
	return buf
}

func DecodeTimeSyncPong(buf []byte) (TimeSyncPongPayload, error) {
	if len(buf) != 20 {
		return TimeSyncPongPayload{}, newErr(CodeInvalidPacket, "TIME_SYNC_PONG payload must be 20 bytes")
	}
	return TimeSyncPongPayload{
		Seq:      binary.BigEndian.Uint32(buf[0:4]),
		ClientTS: binary.BigEndian.Uint64(buf[4:12]),
		ServerTS: binary.BigEndian.Uint64(buf[12:20]),
	}, nil
}

// ErrorPayload is packet 0x00F0, S→C, variable ≥ 4: code(u16) msg_len(u16) msg[msg_len].
type ErrorPayload struct {
	Code    uint16
	Message string
}

func (p ErrorPayload) Encode() []byte {
	msg := []byte(p.Message)
	buf := make([]byte, 4+len(msg))
	binary.BigEndian.PutUint16(buf[0:2], p.Code)
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(msg)))
	copy(buf[4:], msg)
	return buf
}

func DecodeError(buf []byte) (ErrorPayload, error) {
	if len(buf) < 4 {
		return ErrorPayload{}, newErr(CodeInvalidPacket, "ERROR payload shorter than minimum")
	}
	n := binary.BigEndian.Uint16(buf[2:4])
	if len(buf) != 4+int(n) {
		return ErrorPayload{}, newErr(CodeInvalidPacket, "ERROR message length mismatch")
	}
	return ErrorPayload{
		Code:    binary.BigEndian.Uint16(buf[0:2]),
		Message: string(buf[4:]),
	}, nil
}
