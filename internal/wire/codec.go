// Package wire implements the length-framed binary wire protocol (spec.md
// §4.1): header parse/emit, the packet-id whitelist and size policy
// (packet_ids.go), and the CRC32 / AES-256-GCM / HMAC-SHA256 receive and send
// pipelines.
package wire

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// HeaderSize is the fixed 19-byte header: u8 version, u16 packet_id,
// u32 payload_length, u32 crc32, u64 nonce.
const HeaderSize = 1 + 2 + 4 + 4 + 8

// GCMTagSize is the AES-GCM authentication tag length.
const GCMTagSize = 16

// HMACSize is the trailing HMAC-SHA256 size.
const HMACSize = sha256.Size

// ProtoVersion is the only accepted protocol version (spec.md §4.1).
const ProtoVersion uint8 = 2

// Header is the fixed 19-byte frame header.
type Header struct {
	Version uint8
	PacketID uint16
	Length   uint32 // L, the encrypted payload length in bytes (excludes tag/hmac)
	CRC32    uint32
	Nonce    uint64
}

// Encode writes the header in the wire's big-endian layout.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = h.Version
	binary.BigEndian.PutUint16(buf[1:3], h.PacketID)
	binary.BigEndian.PutUint32(buf[3:7], h.Length)
	binary.BigEndian.PutUint32(buf[7:11], h.CRC32)
	binary.BigEndian.PutUint64(buf[11:19], h.Nonce)
	return buf
}

// DecodeHeader parses the fixed header from the front of buf.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, newErr(CodeInvalidPacket, "frame shorter than header size")
	}
	return Header{
		Version:  buf[0],
		PacketID: binary.BigEndian.Uint16(buf[1:3]),
		Length:   binary.BigEndian.Uint32(buf[3:7]),
		CRC32:    binary.BigEndian.Uint32(buf[7:11]),
		Nonce:    binary.BigEndian.Uint64(buf[11:19]),
	}, nil
}

// SessionKeys are the per-session encryption and authentication keys derived
// by the handshake key schedule (spec.md §4.2).
type SessionKeys struct {
	EncryptionKey [32]byte
	HMACKey       [32]byte
}

// gcmIV derives the 12-byte AES-GCM IV from the frame nonce: be_u64(nonce) ||
// u32(0), per spec.md §4.1 step 4.
func gcmIV(nonce uint64) []byte {
	iv := make([]byte, 12)
	binary.BigEndian.PutUint64(iv[0:8], nonce)
	return iv
}

// Encrypt produces the "Encrypted Payload L || GCM tag" segment for a
// plaintext payload under the session's encryption key and the given nonce.
// The returned slice has length len(plaintext)+GCMTagSize.
func Encrypt(keys SessionKeys, nonce uint64, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(keys.EncryptionKey[:])
	if err != nil {
		return nil, fmt.Errorf("wire: aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, 12)
	if err != nil {
		return nil, fmt.Errorf("wire: gcm: %w", err)
	}
	return gcm.Seal(nil, gcmIV(nonce), plaintext, nil), nil
}

// decrypt inverts Encrypt, validating the GCM tag.
func decrypt(keys SessionKeys, nonce uint64, ciphertextAndTag []byte) ([]byte, error) {
	block, err := aes.NewCipher(keys.EncryptionKey[:])
	if err != nil {
		return nil, newErr(CodeDecryptionFailed, "aes cipher init failed")
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, 12)
	if err != nil {
		return nil, newErr(CodeDecryptionFailed, "gcm init failed")
	}
	plaintext, err := gcm.Open(nil, gcmIV(nonce), ciphertextAndTag, nil)
	if err != nil {
		return nil, newErr(CodeDecryptionFailed, "gcm tag verification failed")
	}
	return plaintext, nil
}

// computeCRC32 is CRC32 over header[0..11] || ciphertext || gcm_tag (spec.md
// §4.1 step 2) — header[0..11] is version+packet_id+length+crc32, with the
// crc32 field itself held at its zero placeholder value, exactly as it reads
// at the point Encode computes the real checksum. Decode must recompute over
// the same zeroed placeholder rather than the received (non-zero) crc32
// bytes, or the checksum can never match.
func computeCRC32(headerPrefix, ciphertextAndTag []byte) uint32 {
	crc := crc32.NewIEEE()
	crc.Write(headerPrefix)
	crc.Write(ciphertextAndTag)
	return crc.Sum32()
}

// computeHMAC is HMAC-SHA256(hmac_key, header || ciphertext || gcm_tag)
// (spec.md §4.1 step 3).
func computeHMAC(hmacKey [32]byte, header, ciphertextAndTag []byte) []byte {
	mac := hmac.New(sha256.New, hmacKey[:])
	mac.Write(header)
	mac.Write(ciphertextAndTag)
	return mac.Sum(nil)
}

// Frame is a fully parsed, decrypted, authenticated inbound packet.
type Frame struct {
	Header  Header
	Payload []byte
}

// Decode runs the full receive pipeline from spec.md §4.1 against a raw
// frame: header parse, whitelist+size check, CRC32, HMAC, AES-GCM decrypt,
// and nonce monotonicity against lastClientNonce. Every failure is fatal —
// the caller must close the connection. On success it returns the parsed
// Frame and the nonce to store as the new watermark.
func Decode(raw []byte, keys SessionKeys, lastClientNonce uint64) (Frame, uint64, error) {
	if len(raw) < HeaderSize+GCMTagSize+HMACSize {
		return Frame{}, lastClientNonce, newErr(CodeInvalidPacket, "frame too short for header+tag+hmac")
	}

	header, err := DecodeHeader(raw)
	if err != nil {
		return Frame{}, lastClientNonce, err
	}
	if header.Version != ProtoVersion {
		return Frame{}, lastClientNonce, newErr(CodeInvalidPacket, "unsupported protocol version")
	}
	if err := ValidateIDAndSize(header.PacketID, header.Length); err != nil {
		return Frame{}, lastClientNonce, err
	}

	ciphertextEnd := HeaderSize + int(header.Length) + GCMTagSize
	if len(raw) != ciphertextEnd+HMACSize {
		return Frame{}, lastClientNonce, newErr(CodeInvalidPacket, "frame length inconsistent with declared payload length")
	}

	headerBytes := raw[:HeaderSize]
	ciphertextAndTag := raw[HeaderSize:ciphertextEnd]
	trailingHMAC := raw[ciphertextEnd:]

	crcPrefix := bytes.Clone(headerBytes[:11])
	binary.BigEndian.PutUint32(crcPrefix[7:11], 0)
	if computeCRC32(crcPrefix, ciphertextAndTag) != header.CRC32 {
		return Frame{}, lastClientNonce, newErr(CodeInvalidChecksum, "crc32 mismatch")
	}

	expectedHMAC := computeHMAC(keys.HMACKey, headerBytes, ciphertextAndTag)
	if subtle.ConstantTimeCompare(expectedHMAC, trailingHMAC) != 1 {
		return Frame{}, lastClientNonce, newErr(CodeInvalidHMAC, "hmac mismatch")
	}

	plaintext, err := decrypt(keys, header.Nonce, ciphertextAndTag)
	if err != nil {
		return Frame{}, lastClientNonce, err
	}

	if header.Nonce <= lastClientNonce {
		return Frame{}, lastClientNonce, newErr(CodeInvalidNonce, "nonce is not greater than watermark")
	}

	return Frame{Header: header, Payload: plaintext}, header.Nonce, nil
}

// EncodeUnencrypted frames a handshake packet (HANDSHAKE_REQUEST/RESPONSE):
// header plus plaintext payload, CRC32-protected but neither encrypted nor
// HMAC'd, since no session key exists yet to do either with (spec.md §4.2
// treats the handshake as its own stage ahead of the encrypted transport).
// nonce has no replay-protection meaning here; callers pass 0.
func EncodeUnencrypted(packetID uint16, payload []byte) []byte {
	header := Header{Version: ProtoVersion, PacketID: packetID, Length: uint32(len(payload))}
	headerBytes := header.Encode()
	header.CRC32 = computeCRC32(headerBytes[:11], payload)
	binary.BigEndian.PutUint32(headerBytes[7:11], header.CRC32)

	out := make([]byte, 0, len(headerBytes)+len(payload))
	out = append(out, headerBytes...)
	out = append(out, payload...)
	return out
}

// DecodeUnencrypted parses a handshake frame produced by EncodeUnencrypted,
// validating the header, the packet-id whitelist/size policy, and the
// CRC32, but performing no decryption or HMAC check.
func DecodeUnencrypted(raw []byte) (Frame, error) {
	if len(raw) < HeaderSize {
		return Frame{}, newErr(CodeInvalidPacket, "handshake frame shorter than header size")
	}
	header, err := DecodeHeader(raw)
	if err != nil {
		return Frame{}, err
	}
	if header.Version != ProtoVersion {
		return Frame{}, newErr(CodeInvalidPacket, "unsupported protocol version")
	}
	if err := ValidateIDAndSize(header.PacketID, header.Length); err != nil {
		return Frame{}, err
	}
	if len(raw) != HeaderSize+int(header.Length) {
		return Frame{}, newErr(CodeInvalidPacket, "handshake frame length inconsistent with declared payload length")
	}
	payload := raw[HeaderSize:]
	crcPrefix := bytes.Clone(raw[:11])
	binary.BigEndian.PutUint32(crcPrefix[7:11], 0)
	if computeCRC32(crcPrefix, payload) != header.CRC32 {
		return Frame{}, newErr(CodeInvalidChecksum, "crc32 mismatch")
	}
	return Frame{Header: header, Payload: payload}, nil
}

// Encode runs the full send pipeline: encrypt, build header (with caller
// supplied CRC32 left zero until computed), compute CRC32 and HMAC, and
// concatenate the complete outbound frame.
func Encode(packetID uint16, serverNonce uint64, keys SessionKeys, plaintext []byte) ([]byte, error) {
	ciphertextAndTag, err := Encrypt(keys, serverNonce, plaintext)
	if err != nil {
		return nil, err
	}

	header := Header{
		Version:  ProtoVersion,
		PacketID: packetID,
		Length:   uint32(len(plaintext)),
		Nonce:    serverNonce,
	}
	headerBytes := header.Encode()
	header.CRC32 = computeCRC32(headerBytes[:11], ciphertextAndTag)
	binary.BigEndian.PutUint32(headerBytes[7:11], header.CRC32)

	mac := computeHMAC(keys.HMACKey, headerBytes, ciphertextAndTag)

	out := make([]byte, 0, len(headerBytes)+len(ciphertextAndTag)+len(mac))
	out = append(out, headerBytes...)
	out = append(out, ciphertextAndTag...)
	out = append(out, mac...)
	return out, nil
}
