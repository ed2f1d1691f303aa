package handshake

import "github.com/rawblock/fishshoot-engine/internal/wire"

// Encode lays out a ClientHello as the 98-byte HANDSHAKE_REQUEST payload:
// public_key[65] || client_nonce[32] || proto_version[1].
func (h ClientHello) Encode() []byte {
	buf := make([]byte, 98)
	copy(buf[0:65], h.PublicKey[:])
	copy(buf[65:97], h.ClientNonce[:])
	buf[97] = h.ProtoVersion
	return buf
}

// DecodeClientHello parses a HANDSHAKE_REQUEST payload. This is the one
// packet accepted before any session keys exist, so it is never run through
// the AES-GCM/HMAC pipeline — spec.md §4.2 treats the handshake as its own
// protocol stage ahead of the encrypted transport.
func DecodeClientHello(buf []byte) (ClientHello, error) {
	if len(buf) != 98 {
		return ClientHello{}, wireErr("HANDSHAKE_REQUEST payload must be 98 bytes")
	}
	var h ClientHello
	copy(h.PublicKey[:], buf[0:65])
	copy(h.ClientNonce[:], buf[65:97])
	h.ProtoVersion = buf[97]
	return h, nil
}

// Encode lays out a ServerHello as the 145-byte HANDSHAKE_RESPONSE payload:
// public_key[65] || server_nonce[32] || salt[32] || session_id[16].
func (h ServerHello) Encode() []byte {
	buf := make([]byte, 145)
	copy(buf[0:65], h.PublicKey[:])
	copy(buf[65:97], h.ServerNonce[:])
	copy(buf[97:129], h.Salt[:])
	copy(buf[129:145], h.SessionID[:])
	return buf
}

// DecodeServerHello parses a HANDSHAKE_RESPONSE payload (used by clients and
// by tests exercising the full round trip).
func DecodeServerHello(buf []byte) (ServerHello, error) {
	if len(buf) != 145 {
		return ServerHello{}, wireErr("HANDSHAKE_RESPONSE payload must be 145 bytes")
	}
	var h ServerHello
	copy(h.PublicKey[:], buf[0:65])
	copy(h.ServerNonce[:], buf[65:97])
	copy(h.Salt[:], buf[97:129])
	copy(h.SessionID[:], buf[129:145])
	return h, nil
}

func wireErr(msg string) error {
	return &wire.Error{Code: wire.CodeInvalidHandshake, Message: msg}
}
