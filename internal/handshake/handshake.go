// Package handshake implements the ephemeral ECDH key agreement and
// HKDF-SHA256 key schedule from spec.md §4.2: derive per-session
// {encryption_key, hmac_key} with transcript binding. Every failure here is
// fatal — the socket closes without an encrypted error reply (spec.md §4.2,
// §7).
package handshake

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/rawblock/fishshoot-engine/internal/wire"
	"golang.org/x/crypto/hkdf"
)

// ClientNonceSize, ServerNonceSize, SaltSize, SessionIDSize match the sizes
// implied by spec.md §6's fixed HANDSHAKE_REQUEST/RESPONSE payload lengths.
const (
	ClientNonceSize = 32
	ServerNonceSize = 32
	SaltSize        = 32
	SessionIDSize   = 16

	// UncompressedP256PointSize is the 65-byte uncompressed SEC1 encoding of
	// a P-256 public key (0x04 || X[32] || Y[32]).
	UncompressedP256PointSize = 65
)

const kdfInfoSuffix = "fishshoot-v2 session keys"

// ClientHello is the parsed HANDSHAKE_REQUEST payload (spec.md §4.2).
type ClientHello struct {
	PublicKey    [UncompressedP256PointSize]byte
	ClientNonce  [ClientNonceSize]byte
	ProtoVersion uint8
}

// ServerHello is the HANDSHAKE_RESPONSE payload the server sends back.
type ServerHello struct {
	PublicKey   [UncompressedP256PointSize]byte
	ServerNonce [ServerNonceSize]byte
	Salt        [SaltSize]byte
	SessionID   [SessionIDSize]byte
}

// Result bundles the derived session keys with the negotiated ServerHello,
// for the caller to both reply to the client and bind to the new Session.
type Result struct {
	Keys   wire.SessionKeys
	Server ServerHello
}

// Negotiate runs the server side of the handshake: generates an ephemeral
// P-256 keypair, computes the ECDH shared secret against the client's public
// key, binds a transcript, and derives {encryption_key, hmac_key} via
// HKDF-SHA256 per RFC 5869.
func Negotiate(hello ClientHello) (Result, error) {
	if hello.ProtoVersion != wire.ProtoVersion {
		return Result{}, fmt.Errorf("handshake: unsupported client proto_version %d", hello.ProtoVersion)
	}

	curve := ecdh.P256()
	clientPub, err := curve.NewPublicKey(hello.PublicKey[:])
	if err != nil {
		return Result{}, fmt.Errorf("handshake: invalid client public key: %w", err)
	}

	serverPriv, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return Result{}, fmt.Errorf("handshake: ephemeral keygen failed: %w", err)
	}
	serverPub := serverPriv.PublicKey()

	shared, err := serverPriv.ECDH(clientPub)
	if err != nil {
		return Result{}, fmt.Errorf("handshake: ecdh failed: %w", err)
	}

	var serverNonce [ServerNonceSize]byte
	var salt [SaltSize]byte
	var sessionID [SessionIDSize]byte
	for _, b := range [][]byte{serverNonce[:], salt[:], sessionID[:]} {
		if _, err := rand.Read(b); err != nil {
			return Result{}, fmt.Errorf("handshake: rng failure: %w", err)
		}
	}

	var serverPubBytes [UncompressedP256PointSize]byte
	copy(serverPubBytes[:], serverPub.Bytes())

	transcript := transcriptHash(hello.PublicKey[:], serverPubBytes[:], hello.ClientNonce[:], serverNonce[:], hello.ProtoVersion)

	keys, err := deriveKeys(shared, salt[:], transcript[:])
	if err != nil {
		return Result{}, err
	}

	return Result{
		Keys: keys,
		Server: ServerHello{
			PublicKey:   serverPubBytes,
			ServerNonce: serverNonce,
			Salt:        salt,
			SessionID:   sessionID,
		},
	}, nil
}

// transcriptHash computes transcript = SHA256(client_pub || server_pub ||
// client_nonce || server_nonce || proto_version), binding the key schedule
// to both parties' contributions (spec.md §4.2).
func transcriptHash(clientPub, serverPub, clientNonce, serverNonce []byte, protoVersion uint8) [sha256.Size]byte {
	h := sha256.New()
	h.Write(clientPub)
	h.Write(serverPub)
	h.Write(clientNonce)
	h.Write(serverNonce)
	h.Write([]byte{protoVersion})
	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// deriveKeys runs HKDF-SHA256(ikm=shared, salt=salt, info=transcript ||
// "fishshoot-v2 session keys", L=64) and splits the output into the
// encryption and hmac keys.
func deriveKeys(ikm, salt, transcript []byte) (wire.SessionKeys, error) {
	info := make([]byte, 0, len(transcript)+len(kdfInfoSuffix))
	info = append(info, transcript...)
	info = append(info, []byte(kdfInfoSuffix)...)

	reader := hkdf.New(sha256.New, ikm, salt, info)
	var out [64]byte
	if _, err := io.ReadFull(reader, out[:]); err != nil {
		return wire.SessionKeys{}, fmt.Errorf("handshake: hkdf expand failed: %w", err)
	}

	var keys wire.SessionKeys
	copy(keys.EncryptionKey[:], out[:32])
	copy(keys.HMACKey[:], out[32:64])
	return keys, nil
}
