package handshake

import (
	"crypto/ecdh"
	"crypto/rand"
	"testing"

	"github.com/rawblock/fishshoot-engine/internal/wire"
)

func TestNegotiateDerivesMatchingKeys(t *testing.T) {
	curve := ecdh.P256()
	clientPriv, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("client keygen: %v", err)
	}

	var hello ClientHello
	copy(hello.PublicKey[:], clientPriv.PublicKey().Bytes())
	if _, err := rand.Read(hello.ClientNonce[:]); err != nil {
		t.Fatal(err)
	}
	hello.ProtoVersion = wire.ProtoVersion

	result, err := Negotiate(hello)
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}

	// Client-side derivation must match: ECDH(client_priv, server_pub).
	serverPub, err := curve.NewPublicKey(result.Server.PublicKey[:])
	if err != nil {
		t.Fatalf("parse server pub: %v", err)
	}
	clientShared, err := clientPriv.ECDH(serverPub)
	if err != nil {
		t.Fatalf("client ecdh: %v", err)
	}

	transcript := transcriptHash(hello.PublicKey[:], result.Server.PublicKey[:], hello.ClientNonce[:], result.Server.ServerNonce[:], hello.ProtoVersion)
	clientKeys, err := deriveKeys(clientShared, result.Server.Salt[:], transcript[:])
	if err != nil {
		t.Fatalf("client derive: %v", err)
	}

	if clientKeys.EncryptionKey != result.Keys.EncryptionKey {
		t.Fatal("encryption keys diverge between client and server derivation")
	}
	if clientKeys.HMACKey != result.Keys.HMACKey {
		t.Fatal("hmac keys diverge between client and server derivation")
	}
}

func TestNegotiateRejectsWrongVersion(t *testing.T) {
	var hello ClientHello
	hello.ProtoVersion = wire.ProtoVersion + 1
	if _, err := Negotiate(hello); err == nil {
		t.Fatal("expected rejection of unsupported proto_version")
	}
}

func TestHelloPayloadRoundTrip(t *testing.T) {
	var hello ClientHello
	copy(hello.PublicKey[:], bytesOf(65, 0x11))
	copy(hello.ClientNonce[:], bytesOf(32, 0x22))
	hello.ProtoVersion = 2

	encoded := hello.Encode()
	if len(encoded) != 98 {
		t.Fatalf("encoded length = %d, want 98", len(encoded))
	}
	decoded, err := DecodeClientHello(encoded)
	if err != nil {
		t.Fatalf("DecodeClientHello: %v", err)
	}
	if decoded != hello {
		t.Fatal("client hello round trip mismatch")
	}

	server := ServerHello{PublicKey: hello.PublicKey, ServerNonce: hello.ClientNonce}
	copy(server.Salt[:], bytesOf(32, 0x33))
	copy(server.SessionID[:], bytesOf(16, 0x44))
	sEncoded := server.Encode()
	if len(sEncoded) != 145 {
		t.Fatalf("server encoded length = %d, want 145", len(sEncoded))
	}
	sDecoded, err := DecodeServerHello(sEncoded)
	if err != nil {
		t.Fatalf("DecodeServerHello: %v", err)
	}
	if sDecoded != server {
		t.Fatal("server hello round trip mismatch")
	}
}

func bytesOf(n int, b byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
