package transport

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/crypto/hkdf"
)

// initialSalt is the fixed, publicly-known salt used to derive Initial
// packet protection keys (spec §1: not TLS 1.3 record crypto, but the
// QUIC-defined Initial secret derivation all implementations share so that
// Initial packets are decryptable without completing the handshake).
var initialSalt = []byte{
	0xc3, 0xee, 0xf7, 0x12, 0xc7, 0x2e, 0xbb, 0x5a,
	0x11, 0xa7, 0xd2, 0x43, 0x2b, 0xb4, 0x63, 0x65,
	0xbe, 0xf9, 0xf5, 0x02,
}

const (
	aeadKeyLen    = 16
	aeadIVLen     = 12
	aeadSampleLen = 16
)

// aeadContext is a single directional AEAD + header-protection context.
type aeadContext struct {
	aead    cipher.AEAD
	iv      []byte
	hpBlock cipher.Block
}

func newAEADContext(secret []byte) aeadContext {
	key := hkdfExpandLabel(secret, "quic key", aeadKeyLen)
	iv := hkdfExpandLabel(secret, "quic iv", aeadIVLen)
	hp := hkdfExpandLabel(secret, "quic hp", aeadKeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		panic(err)
	}
	hpBlock, err := aes.NewCipher(hp)
	if err != nil {
		panic(err)
	}
	return aeadContext{aead: aead, iv: iv, hpBlock: hpBlock}
}

// nonce XORs the packet number into the derived IV, per RFC 9001 §5.3.
func (c *aeadContext) nonce(packetNumber uint64) []byte {
	n := make([]byte, len(c.iv))
	copy(n, c.iv)
	var pn [8]byte
	binary.BigEndian.PutUint64(pn[:], packetNumber)
	for i := 0; i < 8; i++ {
		n[len(n)-8+i] ^= pn[i]
	}
	return n
}

func (c *aeadContext) seal(dst, plaintext, ad []byte, packetNumber uint64) []byte {
	return c.aead.Seal(dst, c.nonce(packetNumber), plaintext, ad)
}

func (c *aeadContext) open(dst, ciphertext, ad []byte, packetNumber uint64) ([]byte, error) {
	return c.aead.Open(dst, c.nonce(packetNumber), ciphertext, ad)
}

func (c *aeadContext) overhead() int { return c.aead.Overhead() }

// headerProtectionMask computes the 5-byte AES-ECB mask used to protect the
// packet-number length bits and packet number itself.
func (c *aeadContext) headerProtectionMask(sample []byte) [5]byte {
	var out [5]byte
	var block [aes.BlockSize]byte
	c.hpBlock.Encrypt(block[:], sample)
	copy(out[:], block[:5])
	return out
}

// initialAEAD holds the client and server Initial directional contexts
// derived from a single connection ID, per RFC 9001 §5.2.
type initialAEAD struct {
	client aeadContext
	server aeadContext
}

func (a *initialAEAD) init(connID []byte) {
	initialSecret := hkdf.Extract(sha256.New, connID, initialSalt)
	clientSecret := hkdfExpandLabel(initialSecret, "client in", sha256.Size)
	serverSecret := hkdfExpandLabel(initialSecret, "server in", sha256.Size)
	a.client = newAEADContext(clientSecret)
	a.server = newAEADContext(serverSecret)
}

// hkdfExpandLabel implements the TLS 1.3 / QUIC HKDF-Expand-Label construct
// (RFC 8446 §7.1) used throughout RFC 9001's key schedule.
func hkdfExpandLabel(secret []byte, label string, length int) []byte {
	fullLabel := "tls13 " + label
	info := make([]byte, 0, 2+1+len(fullLabel)+1)
	info = append(info, byte(length>>8), byte(length))
	info = append(info, byte(len(fullLabel)))
	info = append(info, fullLabel...)
	info = append(info, 0) // no context
	out := make([]byte, length)
	r := hkdf.Expand(sha256.New, secret, info)
	if _, err := r.Read(out); err != nil {
		panic(err)
	}
	return out
}

// resetTokenFor derives the stateless reset token a server proves possession
// of for a given local CID, keyed by the server's persisted reset secret
// (spec §4.1 stateless reset, §8 scenario 6).
func resetTokenFor(resetKey []byte, cid []byte) [ResetTokenSize]byte {
	out := hkdfExpandLabel(resetKey, "quic stateless reset "+string(cid), ResetTokenSize)
	var token [ResetTokenSize]byte
	copy(token[:], out)
	return token
}

// ResetToken derives the stateless reset token a server endpoint should embed
// in its local transport parameters for a connection identified by cid, so a
// driver can populate Config.Params.StatelessResetToken before calling
// Accept without reimplementing the key schedule.
func ResetToken(keys *ListenKeys, cid []byte) []byte {
	if keys == nil {
		return nil
	}
	token := resetTokenFor(keys.Reset[:], cid)
	return token[:]
}

// retryIntegrityKey/Nonce are the fixed AEAD key/nonce used to authenticate
// Retry packets (RFC 9001 §5.8); distinct per QUIC version in real
// deployments, fixed here since retry-token cookies beyond stateless reset
// are a declared non-goal (spec §1).
var (
	retryIntegrityKey   = []byte{0xbe, 0x0c, 0x69, 0x0b, 0x9f, 0x66, 0x57, 0x5a, 0x1d, 0x76, 0x6b, 0x54, 0xe3, 0x68, 0xc8, 0x4e}
	retryIntegrityNonce = []byte{0x46, 0x15, 0x99, 0xd3, 0x5d, 0x63, 0x2b, 0xf2, 0x23, 0x98, 0x25, 0xbb}
)

func computeRetryIntegrityTag(pseudoPacket []byte) []byte {
	block, err := aes.NewCipher(retryIntegrityKey)
	if err != nil {
		panic(err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		panic(err)
	}
	return aead.Seal(nil, retryIntegrityNonce, nil, pseudoPacket)
}

func verifyRetryIntegrity(packet []byte, odcid []byte) bool {
	if len(packet) < 16 {
		return false
	}
	body := packet[:len(packet)-16]
	tag := packet[len(packet)-16:]
	pseudo := make([]byte, 0, len(odcid)+1+len(body))
	pseudo = append(pseudo, byte(len(odcid)))
	pseudo = append(pseudo, odcid...)
	pseudo = append(pseudo, body...)
	want := computeRetryIntegrityTag(pseudo)
	if len(want) != len(tag) {
		return false
	}
	diff := byte(0)
	for i := range want {
		diff |= want[i] ^ tag[i]
	}
	return diff == 0
}
