// Copyright 2014 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package crypto provides the signing and hashing primitives premint kinds
// need: Keccak256 for EIP-712-style digests and secp256k1 for creator
// signatures over those digests.
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"

	"github.com/btcsuite/btcd/btcec"
	"github.com/mintpool-net/premintpool/common"
	"golang.org/x/crypto/sha3"
)

// SignatureLength is a 65-byte recoverable secp256k1 signature: R || S || V.
const SignatureLength = 64 + 1

var errInvalidPubkey = errors.New("invalid secp256k1 public key")

// KeccakState wraps sha3.state, allowing Read in addition to the usual Write.
type KeccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

func NewKeccakState() KeccakState {
	return sha3.NewLegacyKeccak256().(KeccakState)
}

// Keccak256 calculates and returns the Keccak256 hash of the input data.
func Keccak256(data ...[]byte) []byte {
	b := make([]byte, 32)
	d := NewKeccakState()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(b)
	return b
}

// Keccak256Hash calculates the Keccak256 hash of data and returns it as a
// common.Hash.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	d := NewKeccakState()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(h[:])
	return h
}

// S256 returns the secp256k1 curve, the same curve EIP-712 signatures over
// premints are made against.
func S256() elliptic.Curve {
	return btcec.S256()
}

// ToECDSA creates a private key with the given D value.
func ToECDSA(d []byte) (*ecdsa.PrivateKey, error) {
	if len(d) != 32 {
		return nil, fmt.Errorf("invalid length, need 32 bytes")
	}
	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = S256()
	k, pub := btcec.PrivKeyFromBytes(btcec.S256(), d)
	priv.D = k.D
	priv.PublicKey.X, priv.PublicKey.Y = pub.X, pub.Y
	return priv, nil
}

// FromECDSA exports a private key into a 32-byte binary dump.
func FromECDSA(priv *ecdsa.PrivateKey) []byte {
	if priv == nil {
		return nil
	}
	return (*btcec.PrivateKey)(priv).Serialize()
}

// HexToECDSA parses a secp256k1 private key given as hex.
func HexToECDSA(hexkey string) (*ecdsa.PrivateKey, error) {
	b, err := hex.DecodeString(hexkey)
	if err != nil {
		return nil, errors.New("invalid hex data for private key")
	}
	return ToECDSA(b)
}

// UnmarshalPubkey converts an uncompressed secp256k1 public key blob to a
// ecdsa.PublicKey.
func UnmarshalPubkey(pub []byte) (*ecdsa.PublicKey, error) {
	x, y := elliptic.Unmarshal(S256(), pub)
	if x == nil {
		return nil, errInvalidPubkey
	}
	return &ecdsa.PublicKey{Curve: S256(), X: x, Y: y}, nil
}

func FromECDSAPub(pub *ecdsa.PublicKey) []byte {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil
	}
	return elliptic.Marshal(S256(), pub.X, pub.Y)
}

// PubkeyToAddress derives the 20-byte address a signer's public key maps to:
// the low 20 bytes of the Keccak256 hash of the uncompressed public key.
func PubkeyToAddress(p ecdsa.PublicKey) common.Address {
	pubBytes := FromECDSAPub(&p)
	return common.BytesToAddress(Keccak256(pubBytes[1:])[12:])
}

// GenerateKey generates a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(S256(), rand.Reader)
}

// Sign produces a 65-byte recoverable signature (R || S || V) over a 32-byte
// digest, the same shape an EIP-712 `eth_signTypedData` signature has.
func Sign(digest []byte, prv *ecdsa.PrivateKey) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("crypto: hash is required to be exactly 32 bytes (%d)", len(digest))
	}
	priv := btcec.PrivateKey(*prv)
	sig, err := btcec.SignCompact(btcec.S256(), &priv, digest, false)
	if err != nil {
		return nil, err
	}
	// btcec's compact format is V || R || S; re-pack as R || S || V to match
	// the Ethereum signature convention premint kinds expect.
	out := make([]byte, SignatureLength)
	copy(out, sig[1:])
	out[64] = sig[0] - 27
	return out, nil
}

// Ecrecover returns the uncompressed public key that produced the given
// signature over digest.
func Ecrecover(digest, sig []byte) ([]byte, error) {
	if len(sig) != SignatureLength {
		return nil, fmt.Errorf("crypto: invalid signature length %d", len(sig))
	}
	btcsig := make([]byte, SignatureLength)
	btcsig[0] = sig[64] + 27
	copy(btcsig[1:], sig[:64])
	pub, _, err := btcec.RecoverCompact(btcec.S256(), btcsig, digest)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// SigToPub recovers the signer's ecdsa.PublicKey from digest and sig.
func SigToPub(digest, sig []byte) (*ecdsa.PublicKey, error) {
	pub, err := Ecrecover(digest, sig)
	if err != nil {
		return nil, err
	}
	return UnmarshalPubkey(pub)
}

// VerifySignature checks that sig (R || S || V) is a valid secp256k1
// signature over digest by the holder of address.
func VerifySignature(address common.Address, digest, sig []byte) bool {
	pub, err := SigToPub(digest, sig)
	if err != nil {
		return false
	}
	return PubkeyToAddress(*pub) == address
}
