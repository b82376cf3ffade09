package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainArgs    = "irdiff/args/v1"
	DomainProgram = "irdiff/program/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ArgsDigest returns the content-addressed identity of an argument tuple
// for a named function. Two tuples that format identically for the same
// function share a digest, which lets the store deduplicate counterexamples
// across runs.
func ArgsDigest(function string, args Args) string {
	return hashWithDomain(DomainArgs, []byte(function+"\x00"+args.String()))
}

// ProgramDigest returns the content-addressed identity of program source.
func ProgramDigest(source []byte) string {
	return hashWithDomain(DomainProgram, source)
}
