package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProgram = "foldr/program/v1"
	DomainInput   = "foldr/input/v1"
	DomainRun     = "foldr/run/v1"
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

// ProgramHash computes the content-addressed identity of a program.
// Two programs with the same definition and steps hash identically
// regardless of the key order or whitespace they were authored with.
func ProgramHash(p *Program) (string, error) {
	v, err := ProgramValue(p)
	if err != nil {
		return "", fmt.Errorf("ProgramHash: %w", err)
	}
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ProgramHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// InputHash computes the content-addressed identity of an input document.
func InputHash(inputs IRValue) (string, error) {
	canonical, err := MarshalCanonical(inputs)
	if err != nil {
		return "", fmt.Errorf("InputHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInput, canonical), nil
}

// RunID computes the identity of one recorded execution.
// The session and seq keep repeated executions of the same program and
// inputs distinct in the run log.
func RunID(session, programHash, inputHash string, seq int64) (string, error) {
	obj := IRObject{
		"session":      IRString(session),
		"program_hash": IRString(programHash),
		"input_hash":   IRString(inputHash),
		"seq":          IRNumber(seq),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RunID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRun, canonical), nil
}

// MustProgramHash is like ProgramHash but panics on error.
// Use only in tests or when the program is known to be valid.
func MustProgramHash(p *Program) string {
	h, err := ProgramHash(p)
	if err != nil {
		panic(err)
	}
	return h
}
