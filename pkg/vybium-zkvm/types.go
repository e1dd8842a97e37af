package vybiumzkvm

import (
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/backend"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/bigint"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/core"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/executor"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/guest"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/host"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/prover"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/receipt"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/utils"
)

// ImageID identifies a guest program
type ImageID = core.ImageID

// Digest is a SHA3-256 digest
type Digest = core.Digest

// Claim is the public statement a seal proves
type Claim = core.Claim

// Program is a guest program
type Program = guest.Program

// GuestEnv is the channel a guest program talks to the host through
type GuestEnv = guest.Env

// EnvBuilder collects input segments on the host
type EnvBuilder = host.EnvBuilder

// Env is a frozen host environment
type Env = host.Env

// Session is the result of executing without proving
type Session = executor.Session

// Receipt is the proof artifact of a run
type Receipt = receipt.Receipt

// Journal is the public output of a run
type Journal = receipt.Journal

// Seal is the proof part of a receipt
type Seal = backend.Seal

// SealKind names a proof backend
type SealKind = backend.SealKind

// Verifier checks receipts
type Verifier = receipt.Verifier

// VerifyItem pairs a receipt with its expected image ID
type VerifyItem = receipt.Item

// Job is one run for ProveAll
type Job = prover.Job

// Result is the outcome of one Job
type Result = prover.Result

// Stage is a proving step reported to observers
type Stage = prover.Stage

// Config is the zkVM configuration
type Config = utils.Config

// RsaArray is a 4096-bit unsigned integer for the coprocessor
type RsaArray = bigint.RsaArray

// Accelerator serves coprocessor calls on the host
type Accelerator = bigint.Accelerator

// Blob is a parsed coprocessor relation
type Blob = bigint.Blob

// Witness is the per-step evidence an accelerator returns
type Witness = bigint.Witness

// Seal kinds.
const (
	KindDev     = backend.KindDev
	KindGroth16 = backend.KindGroth16
)

// Proving stages.
const (
	StageExecute = prover.StageExecute
	StageProve   = prover.StageProve
	StageDone    = prover.StageDone
)
